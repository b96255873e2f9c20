package handler

import (
	"github.com/gin-gonic/gin"

	appreturns "github.com/returns/backend/internal/application/returns"
	domain "github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/interfaces/http/dto"
)

// RecordHandler handles return record API endpoints
type RecordHandler struct {
	BaseHandler
	service *appreturns.Service
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(service *appreturns.Service) *RecordHandler {
	return &RecordHandler{service: service}
}

// RegisterRoutes registers record routes on the API group
func (h *RecordHandler) RegisterRoutes(rg *gin.RouterGroup) {
	records := rg.Group("/records")
	{
		records.GET("", h.List)
		records.GET("/:id", h.Get)
		records.POST("", h.Create)
		records.PUT("/:id", h.Update)
		records.POST("/:id/advance", h.Advance)
		records.POST("/:id/step-back", h.StepBack)
		records.POST("/:id/cancel", h.Cancel)
		records.DELETE("/:id", h.Delete)
	}
}

// List returns every return record in the current snapshot
func (h *RecordHandler) List(c *gin.Context) {
	h.Success(c, h.service.ListRecords())
}

// Get returns one return record
func (h *RecordHandler) Get(c *gin.Context) {
	rec, err := h.service.GetRecord(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}

// Create creates a new return record
func (h *RecordHandler) Create(c *gin.Context) {
	var req dto.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rec := req.ToRecord("")
	if err := h.service.CreateRecord(c.Request.Context(), &rec); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rec)
}

// Update replaces an existing return record
func (h *RecordHandler) Update(c *gin.Context) {
	var req dto.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	current, err := h.service.GetRecord(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	rec := req.Merge(current)
	if err := h.service.UpdateRecord(c.Request.Context(), &rec); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}

// Advance moves a record one pipeline stage forward
func (h *RecordHandler) Advance(c *gin.Context) {
	var req dto.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	id := c.Param("id")
	if err := h.service.Advance(c.Request.Context(), id, domain.ReturnStatus(req.Status), req.Date); err != nil {
		h.HandleError(c, err)
		return
	}
	rec, err := h.service.GetRecord(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}

// StepBack undoes one pipeline step. Supervisor PIN required.
func (h *RecordHandler) StepBack(c *gin.Context) {
	var req dto.SupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	id := c.Param("id")
	if err := h.service.StepBack(c.Request.Context(), id, req.Pin); err != nil {
		h.HandleError(c, err)
		return
	}
	rec, err := h.service.GetRecord(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}

// Cancel flips a record to Canceled without removing it
func (h *RecordHandler) Cancel(c *gin.Context) {
	if err := h.service.CancelRecord(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Delete removes a record for good. Supervisor PIN required.
func (h *RecordHandler) Delete(c *gin.Context) {
	pin := supervisorPin(c, "")
	if err := h.service.DeleteRecord(c.Request.Context(), c.Param("id"), pin); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
