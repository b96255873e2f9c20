package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	ncrapp "github.com/returns/backend/internal/application/ncr"
	"github.com/returns/backend/internal/interfaces/http/dto"
)

// NCRHandler handles non-conformance report API endpoints
type NCRHandler struct {
	BaseHandler
	service *ncrapp.Service
}

// NewNCRHandler creates a new NCRHandler
func NewNCRHandler(service *ncrapp.Service) *NCRHandler {
	return &NCRHandler{service: service}
}

// RegisterRoutes registers NCR routes on the API group
func (h *NCRHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ncr := rg.Group("/ncr")
	{
		ncr.GET("", h.List)
		ncr.GET("/:id", h.Get)
		ncr.POST("", h.CreateReport)
		ncr.PATCH("/:id", h.UpdateItem)
		ncr.POST("/:id/spawn-return", h.SpawnReturn)
	}
	// Cancel addresses the whole report by number, not one row, so it
	// lives under its own prefix.
	rg.POST("/ncr-reports/:ncrNo/cancel", h.CancelReport)
}

// List returns every NCR item row in the current snapshot
func (h *NCRHandler) List(c *gin.Context) {
	h.Success(c, h.service.List())
}

// Get returns one NCR item row
func (h *NCRHandler) Get(c *gin.Context) {
	row, err := h.service.Get(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// CreateReport creates one report: one issued number, one row per item
func (h *NCRHandler) CreateReport(c *gin.Context) {
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ncrNo, rows, err := h.service.CreateReport(c.Request.Context(), req.ToTemplate(), req.ToItems())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.CreateReportResponse{NcrNo: ncrNo, Rows: rows})
}

// UpdateItem merge-patches one row and cascades the defined field mapping
// onto linked return records. The body is the patch itself: any subset of
// the row's JSON fields, null deleting a field.
func (h *NCRHandler) UpdateItem(c *gin.Context) {
	var fields map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&fields); err != nil {
		h.BadRequest(c, "Patch body must be a JSON object")
		return
	}
	if len(fields) == 0 {
		h.BadRequest(c, "Patch body is empty")
		return
	}
	// The row identity is immutable; silently dropping these beats a
	// confusing partial apply.
	delete(fields, "id")
	delete(fields, "ncrNo")

	id := c.Param("id")
	applied, err := h.service.UpdateItem(c.Request.Context(), id, fields)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	row, err := h.service.Get(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.UpdateItemResponse{Row: row, SyncedRecords: applied})
}

// SpawnReturn creates the pipeline record linked to one report row
func (h *NCRHandler) SpawnReturn(c *gin.Context) {
	rec, err := h.service.SpawnReturn(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rec)
}

// CancelReport soft-deletes every row of a report and cascades onto linked
// records
func (h *NCRHandler) CancelReport(c *gin.Context) {
	rows, records, err := h.service.CancelReport(c.Request.Context(), c.Param("ncrNo"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CancelReportResponse{CanceledRows: rows, CanceledRecords: records})
}
