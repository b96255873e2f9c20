package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/returns/backend/internal/application/integrity"
	"github.com/returns/backend/internal/interfaces/http/dto"
)

// IntegrityHandler handles orphan scan and sweep endpoints
type IntegrityHandler struct {
	BaseHandler
	service *integrity.Service
}

// NewIntegrityHandler creates a new IntegrityHandler
func NewIntegrityHandler(service *integrity.Service) *IntegrityHandler {
	return &IntegrityHandler{service: service}
}

// RegisterRoutes registers integrity routes on the API group
func (h *IntegrityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/integrity")
	{
		group.GET("/orphans", h.Orphans)
		group.POST("/sweep", h.Sweep)
	}
}

// Orphans lists return records whose claimed NCR parent is gone
func (h *IntegrityHandler) Orphans(c *gin.Context) {
	h.Success(c, h.service.Scan())
}

// SweepResponse reports the result of an orphan sweep
type SweepResponse struct {
	Deleted int `json:"deleted"`
}

// Sweep hard-deletes the current orphans. Supervisor PIN required.
func (h *IntegrityHandler) Sweep(c *gin.Context) {
	var req dto.SupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	deleted, err := h.service.Sweep(c.Request.Context(), req.Pin)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SweepResponse{Deleted: deleted})
}
