package handler

import (
	"github.com/gin-gonic/gin"

	appreturns "github.com/returns/backend/internal/application/returns"
	domain "github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/interfaces/http/dto"
)

// CollectionHandler handles collection order API endpoints
type CollectionHandler struct {
	BaseHandler
	service *appreturns.Service
}

// NewCollectionHandler creates a new CollectionHandler
func NewCollectionHandler(service *appreturns.Service) *CollectionHandler {
	return &CollectionHandler{service: service}
}

// RegisterRoutes registers collection order routes on the API group
func (h *CollectionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/collection-orders")
	{
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.POST("", h.Create)
		orders.PUT("/:id/status", h.UpdateStatus)
	}
}

// List returns every collection order in the current snapshot
func (h *CollectionHandler) List(c *gin.Context) {
	h.Success(c, h.service.ListOrders())
}

// Get returns one collection order
func (h *CollectionHandler) Get(c *gin.Context) {
	order, err := h.service.GetOrder(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Create groups return records under a new pickup job
func (h *CollectionHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.service.CreateCollectionOrder(c.Request.Context(),
		req.Branch, req.Date, req.RecordIDs, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// UpdateStatus moves a collection order through its lifecycle
func (h *CollectionHandler) UpdateStatus(c *gin.Context) {
	var req dto.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	id := c.Param("id")
	if err := h.service.UpdateOrderStatus(c.Request.Context(), id, domain.CollectionStatus(req.Status)); err != nil {
		h.HandleError(c, err)
		return
	}
	order, err := h.service.GetOrder(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
