package handler

import (
	"github.com/gin-gonic/gin"

	domain "github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/auth"
	"github.com/returns/backend/internal/infrastructure/counter"
	"github.com/returns/backend/internal/interfaces/http/dto"
)

// counterNames maps the public counter names to their store namespaces
var counterNames = map[string]string{
	"ncr":        domain.CounterNCR,
	"return":     domain.CounterReturn,
	"collection": domain.CounterCollection,
}

// CounterHandler handles document number counter endpoints
type CounterHandler struct {
	BaseHandler
	counters *counter.Service
	authz    auth.Authorizer
}

// NewCounterHandler creates a new CounterHandler
func NewCounterHandler(counters *counter.Service, authz auth.Authorizer) *CounterHandler {
	return &CounterHandler{counters: counters, authz: authz}
}

// RegisterRoutes registers counter routes on the API group
func (h *CounterHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/counters/:name/reset", h.Reset)
}

// Reset restarts one counter's sequence for the current period. Supervisor
// PIN required.
func (h *CounterHandler) Reset(c *gin.Context) {
	var req dto.SupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if !h.authz.Authorize(auth.ActionResetCounter, req.Pin) {
		h.HandleError(c, shared.ErrUnauthorized)
		return
	}

	namespace, ok := counterNames[c.Param("name")]
	if !ok {
		h.HandleError(c, shared.ErrNotFound)
		return
	}
	if err := h.counters.Reset(c.Request.Context(), namespace); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
