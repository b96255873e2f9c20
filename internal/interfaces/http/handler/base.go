package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the gin context key the logger middleware stores the
// request ID under
const RequestIDKey = "request_id"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 response, used for binding failures
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	requestID := getRequestID(c)
	c.JSON(http.StatusBadRequest,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, message, requestID))
}

// HandleError converts domain errors to HTTP responses. Guard denials keep
// their rejection reason so the client can tell locked from duplicate.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		resp := dto.NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, requestID)
		resp.Error.Reason = domainErr.Reason
		c.JSON(dto.GetHTTPStatus(domainErr.Code), resp)
		return
	}

	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal, "An unexpected error occurred", requestID))
}

// supervisorPin reads the credential for a gated action: the request body
// pin when one was bound, otherwise the X-Supervisor-Pin header.
func supervisorPin(c *gin.Context, bodyPin string) string {
	if bodyPin != "" {
		return bodyPin
	}
	return c.GetHeader("X-Supervisor-Pin")
}
