package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/domain/wizard"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/finsite/backend/internal/infrastructure/media"
	"github.com/finsite/backend/internal/interfaces/http/dto"
	"github.com/finsite/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// RequestIDHeader is the header carrying the request ID
const RequestIDHeader = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDHeader); id != "" {
		return id
	}
	return ""
}

// Success sends a success response
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

// WriteResult sends a write outcome with its own status code. Failed
// outcomes without a status are treated as upstream failures.
func (h *BaseHandler) WriteResult(c *gin.Context, result shared.WriteResult) {
	status := result.StatusCode
	switch {
	case status != 0:
	case result.Success:
		status = http.StatusOK
	default:
		status = http.StatusBadGateway
	}
	c.JSON(status, dto.NewWriteResultResponse(result))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	requestID := getRequestID(c)
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	))
}

// BindJSON binds the request body into req. On failure it writes the
// error response and returns false.
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var validationErrs validator.ValidationErrors
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &validationErrs):
		middleware.HandleValidationError(c, err)
	case errors.As(err, &maxBytesErr):
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Request body too large")
	default:
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body")
	}
	return false
}

// HandleError converts domain, data-access and validation errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, resp := h.errorResponse(c, err)
	c.JSON(status, resp)
}

// HandleErrorWithData writes the error response for err with data attached,
// for failures that still carry a state the client renders
func (h *BaseHandler) HandleErrorWithData(c *gin.Context, err error, data any) {
	if err == nil {
		h.Success(c, data)
		return
	}
	status, resp := h.errorResponse(c, err)
	resp.Data = data
	c.JSON(status, resp)
}

func (h *BaseHandler) errorResponse(c *gin.Context, err error) (int, dto.Response) {
	requestID := getRequestID(c)

	var wizardErr *wizard.ValidationError
	if errors.As(err, &wizardErr) {
		details := make([]dto.ValidationDetail, 0, len(wizardErr.Fields))
		for _, f := range wizardErr.Fields {
			details = append(details, dto.ValidationDetail{Field: f.Field, Message: f.Message})
		}
		return http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", requestID, details)
	}

	var accessErr *shared.AccessError
	if errors.As(err, &accessErr) {
		code := accessErrorCode(accessErr)
		return dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, accessErr.Message, requestID)
	}

	// Check for domain error using errors.As for wrapped error support
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		return dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID)
	}

	switch {
	case errors.Is(err, media.ErrEmptyImage), errors.Is(err, media.ErrNotImage):
		return http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeValidationFormat, "Please upload a PNG, JPEG, GIF or WebP image", requestID)
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
			dto.ErrCodePayloadTooLarge, "Image is too large", requestID)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeUpstreamUnavailable, "The request timed out", requestID)
	}

	logger.GetGinLogger(c).Error("Unhandled error", logger.ErrorFields(err)...)
	return http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	)
}

// accessErrorCode maps an AccessError kind to an API error code. A
// validation failure reported with 409 is a duplicate.
func accessErrorCode(err *shared.AccessError) string {
	switch err.Kind {
	case shared.KindNetworkUnavailable:
		return dto.ErrCodeUpstreamUnavailable
	case shared.KindUnauthorized:
		return dto.ErrCodeUnauthorized
	case shared.KindNotFound:
		return dto.ErrCodeNotFound
	case shared.KindValidation:
		if err.StatusCode == http.StatusConflict {
			return dto.ErrCodeConflict
		}
		return dto.ErrCodeValidation
	default:
		return dto.ErrCodeUpstream
	}
}
