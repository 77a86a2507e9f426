package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

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

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
}

// BindingError answers a failed ShouldBind* call: field details for
// validation failures, ERR_INVALID_JSON for unreadable bodies
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); details != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed", middleware.GetRequestID(c), details))
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
}

// HandleDomainError converts service errors to HTTP responses
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	status, info := resolveError(err)
	info.RequestID = middleware.GetRequestID(c)
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("request failed",
			zap.String("code", info.Code),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, dto.Response{Success: false, Error: info})
}

// resolveError maps err to a status and envelope error. Gateway failures
// carry no internal detail; persistence failures expose only the failed step.
func resolveError(err error) (int, *dto.ErrorInfo) {
	var gwErr *payment.GatewayError
	if errors.As(err, &gwErr) {
		message := "Payment gateway request failed"
		if gwErr.Message != "" {
			message = gwErr.Message
		}
		return http.StatusBadGateway, &dto.ErrorInfo{Code: dto.ErrCodePaymentGateway, Message: message}
	}
	if errors.Is(err, payment.ErrGatewayNotConfigured) {
		return http.StatusBadGateway, &dto.ErrorInfo{Code: dto.ErrCodePaymentGateway, Message: "Payment gateway is not configured"}
	}

	var stockErr *order.InsufficientStockError
	if errors.As(err, &stockErr) {
		return http.StatusUnprocessableEntity, &dto.ErrorInfo{
			Code:    dto.ErrCodeInsufficientStock,
			Message: stockErr.Error(),
		}
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		fallback := http.StatusBadRequest
		if shared.KindOf(err) == shared.KindPersistence {
			fallback = http.StatusInternalServerError
		}
		return dto.GetHTTPStatus(code, fallback), &dto.ErrorInfo{Code: code, Message: domainErr.Message}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, &dto.ErrorInfo{Code: dto.ErrCodeTimeout, Message: "Request timed out"}
	}
	return http.StatusInternalServerError, &dto.ErrorInfo{Code: dto.ErrCodeInternal, Message: "An unexpected error occurred"}
}

// ownerID returns the authenticated owner or answers 401
func ownerID(c *gin.Context) (string, bool) {
	id := middleware.GetOwnerID(c)
	if id == "" {
		(&BaseHandler{}).Unauthorized(c)
		return "", false
	}
	return id, true
}

// pathUUID parses a uuid path parameter or answers 400
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		(&BaseHandler{}).Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
