package handler

import "github.com/storefront/backend/internal/interfaces/http/dto"

// Envelope shapes used only by the swag annotations. Handlers write
// dto.Response directly.

// APIResponse is the success envelope with a typed data field
type APIResponse[T any] struct {
	Success bool      `json:"success" example:"true"`
	Data    T         `json:"data,omitempty"`
	Meta    *dto.Meta `json:"meta,omitempty"`
}

// PagedResponse is a list envelope; meta carries total, page, page_size
// and total_pages
type PagedResponse[T any] struct {
	Success bool     `json:"success" example:"true"`
	Data    []T      `json:"data"`
	Meta    dto.Meta `json:"meta"`
}

// ErrorResponse is the failure envelope. Validation failures list the
// rejected fields in error.details.
type ErrorResponse struct {
	Success bool          `json:"success" example:"false"`
	Error   dto.ErrorInfo `json:"error"`
}
