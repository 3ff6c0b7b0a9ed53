package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeGatewayTransient  = "GATEWAY_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"

	CodePromotionNotFound      = "PROMOTION_NOT_FOUND"
	CodePromotionInactive      = "PROMOTION_INACTIVE"
	CodePromotionOutsideWindow = "PROMOTION_NOT_IN_VALIDITY_WINDOW"
	CodePromotionBelowMinimum  = "PROMOTION_BELOW_MINIMUM"
	CodePromotionUsageLimit    = "PROMOTION_USAGE_LIMIT_REACHED"
	CodePromotionPerUserLimit  = "PROMOTION_PER_USER_LIMIT_REACHED"

	CodeIdempotencyKeyReused = "IDEMPOTENCY_KEY_REUSED"
	CodeInvalidTransition    = "INVALID_STATUS_TRANSITION"
)

// クライアントに返すエラー
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, code string, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func NewValidationError(message string) error {
	return NewHTTPError(http.StatusBadRequest, CodeValidation, message)
}

func NewNotFoundError(message string) error {
	return NewHTTPError(http.StatusNotFound, CodeNotFound, message)
}

func NewConflictError(code string, message string) error {
	return NewHTTPError(http.StatusConflict, code, message)
}

func NewUnauthorizedError() error {
	return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
}

func NewForbiddenError() error {
	return NewHTTPError(http.StatusForbidden, CodeForbidden, "forbidden")
}

func NewGatewayTransientError() error {
	return NewHTTPError(http.StatusServiceUnavailable, CodeGatewayTransient, "payment gateway unavailable, please retry")
}

// 中身はログにだけ出す
func NewInternalError() error {
	return NewHTTPError(http.StatusInternalServerError, CodeInternal, "internal error")
}

// 在庫不足。どの商品（バリエーション）が足りないかを返す
type InsufficientStockError struct {
	ProductID int64
	VariantID *int64
	Name      string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

// HTTPErrorとして扱えるようにする
func (e *InsufficientStockError) HTTP() *HTTPError {
	return &HTTPError{
		Status:  http.StatusConflict,
		Code:    CodeInsufficientStock,
		Message: e.Error(),
	}
}

// ToHTTPErrorは型付きエラーをHTTPErrorに揃える。未知のエラーは500
func ToHTTPError(err error) *HTTPError {
	if he, ok := AsHTTPError(err); ok {
		return he
	}
	var se *InsufficientStockError
	if errors.As(err, &se) {
		return se.HTTP()
	}
	return &HTTPError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal error"}
}
