package handler

import (
	"context"
	"net/http"

	"ordercore/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentService interface {
	Verify(ctx context.Context, userID int64, contentHash string) (usecase.VerifyPaymentOutput, error)
}

type PaymentHandler struct {
	uc PaymentService
}

func NewPaymentHandler(uc PaymentService) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// 照会は外部APIを叩くのでレート制限をかける
func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, limiter echo.MiddlewareFunc) {
	g := e.Group("/payments")
	g.Use(auth)

	g.POST("/verify/:contentHash", h.verify, limiter)
}

// 未払い・期限切れも200で返す（paid/expiredで判定）
func (h *PaymentHandler) verify(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: usecase.CodeUnauthorized})
	}

	out, err := h.uc.Verify(c.Request().Context(), userID, c.Param("contentHash"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
