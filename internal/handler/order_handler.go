package handler

import (
	"context"
	"net/http"
	"strings"

	"ordercore/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, userID int64, in usecase.PlaceOrderInput) (usecase.PlaceOrderOutput, error)
	ListMyOrders(ctx context.Context, userID int64) ([]usecase.OrderOutput, error)
	GetMyOrderDetail(ctx context.Context, userID int64, orderNumber string) (usecase.OrderOutput, error)
}

type OrderHandler struct {
	uc OrderService
}

func NewOrderHandler(uc OrderService) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderItemRequest struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

// itemsを省略するとカートから注文
type OrderCreateRequest struct {
	Items          []OrderItemRequest    `json:"items"`
	AddressID      int64                 `json:"address_id"`
	Address        *usecase.AddressInput `json:"address"`
	PaymentMethod  string                `json:"payment_method"`
	PromotionCode  string                `json:"promotion_code"`
	IdempotencyKey string                `json:"idempotency_key"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/orders")
	g.Use(auth)

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:orderNumber", h.detail)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: usecase.CodeUnauthorized})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: usecase.CodeValidation})
	}

	//冪等キーはヘッダー優先。bodyにもあれば一致している必要がある
	idemKey := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
	if idemKey == "" {
		idemKey = strings.TrimSpace(c.Request().Header.Get("X-Idempotency-Key"))
	}
	bodyKey := strings.TrimSpace(req.IdempotencyKey)
	if idemKey != "" && bodyKey != "" && idemKey != bodyKey {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "idempotency key mismatch", Code: usecase.CodeValidation})
	}
	if idemKey == "" {
		idemKey = bodyKey
	}

	items := make([]usecase.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.OrderItemInput{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: it.Quantity})
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		Items:          items,
		AddressID:      req.AddressID,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
		PromotionCode:  req.PromotionCode,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}

	//再送でも初回と同じレスポンス
	if out.Replayed {
		c.Response().Header().Set(headerReplayed, "true")
	}
	return c.JSON(http.StatusCreated, out.Order)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: usecase.CodeUnauthorized})
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: usecase.CodeUnauthorized})
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), userID, c.Param("orderNumber"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
