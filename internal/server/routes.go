package server

import (
	"net/http"

	"ordercore/internal/config"
	"ordercore/internal/handler"
	"ordercore/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Orders      *handler.OrderHandler
	Payments    *handler.PaymentHandler
	AdminOrders *handler.AdminOrderHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers, gatherer prometheus.Gatherer) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	auth := middleware.AuthJWT(cfg)
	h.Orders.RegisterRoutes(e, auth)
	h.Payments.RegisterRoutes(e, auth, middleware.UserRateLimiter(cfg.VerifyRateLimit))
	if h.AdminOrders != nil {
		h.AdminOrders.RegisterRoutes(e, auth, middleware.AdminRoleGuard())
	}
}
