package middleware_test

import (
	"net/http"
	"testing"

	"ordercore/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestUserRateLimiter_PerUser(t *testing.T) {
	e := echo.New()
	setUser := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "u1" {
				c.Set(middleware.CtxUserIDKey, int64(1))
			} else {
				c.Set(middleware.CtxUserIDKey, int64(2))
			}
			return next(c)
		}
	}
	e.POST("/verify", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, setUser, middleware.UserRateLimiter(0.001))

	assert.Equal(t, http.StatusOK, runRequest(t, e, http.MethodPost, "/verify", "u1").Code)
	assert.Equal(t, http.StatusTooManyRequests, runRequest(t, e, http.MethodPost, "/verify", "u1").Code)
	// 別ユーザーは別枠
	assert.Equal(t, http.StatusOK, runRequest(t, e, http.MethodPost, "/verify", "u2").Code)
}
