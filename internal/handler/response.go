package handler

import (
	"net/http"

	"ordercore/internal/middleware"
	"ordercore/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	he := usecase.ToHTTPError(err)
	if he.Status >= http.StatusInternalServerError && he.Code == usecase.CodeInternal {
		//500は中身を出さない
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: usecase.CodeInternal})
	}
	return c.JSON(he.Status, ErrorResponse{Error: he.Message, Code: he.Code})
}

// AuthJWTがセットしたユーザーID
func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok || id <= 0 {
		return 0, false
	}

	return id, true
}
