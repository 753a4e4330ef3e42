package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trekkers/tour-client/internal/core/domain"
)

// response is the success envelope: {"status":"success", ...}.
type response struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Results *int   `json:"results,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type userData struct {
	User domain.UserProfile `json:"user"`
}

type docData[T any] struct {
	Data T `json:"data"`
}

func success(c echo.Context, code int, data any) error {
	return c.JSON(code, response{Status: "success", Data: data})
}

func list[T any](c echo.Context, items []T) error {
	n := len(items)
	return c.JSON(http.StatusOK, response{Status: "success", Results: &n, Data: docData[[]T]{Data: items}})
}

func withToken(c echo.Context, code int, token string, user domain.UserProfile) error {
	return c.JSON(code, response{Status: "success", Token: token, Data: userData{User: user}})
}
