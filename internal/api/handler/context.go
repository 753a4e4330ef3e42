package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trekkers/tour-client/internal/api/middleware"
	"github.com/trekkers/tour-client/internal/api/store"
)

// ctxUser returns the user injected by the Protect middleware. Its absence
// means the route was wired without Protect, so the request is rejected.
func ctxUser(c echo.Context) (store.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok || user.ID == "" {
		return store.User{}, echo.NewHTTPError(http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
	}
	return user, nil
}

// bindAndValidate decodes the JSON body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(req)
}
