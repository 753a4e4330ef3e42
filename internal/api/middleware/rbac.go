package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RestrictTo lets only the given roles through. It runs after Protect.
func RestrictTo(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, _ := CurrentUser(c)
			if _, ok := allowed[user.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "You do not have permission to perform this action")
			}
			return next(c)
		}
	}
}
