package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trekkers/tour-client/internal/api/auth"
	"github.com/trekkers/tour-client/internal/api/store"
)

// UserKey is the context key Protect stores the signed-in user under.
const UserKey = "user"

// UserFinder looks up active accounts.
type UserFinder interface {
	UserByID(id string) (store.User, error)
}

// Protect validates the bearer token, loads its user and rejects tokens
// issued before the user's last password change.
func Protect(issuer *auth.Issuer, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
			}

			claims, err := issuer.Parse(parts[1])
			if errors.Is(err, auth.ErrExpiredToken) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Your token has expired! Please log in again.")
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token. Please log in again!")
			}

			user, err := users.UserByID(claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "The user belonging to this token does no longer exist.")
			}
			if !user.PasswordChangedAt.IsZero() && user.PasswordChangedAt.Unix() > claims.IssuedAt.Unix() {
				return echo.NewHTTPError(http.StatusUnauthorized, "User recently changed password! Please log in again.")
			}

			c.Set(UserKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user Protect stored on c.
func CurrentUser(c echo.Context) (store.User, bool) {
	u, ok := c.Get(UserKey).(store.User)
	return u, ok
}
