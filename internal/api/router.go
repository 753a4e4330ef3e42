// Package api is the mock tour backend: the REST surface the client talks
// to, served from memory. It backs end-to-end tests and `trekkers
// mock-server`.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/trekkers/tour-client/internal/api/auth"
	"github.com/trekkers/tour-client/internal/api/handler"
	"github.com/trekkers/tour-client/internal/api/metrics"
	"github.com/trekkers/tour-client/internal/api/middleware"
	"github.com/trekkers/tour-client/internal/api/store"
	"github.com/trekkers/tour-client/internal/core/domain"
)

// Prefix is the path every API route lives under.
const Prefix = "/api/v1"

// Deps are the collaborators of the router. Zero-valued optional fields
// get working defaults.
type Deps struct {
	Store    *store.Memory
	Issuer   *auth.Issuer
	Mailer   handler.ResetMailer // optional, logs reset tokens by default
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	m := metrics.New(d.Registry)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(middleware.RequestMetrics(m))

	// --- Dependencies ---
	users := handler.NewUserHandler(d.Store, d.Issuer, d.Mailer, d.Log)
	tours := handler.NewTourHandler(d.Store, m)
	protect := middleware.Protect(d.Issuer, d.Store)

	v1 := e.Group(Prefix)

	// --- User routes ---
	u := v1.Group("/users")
	u.POST("/signup", users.Signup)
	u.POST("/login", users.Login)
	u.POST("/forgotPassword", users.ForgotPassword)
	u.PATCH("/resetPassword/:token", users.ResetPassword)
	u.GET("/me", users.Me, protect)
	u.PATCH("/updateMe", users.UpdateMe, protect)
	u.PATCH("/updateMyPassword", users.UpdateMyPassword, protect)
	u.DELETE("/deleteMe", users.DeleteMe, protect)
	u.GET("", users.List, protect, middleware.RestrictTo(domain.RoleAdmin))

	// --- Tour routes ---
	t := v1.Group("/tours")
	t.GET("", tours.List)
	t.GET("/slug/:slug", tours.BySlug)
	t.PATCH("/:id/upvote", tours.Upvote, protect)
	t.PATCH("/:id/downvote", tours.Downvote, protect)
	t.GET("/:id/upvote-status", tours.UpvoteStatus, protect)

	// --- Health and metrics (no auth required) ---
	health := handler.NewHealthHandler(func() int { return len(d.Store.Tours()) })
	e.GET("/health", health.Liveness)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Debug().
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// Serve runs e on addr until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
