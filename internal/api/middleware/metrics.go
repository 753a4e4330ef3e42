package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trekkers/tour-client/internal/api/metrics"
)

// RequestMetrics records one observation per request, labelled by route
// template rather than raw path. Errors are rendered here so the recorded
// code is the one the client sees.
func RequestMetrics(m *metrics.HTTP) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
