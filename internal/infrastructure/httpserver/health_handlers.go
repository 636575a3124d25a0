package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 2 * time.Second

// Health check handler. Probes run concurrently and share one deadline.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	var mu sync.Mutex
	deps := make(map[string]string)
	var g errgroup.Group
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		hc := hc
		g.Go(func() error {
			status := "healthy"
			if err := hc.Check(ctx); err != nil {
				status = "unhealthy"
				if s.logger != nil {
					s.logger.WithError(err).WithField("dependency", hc.Name()).Warn("health check failed")
				}
			}
			mu.Lock()
			deps[hc.Name()] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	overall := "healthy"
	for _, status := range deps {
		if status != "healthy" {
			overall = "degraded"
			break
		}
	}
	health := map[string]interface{}{
		"status":       overall,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"service":      "route-optima",
		"dependencies": deps,
	}
	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, health)
}
