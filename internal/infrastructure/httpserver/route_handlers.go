package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/routeoptima/route-optima/internal/core/domain/route"
	"github.com/routeoptima/route-optima/internal/infrastructure/httpserver/helpers"
)

// statusClientClosedRequest is the nginx convention for a caller that went away.
const statusClientClosedRequest = 499

// getOptimizedRoute serves GET /route-optima/:coordinates.
func (s *Server) getOptimizedRoute(c echo.Context) error {
	coordinates, err := helpers.GetCoordinatesParam(c)
	if err != nil {
		return err
	}

	lookup, err := s.routeOptimizer.Optimize(c.Request().Context(), coordinates)
	if err != nil {
		return routeError(err)
	}

	helpers.SetRouteOutcome(c, lookup.Outcome)
	c.Response().Header().Set("X-Cache", helpers.CacheHeaderValue(lookup.Outcome))
	return c.JSON(http.StatusOK, lookup.Result)
}

// routeError keeps cache outages, provider failures and bad input distinguishable for callers.
func routeError(err error) error {
	switch {
	case errors.Is(err, route.ErrEmptyCoordinates):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, route.ErrCacheConnection):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "route cache unavailable").SetInternal(err)
	case errors.Is(err, route.ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, "route provider unavailable").SetInternal(err)
	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(statusClientClosedRequest, "request cancelled").SetInternal(err)
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}
