package helpers

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/routeoptima/route-optima/internal/core/domain/route"
)

// GetClientID returns the rate-limit identity of the caller.
func GetClientID(c echo.Context) string {
	return c.RealIP()
}

// GetCoordinatesParam reads the :coordinates path parameter.
//
// Echo matches on URL.RawPath when the request carries one and on the already
// decoded URL.Path otherwise, so the segment is unescaped only in the first case.
func GetCoordinatesParam(c echo.Context) (route.Coordinates, error) {
	raw := c.Param("coordinates")
	if c.Request().URL.RawPath != "" {
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			return "", echo.NewHTTPError(http.StatusBadRequest, "malformed coordinates")
		}
		raw = decoded
	}
	if raw == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, route.ErrEmptyCoordinates.Error())
	}
	return route.Coordinates(raw), nil
}

// CacheHeaderValue maps an outcome to the X-Cache response header.
func CacheHeaderValue(o route.Outcome) string {
	switch o {
	case route.OutcomeHit:
		return "HIT"
	case route.OutcomeMissStored:
		return "MISS"
	default:
		return "BYPASS"
	}
}
