package helpers

import (
	"github.com/labstack/echo/v4"

	"github.com/routeoptima/route-optima/internal/core/domain/route"
)

type ctxKey string

const keyRouteOutcome ctxKey = "route_outcome"

func SetRouteOutcome(c echo.Context, o route.Outcome) { c.Set(string(keyRouteOutcome), o) }
func GetRouteOutcomeRaw(c echo.Context) (route.Outcome, bool) {
	v := c.Get(string(keyRouteOutcome))
	o, ok := v.(route.Outcome)
	return o, ok
}
