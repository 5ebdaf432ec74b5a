package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	bindmetrics "github.com/strataml/strata/pkg/api-types-binding/metrics"
	apierr "github.com/strataml/strata/pkg/api/types/errors"
	"github.com/strataml/strata/pkg/domain/metrics"
	sweepdb "github.com/strataml/strata/pkg/domain/sweeps/db"
	trackdb "github.com/strataml/strata/pkg/domain/tracker/db"
)

// recentSweepCycles caps how many sweep cycles per loop the summary reports.
const recentSweepCycles = 20

// GetMetricsHandler reports tier occupancy, gateway counters and the latest
// sweep cycles in one summary.
func GetMetricsHandler(
	tracker trackdb.Interface,
	meter *metrics.Registry,
	sweeps sweepdb.Interface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		occupancy, err := tracker.Occupancy(ctx)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		cycles, err := sweeps.RecentByName(ctx, recentSweepCycles)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(
			http.StatusOK,
			bindmetrics.ComposeSummary(occupancy, meter.Snapshot(), cycles),
		)
	}
}
