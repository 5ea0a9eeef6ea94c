package pilot

import (
	"context"
	"errors"

	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/manager/chartmanager"
	"github.com/acdtunes/fleetctl/internal/shipactor"
)

// runChartCycle asks the chart manager for the nearest un-charted
// waypoint in-system, flies there, charts it, and pulls a market/
// shipyard snapshot if the waypoint turns out to carry one (spec.md
// §4.9). Grounded on original_source/src/pilot/charting.rs.
func (l *Loop) runChartCycle(ctx context.Context) error {
	system, waypoint, ok := l.currentSystemAndWaypoint(ctx)
	if !ok {
		return nil
	}

	target, err := l.deps.Chart.Next(ctx, l.shipSymbol, system, waypoint)
	if err != nil {
		if errors.Is(err, chartmanager.ErrNoChartsInSystem) {
			l.sleepJitter(ctx)
			return nil
		}
		return err
	}

	l.setStatus(ctx, ship.ChartingStatus(0, false, target))

	if err := l.actor.NavigateTo(ctx, target, shipactor.FlowFlags{}); err != nil {
		l.deps.Chart.Fail(ctx, l.shipSymbol, target)
		return err
	}

	result, err := l.actor.CreateChart(ctx)
	if err != nil {
		l.deps.Chart.Fail(ctx, l.shipSymbol, target)
		return err
	}

	if result.IsMarketplace || result.IsShipyard {
		l.pullMarketAndShipyardSnapshot(ctx, system, target)
	}

	l.deps.Chart.Success(ctx, l.shipSymbol, target)
	l.setStatus(ctx, ship.IdleStatus())
	return nil
}
