package shipactor

import (
	"context"
	"fmt"

	"github.com/acdtunes/fleetctl/internal/domain/ports"
)

// CreateChart charts the ship's current waypoint. The remote API treats
// an already-charted waypoint as a successful no-op result rather than
// an error (§4.9 "treating already charted as success").
func (a *Actor) CreateChart(ctx context.Context) (*ports.ChartResult, error) {
	guard, err := a.manager.GetMut(ctx, a.Symbol)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	result, err := a.api.CreateChart(ctx, a.Symbol)
	if err != nil {
		return nil, fmt.Errorf("shipactor: create chart: %w", err)
	}
	return result, nil
}
