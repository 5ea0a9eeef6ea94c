package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/acdtunes/fleetctl/internal/domain/market"
	"github.com/acdtunes/fleetctl/internal/manager/trademanager"
	"github.com/cucumber/godog"
)

type fakeMarketIndex struct {
	markets []*market.Market
}

func (f *fakeMarketIndex) MarketsInSystem(string) []*market.Market { return f.markets }
func (f *fakeMarketIndex) HasDetailedData(string) bool              { return false }

type tradeRouteContext struct {
	msgr      *trademanager.Messenger
	cancel    context.CancelFunc
	routes    map[string]*trademanager.TradeRoute
	lastRoute *trademanager.TradeRoute
}

func (tc *tradeRouteContext) reset() {
	if tc.cancel != nil {
		tc.cancel()
	}
	tc.msgr = nil
	tc.cancel = nil
	tc.routes = make(map[string]*trademanager.TradeRoute)
	tc.lastRoute = nil
}

func (tc *tradeRouteContext) aTradeManagerWithAProfitableRouteFromToInSystem(tradeSymbol, buyWaypoint, sellWaypoint, system string) error {
	buyGood, err := market.NewTradeGood(tradeSymbol, nil, nil, 10, 0, 50)
	if err != nil {
		return err
	}
	sellGood, err := market.NewTradeGood(tradeSymbol, nil, nil, 0, 40, 50)
	if err != nil {
		return err
	}
	buyMarket, err := market.NewMarket(buyWaypoint, []market.TradeGood{*buyGood}, time.Now())
	if err != nil {
		return err
	}
	sellMarket, err := market.NewMarket(sellWaypoint, []market.TradeGood{*sellGood}, time.Now())
	if err != nil {
		return err
	}

	idx := &fakeMarketIndex{markets: []*market.Market{buyMarket, sellMarket}}
	m := trademanager.New(idx, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)

	tc.msgr = trademanager.NewMessenger(m)
	tc.cancel = cancel
	return nil
}

func (tc *tradeRouteContext) shipRequestsTheNextTradeRouteInSystem(ship, system string) error {
	route, err := tc.msgr.RequestNextTradeRoute(context.Background(), ship, system, nil)
	if err != nil {
		return err
	}
	tc.lastRoute = route
	if route != nil {
		tc.routes[ship] = route
	}
	return nil
}

func (tc *tradeRouteContext) shipRequestsTheNextTradeRouteInSystemExcluding(ship, system, excluded string) error {
	route, err := tc.msgr.RequestNextTradeRoute(context.Background(), ship, system, map[string]bool{excluded: true})
	if err != nil {
		return err
	}
	tc.lastRoute = route
	return nil
}

func (tc *tradeRouteContext) aRouteShouldBeReturnedForShip(ship string) error {
	if tc.lastRoute == nil {
		return fmt.Errorf("expected a route for %s, got none", ship)
	}
	return nil
}

func (tc *tradeRouteContext) noRouteShouldBeReturnedForShip(ship string) error {
	if tc.lastRoute != nil {
		return fmt.Errorf("expected no route for %s, got %+v", ship, tc.lastRoute)
	}
	return nil
}

func (tc *tradeRouteContext) theRouteForShipIsCompleted(ship string) error {
	route, ok := tc.routes[ship]
	if !ok {
		return fmt.Errorf("no route on file for %s", ship)
	}
	_, err := tc.msgr.CompleteTradeRoute(context.Background(), route.ID)
	return err
}

// InitializeTradeRouteScenario registers the trade-route-cycle feature's
// step definitions.
func InitializeTradeRouteScenario(sc *godog.ScenarioContext) {
	tc := &tradeRouteContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})
	sc.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		if tc.cancel != nil {
			tc.cancel()
		}
		return ctx, nil
	})

	sc.Step(`^a trade manager with a profitable "([^"]*)" route from "([^"]*)" to "([^"]*)" in system "([^"]*)"$`, tc.aTradeManagerWithAProfitableRouteFromToInSystem)
	sc.Step(`^ship "([^"]*)" requests the next trade route in system "([^"]*)"$`, tc.shipRequestsTheNextTradeRouteInSystem)
	sc.Step(`^ship "([^"]*)" requests the next trade route in system "([^"]*)" excluding "([^"]*)"$`, tc.shipRequestsTheNextTradeRouteInSystemExcluding)
	sc.Step(`^a route should be returned for ship "([^"]*)"$`, tc.aRouteShouldBeReturnedForShip)
	sc.Step(`^no route should be returned for ship "([^"]*)"$`, tc.noRouteShouldBeReturnedForShip)
	sc.Step(`^the route for ship "([^"]*)" is completed$`, tc.theRouteForShipIsCompleted)
}
