package trademanager

import (
	"context"
	"testing"
	"time"

	"github.com/acdtunes/fleetctl/internal/domain/market"
)

type fakeMarketIndex struct {
	markets  []*market.Market
	detailed map[string]bool
}

func (f *fakeMarketIndex) MarketsInSystem(system string) []*market.Market { return f.markets }
func (f *fakeMarketIndex) HasDetailedData(waypoint string) bool           { return f.detailed[waypoint] }

func newGood(t *testing.T, symbol string, purchase, sell, volume int) market.TradeGood {
	t.Helper()
	g, err := market.NewTradeGood(symbol, nil, nil, purchase, sell, volume)
	if err != nil {
		t.Fatalf("NewTradeGood: %v", err)
	}
	return *g
}

func TestRequestNextTradeRouteLocksBothEndpoints(t *testing.T) {
	buyGood := newGood(t, "IRON_ORE", 10, 0, 50)
	sellGood := newGood(t, "IRON_ORE", 0, 40, 50)
	buyMarket, _ := market.NewMarket("X1-AA-1", []market.TradeGood{buyGood}, time.Now())
	sellMarket, _ := market.NewMarket("X1-AA-2", []market.TradeGood{sellGood}, time.Now())

	idx := &fakeMarketIndex{markets: []*market.Market{buyMarket, sellMarket}, detailed: map[string]bool{}}
	m := New(idx, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	msgr := NewMessenger(m)
	route, err := msgr.RequestNextTradeRoute(context.Background(), "SHIP-1", "X1-AA", nil)
	if err != nil {
		t.Fatalf("RequestNextTradeRoute: %v", err)
	}
	if route == nil {
		t.Fatal("expected a route since a profitable pair exists")
	}
	if route.PurchaseWaypoint != "X1-AA-1" || route.SellWaypoint != "X1-AA-2" {
		t.Fatalf("unexpected route endpoints: %+v", route)
	}

	// The same pair is now locked; a second request must not reuse it.
	again, err := msgr.RequestNextTradeRoute(context.Background(), "SHIP-2", "X1-AA", nil)
	if err != nil {
		t.Fatalf("RequestNextTradeRoute: %v", err)
	}
	if again != nil {
		t.Fatalf("expected no route while the only profitable pair is locked, got %+v", again)
	}

	completed, err := msgr.CompleteTradeRoute(context.Background(), route.ID)
	if err != nil {
		t.Fatalf("CompleteTradeRoute: %v", err)
	}
	if completed == nil || !completed.Finished {
		t.Fatalf("expected CompleteTradeRoute to mark the route finished, got %+v", completed)
	}

	// The route's endpoints are now unlocked and reusable.
	reused, err := msgr.RequestNextTradeRoute(context.Background(), "SHIP-2", "X1-AA", nil)
	if err != nil {
		t.Fatalf("RequestNextTradeRoute: %v", err)
	}
	if reused == nil {
		t.Fatal("expected the route to be available again after completion")
	}
}

func TestBlacklistedGoodIsSkipped(t *testing.T) {
	buyGood := newGood(t, "IRON_ORE", 10, 0, 50)
	sellGood := newGood(t, "IRON_ORE", 0, 40, 50)
	buyMarket, _ := market.NewMarket("X1-AA-1", []market.TradeGood{buyGood}, time.Now())
	sellMarket, _ := market.NewMarket("X1-AA-2", []market.TradeGood{sellGood}, time.Now())

	idx := &fakeMarketIndex{markets: []*market.Market{buyMarket, sellMarket}, detailed: map[string]bool{}}
	m := New(idx, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	msgr := NewMessenger(m)
	route, err := msgr.RequestNextTradeRoute(context.Background(), "SHIP-1", "X1-AA", map[string]bool{"IRON_ORE": true})
	if err != nil {
		t.Fatalf("RequestNextTradeRoute: %v", err)
	}
	if route != nil {
		t.Fatalf("expected no route for a fully blacklisted good, got %+v", route)
	}
}

func TestRequestNextUsesSimpleModeWhenRandomDrawExceedsCacheRatio(t *testing.T) {
	// Purchase costs more than the sell price: a profitable-only search
	// finds nothing, so only the simple path (no profit filter) can
	// return a route here.
	buyGood := newGood(t, "IRON_ORE", 40, 0, 50)
	sellGood := newGood(t, "IRON_ORE", 0, 10, 50)
	buyMarket, _ := market.NewMarket("X1-AA-1", []market.TradeGood{buyGood}, time.Now())
	sellMarket, _ := market.NewMarket("X1-AA-2", []market.TradeGood{sellGood}, time.Now())

	idx := &fakeMarketIndex{markets: []*market.Market{buyMarket, sellMarket}, detailed: map[string]bool{}}
	m := New(idx, nil)
	m.randFloat = func() float64 { return 0.5 } // cache ratio is 0 with no detailed data, so 0.5 > 0 picks simple mode
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	msgr := NewMessenger(m)
	route, err := msgr.RequestNextTradeRoute(context.Background(), "SHIP-1", "X1-AA", nil)
	if err != nil {
		t.Fatalf("RequestNextTradeRoute: %v", err)
	}
	if route == nil {
		t.Fatal("expected simple mode to return an unprofitable pair since it skips the profit filter")
	}
	if route.TradeVolume != simpleTradeVolume {
		t.Fatalf("expected simple mode's hardcoded trade volume %d, got %d", simpleTradeVolume, route.TradeVolume)
	}
}

func TestRequestNextUsesDetailedModeWhenRandomDrawAtOrBelowCacheRatio(t *testing.T) {
	// Same unprofitable pair, but both waypoints carry detailed data so
	// the cache ratio is 1 and any draw in [0,1) selects detailed mode,
	// which requires profit > 0 and so finds nothing.
	buyGood := newGood(t, "IRON_ORE", 40, 0, 50)
	sellGood := newGood(t, "IRON_ORE", 0, 10, 50)
	buyMarket, _ := market.NewMarket("X1-AA-1", []market.TradeGood{buyGood}, time.Now())
	sellMarket, _ := market.NewMarket("X1-AA-2", []market.TradeGood{sellGood}, time.Now())

	idx := &fakeMarketIndex{
		markets:  []*market.Market{buyMarket, sellMarket},
		detailed: map[string]bool{"X1-AA-1": true, "X1-AA-2": true},
	}
	m := New(idx, nil)
	m.randFloat = func() float64 { return 0 }
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	msgr := NewMessenger(m)
	route, err := msgr.RequestNextTradeRoute(context.Background(), "SHIP-1", "X1-AA", nil)
	if err != nil {
		t.Fatalf("RequestNextTradeRoute: %v", err)
	}
	if route != nil {
		t.Fatalf("expected detailed mode's profit filter to reject the unprofitable pair, got %+v", route)
	}
}

func TestCacheRatioIsDetailedFractionOfMarkets(t *testing.T) {
	buyMarket, _ := market.NewMarket("X1-AA-1", nil, time.Now())
	sellMarket, _ := market.NewMarket("X1-AA-2", nil, time.Now())
	idx := &fakeMarketIndex{detailed: map[string]bool{"X1-AA-1": true}}

	ratio := cacheRatio([]*market.Market{buyMarket, sellMarket}, idx)
	if ratio != 0.5 {
		t.Fatalf("expected a cache ratio of 0.5 with one of two markets detailed, got %v", ratio)
	}

	if r := cacheRatio(nil, idx); r != 0 {
		t.Fatalf("expected a cache ratio of 0 with no markets, got %v", r)
	}
}

func TestRoutesTrackerLockIsNonIdempotent(t *testing.T) {
	tr := newRoutesTracker()
	if !tr.Lock("A", "B") {
		t.Fatal("expected the first lock to succeed")
	}
	if tr.Lock("A", "B") {
		t.Fatal("expected locking an already-locked route to fail")
	}
	tr.Unlock("A", "B")
	if !tr.Lock("A", "B") {
		t.Fatal("expected the route to be lockable again after Unlock")
	}
}
