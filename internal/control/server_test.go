package control

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/acdtunes/fleetctl/internal/domain/market"
	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/manager/constructionmanager"
	"github.com/acdtunes/fleetctl/internal/manager/contractmanager"
	"github.com/acdtunes/fleetctl/internal/manager/trademanager"
	"github.com/acdtunes/fleetctl/internal/navigation"
	"github.com/acdtunes/fleetctl/internal/shipmanager"
)

type noSupply struct{}

func (noSupply) PurchaseWaypointFor(string) (string, bool)             { return "", false }
func (noSupply) PurchaseWaypointAndPrice(string) (string, int64, bool) { return "", 0, false }

type fakeMarketIndex struct{}

func (fakeMarketIndex) MarketsInSystem(string) []*market.Market { return nil }
func (fakeMarketIndex) HasDetailedData(string) bool              { return false }

func newTestServer(t *testing.T) (*Server, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	ships := shipmanager.New(shared.NewRealClock())
	nav := ship.NavState{SystemSymbol: "X1-AA", WaypointSymbol: "X1-AA-1", Status: ship.NavDocked}
	s, err := ship.New("SHIP-1", 10, "COMMAND", nav, shared.Cargo{Capacity: 40}, shared.Fuel{Current: 100, Capacity: 100}, nil, nil, ship.NewManualRole())
	if err != nil {
		t.Fatalf("ship.New: %v", err)
	}
	ships.AddShip(s)

	planner := navigation.NewPlanner()
	g := navigation.NewGraph("X1-AA")
	g.AddWaypoint(&shared.Waypoint{Symbol: "X1-AA-1", SystemSymbol: "X1-AA", Traits: []string{"MARKETPLACE"}})
	planner.LoadSystemGraph(g)

	trade := trademanager.New(fakeMarketIndex{}, planner)
	contract := contractmanager.New(5, noSupply{})
	build := constructionmanager.New(noSupply{})
	go trade.Run(ctx)
	go contract.Run(ctx)
	go build.Run(ctx)

	srv := NewServer(ships, trademanager.NewMessenger(trade), contractmanager.NewMessenger(contract), constructionmanager.NewMessenger(build), planner)
	return srv, cancel
}

func TestHandleShipsListsRegisteredShips(t *testing.T) {
	srv, cancel := newTestServer(t)
	defer cancel()

	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/ships")
	if err != nil {
		t.Fatalf("GET /api/ships: %v", err)
	}
	defer resp.Body.Close()

	var snaps []ship.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snaps); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Symbol != "SHIP-1" {
		t.Fatalf("unexpected ships payload: %+v", snaps)
	}
}

func TestHandleShipUnknownSymbolIs404(t *testing.T) {
	srv, cancel := newTestServer(t)
	defer cancel()

	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/ships/NOPE")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleStatsReportsShipCount(t *testing.T) {
	srv, cancel := newTestServer(t)
	defer cancel()

	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	defer resp.Body.Close()

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.ShipCount != 1 {
		t.Fatalf("ShipCount = %d, want 1", stats.ShipCount)
	}
}
