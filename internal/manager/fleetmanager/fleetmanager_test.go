package fleetmanager

import (
	"context"
	"testing"

	"github.com/acdtunes/fleetctl/internal/infrastructure/config"
	"github.com/acdtunes/fleetctl/internal/manager/common"
)

func runManager(t *testing.T) (*Manager, *Messenger, func()) {
	t.Helper()
	m := New()
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	return m, NewMessenger(m), cancel
}

func TestReserveFailsBelowPriorityFloor(t *testing.T) {
	_, msgr, cancel := runManager(t)
	defer cancel()

	// Credits barely clear the high floor before the reservation; after
	// deducting 50,000 the remainder falls under ReservedFundFloorHigh.
	credits := config.ReservedFundFloorHigh + 40_000
	_, ok, err := msgr.Reserve(context.Background(), common.PriorityHigh, 50_000, credits)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if ok {
		t.Fatal("expected reservation to fail once it would breach the high-priority floor")
	}
}

func TestReserveSucceedsAboveFloorThenConfirm(t *testing.T) {
	_, msgr, cancel := runManager(t)
	defer cancel()

	credits := config.ReservedFundFloorHigh + 200_000
	fundID, ok, err := msgr.Reserve(context.Background(), common.PriorityHigh, 50_000, credits)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !ok || fundID == "" {
		t.Fatal("expected a successful reservation with a fund id")
	}

	msgr.Confirm(context.Background(), fundID, 48_000)
}

func TestSecondReservationAccountsForFirstsReservedAmount(t *testing.T) {
	_, msgr, cancel := runManager(t)
	defer cancel()

	credits := config.ReservedFundFloorHigh + 50_000
	_, first, err := msgr.Reserve(context.Background(), common.PriorityHigh, 30_000, credits)
	if err != nil || !first {
		t.Fatalf("expected the first reservation to succeed, ok=%v err=%v", first, err)
	}

	// A second reservation of the same size would now push the
	// remainder under the floor because the first fund is still held.
	_, second, err := msgr.Reserve(context.Background(), common.PriorityHigh, 30_000, credits)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if second {
		t.Fatal("expected the second reservation to fail while the first fund is still reserved")
	}
}

// fakeProvider is a stub common.ShipsProvider standing in for a role
// manager's messenger in procurement tests.
type fakeProvider struct {
	requests []common.ShipRequest
}

func (f fakeProvider) GetShips(ctx context.Context) (common.RequiredShips, error) {
	return common.RequiredShips{Requests: f.requests}, nil
}

func TestProcurePicksHighestPriorityWithinBudget(t *testing.T) {
	m := New()
	m.RegisterProvider("mining", fakeProvider{requests: []common.ShipRequest{
		{System: "X1-AA", Role: "extractor", Priority: common.PriorityMedium, Budget: 300_000},
	}})
	m.RegisterProvider("scrap", fakeProvider{requests: []common.ShipRequest{
		{System: "X1-AA", Role: "scrapper", Priority: common.PriorityLow, Budget: 300_000},
	}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)
	msgr := NewMessenger(m)

	listings := []ShipyardListing{{ShipType: "MINING_DRONE", Price: 150_000}}
	jumps := func(system string) (int, bool) { return 1, system == "X1-AA" }

	decision, err := msgr.ScrapperAtShipyard(context.Background(), "X1-AA-SHIPYARD", "SHIP-1", 10_000_000, listings, jumps)
	if err != nil {
		t.Fatalf("ScrapperAtShipyard: %v", err)
	}
	if decision == nil {
		t.Fatal("expected a procurement decision")
	}
	if decision.Role != "extractor" || decision.Priority != common.PriorityMedium {
		t.Fatalf("expected the medium-priority extractor request to win over the low-priority scrapper one, got %+v", decision)
	}
	if decision.ShipType != "MINING_DRONE" {
		t.Fatalf("decision.ShipType = %q, want MINING_DRONE", decision.ShipType)
	}
}

func TestProcureRejectsCandidatesOverBudgetOrFloor(t *testing.T) {
	m := New()
	m.RegisterProvider("construction", fakeProvider{requests: []common.ShipRequest{
		{System: "X1-AA", Role: "hauler", Priority: common.PriorityLow, Budget: 50_000},
	}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)
	msgr := NewMessenger(m)

	listings := []ShipyardListing{{ShipType: "LIGHT_HAULER", Price: 80_000}}
	jumps := func(string) (int, bool) { return 0, true }

	decision, err := msgr.ScrapperAtShipyard(context.Background(), "X1-AA-SHIPYARD", "SHIP-1", 10_000_000, listings, jumps)
	if err != nil {
		t.Fatalf("ScrapperAtShipyard: %v", err)
	}
	if decision != nil {
		t.Fatalf("expected no decision once the listing price exceeds the request's budget, got %+v", decision)
	}
}

func TestShipTransferRoundTrip(t *testing.T) {
	_, msgr, cancel := runManager(t)
	defer cancel()

	msgr.AddTransfer(context.Background(), ShipTransfer{ShipSymbol: "SHIP-1", TargetSystem: "X1-BB", TargetRole: "TRADER"})

	got, err := msgr.GetTransfer(context.Background(), "SHIP-1")
	if err != nil {
		t.Fatalf("GetTransfer: %v", err)
	}
	if got == nil || got.Finished {
		t.Fatalf("expected an unfinished transfer, got %+v", got)
	}

	msgr.ShipArrived(context.Background(), "SHIP-1")

	got, err = msgr.GetTransfer(context.Background(), "SHIP-1")
	if err != nil {
		t.Fatalf("GetTransfer: %v", err)
	}
	if got == nil || !got.Finished {
		t.Fatalf("expected the transfer to be finished after ShipArrived, got %+v", got)
	}
}
