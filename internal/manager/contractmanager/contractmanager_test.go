package contractmanager

import (
	"context"
	"testing"

	"github.com/acdtunes/fleetctl/internal/domain/contract"
	"github.com/acdtunes/fleetctl/internal/domain/shared"
)

type fakeSupply struct {
	waypoint string
	ok       bool
}

func (f fakeSupply) PurchaseWaypointFor(string) (string, bool) { return f.waypoint, f.ok }

func newAcceptedContract(t *testing.T, id, tradeSymbol, dest string, unitsRequired int) *contract.Contract {
	t.Helper()
	terms := contract.Terms{
		Deliveries: []contract.Delivery{
			{TradeSymbol: tradeSymbol, DestinationSymbol: dest, UnitsRequired: unitsRequired},
		},
	}
	c, err := contract.NewContract(id, shared.MustNewPlayerID(1), "COSMIC", "PROCUREMENT", terms, nil)
	if err != nil {
		t.Fatalf("NewContract: %v", err)
	}
	if err := c.Accept(); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	return c
}

func runManager(t *testing.T, maxContracts int, supply SupplySource) (*Manager, *Messenger, func()) {
	t.Helper()
	m := New(maxContracts, supply)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	return m, NewMessenger(m), cancel
}

func TestRequestNextShipmentCapsUnitsByCargo(t *testing.T) {
	m, msgr, cancel := runManager(t, 5, fakeSupply{waypoint: "X1-AA-1", ok: true})
	defer cancel()
	m.AddContract(newAcceptedContract(t, "contract-1", "IRON_ORE", "X1-AA-9", 50))

	sh, err := msgr.RequestNextShipment(context.Background(), "SHIP-1", 10)
	if err != nil {
		t.Fatalf("RequestNextShipment: %v", err)
	}
	if sh == nil {
		t.Fatal("expected a shipment")
	}
	if sh.Units != 10 {
		t.Fatalf("Units = %d, want 10 (cargo-capped)", sh.Units)
	}
	if sh.PurchaseWaypoint != "X1-AA-1" || sh.DestinationWaypoint != "X1-AA-9" || sh.Status != StatusInProgress {
		t.Fatalf("unexpected shipment: %+v", sh)
	}
}

func TestRequestNextShipmentSkipsWhenNoPurchaseSource(t *testing.T) {
	m, msgr, cancel := runManager(t, 5, fakeSupply{ok: false})
	defer cancel()
	m.AddContract(newAcceptedContract(t, "contract-1", "IRON_ORE", "X1-AA-9", 50))

	sh, err := msgr.RequestNextShipment(context.Background(), "SHIP-1", 10)
	if err != nil {
		t.Fatalf("RequestNextShipment: %v", err)
	}
	if sh != nil {
		t.Fatalf("expected no shipment without a purchase source, got %+v", sh)
	}
}

func TestAddContractRejectsPastMaxContracts(t *testing.T) {
	m, msgr, cancel := runManager(t, 1, fakeSupply{waypoint: "X1-AA-1", ok: true})
	defer cancel()

	m.AddContract(newAcceptedContract(t, "contract-1", "IRON_ORE", "X1-AA-9", 10))
	m.AddContract(newAcceptedContract(t, "contract-2", "COPPER_ORE", "X1-AA-9", 10))

	// Only the first contract should have been registered; a shipment for
	// the second contract's good must never appear.
	sh, err := msgr.RequestNextShipment(context.Background(), "SHIP-1", 100)
	if err != nil {
		t.Fatalf("RequestNextShipment: %v", err)
	}
	if sh == nil || sh.TradeSymbol != "IRON_ORE" {
		t.Fatalf("expected a shipment for the first contract only, got %+v", sh)
	}
}

func TestFinishedShipmentUpdatesStatusAndFreesItsAllocation(t *testing.T) {
	m, msgr, cancel := runManager(t, 5, fakeSupply{waypoint: "X1-AA-1", ok: true})
	defer cancel()
	m.AddContract(newAcceptedContract(t, "contract-1", "IRON_ORE", "X1-AA-9", 10))

	sh, err := msgr.RequestNextShipment(context.Background(), "SHIP-1", 10)
	if err != nil || sh == nil {
		t.Fatalf("RequestNextShipment: sh=%+v err=%v", sh, err)
	}

	msgr.FinishedShipment(context.Background(), sh.ID, true)

	all, err := msgr.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 || all[0].Status != StatusDelivered {
		t.Fatalf("unexpected shipments: %+v", all)
	}

	// requestNext only counts shipments still InProgress as allocated, so
	// a delivered shipment's units become requestable again. Tracking
	// actual fulfillment against the contract is the pilot's job via
	// contract.DeliverCargo on the aggregate itself.
	again, err := msgr.RequestNextShipment(context.Background(), "SHIP-2", 10)
	if err != nil {
		t.Fatalf("RequestNextShipment: %v", err)
	}
	if again == nil {
		t.Fatal("expected the delivered shipment's units to be requestable again")
	}
}
