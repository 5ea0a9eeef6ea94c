package constructionmanager

import (
	"context"
	"testing"
)

type fakeSupply struct {
	waypoint string
	price    int64
	ok       bool
}

func (f fakeSupply) PurchaseWaypointAndPrice(string) (string, int64, bool) {
	return f.waypoint, f.price, f.ok
}

func runManager(t *testing.T, supply SupplySource) (*Manager, *Messenger, func()) {
	t.Helper()
	m := New(supply)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	return m, NewMessenger(m), cancel
}

func TestRequestNextShipmentCapsUnitsByCargoAndFunds(t *testing.T) {
	supply := fakeSupply{waypoint: "X1-AA-2", price: 100, ok: true}
	m, msgr, cancel := runManager(t, supply)
	defer cancel()
	m.AddSiteMaterial("X1-AA-1", "FAB_MATS", 50)

	sh, err := msgr.RequestNextShipment(context.Background(), "SHIP-1", 10, 500)
	if err != nil {
		t.Fatalf("RequestNextShipment: %v", err)
	}
	if sh == nil {
		t.Fatal("expected a shipment")
	}
	if sh.Units != 5 {
		t.Fatalf("Units = %d, want 5 (funds-limited below cargo cap of 10)", sh.Units)
	}
	if sh.PurchaseWaypoint != "X1-AA-2" || sh.Status != StatusInProgress {
		t.Fatalf("unexpected shipment: %+v", sh)
	}
}

func TestRequestNextShipmentSkipsUnaffordableMaterial(t *testing.T) {
	supply := fakeSupply{ok: false}
	m, msgr, cancel := runManager(t, supply)
	defer cancel()
	m.AddSiteMaterial("X1-AA-1", "FAB_MATS", 50)

	sh, err := msgr.RequestNextShipment(context.Background(), "SHIP-1", 10, 500)
	if err != nil {
		t.Fatalf("RequestNextShipment: %v", err)
	}
	if sh != nil {
		t.Fatalf("expected no shipment when no purchase source is available, got %+v", sh)
	}
}

func TestFinishedShipmentDecrementsRemainingOnlyWhenDelivered(t *testing.T) {
	supply := fakeSupply{waypoint: "X1-AA-2", price: 10, ok: true}
	m, msgr, cancel := runManager(t, supply)
	defer cancel()
	m.AddSiteMaterial("X1-AA-1", "FAB_MATS", 10)

	sh, err := msgr.RequestNextShipment(context.Background(), "SHIP-1", 10, 1000)
	if err != nil || sh == nil {
		t.Fatalf("RequestNextShipment: sh=%+v err=%v", sh, err)
	}

	msgr.FinishedShipment(context.Background(), sh.ID, false)

	// Failed delivery leaves the material fully outstanding, so a new
	// shipment for the same units can be requested again.
	again, err := msgr.RequestNextShipment(context.Background(), "SHIP-2", 10, 1000)
	if err != nil {
		t.Fatalf("RequestNextShipment: %v", err)
	}
	if again == nil || again.Units != 10 {
		t.Fatalf("expected the full 10 units still outstanding after a failed delivery, got %+v", again)
	}

	msgr.FinishedShipment(context.Background(), again.ID, true)

	none, err := msgr.RequestNextShipment(context.Background(), "SHIP-3", 10, 1000)
	if err != nil {
		t.Fatalf("RequestNextShipment: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no shipment once the material is fully delivered, got %+v", none)
	}
}

func TestGetShipsReportsSystemWithUnallocatedMaterial(t *testing.T) {
	supply := fakeSupply{waypoint: "X1-AA-2", price: 10, ok: true}
	m, msgr, cancel := runManager(t, supply)
	defer cancel()
	m.AddSiteMaterial("X1-AA-1", "FAB_MATS", 10)

	required, err := msgr.GetShips(context.Background())
	if err != nil {
		t.Fatalf("GetShips: %v", err)
	}
	if len(required.Requests) != 1 || required.Requests[0].System != "X1-AA" || required.Requests[0].Role != "hauler" {
		t.Fatalf("expected one hauler request for system X1-AA, got %+v", required.Requests)
	}

	sh, err := msgr.RequestNextShipment(context.Background(), "SHIP-1", 10, 1000)
	if err != nil || sh == nil {
		t.Fatalf("RequestNextShipment: sh=%+v err=%v", sh, err)
	}
	msgr.FinishedShipment(context.Background(), sh.ID, true)

	// FinishedShipment and GetShips share one mailbox, so FIFO ordering
	// guarantees the delivery is applied before this request is handled.
	required, err = msgr.GetShips(context.Background())
	if err != nil {
		t.Fatalf("GetShips: %v", err)
	}
	if len(required.Requests) != 0 {
		t.Fatalf("expected no requests once the material is fully delivered, got %+v", required.Requests)
	}
}

func TestGetAllReturnsRegisteredShipments(t *testing.T) {
	supply := fakeSupply{waypoint: "X1-AA-2", price: 10, ok: true}
	m, msgr, cancel := runManager(t, supply)
	defer cancel()
	m.AddSiteMaterial("X1-AA-1", "FAB_MATS", 10)

	sh, err := msgr.RequestNextShipment(context.Background(), "SHIP-1", 10, 1000)
	if err != nil || sh == nil {
		t.Fatalf("RequestNextShipment: sh=%+v err=%v", sh, err)
	}

	all, err := msgr.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 || all[0].ID != sh.ID {
		t.Fatalf("unexpected shipments list: %+v", all)
	}
}
