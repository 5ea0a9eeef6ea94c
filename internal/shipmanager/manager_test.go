package shipmanager

import (
	"context"
	"testing"
	"time"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/domain/ship"
)

func newTestShip(t *testing.T, symbol string) *ship.Ship {
	t.Helper()
	nav := ship.NavState{SystemSymbol: "X1-AA", WaypointSymbol: "X1-AA-1", Status: ship.NavDocked}
	cargo := shared.Cargo{Capacity: 40, Units: 0}
	fuel := shared.Fuel{Current: 100, Capacity: 100}
	s, err := ship.New(symbol, 10, "COMMAND", nav, cargo, fuel, nil, nil, ship.NewManualRole())
	if err != nil {
		t.Fatalf("ship.New: %v", err)
	}
	return s
}

func TestAddShipSeedsUnlockedAndCached(t *testing.T) {
	m := New(shared.NewRealClock())
	m.AddShip(newTestShip(t, "SHIP-1"))

	if m.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", m.Count())
	}
	if _, ok := m.GetClone("SHIP-1"); !ok {
		t.Fatal("expected a cached snapshot right after AddShip")
	}

	guard, ok := m.TryGetMut("SHIP-1")
	if !ok {
		t.Fatal("expected the freshly added ship to be unlocked")
	}
	guard.Release()
}

func TestGetMutExcludesConcurrentAccess(t *testing.T) {
	m := New(shared.NewRealClock())
	m.AddShip(newTestShip(t, "SHIP-1"))

	guard, err := m.GetMut(context.Background(), "SHIP-1")
	if err != nil {
		t.Fatalf("GetMut: %v", err)
	}

	if _, ok := m.TryGetMut("SHIP-1"); ok {
		t.Fatal("expected TryGetMut to fail while the ship is held")
	}

	guard.Release()

	if _, ok := m.TryGetMut("SHIP-1"); !ok {
		t.Fatal("expected TryGetMut to succeed after Release")
	}
}

func TestGetMutHonoursContextCancellation(t *testing.T) {
	m := New(shared.NewRealClock())
	m.AddShip(newTestShip(t, "SHIP-1"))

	held, err := m.GetMut(context.Background(), "SHIP-1")
	if err != nil {
		t.Fatalf("GetMut: %v", err)
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := m.GetMut(ctx, "SHIP-1"); err == nil {
		t.Fatal("expected GetMut to fail once ctx is cancelled")
	}
}

func TestGetMutUnknownShip(t *testing.T) {
	m := New(shared.NewRealClock())
	if _, err := m.GetMut(context.Background(), "NOPE"); err != ErrUnknownShip {
		t.Fatalf("err = %v, want ErrUnknownShip", err)
	}
}

func TestReleasePublishesUpdatedSnapshot(t *testing.T) {
	m := New(shared.NewRealClock())
	m.AddShip(newTestShip(t, "SHIP-1"))

	guard, err := m.GetMut(context.Background(), "SHIP-1")
	if err != nil {
		t.Fatalf("GetMut: %v", err)
	}
	guard.Ship().SetStatus(ship.Status{Kind: ship.StatusTrading})
	guard.Release()

	snap, ok := m.GetClone("SHIP-1")
	if !ok {
		t.Fatal("expected a cached snapshot")
	}
	if snap.Status.Kind != ship.StatusTrading {
		t.Fatalf("cached status = %v, want StatusTrading", snap.Status.Kind)
	}
}
