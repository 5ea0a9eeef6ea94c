package scrapmanager

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
)

// Scenario 5 from spec.md §8: E=4, I=3, X=2, T_max=3600s, default
// weights → interval_factor ≈ 0.39, next_scrape ≈ last_scrape + 1400s.
func TestIntervalFactorScenario5(t *testing.T) {
	factor := IntervalFactor(4, 3, 2)
	if math.Abs(factor-0.39) > 0.01 {
		t.Fatalf("interval factor = %v, want ≈0.39", factor)
	}

	last := time.Unix(0, 0).UTC()
	due := NextScrapeAt(last, 3600*time.Second, 4, 3, 2)
	gotSeconds := due.Sub(last).Seconds()
	if math.Abs(gotSeconds-1400) > 5 {
		t.Fatalf("next_scrape offset = %vs, want ≈1400s", gotSeconds)
	}
}

func TestIntervalFactorNoActivityIsSlowest(t *testing.T) {
	if IntervalFactor(0, 0, 0) != 1 {
		t.Fatalf("interval factor with no exports/imports/exchanges should be 1 (no discount)")
	}
}

func TestNeverScrapedIsOverdue(t *testing.T) {
	m := New(shared.NewRealClock(), time.Hour, nil)
	m.records["X1-AA"] = &waypointRecord{System: "X1"}
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	defer cancel()

	msgr := NewMessenger(m)
	resp, err := msgr.Next(ctx, "SHIP-1", "X1", "X1-ZZ")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Assigned || resp.Waypoint != "X1-AA" {
		t.Fatalf("expected assignment to the only never-scraped waypoint, got %+v", resp)
	}
}

func TestGetShipsReportsOverdueUnassignedWaypointSystems(t *testing.T) {
	m := New(shared.NewRealClock(), time.Hour, nil)
	m.records["X1-AA"] = &waypointRecord{System: "X1"}       // never scraped, overdue
	m.records["X1-BB"] = &waypointRecord{System: "X1", AssignedShip: "SHIP-9"} // overdue but already covered
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	defer cancel()

	msgr := NewMessenger(m)
	required, err := msgr.GetShips(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(required.Requests) != 1 || required.Requests[0].System != "X1" || required.Requests[0].Role != "scrapper" {
		t.Fatalf("expected one scrapper request for system X1, got %+v", required.Requests)
	}
}

func TestGetShipsReportsNothingWithNoOverdueWaypoints(t *testing.T) {
	m := New(shared.NewRealClock(), time.Hour, nil)
	m.records["X1-AA"] = &waypointRecord{System: "X1", LastScrapeAt: shared.NewRealClock().Now()}
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	defer cancel()

	msgr := NewMessenger(m)
	required, err := msgr.GetShips(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(required.Requests) != 0 {
		t.Fatalf("expected no requests, got %+v", required.Requests)
	}
}

func TestFailIncrementsFailureCounterAndResetsOnComplete(t *testing.T) {
	m := New(shared.NewRealClock(), time.Hour, nil).WithMaxScrapFailures(2)
	m.records["X1-AA"] = &waypointRecord{System: "X1"}
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	defer cancel()

	msgr := NewMessenger(m)
	if _, err := msgr.Next(ctx, "SHIP-1", "X1", "X1-AA"); err != nil {
		t.Fatal(err)
	}
	msgr.Fail(ctx, "SHIP-1", "X1-AA")

	// Give the actor a tick to process the fire-and-forget Fail message
	// before inspecting state directly (safe: this is the same package).
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.records["X1-AA"].Failures > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if got := m.records["X1-AA"].Failures; got != 1 {
		t.Fatalf("Failures = %d, want 1", got)
	}

	if _, err := msgr.Next(ctx, "SHIP-1", "X1", "X1-AA"); err != nil {
		t.Fatal(err)
	}
	msgr.Complete(ctx, "SHIP-1", "X1-AA")

	deadline = time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.records["X1-AA"].Failures == 0 && !m.records["X1-AA"].Flagged {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if m.records["X1-AA"].Failures != 0 {
		t.Fatalf("Failures should reset to 0 after a successful Complete, got %d", m.records["X1-AA"].Failures)
	}
}
