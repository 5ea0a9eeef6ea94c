// Package pilot runs the per-ship task loop of spec.md §4.11: load the
// ship's persistent role, dispatch to the matching sub-pilot for one
// cycle, repeat until cancelled. Grounded on
// original_source/src/pilot/mod.rs's Pilot::pilot_ship /
// Pilot::pilot_circle, translated from its role-match dispatch into a Go
// switch over ship.RoleKind.
package pilot

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/acdtunes/fleetctl/internal/domain/ship"
	"github.com/acdtunes/fleetctl/internal/manager/chartmanager"
	"github.com/acdtunes/fleetctl/internal/manager/constructionmanager"
	"github.com/acdtunes/fleetctl/internal/manager/contractmanager"
	"github.com/acdtunes/fleetctl/internal/manager/fleetmanager"
	"github.com/acdtunes/fleetctl/internal/manager/miningmanager"
	"github.com/acdtunes/fleetctl/internal/manager/scrapmanager"
	"github.com/acdtunes/fleetctl/internal/manager/trademanager"
	"github.com/acdtunes/fleetctl/internal/marketcache"
	"github.com/acdtunes/fleetctl/internal/shipactor"
	"github.com/acdtunes/fleetctl/internal/shipmanager"
)

// Dependencies are the collaborators every pilot loop needs. They are
// shared read-only handles; the loop never mutates them, only calls
// through their Messenger/Actor surfaces (spec.md §4.4 "manager-to-
// manager calls are not permitted" applies equally to pilots, which only
// ever talk to one manager at a time per call).
type Dependencies struct {
	ShipManager  *shipmanager.Manager
	Trade        *trademanager.Messenger
	Contract     *contractmanager.Messenger
	Mining       *miningmanager.Messenger
	Scrap        *scrapmanager.Messenger
	Chart        *chartmanager.Messenger
	Construction *constructionmanager.Messenger
	Fleet        *fleetmanager.Messenger
	Markets      *marketcache.Cache

	TradeBlacklist map[string]bool

	// MaxTransferJumpRetries caps how many times runTransferCycle
	// re-plans and retries a failed jump before giving up (§4.10).
	MaxTransferJumpRetries int
}

// Loop is the per-ship task of §4.11.
type Loop struct {
	shipSymbol string
	actor      *shipactor.Actor
	deps       *Dependencies
}

func NewLoop(shipSymbol string, actor *shipactor.Actor, deps *Dependencies) *Loop {
	return &Loop{shipSymbol: shipSymbol, actor: actor, deps: deps}
}

// Run loops cycles until ctx is cancelled. Per §4.11 step 4, the loop
// only checks for cancellation between cycles — a cycle in progress
// always finishes its critical section first.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if transfer := l.checkTransfer(ctx); transfer != nil {
			if err := l.runTransferCycle(ctx, transfer); err != nil {
				log.Printf("pilot[%s]: transfer cycle error: %v", l.shipSymbol, err)
			}
			continue
		}

		role, ok := l.loadRole(ctx)
		if !ok {
			return
		}

		if role.Kind == ship.RoleManual {
			if !l.sleepJitter(ctx) {
				return
			}
			continue
		}

		var err error
		switch role.Kind {
		case ship.RoleTrader:
			err = l.runTradeCycle(ctx, role)
		case ship.RoleContract:
			err = l.runContractCycle(ctx, role)
		case ship.RoleMining:
			err = l.runMiningCycle(ctx)
		case ship.RoleScraper:
			err = l.runScrapeCycle(ctx)
		case ship.RoleConstruction:
			err = l.runConstructionCycle(ctx)
		case ship.RoleCharting:
			err = l.runChartCycle(ctx)
		}
		if err != nil {
			log.Printf("pilot[%s]: cycle error: %v", l.shipSymbol, err)
		}
	}
}

// loadRole reads the ship's persistent pilot role (§4.11 step 1).
func (l *Loop) loadRole(ctx context.Context) (ship.PilotRole, bool) {
	guard, err := l.deps.ShipManager.GetMut(ctx, l.shipSymbol)
	if err != nil {
		return ship.PilotRole{}, false
	}
	role := guard.Ship().PilotRole()
	guard.Release()
	return role, true
}

func (l *Loop) setRole(ctx context.Context, role ship.PilotRole) {
	guard, err := l.deps.ShipManager.GetMut(ctx, l.shipSymbol)
	if err != nil {
		return
	}
	guard.Ship().SetPilotRole(role)
	guard.Release()
}

func (l *Loop) setStatus(ctx context.Context, status ship.Status) {
	guard, err := l.deps.ShipManager.GetMut(ctx, l.shipSymbol)
	if err != nil {
		return
	}
	guard.Ship().SetStatus(status)
	guard.Release()
}

func (l *Loop) currentSystemAndWaypoint(ctx context.Context) (system, waypoint string, ok bool) {
	guard, err := l.deps.ShipManager.GetMut(ctx, l.shipSymbol)
	if err != nil {
		return "", "", false
	}
	nav := guard.Ship().Nav()
	guard.Release()
	return nav.SystemSymbol, nav.WaypointSymbol, true
}

// sleepJitter waits 1-2 seconds, cancellation-aware, matching
// original_source/src/pilot/mod.rs's wait_for_activation/wait_for_new_role
// jitter. Returns false if ctx was cancelled while waiting.
func (l *Loop) sleepJitter(ctx context.Context) bool {
	d := time.Second + time.Duration(rand.Int63n(int64(time.Second)))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// TaskHandler spawns and supervises every ship's pilot loop, and
// coordinates shutdown: it waits for every pilot task to finish before
// the caller cancels the manager layer (§5 "the task handler waits for
// every pilot task to complete after cancellation, then cancels the
// manager layer").
type TaskHandler struct {
	cancel context.CancelFunc
	done   chan struct{}
	count  int
	finish chan struct{}
}

func NewTaskHandler(cancel context.CancelFunc) *TaskHandler {
	return &TaskHandler{cancel: cancel, finish: make(chan struct{})}
}

// Spawn runs loop.Run in its own goroutine, tracked for Shutdown.
func (h *TaskHandler) Spawn(ctx context.Context, loop *Loop) {
	h.count++
	go func() {
		loop.Run(ctx)
		h.finish <- struct{}{}
	}()
}

// Shutdown cancels the process-level context and waits for every spawned
// pilot task to report completion.
func (h *TaskHandler) Shutdown() {
	h.cancel()
	for i := 0; i < h.count; i++ {
		<-h.finish
	}
}
