// Package shipmanager is the ship registry: it owns every ship record
// exclusively, mediates access through a per-ship lock, and maintains a
// read-write-locked snapshot cache for lock-free observers (spec.md
// §4.2, §9 "per-ship exclusive access"). Grounded on
// original_source/ship/src/ship_manager.rs's ShipManager<T>, which pairs
// a LockableHashMap of ships with an RwLock<HashMap> snapshot copy and a
// broadcast channel; the per-ship lock here is a buffered
// chan struct{} used as a single-token semaphore, since Go has no
// built-in async-aware mutex map.
package shipmanager

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/acdtunes/fleetctl/internal/domain/ship"
)

var ErrUnknownShip = errors.New("shipmanager: unknown ship")

type Clock interface {
	Now() time.Time
}

// Manager is the registry described in §4.2's contract: add_ship,
// get_mut, try_get_mut, get_clone, get_all_clone, get_rx, count.
type Manager struct {
	clock Clock

	mu    sync.RWMutex
	ships map[string]*ship.Ship
	locks map[string]chan struct{}

	cacheMu sync.RWMutex
	cache   map[string]ship.Snapshot

	broadcaster *Broadcaster
}

func New(clock Clock) *Manager {
	return &Manager{
		clock:       clock,
		ships:       make(map[string]*ship.Ship),
		locks:       make(map[string]chan struct{}),
		cache:       make(map[string]ship.Snapshot),
		broadcaster: NewBroadcaster(DefaultCapacity),
	}
}

// AddShip registers a new ship, seeding the lock (released) and the
// snapshot cache.
func (m *Manager) AddShip(s *ship.Ship) {
	symbol := s.Symbol()

	lock := make(chan struct{}, 1)
	lock <- struct{}{}

	m.mu.Lock()
	m.ships[symbol] = s
	m.locks[symbol] = lock
	m.mu.Unlock()

	m.publish(s)
}

// Guard is the exclusive handle returned by GetMut/TryGetMut. Callers
// must call Release exactly once; Release publishes the ship's current
// state to the snapshot cache and broadcast fan-out before returning
// the lock token (§4.1 "observer contract").
type Guard struct {
	m      *Manager
	symbol string
	ship   *ship.Ship
}

func (g *Guard) Ship() *ship.Ship { return g.ship }

func (g *Guard) Release() {
	g.m.publish(g.ship)
	g.m.mu.RLock()
	lock := g.m.locks[g.symbol]
	g.m.mu.RUnlock()
	if lock != nil {
		select {
		case lock <- struct{}{}:
		default:
		}
	}
}

// GetMut waits for exclusive access to a ship, honoring ctx cancellation
// (§5 "suspension points... all cancellation-aware").
func (m *Manager) GetMut(ctx context.Context, symbol string) (*Guard, error) {
	m.mu.RLock()
	s, ok := m.ships[symbol]
	lock, lok := m.locks[symbol]
	m.mu.RUnlock()
	if !ok || !lok {
		return nil, ErrUnknownShip
	}

	select {
	case <-lock:
		return &Guard{m: m, symbol: symbol, ship: s}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryGetMut returns immediately: (guard, true) if the ship was free,
// (nil, false) if it is currently held.
func (m *Manager) TryGetMut(symbol string) (*Guard, bool) {
	m.mu.RLock()
	s, ok := m.ships[symbol]
	lock, lok := m.locks[symbol]
	m.mu.RUnlock()
	if !ok || !lok {
		return nil, false
	}

	select {
	case <-lock:
		return &Guard{m: m, symbol: symbol, ship: s}, true
	default:
		return nil, false
	}
}

// GetClone returns a snapshot from the cache without touching the
// per-ship lock, so observers never block mutators (§4.2).
func (m *Manager) GetClone(symbol string) (ship.Snapshot, bool) {
	if ok := m.cacheMu.TryRLock(); ok {
		defer m.cacheMu.RUnlock()
		snap, found := m.cache[symbol]
		return snap, found
	}
	log.Printf("shipmanager: snapshot cache contended, escalating to blocking read for %s", symbol)
	m.cacheMu.RLock()
	defer m.cacheMu.RUnlock()
	snap, found := m.cache[symbol]
	return snap, found
}

// GetAllClone returns every cached snapshot.
func (m *Manager) GetAllClone() []ship.Snapshot {
	read := func() []ship.Snapshot {
		out := make([]ship.Snapshot, 0, len(m.cache))
		for _, snap := range m.cache {
			out = append(out, snap)
		}
		return out
	}

	if ok := m.cacheMu.TryRLock(); ok {
		defer m.cacheMu.RUnlock()
		return read()
	}
	log.Printf("shipmanager: snapshot cache contended, escalating to blocking read for get_all_clone")
	m.cacheMu.RLock()
	defer m.cacheMu.RUnlock()
	return read()
}

// GetRx returns a subscription to the snapshot broadcast fan-out.
func (m *Manager) GetRx() *Subscription {
	return m.broadcaster.Subscribe()
}

// Count returns the number of registered ships.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ships)
}

func (m *Manager) publish(s *ship.Ship) {
	snap := s.ToSnapshot(m.clock.Now())

	m.cacheMu.Lock()
	m.cache[snap.Symbol] = snap
	m.cacheMu.Unlock()

	m.broadcaster.Publish(snap)
}
