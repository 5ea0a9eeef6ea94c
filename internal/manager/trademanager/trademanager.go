// Package trademanager proposes profitable purchase/sell pairs to
// trader ships and tracks in-flight routes (spec.md §4.6). Grounded on
// original_source/src/manager/trade_manager/routes_calculator.rs's
// RoutesTracker and its should_use_simple_routes coin flip between
// "simple" and "detailed" route generation.
package trademanager

import (
	"context"
	"math/rand"
	"sort"
	"sync/atomic"

	"github.com/acdtunes/fleetctl/internal/domain/market"
	"github.com/acdtunes/fleetctl/internal/manager/common"
	"github.com/acdtunes/fleetctl/internal/navigation"
)

// simpleTradeVolume is route_calculator_simple.rs's hardcoded trade
// volume for simple-mode routes, which never consult a good's own
// trade_volume field.
const simpleTradeVolume = 20

// TradeRoute is the in-memory/persisted shape named in spec.md §3.
type TradeRoute struct {
	ID               string
	TradeSymbol      string
	ShipSymbol       string
	PurchaseWaypoint string
	SellWaypoint     string
	PredictedBuy     int64
	PredictedSell    int64
	TradeVolume      int
	Finished         bool
}

// RoutesTracker locks a route's two endpoints atomically: both free or
// both locked (P3). Lock is non-idempotent per §9's Open Question
// decision — locking an already-locked route fails.
type RoutesTracker struct {
	locked map[string]bool
}

func newRoutesTracker() *RoutesTracker {
	return &RoutesTracker{locked: make(map[string]bool)}
}

func (t *RoutesTracker) Lock(purchase, sell string) bool {
	if t.locked[purchase] || t.locked[sell] {
		return false
	}
	t.locked[purchase] = true
	t.locked[sell] = true
	return true
}

// Unlock releases both endpoints; unlocking an unlocked route is a
// no-op, never a panic (§8 boundary behavior).
func (t *RoutesTracker) Unlock(purchase, sell string) {
	delete(t.locked, purchase)
	delete(t.locked, sell)
}

// MarketIndex is the read-only market-data source the manager consults
// to generate routes; backed by the persistence connector in practice.
type MarketIndex interface {
	MarketsInSystem(system string) []*market.Market
	HasDetailedData(waypoint string) bool
}

type requestNextMsg struct {
	ShipSymbol   string
	System       string
	Blacklist    map[string]bool
	Reply        chan *TradeRoute
}

type completeMsg struct {
	RouteID string
	Reply   chan *TradeRoute
}

type getShipsMsg struct {
	Reply chan common.RequiredShips
}

type getAllMsg struct {
	Reply chan []*TradeRoute
}

// Manager is the single-task trade-route scheduler.
type Manager struct {
	markets MarketIndex
	planner *navigation.Planner

	mailbox chan any
	busy    atomic.Bool

	tracker *RoutesTracker
	routes  map[string]*TradeRoute
	nextID  int

	// randFloat draws the per-request coin flip should_use_simple_routes
	// performs against the cache ratio; overridden in tests for
	// determinism.
	randFloat func() float64
}

func New(markets MarketIndex, planner *navigation.Planner) *Manager {
	return &Manager{
		markets:   markets,
		planner:   planner,
		mailbox:   make(chan any, 64),
		tracker:   newRoutesTracker(),
		routes:    make(map[string]*TradeRoute),
		randFloat: rand.Float64,
	}
}

func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.drain()
			return
		case raw := <-m.mailbox:
			m.busy.Store(true)
			m.handle(raw)
			m.busy.Store(false)
		}
	}
}

func (m *Manager) drain() {
	for {
		select {
		case raw := <-m.mailbox:
			switch msg := raw.(type) {
			case requestNextMsg:
				msg.Reply <- nil
			case completeMsg:
				msg.Reply <- nil
			}
		default:
			return
		}
	}
}

func (m *Manager) handle(raw any) {
	switch msg := raw.(type) {
	case requestNextMsg:
		msg.Reply <- m.requestNext(msg)
	case completeMsg:
		msg.Reply <- m.complete(msg.RouteID)
	case getShipsMsg:
		msg.Reply <- common.RequiredShips{}
	case getAllMsg:
		out := make([]*TradeRoute, 0, len(m.routes))
		for _, r := range m.routes {
			out = append(out, r)
		}
		msg.Reply <- out
	}
}

// candidateRoute is a proposed (purchase, sell) pair before locking.
type candidateRoute struct {
	tradeSymbol      string
	purchaseWaypoint string
	sellWaypoint     string
	buy, sell        int64
	volume           int
	profit           int64
}

// cacheRatio is should_use_simple_routes' cache_ratio: the fraction of a
// system's markets currently carrying recently observed detailed
// trade-good data.
func cacheRatio(markets []*market.Market, idx MarketIndex) float64 {
	if len(markets) == 0 {
		return 0
	}
	detailed := 0
	for _, mkt := range markets {
		if idx.HasDetailedData(mkt.WaypointSymbol()) {
			detailed++
		}
	}
	return float64(detailed) / float64(len(markets))
}

// requestNext picks a route for a ship by first rolling
// should_use_simple_routes' per-request coin flip: a draw above the
// system's cache ratio means too little detailed data has accumulated
// to trust it, so cheap simple-mode pairing runs instead of the
// detailed, profit-filtered search — two distinct algorithms, not a
// detailed-first sort order.
func (m *Manager) requestNext(msg requestNextMsg) *TradeRoute {
	markets := m.markets.MarketsInSystem(msg.System)

	var candidates []candidateRoute
	if m.randFloat() > cacheRatio(markets, m.markets) {
		candidates = m.generateSimpleCandidates(markets, msg.Blacklist)
	} else {
		candidates = m.generateDetailedCandidates(markets, msg.Blacklist)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].profit > candidates[j].profit
	})

	for _, c := range candidates {
		if !m.tracker.Lock(c.purchaseWaypoint, c.sellWaypoint) {
			continue
		}
		m.nextID++
		route := &TradeRoute{
			ID:               idFor(m.nextID),
			TradeSymbol:      c.tradeSymbol,
			ShipSymbol:       msg.ShipSymbol,
			PurchaseWaypoint: c.purchaseWaypoint,
			SellWaypoint:     c.sellWaypoint,
			PredictedBuy:     c.buy,
			PredictedSell:    c.sell,
			TradeVolume:      c.volume,
		}
		m.routes[route.ID] = route
		return route
	}
	return nil
}

// generateSimpleCandidates implements §4.6's simple mode: every pair
// sharing a trade symbol across distinct waypoints is a candidate,
// win or lose, mirroring route_calculator_simple.rs's unconditional
// pairing — no detailed trade-good data and no profit filter.
func (m *Manager) generateSimpleCandidates(markets []*market.Market, blacklist map[string]bool) []candidateRoute {
	var out []candidateRoute
	for _, exportM := range markets {
		for _, good := range exportM.TradeGoods() {
			if blacklist[good.Symbol()] {
				continue
			}
			if good.PurchasePrice() <= 0 {
				continue
			}
			for _, importM := range markets {
				if importM.WaypointSymbol() == exportM.WaypointSymbol() {
					continue
				}
				importGood := importM.FindGood(good.Symbol())
				if importGood == nil || importGood.SellPrice() <= 0 {
					continue
				}

				out = append(out, candidateRoute{
					tradeSymbol:      good.Symbol(),
					purchaseWaypoint: exportM.WaypointSymbol(),
					sellWaypoint:     importM.WaypointSymbol(),
					buy:              int64(good.PurchasePrice()),
					sell:             int64(importGood.SellPrice()),
					volume:           simpleTradeVolume,
					profit:           (int64(importGood.SellPrice()) - int64(good.PurchasePrice())) * int64(simpleTradeVolume),
				})
			}
		}
	}
	return out
}

// generateDetailedCandidates implements §4.6's detailed mode: both sides
// of a pair must carry recent trade-good detail (market.HasDetailedData)
// and the pair must turn a profit, mirroring
// calculate_best_complex_route's profit > 0 filter over recently cached
// market data.
func (m *Manager) generateDetailedCandidates(markets []*market.Market, blacklist map[string]bool) []candidateRoute {
	var out []candidateRoute
	for _, exportM := range markets {
		if !m.markets.HasDetailedData(exportM.WaypointSymbol()) {
			continue
		}
		for _, good := range exportM.TradeGoods() {
			if blacklist[good.Symbol()] {
				continue
			}
			if good.PurchasePrice() <= 0 {
				continue
			}
			for _, importM := range markets {
				if importM.WaypointSymbol() == exportM.WaypointSymbol() {
					continue
				}
				if !m.markets.HasDetailedData(importM.WaypointSymbol()) {
					continue
				}
				importGood := importM.FindGood(good.Symbol())
				if importGood == nil || importGood.SellPrice() <= 0 {
					continue
				}

				volume := good.TradeVolume()
				if importGood.TradeVolume() < volume {
					volume = importGood.TradeVolume()
				}
				profit := (int64(importGood.SellPrice()) - int64(good.PurchasePrice())) * int64(volume)
				if profit <= 0 {
					continue
				}

				out = append(out, candidateRoute{
					tradeSymbol:      good.Symbol(),
					purchaseWaypoint: exportM.WaypointSymbol(),
					sellWaypoint:     importM.WaypointSymbol(),
					buy:              int64(good.PurchasePrice()),
					sell:             int64(importGood.SellPrice()),
					volume:           volume,
					profit:           profit,
				})
			}
		}
	}
	return out
}

func (m *Manager) complete(routeID string) *TradeRoute {
	route, ok := m.routes[routeID]
	if !ok {
		return nil
	}
	route.Finished = true
	m.tracker.Unlock(route.PurchaseWaypoint, route.SellWaypoint)
	return route
}

func idFor(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	if n == 0 {
		return "route-0"
	}
	buf := make([]byte, 0, 8)
	for n > 0 {
		buf = append([]byte{letters[n%len(letters)]}, buf...)
		n /= len(letters)
	}
	return "route-" + string(buf)
}

// Messenger is the client-facing handle (§4.6's RequestNextTradeRoute /
// CompleteTradeRoute messages).
type Messenger struct{ m *Manager }

func NewMessenger(m *Manager) *Messenger { return &Messenger{m: m} }

func (h *Messenger) RequestNextTradeRoute(ctx context.Context, shipSymbol, system string, blacklist map[string]bool) (*TradeRoute, error) {
	reply := make(chan *TradeRoute, 1)
	select {
	case h.m.mailbox <- requestNextMsg{ShipSymbol: shipSymbol, System: system, Blacklist: blacklist, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case route := <-reply:
		return route, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Messenger) CompleteTradeRoute(ctx context.Context, routeID string) (*TradeRoute, error) {
	reply := make(chan *TradeRoute, 1)
	select {
	case h.m.mailbox <- completeMsg{RouteID: routeID, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case route := <-reply:
		return route, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Messenger) GetShips(ctx context.Context) (common.RequiredShips, error) {
	reply := make(chan common.RequiredShips, 1)
	select {
	case h.m.mailbox <- getShipsMsg{Reply: reply}:
	case <-ctx.Done():
		return common.RequiredShips{}, ctx.Err()
	}
	select {
	case out := <-reply:
		return out, nil
	case <-ctx.Done():
		return common.RequiredShips{}, ctx.Err()
	}
}

func (h *Messenger) GetAll(ctx context.Context) ([]*TradeRoute, error) {
	reply := make(chan []*TradeRoute, 1)
	select {
	case h.m.mailbox <- getAllMsg{Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case out := <-reply:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Messenger) IsBusy() bool { return h.m.busy.Load() }

func (h *Messenger) ChannelState() common.ChannelInfo {
	total := cap(h.m.mailbox)
	used := len(h.m.mailbox)
	return common.ChannelInfo{State: common.ChannelOpen, TotalCapacity: total, UsedCapacity: used, FreeCapacity: total - used}
}
