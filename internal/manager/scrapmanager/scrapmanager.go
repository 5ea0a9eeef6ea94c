// Package scrapmanager decides which marketplace or shipyard each
// scraper ship should visit next and when (spec.md §4.5). Grounded on
// original_source/src/manager/scrapping_manager.rs and its
// priority_calculator.rs due-time formula; message shapes grounded on
// scrapping_manager/message.rs's ScrapMessage enum.
package scrapmanager

import (
	"context"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/infrastructure/config"
	"github.com/acdtunes/fleetctl/internal/manager/common"
	"github.com/acdtunes/fleetctl/internal/navigation"
)

// defaultMaxScrapFailures is the fallback when the fleet config doesn't
// set market.max_scrap_failures (spec.md §9 open question: surface a
// persistently-failing waypoint instead of retrying it forever silently).
const defaultMaxScrapFailures = 3

// Due-time weights (§4.5 "recommended weights").
const (
	ExportWeight   = 0.15
	ImportWeight   = 0.15
	ExchangeWeight = 0.3
)

// IntervalFactor implements the §4.5 formula exactly.
func IntervalFactor(exports, imports, exchanges int) float64 {
	exportFactor := 1 + ExportWeight*float64(exports)
	importFactor := 1 + ImportWeight*math.Log(1+float64(imports))
	exchangeFactor := 1 + ExchangeWeight*math.Log(1+float64(exchanges))/math.Log(10)
	return 1 / (exportFactor * importFactor * exchangeFactor)
}

// NextScrapeAt applies IntervalFactor to a max update interval.
func NextScrapeAt(lastScrape time.Time, maxInterval time.Duration, exports, imports, exchanges int) time.Time {
	factor := IntervalFactor(exports, imports, exchanges)
	return lastScrape.Add(time.Duration(factor * float64(maxInterval)))
}

type waypointRecord struct {
	System       string
	Exports      int
	Imports      int
	Exchanges    int
	LastScrapeAt time.Time // zero value means never scraped (overdue)
	AssignedShip string
	HasShipyard  bool
	Failures     int
	Flagged      bool // already logged as persistently failing
}

// Response is the reply to a Next request.
type Response struct {
	Assigned bool
	Waypoint string
	DueAt    time.Time
}

type nextMsg struct {
	ShipSymbol string
	System     string
	AtWaypoint string
	Reply      chan Response
}

type completeMsg struct {
	ShipSymbol string
	Waypoint   string
}

type failMsg struct {
	ShipSymbol string
	Waypoint   string
}

type getAllMsg struct {
	Reply chan []WaypointDue
}

type getShipsMsg struct {
	Reply chan common.RequiredShips
}

// WaypointDue is one row of the GetAll reply: a waypoint and its
// currently-computed due time.
type WaypointDue struct {
	Waypoint string
	DueAt    time.Time
}

// Manager is the single-task scrapping scheduler actor.
type Manager struct {
	clock            shared.Clock
	maxInterval      time.Duration
	planner          *navigation.Planner
	maxScrapFailures int

	mailbox chan any
	busy    atomic.Bool

	records map[string]*waypointRecord
}

func New(clock shared.Clock, maxInterval time.Duration, planner *navigation.Planner) *Manager {
	return &Manager{
		clock:            clock,
		maxInterval:      maxInterval,
		planner:          planner,
		maxScrapFailures: defaultMaxScrapFailures,
		mailbox:          make(chan any, 64),
		records:          make(map[string]*waypointRecord),
	}
}

// WithMaxScrapFailures overrides the persistent-failure threshold
// (market.max_scrap_failures in the fleet config); zero or negative
// values are ignored and the default is kept.
func (m *Manager) WithMaxScrapFailures(n int) *Manager {
	if n > 0 {
		m.maxScrapFailures = n
	}
	return m
}

// Seed installs the waypoints a system carries so due-time assignment
// has something to rank; called once at startup per system after the
// navigation planner's graphs are loaded.
func (m *Manager) Seed(system string, waypoints []*shared.Waypoint, marketplace func(string) bool, shipyard func(string) bool) {
	for _, wp := range waypoints {
		isMarket := marketplace(wp.Symbol)
		isShipyard := shipyard(wp.Symbol)
		if !isMarket && !isShipyard {
			continue
		}
		if _, ok := m.records[wp.Symbol]; ok {
			continue
		}
		m.records[wp.Symbol] = &waypointRecord{System: system, HasShipyard: isShipyard}
	}
}

// Run services the mailbox until ctx is cancelled (§4.4 general
// manager contract).
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
			case nextMsg:
				msg.Reply <- Response{Assigned: false}
			}
		default:
			return
		}
	}
}

func (m *Manager) handle(raw any) {
	switch msg := raw.(type) {
	case nextMsg:
		msg.Reply <- m.assignNext(msg)
	case completeMsg:
		if rec, ok := m.records[msg.Waypoint]; ok && rec.AssignedShip == msg.ShipSymbol {
			rec.AssignedShip = ""
			rec.LastScrapeAt = m.clock.Now()
			rec.Failures = 0
			rec.Flagged = false
		}
	case failMsg:
		if rec, ok := m.records[msg.Waypoint]; ok && rec.AssignedShip == msg.ShipSymbol {
			rec.AssignedShip = ""
			rec.Failures++
			if rec.Failures > m.maxScrapFailures && !rec.Flagged {
				rec.Flagged = true
				log.Printf("scrapmanager: waypoint %s has failed %d consecutive scrapes, exceeding max_scrap_failures=%d", msg.Waypoint, rec.Failures, m.maxScrapFailures)
			}
		}
	case getAllMsg:
		out := make([]WaypointDue, 0, len(m.records))
		for wp, rec := range m.records {
			out = append(out, WaypointDue{Waypoint: wp, DueAt: NextScrapeAt(rec.LastScrapeAt, m.maxInterval, rec.Exports, rec.Imports, rec.Exchanges)})
		}
		msg.Reply <- out
	case getShipsMsg:
		msg.Reply <- m.getShips()
	}
}

// getShips reports a need for another scrapper in every system carrying
// at least one overdue, unassigned waypoint: assignNext would otherwise
// leave that waypoint stale indefinitely for lack of a ship to visit it.
func (m *Manager) getShips() common.RequiredShips {
	now := m.clock.Now()
	overdue := make(map[string]bool)
	for _, rec := range m.records {
		if rec.AssignedShip != "" {
			continue
		}
		due := NextScrapeAt(rec.LastScrapeAt, m.maxInterval, rec.Exports, rec.Imports, rec.Exchanges)
		if !due.After(now) {
			overdue[rec.System] = true
		}
	}

	var reqs []common.ShipRequest
	for system := range overdue {
		reqs = append(reqs, common.ShipRequest{System: system, Role: "scrapper", Priority: common.PriorityLow, Budget: config.ReservedFundFloorLow})
	}
	return common.RequiredShips{Requests: reqs}
}

// assignNext implements §4.5's assignment algorithm.
func (m *Manager) assignNext(msg nextMsg) Response {
	now := m.clock.Now()

	if rec, ok := m.records[msg.AtWaypoint]; ok && rec.System == msg.System && rec.AssignedShip == "" {
		due := NextScrapeAt(rec.LastScrapeAt, m.maxInterval, rec.Exports, rec.Imports, rec.Exchanges)
		if !due.After(now) {
			rec.AssignedShip = msg.ShipSymbol
			return Response{Assigned: true, Waypoint: msg.AtWaypoint, DueAt: due}
		}
	}

	var wps []*shared.Waypoint
	if m.planner != nil {
		wps = m.planner.WaypointsInSystem(msg.System)
	}
	atWp, atOK := lookupWaypoint(wps, msg.AtWaypoint)

	type candidate struct {
		symbol   string
		due      time.Time
		distance float64
	}
	var best *candidate

	for symbol, rec := range m.records {
		if rec.System != msg.System || rec.AssignedShip != "" {
			continue
		}
		due := NextScrapeAt(rec.LastScrapeAt, m.maxInterval, rec.Exports, rec.Imports, rec.Exchanges)
		if due.After(now) {
			continue
		}
		dist := 0.0
		if atOK {
			if target, ok := lookupWaypoint(wps, symbol); ok {
				dist = atWp.DistanceTo(target)
			}
		}
		if best == nil || dist < best.distance || (dist == best.distance && due.Before(best.due)) {
			best = &candidate{symbol: symbol, due: due, distance: dist}
		}
	}

	if best == nil {
		return Response{Assigned: false}
	}

	m.records[best.symbol].AssignedShip = msg.ShipSymbol
	return Response{Assigned: true, Waypoint: best.symbol, DueAt: best.due}
}

func lookupWaypoint(wps []*shared.Waypoint, symbol string) (*shared.Waypoint, bool) {
	for _, wp := range wps {
		if wp.Symbol == symbol {
			return wp, true
		}
	}
	return nil, false
}

// Messenger is the client handle pilots and other components use to
// talk to the manager without touching its mailbox directly.
type Messenger struct {
	m *Manager
}

func NewMessenger(m *Manager) *Messenger { return &Messenger{m: m} }

func (h *Messenger) Next(ctx context.Context, shipSymbol, system, atWaypoint string) (Response, error) {
	reply := make(chan Response, 1)
	select {
	case h.m.mailbox <- nextMsg{ShipSymbol: shipSymbol, System: system, AtWaypoint: atWaypoint, Reply: reply}:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (h *Messenger) Complete(ctx context.Context, shipSymbol, waypoint string) {
	select {
	case h.m.mailbox <- completeMsg{ShipSymbol: shipSymbol, Waypoint: waypoint}:
	case <-ctx.Done():
	}
}

func (h *Messenger) Fail(ctx context.Context, shipSymbol, waypoint string) {
	select {
	case h.m.mailbox <- failMsg{ShipSymbol: shipSymbol, Waypoint: waypoint}:
	case <-ctx.Done():
	}
}

func (h *Messenger) GetAll(ctx context.Context) ([]WaypointDue, error) {
	reply := make(chan []WaypointDue, 1)
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

func (h *Messenger) IsBusy() bool { return h.m.busy.Load() }

func (h *Messenger) ChannelState() common.ChannelInfo {
	total := cap(h.m.mailbox)
	used := len(h.m.mailbox)
	return common.ChannelInfo{State: common.ChannelOpen, TotalCapacity: total, UsedCapacity: used, FreeCapacity: total - used}
}
