// Package chartmanager tracks un-charted waypoints per system and hands
// the nearest one to a requesting ship (spec.md §4.9's chart manager).
// Grounded on original_source/src/manager/chart_manager.rs, following the
// mailbox+Messenger actor template established by scrapmanager.
package chartmanager

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/infrastructure/config"
	"github.com/acdtunes/fleetctl/internal/manager/common"
	"github.com/acdtunes/fleetctl/internal/navigation"
)

// ErrNoChartsInSystem is returned by Next when every known waypoint of a
// ship's system is already charted (or in progress/failed), matching
// §4.9's NoChartsInSystem reply.
var ErrNoChartsInSystem = errors.New("chartmanager: no charts remaining in system")

// Status mirrors §4.9's pending/done/failed transitions.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusDone
	StatusFailed
)

type waypointRecord struct {
	System string
	Status Status
}

type nextMsg struct {
	ShipSymbol string
	System     string
	AtWaypoint string
	Reply      chan nextResult
}

type nextResult struct {
	Waypoint string
	Err      error
}

type successMsg struct {
	ShipSymbol string
	Waypoint   string
}

type failMsg struct {
	ShipSymbol string
	Waypoint   string
}

type getShipsMsg struct {
	Reply chan common.RequiredShips
}

// Manager is the single-task charting scheduler actor.
type Manager struct {
	planner *navigation.Planner

	mailbox chan any
	busy    atomic.Bool

	records map[string]*waypointRecord
}

func New(planner *navigation.Planner) *Manager {
	return &Manager{
		planner: planner,
		mailbox: make(chan any, 64),
		records: make(map[string]*waypointRecord),
	}
}

// Seed registers every given waypoint of a system as pending-chart,
// leaving waypoints it already tracks unchanged. It does not check
// whether a waypoint is already charted; the caller's list decides
// which waypoints are queued.
func (m *Manager) Seed(system string, waypoints []string) {
	for _, wp := range waypoints {
		if _, ok := m.records[wp]; ok {
			continue
		}
		m.records[wp] = &waypointRecord{System: system, Status: StatusPending}
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
			case nextMsg:
				msg.Reply <- nextResult{Err: context.Canceled}
			case getShipsMsg:
				msg.Reply <- common.RequiredShips{}
			}
		default:
			return
		}
	}
}

func (m *Manager) handle(raw any) {
	switch msg := raw.(type) {
	case nextMsg:
		msg.Reply <- m.next(msg)
	case successMsg:
		if rec, ok := m.records[msg.Waypoint]; ok {
			rec.Status = StatusDone
		}
	case failMsg:
		if rec, ok := m.records[msg.Waypoint]; ok {
			rec.Status = StatusFailed
		}
	case getShipsMsg:
		msg.Reply <- m.getShips()
	}
}

// getShips reports a need for another charting ship (probe/explorer) in
// every system still carrying a pending, unassigned waypoint: Next alone
// can't make progress on a system's backlog without a ship to dispatch.
func (m *Manager) getShips() common.RequiredShips {
	pending := make(map[string]bool)
	for _, rec := range m.records {
		if rec.Status == StatusPending {
			pending[rec.System] = true
		}
	}

	var reqs []common.ShipRequest
	for system := range pending {
		reqs = append(reqs, common.ShipRequest{System: system, Role: "probe", Priority: common.PriorityLow, Budget: config.ReservedFundFloorLow})
	}
	return common.RequiredShips{Requests: reqs}
}

// next implements §4.9's "Next{ship} returns the nearest un-charted
// waypoint in the ship's system, or NoChartsInSystem if none remain".
func (m *Manager) next(msg nextMsg) nextResult {
	var wps []*shared.Waypoint
	if m.planner != nil {
		wps = m.planner.WaypointsInSystem(msg.System)
	}
	atWp, atOK := lookupWaypoint(wps, msg.AtWaypoint)

	best := ""
	bestDist := -1.0
	for symbol, rec := range m.records {
		if rec.System != msg.System || rec.Status != StatusPending {
			continue
		}
		dist := 0.0
		if atOK {
			if target, ok := lookupWaypoint(wps, symbol); ok {
				dist = atWp.DistanceTo(target)
			}
		}
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = symbol
		}
	}

	if best == "" {
		return nextResult{Err: ErrNoChartsInSystem}
	}

	m.records[best].Status = StatusInProgress
	return nextResult{Waypoint: best}
}

func lookupWaypoint(wps []*shared.Waypoint, symbol string) (*shared.Waypoint, bool) {
	for _, wp := range wps {
		if wp.Symbol == symbol {
			return wp, true
		}
	}
	return nil, false
}

// Messenger is the client-facing handle.
type Messenger struct{ m *Manager }

func NewMessenger(m *Manager) *Messenger { return &Messenger{m: m} }

func (h *Messenger) Next(ctx context.Context, shipSymbol, system, atWaypoint string) (string, error) {
	reply := make(chan nextResult, 1)
	select {
	case h.m.mailbox <- nextMsg{ShipSymbol: shipSymbol, System: system, AtWaypoint: atWaypoint, Reply: reply}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp.Waypoint, resp.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (h *Messenger) Success(ctx context.Context, shipSymbol, waypoint string) {
	select {
	case h.m.mailbox <- successMsg{ShipSymbol: shipSymbol, Waypoint: waypoint}:
	case <-ctx.Done():
	}
}

func (h *Messenger) Fail(ctx context.Context, shipSymbol, waypoint string) {
	select {
	case h.m.mailbox <- failMsg{ShipSymbol: shipSymbol, Waypoint: waypoint}:
	case <-ctx.Done():
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
