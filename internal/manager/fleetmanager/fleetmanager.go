// Package fleetmanager allocates agent credits across planned purchases,
// decides which ship to buy next, and routes ships between systems via
// transfer tasks (spec.md §4.10). Grounded on
// original_source/src/manager/fleet_manager/mod.rs and its
// reserved-fund ledger, following the mailbox+Messenger actor template
// established by the other role managers.
package fleetmanager

import (
	"context"
	"sync/atomic"

	"github.com/acdtunes/fleetctl/internal/infrastructure/config"
	"github.com/acdtunes/fleetctl/internal/manager/common"
)

// FundStatus mirrors §4.10's Reserved/Used/Cancelled states.
type FundStatus int

const (
	FundReserved FundStatus = iota
	FundUsed
	FundCancelled
)

// ReservedFund is a single reserved-fund ledger row.
type ReservedFund struct {
	ID            string
	Priority      common.Priority
	Amount        int64
	ActualAmount  int64
	Status        FundStatus
}

// ShipTransfer is the §4.10 "ShipTransfer row": ship, target system,
// target role, finished flag.
type ShipTransfer struct {
	ShipSymbol   string
	TargetSystem string
	TargetRole   string
	Finished     bool
}

// ShipyardListing is one purchasable hull's price at a shipyard, the
// join key for ship procurement.
type ShipyardListing struct {
	ShipType string
	Price    int64
}

func priorityFloor(p common.Priority) int64 {
	switch p {
	case common.PriorityHigh:
		return config.ReservedFundFloorHigh
	case common.PriorityMedium:
		return config.ReservedFundFloorMedium
	default:
		return config.ReservedFundFloorLow
	}
}

type reserveMsg struct {
	Priority common.Priority
	Amount   int64
	Credits  int64
	Reply    chan reserveResult
}

type reserveResult struct {
	FundID string
	OK     bool
}

type confirmMsg struct {
	FundID       string
	ActualAmount int64
}

type cancelMsg struct {
	FundID string
}

// antimatterPerJump is the per-jump antimatter cost estimate used when
// ranking shipyard candidates by total landed cost (§4.10 "purchase +
// jumps·antimatter").
const antimatterPerJump = 1

type shipsProviderRef struct {
	name string
	p    common.ShipsProvider
}

type procureMsg struct {
	Waypoint    string
	ShipSymbol  string
	Credits     int64
	Listings    []ShipyardListing
	JumpsFromShipyard func(targetSystem string) (jumps int, ok bool)
	Reply       chan *ProcurementDecision
}

// ProcurementDecision is what the fleet manager decided to buy, if
// anything, in response to a ScrapperAtShipyard report.
type ProcurementDecision struct {
	System   string
	Role     string
	ShipType string
	Priority common.Priority
	TotalCost int64
}

type getTransferMsg struct {
	ShipSymbol string
	Reply      chan *ShipTransfer
}

type shipArrivedMsg struct {
	ShipSymbol string
}

type addTransferMsg struct {
	Transfer ShipTransfer
}

// Manager is the single-task fleet/procurement actor.
type Manager struct {
	mailbox chan any
	busy    atomic.Bool

	funds     map[string]*ReservedFund
	nextFund  int

	providers []shipsProviderRef

	transfers map[string]*ShipTransfer
}

func New() *Manager {
	return &Manager{
		mailbox:   make(chan any, 64),
		funds:     make(map[string]*ReservedFund),
		transfers: make(map[string]*ShipTransfer),
	}
}

// RegisterProvider adds another manager's GetShips messenger so the fleet
// manager can poll it for required-ship requests during procurement
// (§4.10; spec.md §4.4 forbids direct manager-to-manager calls so this
// goes through the common.ShipsProvider interface only).
func (m *Manager) RegisterProvider(name string, p common.ShipsProvider) {
	m.providers = append(m.providers, shipsProviderRef{name: name, p: p})
}

func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.drain()
			return
		case raw := <-m.mailbox:
			m.busy.Store(true)
			m.handle(ctx, raw)
			m.busy.Store(false)
		}
	}
}

func (m *Manager) drain() {
	for {
		select {
		case raw := <-m.mailbox:
			switch msg := raw.(type) {
			case reserveMsg:
				msg.Reply <- reserveResult{}
			case procureMsg:
				msg.Reply <- nil
			case getTransferMsg:
				msg.Reply <- nil
			}
		default:
			return
		}
	}
}

func (m *Manager) handle(ctx context.Context, raw any) {
	switch msg := raw.(type) {
	case reserveMsg:
		msg.Reply <- m.reserve(msg)
	case confirmMsg:
		m.confirm(msg)
	case cancelMsg:
		m.cancel(msg)
	case procureMsg:
		msg.Reply <- m.procure(ctx, msg)
	case getTransferMsg:
		msg.Reply <- m.getTransfer(msg.ShipSymbol)
	case shipArrivedMsg:
		if t, ok := m.transfers[msg.ShipSymbol]; ok {
			t.Finished = true
		}
	case addTransferMsg:
		t := msg.Transfer
		m.transfers[t.ShipSymbol] = &t
	}
}

// reservedTotal sums every fund row still in the Reserved state.
func (m *Manager) reservedTotal() int64 {
	var total int64
	for _, f := range m.funds {
		if f.Status == FundReserved {
			total += f.Amount
		}
	}
	return total
}

// reserve implements §4.10's reserved-fund protocol: a purchase request
// succeeds only if credits minus all outstanding reservations minus this
// request's own amount still clears its priority-class floor.
func (m *Manager) reserve(msg reserveMsg) reserveResult {
	available := msg.Credits - m.reservedTotal() - msg.Amount
	if available < priorityFloor(msg.Priority) {
		return reserveResult{OK: false}
	}

	m.nextFund++
	id := fundID(m.nextFund)
	m.funds[id] = &ReservedFund{ID: id, Priority: msg.Priority, Amount: msg.Amount, Status: FundReserved}
	return reserveResult{FundID: id, OK: true}
}

func (m *Manager) confirm(msg confirmMsg) {
	if f, ok := m.funds[msg.FundID]; ok {
		f.Status = FundUsed
		f.ActualAmount = msg.ActualAmount
	}
}

func (m *Manager) cancel(msg cancelMsg) {
	if f, ok := m.funds[msg.FundID]; ok {
		f.Status = FundCancelled
	}
}

// procure implements §4.10's ship-procurement algorithm: collect every
// manager's required-ship requests, join with the shipyard's price list
// and a jump-distance estimate, and pick the highest-priority,
// lowest-total-cost match that clears the budget and reserved-fund floor.
func (m *Manager) procure(ctx context.Context, msg procureMsg) *ProcurementDecision {
	type candidate struct {
		req       common.ShipRequest
		listing   ShipyardListing
		totalCost int64
	}

	var candidates []candidate
	for _, ref := range m.providers {
		required, err := ref.p.GetShips(ctx)
		if err != nil {
			continue
		}
		for _, req := range required.Requests {
			jumps, ok := msg.JumpsFromShipyard(req.System)
			if !ok {
				continue
			}
			for _, listing := range msg.Listings {
				total := listing.Price + int64(jumps)*antimatterPerJump
				if total > req.Budget {
					continue
				}
				candidates = append(candidates, candidate{req: req, listing: listing, totalCost: total})
			}
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.req.Priority > best.req.Priority {
			best = c
			continue
		}
		if c.req.Priority == best.req.Priority && c.totalCost < best.totalCost {
			best = c
		}
	}

	available := msg.Credits - m.reservedTotal() - best.totalCost
	if available < priorityFloor(best.req.Priority) {
		return nil
	}

	return &ProcurementDecision{
		System:    best.req.System,
		Role:      best.req.Role,
		ShipType:  best.listing.ShipType,
		Priority:  best.req.Priority,
		TotalCost: best.totalCost,
	}
}

func (m *Manager) getTransfer(ship string) *ShipTransfer {
	t, ok := m.transfers[ship]
	if !ok {
		return nil
	}
	return t
}

func fundID(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 0, 8)
	for n > 0 {
		buf = append([]byte{letters[n%len(letters)]}, buf...)
		n /= len(letters)
	}
	if len(buf) == 0 {
		buf = []byte{'0'}
	}
	return "fund-" + string(buf)
}

// Messenger is the client-facing handle.
type Messenger struct{ m *Manager }

func NewMessenger(m *Manager) *Messenger { return &Messenger{m: m} }

// Reserve attempts to open a Reserved fund row for amount at priority,
// given the agent's current credits. Ok is false when the post-deduction
// remainder would fall below the priority-class floor.
func (h *Messenger) Reserve(ctx context.Context, priority common.Priority, amount, credits int64) (string, bool, error) {
	reply := make(chan reserveResult, 1)
	select {
	case h.m.mailbox <- reserveMsg{Priority: priority, Amount: amount, Credits: credits, Reply: reply}:
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp.FundID, resp.OK, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

func (h *Messenger) Confirm(ctx context.Context, fundID string, actualAmount int64) {
	select {
	case h.m.mailbox <- confirmMsg{FundID: fundID, ActualAmount: actualAmount}:
	case <-ctx.Done():
	}
}

func (h *Messenger) Cancel(ctx context.Context, fundID string) {
	select {
	case h.m.mailbox <- cancelMsg{FundID: fundID}:
	case <-ctx.Done():
	}
}

// ScrapperAtShipyard reports a scraper's shipyard visit and triggers the
// procurement decision (§4.10).
func (h *Messenger) ScrapperAtShipyard(ctx context.Context, waypoint, shipSymbol string, credits int64, listings []ShipyardListing, jumpsFromShipyard func(string) (int, bool)) (*ProcurementDecision, error) {
	reply := make(chan *ProcurementDecision, 1)
	select {
	case h.m.mailbox <- procureMsg{Waypoint: waypoint, ShipSymbol: shipSymbol, Credits: credits, Listings: listings, JumpsFromShipyard: jumpsFromShipyard, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Messenger) AddTransfer(ctx context.Context, t ShipTransfer) {
	select {
	case h.m.mailbox <- addTransferMsg{Transfer: t}:
	case <-ctx.Done():
	}
}

func (h *Messenger) GetTransfer(ctx context.Context, shipSymbol string) (*ShipTransfer, error) {
	reply := make(chan *ShipTransfer, 1)
	select {
	case h.m.mailbox <- getTransferMsg{ShipSymbol: shipSymbol, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Messenger) ShipArrived(ctx context.Context, shipSymbol string) {
	select {
	case h.m.mailbox <- shipArrivedMsg{ShipSymbol: shipSymbol}:
	case <-ctx.Done():
	}
}

func (h *Messenger) IsBusy() bool { return h.m.busy.Load() }

func (h *Messenger) ChannelState() common.ChannelInfo {
	total := cap(h.m.mailbox)
	used := len(h.m.mailbox)
	return common.ChannelInfo{State: common.ChannelOpen, TotalCapacity: total, UsedCapacity: used, FreeCapacity: total - used}
}
