// Package constructionmanager maintains pending material shipments for a
// construction site and hands them out to ships on request (spec.md
// §4.9's construction manager). Grounded on
// original_source/src/manager/construction_manager.rs and sharing the
// allocation-accounting shape contractmanager uses for its deliveries.
package constructionmanager

import (
	"context"
	"sync/atomic"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/infrastructure/config"
	"github.com/acdtunes/fleetctl/internal/manager/common"
)

// Shipment is the pending-shipment row of spec.md §3.
type Shipment struct {
	ID               string
	Site             string
	TradeSymbol      string
	Units            int
	PurchaseWaypoint string
	ShipSymbol       string
	Status           string
}

const (
	StatusInProgress = "InProgress"
	StatusDelivered  = "Delivered"
	StatusFailed     = "Failed"
)

// siteMaterial is one (material, units-still-needed) pair at a site.
type siteMaterial struct {
	site        string
	tradeSymbol string
	remaining   int
}

// SupplySource resolves where a construction material can be purchased
// and at what price, so the manager can decide affordability.
type SupplySource interface {
	PurchaseWaypointAndPrice(tradeSymbol string) (waypoint string, pricePerUnit int64, ok bool)
}

type requestNextMsg struct {
	ShipSymbol     string
	CargoCapacity  int
	AvailableFunds int64
	Reply          chan *Shipment
}

type finishedMsg struct {
	ShipmentID string
	Delivered  bool
}

type getShipsMsg struct {
	Reply chan common.RequiredShips
}

type getAllMsg struct {
	Reply chan []*Shipment
}

// Manager is the single-task construction-shipment scheduler.
type Manager struct {
	supply SupplySource

	mailbox chan any
	busy    atomic.Bool

	materials []*siteMaterial
	shipments map[string]*Shipment
	nextID    int
}

func New(supply SupplySource) *Manager {
	return &Manager{
		supply:    supply,
		mailbox:   make(chan any, 64),
		shipments: make(map[string]*Shipment),
	}
}

// AddSiteMaterial registers units of a material a construction site still
// needs delivered.
func (m *Manager) AddSiteMaterial(site, tradeSymbol string, units int) {
	m.materials = append(m.materials, &siteMaterial{site: site, tradeSymbol: tradeSymbol, remaining: units})
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
	case requestNextMsg:
		msg.Reply <- m.requestNext(msg)
	case finishedMsg:
		m.finish(msg)
	case getShipsMsg:
		msg.Reply <- m.getShips()
	case getAllMsg:
		out := make([]*Shipment, 0, len(m.shipments))
		for _, sh := range m.shipments {
			out = append(out, sh)
		}
		msg.Reply <- out
	}
}

// requestNext returns a shipment the ship can physically carry and afford
// to purchase, or nil ("ComeBackLater") when every open material is
// already fully allocated to in-progress shipments (§4.9, §4.10).
func (m *Manager) requestNext(msg requestNextMsg) *Shipment {
	allocated := make(map[string]int) // site|material -> units already allocated
	for _, sh := range m.shipments {
		if sh.Status == StatusInProgress {
			allocated[sh.Site+"|"+sh.TradeSymbol] += sh.Units
		}
	}

	for _, sm := range m.materials {
		remaining := sm.remaining - allocated[sm.site+"|"+sm.tradeSymbol]
		if remaining <= 0 {
			continue
		}
		purchaseWaypoint, price, ok := m.supply.PurchaseWaypointAndPrice(sm.tradeSymbol)
		if !ok || price <= 0 {
			continue
		}

		units := remaining
		if msg.CargoCapacity > 0 && units > msg.CargoCapacity {
			units = msg.CargoCapacity
		}
		if msg.AvailableFunds > 0 {
			affordable := int(msg.AvailableFunds / price)
			if affordable < units {
				units = affordable
			}
		}
		if units <= 0 {
			continue
		}

		m.nextID++
		shipment := &Shipment{
			ID:               shipmentID(m.nextID),
			Site:             sm.site,
			TradeSymbol:      sm.tradeSymbol,
			Units:            units,
			PurchaseWaypoint: purchaseWaypoint,
			ShipSymbol:       msg.ShipSymbol,
			Status:           StatusInProgress,
		}
		m.shipments[shipment.ID] = shipment
		return shipment
	}
	return nil
}

// getShips reports a need for another hauler in every system still
// carrying site material that isn't already fully allocated to an
// in-progress shipment — the same unallocated-remaining check
// requestNext performs before offering a shipment.
func (m *Manager) getShips() common.RequiredShips {
	allocated := make(map[string]int)
	for _, sh := range m.shipments {
		if sh.Status == StatusInProgress {
			allocated[sh.Site+"|"+sh.TradeSymbol] += sh.Units
		}
	}

	needy := make(map[string]bool)
	for _, sm := range m.materials {
		if sm.remaining-allocated[sm.site+"|"+sm.tradeSymbol] > 0 {
			needy[shared.ExtractSystemSymbol(sm.site)] = true
		}
	}

	var reqs []common.ShipRequest
	for system := range needy {
		reqs = append(reqs, common.ShipRequest{System: system, Role: "hauler", Priority: common.PriorityMedium, Budget: config.ReservedFundFloorMedium})
	}
	return common.RequiredShips{Requests: reqs}
}

// finish commits a shipment's progress (§4.9 "FinishedShipment commits
// progress"), decrementing the site material's remaining units only when
// actually delivered.
func (m *Manager) finish(msg finishedMsg) {
	sh, ok := m.shipments[msg.ShipmentID]
	if !ok {
		return
	}
	if msg.Delivered {
		sh.Status = StatusDelivered
		for _, sm := range m.materials {
			if sm.site == sh.Site && sm.tradeSymbol == sh.TradeSymbol {
				sm.remaining -= sh.Units
				if sm.remaining < 0 {
					sm.remaining = 0
				}
				break
			}
		}
	} else {
		sh.Status = StatusFailed
	}
}

func shipmentID(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 0, 8)
	for n > 0 {
		buf = append([]byte{letters[n%len(letters)]}, buf...)
		n /= len(letters)
	}
	if len(buf) == 0 {
		buf = []byte{'0'}
	}
	return "csmt-" + string(buf)
}

// Messenger is the client-facing handle.
type Messenger struct{ m *Manager }

func NewMessenger(m *Manager) *Messenger { return &Messenger{m: m} }

func (h *Messenger) RequestNextShipment(ctx context.Context, shipSymbol string, cargoCapacity int, availableFunds int64) (*Shipment, error) {
	reply := make(chan *Shipment, 1)
	select {
	case h.m.mailbox <- requestNextMsg{ShipSymbol: shipSymbol, CargoCapacity: cargoCapacity, AvailableFunds: availableFunds, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case sh := <-reply:
		return sh, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Messenger) FinishedShipment(ctx context.Context, shipmentID string, delivered bool) {
	select {
	case h.m.mailbox <- finishedMsg{ShipmentID: shipmentID, Delivered: delivered}:
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

func (h *Messenger) GetAll(ctx context.Context) ([]*Shipment, error) {
	reply := make(chan []*Shipment, 1)
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
