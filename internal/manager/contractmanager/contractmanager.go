// Package contractmanager tracks active contracts and hands out
// delivery shipments to ships on request (spec.md §4.9's construction
// manager counterpart for contracts; general contract in §4.4).
// Grounded on original_source/src/manager/contract_manager.rs and
// internal/domain/contract's Contract aggregate.
package contractmanager

import (
	"context"
	"sync/atomic"

	"github.com/acdtunes/fleetctl/internal/domain/contract"
	"github.com/acdtunes/fleetctl/internal/manager/common"
)

// Shipment is the ContractShipment row of spec.md §3.
type Shipment struct {
	ID                  string
	ContractID          string
	ShipSymbol          string
	TradeSymbol         string
	Units               int
	PurchaseWaypoint    string
	DestinationWaypoint string
	Status              string // InProgress, Delivered, Failed
}

const (
	StatusInProgress = "InProgress"
	StatusDelivered  = "Delivered"
	StatusFailed     = "Failed"
)

type requestNextMsg struct {
	ShipSymbol    string
	CargoCapacity int
	Reply         chan *Shipment
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

// SupplySource resolves where a trade symbol can be purchased, so the
// manager can populate a shipment's purchase waypoint.
type SupplySource interface {
	PurchaseWaypointFor(tradeSymbol string) (string, bool)
}

// Manager is the single-task contract scheduler.
type Manager struct {
	maxContracts int
	supply       SupplySource

	mailbox chan any
	busy    atomic.Bool

	contracts map[string]*contract.Contract
	shipments map[string]*Shipment
	nextID    int
}

func New(maxContracts int, supply SupplySource) *Manager {
	return &Manager{
		maxContracts: maxContracts,
		supply:       supply,
		mailbox:      make(chan any, 64),
		contracts:    make(map[string]*contract.Contract),
		shipments:    make(map[string]*Shipment),
	}
}

// AddContract registers an accepted contract for shipment planning.
func (m *Manager) AddContract(c *contract.Contract) {
	if len(m.contracts) >= m.maxContracts {
		return
	}
	m.contracts[c.ContractID()] = c
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
			if msg, ok := raw.(requestNextMsg); ok {
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
	case finishedMsg:
		m.finish(msg)
	case getShipsMsg:
		msg.Reply <- common.RequiredShips{}
	case getAllMsg:
		out := make([]*Shipment, 0, len(m.shipments))
		for _, sh := range m.shipments {
			out = append(out, sh)
		}
		msg.Reply <- out
	}
}

// requestNext returns a shipment the ship can carry, or nil
// ("ComeBackLater" in spec.md §4.9's construction-manager phrasing,
// reused here since contracts follow the same allocation shape).
func (m *Manager) requestNext(msg requestNextMsg) *Shipment {
	allocated := make(map[string]int) // contractID|tradeSymbol -> units already allocated to open shipments
	for _, sh := range m.shipments {
		if sh.Status == StatusInProgress {
			allocated[sh.ContractID+"|"+sh.TradeSymbol] += sh.Units
		}
	}

	for _, c := range m.contracts {
		if !c.Accepted() || c.Fulfilled() {
			continue
		}
		for _, delivery := range c.Terms().Deliveries {
			remaining := delivery.UnitsRequired - delivery.UnitsFulfilled - allocated[c.ContractID()+"|"+delivery.TradeSymbol]
			if remaining <= 0 {
				continue
			}
			purchaseWaypoint, ok := m.supply.PurchaseWaypointFor(delivery.TradeSymbol)
			if !ok {
				continue
			}
			units := remaining
			if msg.CargoCapacity > 0 && units > msg.CargoCapacity {
				units = msg.CargoCapacity
			}
			if units <= 0 {
				continue
			}

			m.nextID++
			shipment := &Shipment{
				ID:                  shipmentID(m.nextID),
				ContractID:          c.ContractID(),
				ShipSymbol:          msg.ShipSymbol,
				TradeSymbol:         delivery.TradeSymbol,
				Units:               units,
				PurchaseWaypoint:    purchaseWaypoint,
				DestinationWaypoint: delivery.DestinationSymbol,
				Status:              StatusInProgress,
			}
			m.shipments[shipment.ID] = shipment
			return shipment
		}
	}
	return nil
}

func (m *Manager) finish(msg finishedMsg) {
	sh, ok := m.shipments[msg.ShipmentID]
	if !ok {
		return
	}
	if msg.Delivered {
		sh.Status = StatusDelivered
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
	return "shipment-" + string(buf)
}

// Messenger is the client-facing handle.
type Messenger struct{ m *Manager }

func NewMessenger(m *Manager) *Messenger { return &Messenger{m: m} }

func (h *Messenger) RequestNextShipment(ctx context.Context, shipSymbol string, cargoCapacity int) (*Shipment, error) {
	reply := make(chan *Shipment, 1)
	select {
	case h.m.mailbox <- requestNextMsg{ShipSymbol: shipSymbol, CargoCapacity: cargoCapacity, Reply: reply}:
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
