// Package miningmanager assigns extractor and transporter ships to mining
// waypoints and brokers direct cargo transfers between them (spec.md
// §4.8). Grounded on original_source/src/manager/mining_manager.rs and
// its waypoint-assignment/transfer-contact message shapes, following the
// mailbox+Messenger actor template established by trademanager and
// scrapmanager.
package miningmanager

import (
	"context"
	"sync/atomic"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/infrastructure/config"
	"github.com/acdtunes/fleetctl/internal/manager/common"
	"github.com/acdtunes/fleetctl/internal/navigation"
)

// waypointRecord is the per-waypoint state named in §4.8:
// "(extractors, transporters, surveyors, last_update)".
type waypointRecord struct {
	System       string
	IsGasField   bool // siphon-only capability
	IsMineable   bool // extractor capability (asteroid field)
	Extractors   map[string]bool
	Transporters map[string]bool
	Surveyors    map[string]bool
	Present      map[string]bool // ships confirmed at-waypoint, vs merely assigned
}

func newRecord(system string, isGasField, isMineable bool) *waypointRecord {
	return &waypointRecord{
		System:       system,
		IsGasField:   isGasField,
		IsMineable:   isMineable,
		Extractors:   make(map[string]bool),
		Transporters: make(map[string]bool),
		Surveyors:    make(map[string]bool),
		Present:      make(map[string]bool),
	}
}

// AssignResult is the reply to an AssignWaypoint request.
type AssignResult struct {
	Assigned bool
	Waypoint string
}

// TransferResult is what the manager tells a contacting extractor to push
// to the transporter waiting at the same waypoint (§4.8 "Transfer
// brokering").
type TransferResult struct {
	TradeSymbol     string
	Units           int
	TransporterShip string
}

// TransportSignal is what the manager forwards to a waiting transporter
// once it has paired it with an extractor's cargo (§4.8 "the manager
// signals the transporter via its channel and awaits acknowledgement
// before proceeding").
type TransportSignal struct {
	ExtractorShip string
	TradeSymbol   string
	Units         int
	Ack           chan struct{}
}

type assignWaypointMsg struct {
	ShipSymbol string
	System     string
	AtWaypoint string // current location, used for nearest-marketplace ranking
	IsSiphon   bool
	Reply      chan AssignResult
}

type notifyWaypointMsg struct {
	ShipSymbol string
	Waypoint   string
}

type unassignWaypointMsg struct {
	ShipSymbol string
	Waypoint   string
}

type getNextWaypointMsg struct {
	ShipSymbol string
	System     string
	Reply      chan AssignResult
}

type extractionCompleteMsg struct {
	ShipSymbol string
	Waypoint   string
	// FillRatio is the extractor's cargo fullness right after extraction,
	// used to rank transporter "mining pressure" (§4.8 GetNextWaypoint).
	FillRatio float64
}

type transportArrivedMsg struct {
	ShipSymbol string
	Waypoint   string
}

// extractorCargo is the minimal cargo view an extractor reports when it
// opens an ExtractorContact, so the manager can pick something to push.
type extractorCargo struct {
	TradeSymbol string
	Units       int
}

type extractorContactMsg struct {
	ShipSymbol string
	Waypoint   string
	Cargo      []extractorCargo
	Reply      chan *TransferResult // nil if nothing paired
}

type transportationContactMsg struct {
	ShipSymbol string
	Waypoint   string
	Signal     chan TransportSignal
}

type getShipsMsg struct {
	Reply chan common.RequiredShips
}

// isGasField and isMineable classify waypoint types into mining capabilities.
func isGasField(wp *shared.Waypoint) bool { return wp.Type == "GAS_GIANT" }
func isMineable(wp *shared.Waypoint) bool {
	return wp.Type == "ASTEROID_FIELD" || wp.Type == "ENGINEERED_ASTEROID"
}

// Manager is the single-task mining-assignment and transfer-broker actor.
type Manager struct {
	planner             *navigation.Planner
	maxMinersPerWaypoint int

	mailbox chan any
	busy    atomic.Bool

	records map[string]*waypointRecord
	// transportContacts maps a waypoint to the transporter currently
	// waiting there for extractor pushes.
	transportContacts map[string]*transportContact
	// pressure is the highest reported cargo fill ratio per waypoint,
	// consulted by GetNextWaypoint.
	pressure map[string]float64
}

type transportContact struct {
	shipSymbol string
	signal     chan TransportSignal
}

func New(planner *navigation.Planner, maxMinersPerWaypoint int) *Manager {
	return &Manager{
		planner:              planner,
		maxMinersPerWaypoint: maxMinersPerWaypoint,
		mailbox:              make(chan any, 64),
		records:              make(map[string]*waypointRecord),
		transportContacts:    make(map[string]*transportContact),
		pressure:             make(map[string]float64),
	}
}

// Seed installs the mining-capable waypoints of a system, called once at
// startup after the navigation planner's graphs are loaded (mirrors
// scrapmanager.Seed).
func (m *Manager) Seed(system string, waypoints []*shared.Waypoint) {
	for _, wp := range waypoints {
		gas := isGasField(wp)
		mineable := isMineable(wp)
		if !gas && !mineable {
			continue
		}
		if _, ok := m.records[wp.Symbol]; ok {
			continue
		}
		m.records[wp.Symbol] = newRecord(system, gas, mineable)
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
			case assignWaypointMsg:
				msg.Reply <- AssignResult{}
			case getNextWaypointMsg:
				msg.Reply <- AssignResult{}
			case extractorContactMsg:
				msg.Reply <- nil
			case getShipsMsg:
				msg.Reply <- common.RequiredShips{}
			}
		default:
			return
		}
	}
}

// getShips implements §4.10's "manager with real ship needs" side for
// mining: a system needs another extractor when every record it tracks
// there is already at max_miners_per_waypoint capacity (so assigning one
// more would always fail), and needs a transporter when at least one
// extractor is stationed somewhere with nobody hauling its ore.
func (m *Manager) getShips() common.RequiredShips {
	type need struct {
		extractor, transporter bool
	}
	needs := make(map[string]need)
	hasRoom := make(map[string]bool)

	for _, rec := range m.records {
		n := needs[rec.System]
		if len(rec.Extractors) < m.maxMinersPerWaypoint {
			hasRoom[rec.System] = true
		}
		n.extractor = !hasRoom[rec.System]
		if len(rec.Extractors) > 0 && len(rec.Transporters) == 0 {
			n.transporter = true
		}
		needs[rec.System] = n
	}

	var reqs []common.ShipRequest
	for system, n := range needs {
		if n.extractor {
			reqs = append(reqs, common.ShipRequest{System: system, Role: "extractor", Priority: common.PriorityMedium, Budget: config.ReservedFundFloorMedium * 2})
		}
		if n.transporter {
			reqs = append(reqs, common.ShipRequest{System: system, Role: "transporter", Priority: common.PriorityLow, Budget: config.ReservedFundFloorLow})
		}
	}
	return common.RequiredShips{Requests: reqs}
}

func (m *Manager) handle(raw any) {
	switch msg := raw.(type) {
	case assignWaypointMsg:
		msg.Reply <- m.assignWaypoint(msg)
	case notifyWaypointMsg:
		if rec, ok := m.records[msg.Waypoint]; ok {
			rec.Present[msg.ShipSymbol] = true
		}
	case unassignWaypointMsg:
		m.unassign(msg.ShipSymbol, msg.Waypoint)
	case getNextWaypointMsg:
		msg.Reply <- m.nextTransporterWaypoint(msg)
	case extractionCompleteMsg:
		if msg.FillRatio > m.pressure[msg.Waypoint] {
			m.pressure[msg.Waypoint] = msg.FillRatio
		}
	case transportArrivedMsg:
		if rec, ok := m.records[msg.Waypoint]; ok {
			rec.Present[msg.ShipSymbol] = true
		}
	case extractorContactMsg:
		msg.Reply <- m.broker(msg)
	case transportationContactMsg:
		m.transportContacts[msg.Waypoint] = &transportContact{shipSymbol: msg.ShipSymbol, signal: msg.Signal}
	case getShipsMsg:
		msg.Reply <- m.getShips()
	}
}

func (m *Manager) unassign(ship, waypoint string) {
	rec, ok := m.records[waypoint]
	if !ok {
		return
	}
	wasTransporter := rec.Transporters[ship]
	delete(rec.Extractors, ship)
	delete(rec.Transporters, ship)
	delete(rec.Surveyors, ship)
	delete(rec.Present, ship)
	if wasTransporter {
		delete(m.transportContacts, waypoint)
	}
}

// assignWaypoint implements §4.8's extractor-selection heuristic: matching
// capability, fewer than max_miners_per_waypoint assigned, nearest
// marketplace (squared distance), preferring the most idle capacity on
// ties.
func (m *Manager) assignWaypoint(msg assignWaypointMsg) AssignResult {
	var wps []*shared.Waypoint
	if m.planner != nil {
		wps = m.planner.WaypointsInSystem(msg.System)
	}
	atWp, atOK := lookupWaypoint(wps, msg.AtWaypoint)

	type candidate struct {
		symbol        string
		sqDistToMkt   float64
		idleCapacity  int
	}
	var best *candidate

	for symbol, rec := range m.records {
		if rec.System != msg.System {
			continue
		}
		if msg.IsSiphon && !rec.IsGasField {
			continue
		}
		if !msg.IsSiphon && !rec.IsMineable {
			continue
		}
		if len(rec.Extractors) >= m.maxMinersPerWaypoint {
			continue
		}

		sqDist := nearestMarketplaceSqDist(m.planner, msg.System, symbol, atWp, atOK)
		idle := m.maxMinersPerWaypoint - len(rec.Extractors)

		if best == nil || sqDist < best.sqDistToMkt || (sqDist == best.sqDistToMkt && idle > best.idleCapacity) {
			best = &candidate{symbol: symbol, sqDistToMkt: sqDist, idleCapacity: idle}
		}
	}

	if best == nil {
		return AssignResult{}
	}

	m.records[best.symbol].Extractors[msg.ShipSymbol] = true
	return AssignResult{Assigned: true, Waypoint: best.symbol}
}

// nearestMarketplaceSqDist returns the squared distance from candidate to
// the nearest marketplace in system, used only to rank extractor
// assignments by proximity to a place to sell.
func nearestMarketplaceSqDist(planner *navigation.Planner, system, candidate string, atWp *shared.Waypoint, atOK bool) float64 {
	if planner == nil {
		return 0
	}
	wps := planner.WaypointsInSystem(system)
	target, ok := lookupWaypoint(wps, candidate)
	if !ok {
		return 0
	}

	best := -1.0
	for _, wp := range wps {
		if !planner.IsMarketplace(system, wp.Symbol) {
			continue
		}
		dx := wp.X - target.X
		dy := wp.Y - target.Y
		sq := dx*dx + dy*dy
		if best < 0 || sq < best {
			best = sq
		}
	}
	if best < 0 {
		if atOK {
			dx := atWp.X - target.X
			dy := atWp.Y - target.Y
			return dx*dx + dy*dy
		}
		return 0
	}
	return best
}

// nextTransporterWaypoint returns the waypoint with the highest reported
// mining pressure among waypoints the requesting transporter's system
// carries (§4.8 GetNextWaypoint).
func (m *Manager) nextTransporterWaypoint(msg getNextWaypointMsg) AssignResult {
	best := ""
	bestPressure := -1.0
	for symbol, rec := range m.records {
		if rec.System != msg.System {
			continue
		}
		p := m.pressure[symbol]
		if p > bestPressure {
			bestPressure = p
			best = symbol
		}
	}
	if best == "" {
		return AssignResult{}
	}
	m.records[best].Transporters[msg.ShipSymbol] = true
	return AssignResult{Assigned: true, Waypoint: best}
}

// broker pairs an extractor's ExtractorContact with a waiting transporter
// at the same waypoint, per §4.8's "Transfer brokering": the manager
// signals the transporter and blocks awaiting its one-shot acknowledgement
// before replying to the extractor.
func (m *Manager) broker(msg extractorContactMsg) *TransferResult {
	if len(msg.Cargo) == 0 {
		return nil
	}
	contact, ok := m.transportContacts[msg.Waypoint]
	if !ok {
		return nil
	}

	item := msg.Cargo[0]
	ack := make(chan struct{}, 1)
	signal := TransportSignal{ExtractorShip: msg.ShipSymbol, TradeSymbol: item.TradeSymbol, Units: item.Units, Ack: ack}

	select {
	case contact.signal <- signal:
	default:
		// transporter not actively listening; treat as no pairing.
		return nil
	}
	<-ack

	return &TransferResult{TradeSymbol: item.TradeSymbol, Units: item.Units, TransporterShip: contact.shipSymbol}
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

func (h *Messenger) AssignWaypoint(ctx context.Context, shipSymbol, system, atWaypoint string, isSiphon bool) (AssignResult, error) {
	reply := make(chan AssignResult, 1)
	select {
	case h.m.mailbox <- assignWaypointMsg{ShipSymbol: shipSymbol, System: system, AtWaypoint: atWaypoint, IsSiphon: isSiphon, Reply: reply}:
	case <-ctx.Done():
		return AssignResult{}, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return AssignResult{}, ctx.Err()
	}
}

func (h *Messenger) NotifyWaypoint(ctx context.Context, shipSymbol, waypoint string) {
	select {
	case h.m.mailbox <- notifyWaypointMsg{ShipSymbol: shipSymbol, Waypoint: waypoint}:
	case <-ctx.Done():
	}
}

func (h *Messenger) UnassignWaypoint(ctx context.Context, shipSymbol, waypoint string) {
	select {
	case h.m.mailbox <- unassignWaypointMsg{ShipSymbol: shipSymbol, Waypoint: waypoint}:
	case <-ctx.Done():
	}
}

func (h *Messenger) GetNextWaypoint(ctx context.Context, shipSymbol, system string) (AssignResult, error) {
	reply := make(chan AssignResult, 1)
	select {
	case h.m.mailbox <- getNextWaypointMsg{ShipSymbol: shipSymbol, System: system, Reply: reply}:
	case <-ctx.Done():
		return AssignResult{}, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return AssignResult{}, ctx.Err()
	}
}

func (h *Messenger) ExtractionComplete(ctx context.Context, shipSymbol, waypoint string, fillRatio float64) {
	select {
	case h.m.mailbox <- extractionCompleteMsg{ShipSymbol: shipSymbol, Waypoint: waypoint, FillRatio: fillRatio}:
	case <-ctx.Done():
	}
}

func (h *Messenger) TransportArrived(ctx context.Context, shipSymbol, waypoint string) {
	select {
	case h.m.mailbox <- transportArrivedMsg{ShipSymbol: shipSymbol, Waypoint: waypoint}:
	case <-ctx.Done():
	}
}

// CargoEntry is the caller-facing shape of an extractor's cargo item,
// reported when opening an ExtractorContact.
type CargoEntry struct {
	TradeSymbol string
	Units       int
}

func (h *Messenger) ExtractorContact(ctx context.Context, shipSymbol, waypoint string, cargo []CargoEntry) (*TransferResult, error) {
	internalCargo := make([]extractorCargo, len(cargo))
	for i, c := range cargo {
		internalCargo[i] = extractorCargo{TradeSymbol: c.TradeSymbol, Units: c.Units}
	}
	reply := make(chan *TransferResult, 1)
	select {
	case h.m.mailbox <- extractorContactMsg{ShipSymbol: shipSymbol, Waypoint: waypoint, Cargo: internalCargo, Reply: reply}:
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

// TransportationContact registers the transporter's signal channel for a
// waypoint and blocks until a paired extractor push arrives or ctx is
// cancelled. The caller acknowledges the returned signal on its Ack
// channel; Ack has a buffer of one, so either a send or a close releases
// the waiting broker. Returns nil on cancellation with no pairing.
func (h *Messenger) TransportationContact(ctx context.Context, shipSymbol, waypoint string) (*TransportSignal, error) {
	signal := make(chan TransportSignal, 1)
	select {
	case h.m.mailbox <- transportationContactMsg{ShipSymbol: shipSymbol, Waypoint: waypoint, Signal: signal}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case sig := <-signal:
		return &sig, nil
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
