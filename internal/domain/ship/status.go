package ship

import "time"

// StatusKind is the tag of the advisory Status variant (§3 "Ship status").
// Status is observable only; the authoritative state is PilotRole plus the
// manager scheduling tables — nothing reads Status to make a decision.
type StatusKind string

const (
	StatusIdle        StatusKind = "IDLE"
	StatusCharting    StatusKind = "CHARTING"
	StatusScraping    StatusKind = "SCRAPING"
	StatusTrading     StatusKind = "TRADING"
	StatusContracting StatusKind = "CONTRACTING"
	StatusMining      StatusKind = "MINING"
	StatusTransfer    StatusKind = "TRANSFER"
	StatusManual      StatusKind = "MANUAL"
)

// MiningRole is the Mining status' inner assignment tag.
type MiningRole string

const (
	MiningExtractor  MiningRole = "EXTRACTOR"
	MiningSiphoner   MiningRole = "SIPHONER"
	MiningTransporter MiningRole = "TRANSPORTER"
	MiningSurveyor   MiningRole = "SURVEYOR"
	MiningIdle       MiningRole = "IDLE"
	MiningUnusable   MiningRole = "UNUSABLE"
)

// Status is the tagged-variant "what is the pilot doing right now" view,
// per §3. Exactly the fields relevant to Kind are populated.
type Status struct {
	Kind StatusKind

	// Charting / Scraping
	Cycle    int
	Waiting  bool
	Waypoint string
	Due      *time.Time

	// Trading
	RouteID string
	Step    string

	// Contracting
	ShipmentID string

	// Mining
	MiningAssignment MiningRole
	Counter          int

	// Transfer
	TransferID   string
	TargetSystem string
	TargetRole   string
}

func IdleStatus() Status { return Status{Kind: StatusIdle} }

func ManualStatus() Status { return Status{Kind: StatusManual} }

func ChartingStatus(cycle int, waiting bool, waypoint string) Status {
	return Status{Kind: StatusCharting, Cycle: cycle, Waiting: waiting, Waypoint: waypoint}
}

func ScrapingStatus(cycle int, waiting bool, waypoint string, due *time.Time) Status {
	return Status{Kind: StatusScraping, Cycle: cycle, Waiting: waiting, Waypoint: waypoint, Due: due}
}

func TradingStatus(routeID string, cycle int, step string) Status {
	return Status{Kind: StatusTrading, RouteID: routeID, Cycle: cycle, Step: step}
}

func ContractingStatus(shipmentID string) Status {
	return Status{Kind: StatusContracting, ShipmentID: shipmentID}
}

func MiningStatus(role MiningRole, waypoint string, counter int) Status {
	return Status{Kind: StatusMining, MiningAssignment: role, Waypoint: waypoint, Counter: counter}
}

func TransferStatus(id, targetSystem, targetRole string) Status {
	return Status{Kind: StatusTransfer, TransferID: id, TargetSystem: targetSystem, TargetRole: targetRole}
}
