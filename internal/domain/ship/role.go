package ship

// RoleKind is the tag of the PilotRole variant (§3 "Pilot role").
type RoleKind string

const (
	RoleConstruction RoleKind = "CONSTRUCTION"
	RoleTrader       RoleKind = "TRADER"
	RoleContract     RoleKind = "CONTRACT"
	RoleScraper      RoleKind = "SCRAPER"
	RoleMining       RoleKind = "MINING"
	RoleCharting     RoleKind = "CHARTING"
	RoleManual       RoleKind = "MANUAL"
)

// PilotRole is the tagged-variant role assignment that is persisted and
// read by the pilot loop at the top of every cycle (§4.11 step 1). Only
// the field matching Kind is meaningful; the rest are zero values.
//
// Construction, Scraper, Charting and Manual carry no payload.
// Trader carries an optional active route id. Contract carries an
// optional active shipment id. Mining carries the ship's mining
// assignment (a waypoint symbol, possibly empty if unassigned).
type PilotRole struct {
	Kind              RoleKind
	ActiveRouteID     string
	ActiveShipmentID  string
	MiningWaypoint    string
}

func NewManualRole() PilotRole { return PilotRole{Kind: RoleManual} }

func NewTraderRole(activeRouteID string) PilotRole {
	return PilotRole{Kind: RoleTrader, ActiveRouteID: activeRouteID}
}

func NewContractRole(activeShipmentID string) PilotRole {
	return PilotRole{Kind: RoleContract, ActiveShipmentID: activeShipmentID}
}

func NewMiningRole(waypoint string) PilotRole {
	return PilotRole{Kind: RoleMining, MiningWaypoint: waypoint}
}

func NewScraperRole() PilotRole       { return PilotRole{Kind: RoleScraper} }
func NewChartingRole() PilotRole      { return PilotRole{Kind: RoleCharting} }
func NewConstructionRole() PilotRole  { return PilotRole{Kind: RoleConstruction} }
