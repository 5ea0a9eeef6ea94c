// Package persistence implements ports.Store against gorm (spec.md §6's
// persistent-store collaborator): one gorm model per aggregate, plain
// string primary keys, JSON-as-text columns for slice fields so the
// schema stays portable between the sqlite and postgres dialects
// database.NewConnection opens.
package persistence

// TradeRouteModel backs ports.TradeRouteRow.
type TradeRouteModel struct {
	ID               string `gorm:"column:id;primaryKey;size:64"`
	TradeSymbol      string `gorm:"column:trade_symbol;not null"`
	ShipSymbol       string `gorm:"column:ship_symbol;index;not null"`
	PurchaseWaypoint string `gorm:"column:purchase_waypoint;not null"`
	SellWaypoint     string `gorm:"column:sell_waypoint;not null"`
	PredictedBuy     int64  `gorm:"column:predicted_buy;not null"`
	PredictedSell    int64  `gorm:"column:predicted_sell;not null"`
	TradeVolume      int    `gorm:"column:trade_volume;not null"`
	Finished         bool   `gorm:"column:finished;not null;default:false"`
}

func (TradeRouteModel) TableName() string { return "trade_routes" }

// ContractShipmentModel backs ports.ContractShipmentRow.
type ContractShipmentModel struct {
	ID                  string `gorm:"column:id;primaryKey;size:64"`
	ContractID          string `gorm:"column:contract_id;index;not null"`
	ShipSymbol          string `gorm:"column:ship_symbol;index;not null"`
	TradeSymbol         string `gorm:"column:trade_symbol;not null"`
	Units               int    `gorm:"column:units;not null"`
	PurchaseWaypoint    string `gorm:"column:purchase_waypoint;not null"`
	DestinationWaypoint string `gorm:"column:destination_waypoint;not null"`
	Status              string `gorm:"column:status;not null;default:'InProgress'"`
}

func (ContractShipmentModel) TableName() string { return "contract_shipments" }

// ConstructionShipmentModel backs ports.ConstructionShipmentRow.
type ConstructionShipmentModel struct {
	ID               string `gorm:"column:id;primaryKey;size:64"`
	SiteWaypoint     string `gorm:"column:site_waypoint;index;not null"`
	ShipSymbol       string `gorm:"column:ship_symbol;index;not null"`
	TradeSymbol      string `gorm:"column:trade_symbol;not null"`
	Units            int    `gorm:"column:units;not null"`
	PurchaseWaypoint string `gorm:"column:purchase_waypoint;not null"`
	Status           string `gorm:"column:status;not null;default:'InProgress'"`
}

func (ConstructionShipmentModel) TableName() string { return "construction_shipments" }

// ReservedFundModel backs ports.ReservedFundRow.
type ReservedFundModel struct {
	ID           string `gorm:"column:id;primaryKey;size:64"`
	Amount       int64  `gorm:"column:amount;not null"`
	ActualAmount int64  `gorm:"column:actual_amount;not null;default:0"`
	Status       string `gorm:"column:status;not null;default:'Reserved'"`
}

func (ReservedFundModel) TableName() string { return "reserved_funds" }

// ScrapScheduleModel backs ports.ScrapScheduleRow.
type ScrapScheduleModel struct {
	WaypointSymbol string `gorm:"column:waypoint_symbol;primaryKey;size:64"`
	LastScrapedAt  int64  `gorm:"column:last_scraped_at;not null;default:0"`
	Exports        int    `gorm:"column:exports;not null;default:0"`
	Imports        int    `gorm:"column:imports;not null;default:0"`
	Exchanges      int    `gorm:"column:exchanges;not null;default:0"`
}

func (ScrapScheduleModel) TableName() string { return "scrap_schedule" }

// ShipRoleModel backs ports.ShipRoleRow.
type ShipRoleModel struct {
	ShipSymbol string `gorm:"column:ship_symbol;primaryKey;size:64"`
	RoleKind   string `gorm:"column:role_kind;not null"`
	RoleData   string `gorm:"column:role_data;type:text"`
	Active     bool   `gorm:"column:active;not null;default:true"`
}

func (ShipRoleModel) TableName() string { return "ship_roles" }

// WaypointModel backs ports.WaypointRow. Traits is a comma-joined list
// rather than a JSON column, keeping the schema portable across sqlite
// and postgres without a jsonb-specific column type.
type WaypointModel struct {
	Symbol       string `gorm:"column:symbol;primaryKey;size:64"`
	SystemSymbol string `gorm:"column:system_symbol;index;not null"`
	X            int    `gorm:"column:x;not null"`
	Y            int    `gorm:"column:y;not null"`
	Type         string `gorm:"column:type;not null"`
	Traits       string `gorm:"column:traits;type:text"`
}

func (WaypointModel) TableName() string { return "waypoints" }

// JumpConnectionModel backs ports.JumpConnectionRow.
type JumpConnectionModel struct {
	ID                 int     `gorm:"column:id;primaryKey;autoIncrement"`
	A                  string  `gorm:"column:a;index:idx_jump_pair;not null"`
	B                  string  `gorm:"column:b;index:idx_jump_pair;not null"`
	Distance           float64 `gorm:"column:distance;not null"`
	AUnderConstruction bool    `gorm:"column:a_under_construction;not null;default:false"`
	BUnderConstruction bool    `gorm:"column:b_under_construction;not null;default:false"`
}

func (JumpConnectionModel) TableName() string { return "jump_connections" }

// ContractModel backs ports.ContractRow.
type ContractModel struct {
	ID            string `gorm:"column:id;primaryKey;size:64"`
	FactionSymbol string `gorm:"column:faction_symbol;not null"`
	Type          string `gorm:"column:type;not null"`
	Accepted      bool   `gorm:"column:accepted;not null;default:false"`
	Fulfilled     bool   `gorm:"column:fulfilled;not null;default:false"`
}

func (ContractModel) TableName() string { return "contracts" }
