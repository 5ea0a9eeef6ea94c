package ports

import "context"

// Store is the persistent-store collaborator (spec.md §6): the core
// depends only on insert/bulk-insert/get-all plus entity-specific point
// lookups. The schema is opaque to the core — concrete row shapes live
// in internal/adapters/persistence and the entity-specific repository
// interfaces below, one per aggregate the core persists.
type Store interface {
	TradeRoutes() TradeRouteRepository
	ContractShipments() ContractShipmentRepository
	ConstructionShipments() ConstructionShipmentRepository
	ReservedFunds() ReservedFundRepository
	ScrapSchedule() ScrapScheduleRepository
	ShipRoles() ShipRoleRepository
	Waypoints() WaypointRepository
	JumpConnections() JumpConnectionRepository
	Contracts() ContractRepository
}

type TradeRouteRepository interface {
	Insert(ctx context.Context, r TradeRouteRow) (TradeRouteRow, error)
	GetAll(ctx context.Context) ([]TradeRouteRow, error)
	FindUnfinishedByShip(ctx context.Context, shipSymbol string) ([]TradeRouteRow, error)
	MarkFinished(ctx context.Context, id string) error
}

type TradeRouteRow struct {
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

type ContractShipmentRepository interface {
	Insert(ctx context.Context, r ContractShipmentRow) (ContractShipmentRow, error)
	GetAll(ctx context.Context) ([]ContractShipmentRow, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type ContractShipmentRow struct {
	ID                 string
	ContractID         string
	ShipSymbol         string
	TradeSymbol        string
	Units              int
	PurchaseWaypoint   string
	DestinationWaypoint string
	Status             string // InProgress, Delivered, Failed
}

type ConstructionShipmentRepository interface {
	Insert(ctx context.Context, r ConstructionShipmentRow) (ConstructionShipmentRow, error)
	GetAll(ctx context.Context) ([]ConstructionShipmentRow, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type ConstructionShipmentRow struct {
	ID               string
	SiteWaypoint     string
	ShipSymbol       string
	TradeSymbol      string
	Units            int
	PurchaseWaypoint string
	Status           string
}

type ReservedFundRepository interface {
	Insert(ctx context.Context, r ReservedFundRow) (ReservedFundRow, error)
	GetAll(ctx context.Context) ([]ReservedFundRow, error)
	UpdateStatus(ctx context.Context, id string, status string, actualAmount int64) error
}

type ReservedFundRow struct {
	ID           string
	Amount       int64
	ActualAmount int64
	Status       string // Reserved, Used, Cancelled
}

type ScrapScheduleRepository interface {
	GetAll(ctx context.Context) ([]ScrapScheduleRow, error)
	Upsert(ctx context.Context, r ScrapScheduleRow) error
}

type ScrapScheduleRow struct {
	WaypointSymbol string
	LastScrapedAt  int64 // unix seconds; 0 means never scraped
	Exports        int
	Imports        int
	Exchanges      int
}

type ShipRoleRepository interface {
	GetAll(ctx context.Context) ([]ShipRoleRow, error)
	Upsert(ctx context.Context, r ShipRoleRow) error
}

type ShipRoleRow struct {
	ShipSymbol string
	RoleKind   string
	RoleData   string // JSON-encoded role payload (route/shipment/waypoint id)
	Active     bool
}

type WaypointRepository interface {
	GetAll(ctx context.Context) ([]WaypointRow, error)
	InsertBulk(ctx context.Context, rows []WaypointRow) error
}

type WaypointRow struct {
	Symbol       string
	SystemSymbol string
	X, Y         int
	Type         string
	Traits       []string
}

type JumpConnectionRepository interface {
	GetAll(ctx context.Context) ([]JumpConnectionRow, error)
	InsertBulk(ctx context.Context, rows []JumpConnectionRow) error
}

type JumpConnectionRow struct {
	A, B               string
	Distance           float64
	AUnderConstruction bool
	BUnderConstruction bool
}

type ContractRepository interface {
	Insert(ctx context.Context, r ContractRow) (ContractRow, error)
	FindActive(ctx context.Context) ([]ContractRow, error)
	FindByID(ctx context.Context, id string) (ContractRow, error)
}

type ContractRow struct {
	ID            string
	FactionSymbol string
	Type          string
	Accepted      bool
	Fulfilled     bool
}
