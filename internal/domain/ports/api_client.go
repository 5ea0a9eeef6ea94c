// Package ports declares the domain-facing interfaces the fleet
// orchestration core depends on but does not implement: the remote game
// API and the persistent store (spec.md §6, both "external
// collaborators"). Concrete adapters live under internal/adapters.
package ports

import (
	"context"
	"time"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
)

// APIClient is the outbound remote-game-API collaborator (spec.md §6).
// Every call is subject to the rate limiter inside the adapter; a 429
// response is surfaced as shared.RemoteApiError with Status=429 so
// callers can distinguish it via IsRateLimited().
type APIClient interface {
	GetShip(ctx context.Context, symbol string) (*ShipData, error)
	ListShips(ctx context.Context) ([]*ShipData, error)

	NavigateShip(ctx context.Context, symbol, destination string) (*NavigateResult, error)
	OrbitShip(ctx context.Context, symbol string) error
	DockShip(ctx context.Context, symbol string) error
	RefuelShip(ctx context.Context, symbol string, units *int, fromCargo bool) (*RefuelResult, error)
	SetFlightMode(ctx context.Context, symbol string, mode shared.FlightMode) error
	JumpShip(ctx context.Context, shipSymbol, systemSymbol string) (*JumpResult, error)
	GetJumpGate(ctx context.Context, systemSymbol, waypointSymbol string) (*JumpGateData, error)

	GetAgent(ctx context.Context) (*AgentData, error)

	ListWaypoints(ctx context.Context, systemSymbol string, page, limit int) (*WaypointPage, error)
	CreateChart(ctx context.Context, shipSymbol string) (*ChartResult, error)

	NegotiateContract(ctx context.Context, shipSymbol string) (*ContractData, error)
	GetContract(ctx context.Context, contractID string) (*ContractData, error)
	AcceptContract(ctx context.Context, contractID string) (*ContractData, error)
	DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int) (*ContractData, error)
	FulfillContract(ctx context.Context, contractID string) (*ContractData, error)

	PurchaseCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*TradeResult, error)
	SellCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*TradeResult, error)
	JettisonCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) error
	TransferCargo(ctx context.Context, fromShip, toShip, goodSymbol string, units int) (*TransferResult, error)

	ExtractResources(ctx context.Context, shipSymbol string, surveyID *string) (*ExtractionResult, error)
	SiphonResources(ctx context.Context, shipSymbol string) (*ExtractionResult, error)
	CreateSurvey(ctx context.Context, shipSymbol string) (*SurveyResult, error)

	GetMarket(ctx context.Context, systemSymbol, waypointSymbol string) (*MarketData, error)
	GetShipyard(ctx context.Context, systemSymbol, waypointSymbol string) (*ShipyardData, error)
	PurchaseShip(ctx context.Context, shipType, waypointSymbol string) (*ShipPurchaseResult, error)

	GetConstruction(ctx context.Context, systemSymbol, waypointSymbol string) (*ConstructionData, error)
	SupplyConstruction(ctx context.Context, shipSymbol, waypointSymbol, tradeSymbol string, units int) (*ConstructionSupplyResponse, error)
}

// ShipData is the wire shape of a ship the client normalizes into a
// domain ship.Ship via the caller's own mapping.
type ShipData struct {
	Symbol           string
	EngineSpeed      int
	RegistrationRole string
	SystemSymbol     string
	WaypointSymbol   string
	NavStatus        string
	FlightMode       string
	RouteOrigin      string
	RouteDestination string
	DepartureTime    time.Time
	ArrivalTime      time.Time
	CargoCapacity    int
	CargoUnits       int
	CargoInventory   []shared.CargoItem
	FuelCurrent      int
	FuelCapacity     int
	Modules          []string
	Mounts           []string
	CooldownExpires  *time.Time
}

type NavigateResult struct {
	ArrivalTime time.Time
	FuelUsed    int
}

type RefuelResult struct {
	FuelCurrent int
	TotalCost   int
}

type JumpResult struct {
	DestinationSystem   string
	DestinationWaypoint string
	CooldownSeconds     int
	TotalPrice          int
}

type JumpGateData struct {
	Symbol            string
	Connections       []string
	IsUnderConstruction bool
}

type AgentData struct {
	Symbol  string
	Credits int64
}

type WaypointPage struct {
	Waypoints []shared.Waypoint
	Total     int
}

type ChartResult struct {
	AlreadyCharted bool
	Waypoint       shared.Waypoint
	IsMarketplace  bool
	IsShipyard     bool
}

type ContractData struct {
	ID               string
	FactionSymbol    string
	Type             string
	DeadlineToAccept time.Time
	Deadline         time.Time
	PaymentOnAccept  int64
	PaymentOnFulfill int64
	Deliveries       []ContractDeliveryData
	Accepted         bool
	Fulfilled        bool
}

type ContractDeliveryData struct {
	TradeSymbol       string
	DestinationSymbol string
	UnitsRequired     int
	UnitsFulfilled    int
}

type TradeResult struct {
	TotalPrice int64
	Units      int
	Cargo      []shared.CargoItem
}

type TransferResult struct {
	RemainingCargo []shared.CargoItem
}

type ExtractionResult struct {
	YieldSymbol     string
	YieldUnits      int
	CooldownSeconds int
	Cargo           []shared.CargoItem
}

type SurveyResult struct {
	Signatures      []string
	CooldownSeconds int
}

type MarketData struct {
	WaypointSymbol string
	TradeGoods     []TradeGoodData
}

type TradeGoodData struct {
	Symbol        string
	Supply        string
	Activity      string
	SellPrice     int64
	PurchasePrice int64
	TradeVolume   int
	TradeType     string // EXPORT, IMPORT, EXCHANGE
}

type ShipyardData struct {
	WaypointSymbol string
	ShipTypes      []string
	Ships          []ShipListingData
}

type ShipListingData struct {
	Type          string
	PurchasePrice int64
}

type ShipPurchaseResult struct {
	ShipSymbol     string
	Price          int64
	WaypointSymbol string
}

type ConstructionData struct {
	WaypointSymbol string
	Materials      []ConstructionMaterialData
	IsComplete     bool
}

type ConstructionMaterialData struct {
	TradeSymbol string
	Required    int
	Fulfilled   int
}

type ConstructionSupplyResponse struct {
	Construction ConstructionData
	Cargo        []shared.CargoItem
}
