// Package api implements the outbound remote-game-API collaborator
// (spec.md §6, ports.APIClient) against the real SpaceTraders v2 HTTP
// API. The rate limiter +
// exponential backoff + circuit breaker retry loop in request() is kept
// nearly verbatim, but every call's signature and response shape is
// rewritten against ports.APIClient's domain DTOs instead of the old
// per-call-token, package-scattered response types.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/acdtunes/fleetctl/internal/domain/ports"
	"github.com/acdtunes/fleetctl/internal/domain/shared"
	"github.com/acdtunes/fleetctl/internal/infrastructure/config"
)

const defaultBaseURL = "https://api.spacetraders.io/v2"

// SpaceTradersClient implements ports.APIClient against the real game
// API, authenticating every request with a single agent bearer token
// fixed at construction (spec.md's fleet core manages one agent per
// process).
type SpaceTradersClient struct {
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	baseURL        string
	token          string
	maxRetries     int
	backoffBase    time.Duration
	circuitBreaker *CircuitBreaker
	clock          shared.Clock
}

// New builds a SpaceTradersClient from the ambient API config and an
// agent bearer token (read from the environment by the caller — spec.md
// §6 treats the token as outside the JSON fleet config, keeping
// credentials apart from settings).
func New(cfg config.APIConfig, token string, clock shared.Clock) *SpaceTradersClient {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	requests := cfg.RateLimit.Requests
	if requests < 1 {
		requests = 2
	}
	burst := cfg.RateLimit.Burst
	if burst < 1 {
		burst = 2
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.Retry.MaxAttempts
	if maxRetries < 1 {
		maxRetries = 5
	}
	backoffBase := cfg.Retry.BackoffBase
	if backoffBase <= 0 {
		backoffBase = time.Second
	}

	return &SpaceTradersClient{
		httpClient:     &http.Client{Timeout: timeout},
		rateLimiter:    rate.NewLimiter(rate.Limit(requests), burst),
		baseURL:        baseURL,
		token:          token,
		maxRetries:     maxRetries,
		backoffBase:    backoffBase,
		circuitBreaker: NewCircuitBreaker(5, 60*time.Second, clock),
		clock:          clock,
	}
}

var _ ports.APIClient = (*SpaceTradersClient)(nil)

type apiEnvelope[T any] struct {
	Data T `json:"data"`
}

type wireNavRoute struct {
	Destination struct {
		Symbol string `json:"symbol"`
	} `json:"destination"`
	Origin struct {
		Symbol string `json:"symbol"`
	} `json:"origin"`
	DepartureTime time.Time `json:"departureTime"`
	Arrival       time.Time `json:"arrival"`
}

type wireNav struct {
	SystemSymbol   string       `json:"systemSymbol"`
	WaypointSymbol string       `json:"waypointSymbol"`
	Status         string       `json:"status"`
	FlightMode     string       `json:"flightMode"`
	Route          wireNavRoute `json:"route"`
}

type wireCargoItem struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Units       int    `json:"units"`
}

type wireCargo struct {
	Capacity  int             `json:"capacity"`
	Units     int             `json:"units"`
	Inventory []wireCargoItem `json:"inventory"`
}

type wireFuel struct {
	Current  int `json:"current"`
	Capacity int `json:"capacity"`
}

type wireShip struct {
	Symbol      string `json:"symbol"`
	Registration struct {
		Role string `json:"role"`
	} `json:"registration"`
	Nav    wireNav   `json:"nav"`
	Cargo  wireCargo `json:"cargo"`
	Fuel   wireFuel  `json:"fuel"`
	Engine struct {
		Speed int `json:"speed"`
	} `json:"engine"`
	Frame struct {
		Symbol string `json:"symbol"`
	} `json:"frame"`
	Modules []struct {
		Symbol string `json:"symbol"`
	} `json:"modules"`
	Mounts []struct {
		Symbol string `json:"symbol"`
	} `json:"mounts"`
	Cooldown struct {
		Expiration *time.Time `json:"expiration"`
	} `json:"cooldown"`
}

func cargoToShared(c wireCargo) []shared.CargoItem {
	out := make([]shared.CargoItem, 0, len(c.Inventory))
	for _, it := range c.Inventory {
		item, err := shared.NewCargoItem(it.Symbol, it.Name, it.Description, it.Units)
		if err != nil {
			continue
		}
		out = append(out, *item)
	}
	return out
}

func (s wireShip) toShipData() *ports.ShipData {
	modules := make([]string, 0, len(s.Modules))
	for _, m := range s.Modules {
		modules = append(modules, m.Symbol)
	}
	mounts := make([]string, 0, len(s.Mounts))
	for _, m := range s.Mounts {
		mounts = append(mounts, m.Symbol)
	}
	return &ports.ShipData{
		Symbol:           s.Symbol,
		EngineSpeed:      s.Engine.Speed,
		RegistrationRole: s.Registration.Role,
		SystemSymbol:     s.Nav.SystemSymbol,
		WaypointSymbol:   s.Nav.WaypointSymbol,
		NavStatus:        s.Nav.Status,
		FlightMode:       s.Nav.FlightMode,
		RouteOrigin:      s.Nav.Route.Origin.Symbol,
		RouteDestination: s.Nav.Route.Destination.Symbol,
		DepartureTime:    s.Nav.Route.DepartureTime,
		ArrivalTime:      s.Nav.Route.Arrival,
		CargoCapacity:    s.Cargo.Capacity,
		CargoUnits:       s.Cargo.Units,
		CargoInventory:   cargoToShared(s.Cargo),
		FuelCurrent:      s.Fuel.Current,
		FuelCapacity:     s.Fuel.Capacity,
		Modules:          modules,
		Mounts:           mounts,
		CooldownExpires:  s.Cooldown.Expiration,
	}
}

func (c *SpaceTradersClient) GetShip(ctx context.Context, symbol string) (*ports.ShipData, error) {
	var resp apiEnvelope[wireShip]
	if err := c.request(ctx, http.MethodGet, fmt.Sprintf("/my/ships/%s", symbol), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.toShipData(), nil
}

func (c *SpaceTradersClient) ListShips(ctx context.Context) ([]*ports.ShipData, error) {
	var out []*ports.ShipData
	page := 1
	for {
		var resp apiEnvelope[[]wireShip]
		if err := c.request(ctx, http.MethodGet, fmt.Sprintf("/my/ships?page=%d&limit=20", page), nil, &resp); err != nil {
			return nil, err
		}
		if len(resp.Data) == 0 {
			break
		}
		for _, s := range resp.Data {
			out = append(out, s.toShipData())
		}
		if len(resp.Data) < 20 {
			break
		}
		page++
	}
	return out, nil
}

func (c *SpaceTradersClient) NavigateShip(ctx context.Context, symbol, destination string) (*ports.NavigateResult, error) {
	var resp apiEnvelope[struct {
		Nav  wireNav `json:"nav"`
		Fuel struct {
			Consumed struct {
				Amount int `json:"amount"`
			} `json:"consumed"`
		} `json:"fuel"`
	}]
	body := map[string]string{"waypointSymbol": destination}
	if err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/navigate", symbol), body, &resp); err != nil {
		return nil, err
	}
	return &ports.NavigateResult{ArrivalTime: resp.Data.Nav.Route.Arrival, FuelUsed: resp.Data.Fuel.Consumed.Amount}, nil
}

func (c *SpaceTradersClient) OrbitShip(ctx context.Context, symbol string) error {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/orbit", symbol), nil, nil)
}

func (c *SpaceTradersClient) DockShip(ctx context.Context, symbol string) error {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/dock", symbol), nil, nil)
}

func (c *SpaceTradersClient) RefuelShip(ctx context.Context, symbol string, units *int, fromCargo bool) (*ports.RefuelResult, error) {
	body := map[string]any{"fromCargo": fromCargo}
	if units != nil {
		body["units"] = *units
	}
	var resp apiEnvelope[struct {
		Fuel       wireFuel `json:"fuel"`
		Transaction struct {
			TotalPrice int `json:"totalPrice"`
		} `json:"transaction"`
	}]
	if err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/refuel", symbol), body, &resp); err != nil {
		return nil, err
	}
	return &ports.RefuelResult{FuelCurrent: resp.Data.Fuel.Current, TotalCost: resp.Data.Transaction.TotalPrice}, nil
}

func (c *SpaceTradersClient) SetFlightMode(ctx context.Context, symbol string, mode shared.FlightMode) error {
	body := map[string]string{"flightMode": mode.Name()}
	return c.request(ctx, http.MethodPatch, fmt.Sprintf("/my/ships/%s/nav", symbol), body, nil)
}

func (c *SpaceTradersClient) JumpShip(ctx context.Context, shipSymbol, systemSymbol string) (*ports.JumpResult, error) {
	body := map[string]string{"waypointSymbol": systemSymbol}
	var resp apiEnvelope[struct {
		Nav      wireNav `json:"nav"`
		Cooldown struct {
			RemainingSeconds int `json:"remainingSeconds"`
		} `json:"cooldown"`
		Transaction struct {
			TotalPrice int `json:"totalPrice"`
		} `json:"transaction"`
	}]
	if err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/jump", shipSymbol), body, &resp); err != nil {
		return nil, err
	}
	return &ports.JumpResult{
		DestinationSystem:   resp.Data.Nav.SystemSymbol,
		DestinationWaypoint: resp.Data.Nav.WaypointSymbol,
		CooldownSeconds:     resp.Data.Cooldown.RemainingSeconds,
		TotalPrice:          resp.Data.Transaction.TotalPrice,
	}, nil
}

func (c *SpaceTradersClient) GetJumpGate(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.JumpGateData, error) {
	var resp apiEnvelope[struct {
		Symbol              string   `json:"symbol"`
		Connections         []string `json:"connections"`
		IsUnderConstruction bool     `json:"isUnderConstruction"`
	}]
	path := fmt.Sprintf("/systems/%s/waypoints/%s/jump-gate", systemSymbol, waypointSymbol)
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &ports.JumpGateData{Symbol: resp.Data.Symbol, Connections: resp.Data.Connections, IsUnderConstruction: resp.Data.IsUnderConstruction}, nil
}

func (c *SpaceTradersClient) GetAgent(ctx context.Context) (*ports.AgentData, error) {
	var resp apiEnvelope[struct {
		Symbol  string `json:"symbol"`
		Credits int64  `json:"credits"`
	}]
	if err := c.request(ctx, http.MethodGet, "/my/agent", nil, &resp); err != nil {
		return nil, err
	}
	return &ports.AgentData{Symbol: resp.Data.Symbol, Credits: resp.Data.Credits}, nil
}

type wireWaypointTrait struct {
	Symbol string `json:"symbol"`
}

type wireWaypointOrbital struct {
	Symbol string `json:"symbol"`
}

type wireWaypoint struct {
	Symbol       string                `json:"symbol"`
	SystemSymbol string                `json:"systemSymbol"`
	Type         string                `json:"type"`
	X            int                   `json:"x"`
	Y            int                   `json:"y"`
	Traits       []wireWaypointTrait   `json:"traits"`
	Orbitals     []wireWaypointOrbital `json:"orbitals"`
}

func (w wireWaypoint) hasTrait(name string) bool {
	for _, t := range w.Traits {
		if t.Symbol == name {
			return true
		}
	}
	return false
}

func (w wireWaypoint) toShared() shared.Waypoint {
	wp, err := shared.NewWaypoint(w.Symbol, float64(w.X), float64(w.Y))
	if err != nil {
		wp = &shared.Waypoint{Symbol: w.Symbol, X: float64(w.X), Y: float64(w.Y)}
	}
	wp.SystemSymbol = w.SystemSymbol
	wp.Type = w.Type
	wp.HasFuel = w.hasTrait("MARKETPLACE")
	for _, t := range w.Traits {
		wp.Traits = append(wp.Traits, t.Symbol)
	}
	for _, o := range w.Orbitals {
		wp.Orbitals = append(wp.Orbitals, o.Symbol)
	}
	return *wp
}

func (c *SpaceTradersClient) ListWaypoints(ctx context.Context, systemSymbol string, page, limit int) (*ports.WaypointPage, error) {
	var resp struct {
		Data []wireWaypoint `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	path := fmt.Sprintf("/systems/%s/waypoints?page=%d&limit=%d", systemSymbol, page, limit)
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	wps := make([]shared.Waypoint, 0, len(resp.Data))
	for _, w := range resp.Data {
		wps = append(wps, w.toShared())
	}
	return &ports.WaypointPage{Waypoints: wps, Total: resp.Meta.Total}, nil
}

func (c *SpaceTradersClient) CreateChart(ctx context.Context, shipSymbol string) (*ports.ChartResult, error) {
	var resp apiEnvelope[struct {
		Chart    struct{} `json:"chart"`
		Waypoint wireWaypoint `json:"waypoint"`
	}]
	err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/chart", shipSymbol), nil, &resp)
	if err != nil {
		var rerr *shared.RemoteApiError
		if errors.As(err, &rerr) && rerr.Code == 4230 {
			return &ports.ChartResult{AlreadyCharted: true}, nil
		}
		return nil, err
	}
	wp := resp.Data.Waypoint
	return &ports.ChartResult{
		Waypoint:      wp.toShared(),
		IsMarketplace: wp.hasTrait("MARKETPLACE"),
		IsShipyard:    wp.hasTrait("SHIPYARD"),
	}, nil
}

type wireContract struct {
	ID            string `json:"id"`
	FactionSymbol string `json:"factionSymbol"`
	Type          string `json:"type"`
	Terms         struct {
		Deadline  time.Time `json:"deadline"`
		Payment   struct {
			OnAccepted  int64 `json:"onAccepted"`
			OnFulfilled int64 `json:"onFulfilled"`
		} `json:"payment"`
		Deliver []struct {
			TradeSymbol       string `json:"tradeSymbol"`
			DestinationSymbol string `json:"destinationSymbol"`
			UnitsRequired     int    `json:"unitsRequired"`
			UnitsFulfilled    int    `json:"unitsFulfilled"`
		} `json:"deliver"`
	} `json:"terms"`
	DeadlineToAccept time.Time `json:"deadlineToAccept"`
	Accepted         bool      `json:"accepted"`
	Fulfilled        bool      `json:"fulfilled"`
}

func (w wireContract) toContractData() *ports.ContractData {
	deliveries := make([]ports.ContractDeliveryData, 0, len(w.Terms.Deliver))
	for _, d := range w.Terms.Deliver {
		deliveries = append(deliveries, ports.ContractDeliveryData{
			TradeSymbol:       d.TradeSymbol,
			DestinationSymbol: d.DestinationSymbol,
			UnitsRequired:     d.UnitsRequired,
			UnitsFulfilled:    d.UnitsFulfilled,
		})
	}
	return &ports.ContractData{
		ID:               w.ID,
		FactionSymbol:    w.FactionSymbol,
		Type:             w.Type,
		DeadlineToAccept: w.DeadlineToAccept,
		Deadline:         w.Terms.Deadline,
		PaymentOnAccept:  w.Terms.Payment.OnAccepted,
		PaymentOnFulfill: w.Terms.Payment.OnFulfilled,
		Deliveries:       deliveries,
		Accepted:         w.Accepted,
		Fulfilled:        w.Fulfilled,
	}
}

func (c *SpaceTradersClient) NegotiateContract(ctx context.Context, shipSymbol string) (*ports.ContractData, error) {
	var resp apiEnvelope[struct {
		Contract wireContract `json:"contract"`
	}]
	if err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/negotiate/contract", shipSymbol), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Contract.toContractData(), nil
}

func (c *SpaceTradersClient) GetContract(ctx context.Context, contractID string) (*ports.ContractData, error) {
	var resp apiEnvelope[wireContract]
	if err := c.request(ctx, http.MethodGet, fmt.Sprintf("/my/contracts/%s", contractID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.toContractData(), nil
}

func (c *SpaceTradersClient) AcceptContract(ctx context.Context, contractID string) (*ports.ContractData, error) {
	var resp apiEnvelope[struct {
		Contract wireContract `json:"contract"`
	}]
	if err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/contracts/%s/accept", contractID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Contract.toContractData(), nil
}

func (c *SpaceTradersClient) DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int) (*ports.ContractData, error) {
	body := map[string]any{"shipSymbol": shipSymbol, "tradeSymbol": tradeSymbol, "units": units}
	var resp apiEnvelope[struct {
		Contract wireContract `json:"contract"`
	}]
	if err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/contracts/%s/deliver", contractID), body, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Contract.toContractData(), nil
}

func (c *SpaceTradersClient) FulfillContract(ctx context.Context, contractID string) (*ports.ContractData, error) {
	var resp apiEnvelope[struct {
		Contract wireContract `json:"contract"`
	}]
	if err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/contracts/%s/fulfill", contractID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Contract.toContractData(), nil
}

type wireTransaction struct {
	TotalPrice int `json:"totalPrice"`
	Units      int `json:"units"`
}

func (c *SpaceTradersClient) PurchaseCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*ports.TradeResult, error) {
	return c.tradeCall(ctx, fmt.Sprintf("/my/ships/%s/purchase", shipSymbol), goodSymbol, units)
}

func (c *SpaceTradersClient) SellCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*ports.TradeResult, error) {
	return c.tradeCall(ctx, fmt.Sprintf("/my/ships/%s/sell", shipSymbol), goodSymbol, units)
}

func (c *SpaceTradersClient) tradeCall(ctx context.Context, path, goodSymbol string, units int) (*ports.TradeResult, error) {
	body := map[string]any{"symbol": goodSymbol, "units": units}
	var resp apiEnvelope[struct {
		Cargo       wireCargo       `json:"cargo"`
		Transaction wireTransaction `json:"transaction"`
	}]
	if err := c.request(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &ports.TradeResult{TotalPrice: int64(resp.Data.Transaction.TotalPrice), Units: resp.Data.Transaction.Units, Cargo: cargoToShared(resp.Data.Cargo)}, nil
}

func (c *SpaceTradersClient) JettisonCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) error {
	body := map[string]any{"symbol": goodSymbol, "units": units}
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/jettison", shipSymbol), body, nil)
}

func (c *SpaceTradersClient) TransferCargo(ctx context.Context, fromShip, toShip, goodSymbol string, units int) (*ports.TransferResult, error) {
	body := map[string]any{"tradeSymbol": goodSymbol, "units": units, "shipSymbol": toShip}
	var resp apiEnvelope[struct {
		Cargo wireCargo `json:"cargo"`
	}]
	if err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/transfer", fromShip), body, &resp); err != nil {
		return nil, err
	}
	return &ports.TransferResult{RemainingCargo: cargoToShared(resp.Data.Cargo)}, nil
}

func (c *SpaceTradersClient) ExtractResources(ctx context.Context, shipSymbol string, surveyID *string) (*ports.ExtractionResult, error) {
	var body any
	if surveyID != nil {
		body = map[string]any{"survey": map[string]string{"signature": *surveyID}}
	}
	var resp apiEnvelope[struct {
		Extraction struct {
			Yield struct {
				Symbol string `json:"symbol"`
				Units  int    `json:"units"`
			} `json:"yield"`
		} `json:"extraction"`
		Cooldown struct {
			RemainingSeconds int `json:"remainingSeconds"`
		} `json:"cooldown"`
		Cargo wireCargo `json:"cargo"`
	}]
	if err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/extract", shipSymbol), body, &resp); err != nil {
		return nil, err
	}
	return &ports.ExtractionResult{
		YieldSymbol:     resp.Data.Extraction.Yield.Symbol,
		YieldUnits:      resp.Data.Extraction.Yield.Units,
		CooldownSeconds: resp.Data.Cooldown.RemainingSeconds,
		Cargo:           cargoToShared(resp.Data.Cargo),
	}, nil
}

func (c *SpaceTradersClient) SiphonResources(ctx context.Context, shipSymbol string) (*ports.ExtractionResult, error) {
	var resp apiEnvelope[struct {
		Siphon struct {
			Yield struct {
				Symbol string `json:"symbol"`
				Units  int    `json:"units"`
			} `json:"yield"`
		} `json:"siphon"`
		Cooldown struct {
			RemainingSeconds int `json:"remainingSeconds"`
		} `json:"cooldown"`
		Cargo wireCargo `json:"cargo"`
	}]
	if err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/siphon", shipSymbol), nil, &resp); err != nil {
		return nil, err
	}
	return &ports.ExtractionResult{
		YieldSymbol:     resp.Data.Siphon.Yield.Symbol,
		YieldUnits:      resp.Data.Siphon.Yield.Units,
		CooldownSeconds: resp.Data.Cooldown.RemainingSeconds,
		Cargo:           cargoToShared(resp.Data.Cargo),
	}, nil
}

func (c *SpaceTradersClient) CreateSurvey(ctx context.Context, shipSymbol string) (*ports.SurveyResult, error) {
	var resp apiEnvelope[struct {
		Surveys []struct {
			Signature string `json:"signature"`
		} `json:"surveys"`
		Cooldown struct {
			RemainingSeconds int `json:"remainingSeconds"`
		} `json:"cooldown"`
	}]
	if err := c.request(ctx, http.MethodPost, fmt.Sprintf("/my/ships/%s/survey", shipSymbol), nil, &resp); err != nil {
		return nil, err
	}
	sigs := make([]string, 0, len(resp.Data.Surveys))
	for _, s := range resp.Data.Surveys {
		sigs = append(sigs, s.Signature)
	}
	return &ports.SurveyResult{Signatures: sigs, CooldownSeconds: resp.Data.Cooldown.RemainingSeconds}, nil
}

type wireTradeGood struct {
	Symbol        string `json:"symbol"`
	Supply        string `json:"supply"`
	Activity      string `json:"activity"`
	SellPrice     int64  `json:"sellPrice"`
	PurchasePrice int64  `json:"purchasePrice"`
	TradeVolume   int    `json:"tradeVolume"`
	Type          string `json:"type"`
}

func (c *SpaceTradersClient) GetMarket(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.MarketData, error) {
	var resp apiEnvelope[struct {
		Symbol     string          `json:"symbol"`
		TradeGoods []wireTradeGood `json:"tradeGoods"`
	}]
	path := fmt.Sprintf("/systems/%s/waypoints/%s/market", systemSymbol, waypointSymbol)
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	goods := make([]ports.TradeGoodData, 0, len(resp.Data.TradeGoods))
	for _, g := range resp.Data.TradeGoods {
		goods = append(goods, ports.TradeGoodData{
			Symbol: g.Symbol, Supply: g.Supply, Activity: g.Activity,
			SellPrice: g.SellPrice, PurchasePrice: g.PurchasePrice,
			TradeVolume: g.TradeVolume, TradeType: g.Type,
		})
	}
	return &ports.MarketData{WaypointSymbol: resp.Data.Symbol, TradeGoods: goods}, nil
}

func (c *SpaceTradersClient) GetShipyard(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.ShipyardData, error) {
	var resp apiEnvelope[struct {
		Symbol    string   `json:"symbol"`
		ShipTypes []struct {
			Type string `json:"type"`
		} `json:"shipTypes"`
		Ships []struct {
			Type          string `json:"type"`
			PurchasePrice int64  `json:"purchasePrice"`
		} `json:"ships"`
	}]
	path := fmt.Sprintf("/systems/%s/waypoints/%s/shipyard", systemSymbol, waypointSymbol)
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	types := make([]string, 0, len(resp.Data.ShipTypes))
	for _, t := range resp.Data.ShipTypes {
		types = append(types, t.Type)
	}
	listings := make([]ports.ShipListingData, 0, len(resp.Data.Ships))
	for _, s := range resp.Data.Ships {
		listings = append(listings, ports.ShipListingData{Type: s.Type, PurchasePrice: s.PurchasePrice})
	}
	return &ports.ShipyardData{WaypointSymbol: resp.Data.Symbol, ShipTypes: types, Ships: listings}, nil
}

func (c *SpaceTradersClient) PurchaseShip(ctx context.Context, shipType, waypointSymbol string) (*ports.ShipPurchaseResult, error) {
	body := map[string]string{"shipType": shipType, "waypointSymbol": waypointSymbol}
	var resp apiEnvelope[struct {
		Ship        wireShip `json:"ship"`
		Transaction struct {
			Price int64 `json:"price"`
		} `json:"transaction"`
	}]
	if err := c.request(ctx, http.MethodPost, "/my/ships", body, &resp); err != nil {
		return nil, err
	}
	return &ports.ShipPurchaseResult{ShipSymbol: resp.Data.Ship.Symbol, Price: resp.Data.Transaction.Price, WaypointSymbol: waypointSymbol}, nil
}

type wireConstruction struct {
	Symbol    string `json:"symbol"`
	Materials []struct {
		TradeSymbol string `json:"tradeSymbol"`
		Required    int    `json:"required"`
		Fulfilled   int    `json:"fulfilled"`
	} `json:"materials"`
	IsComplete bool `json:"isComplete"`
}

func (w wireConstruction) toData() ports.ConstructionData {
	mats := make([]ports.ConstructionMaterialData, 0, len(w.Materials))
	for _, m := range w.Materials {
		mats = append(mats, ports.ConstructionMaterialData{TradeSymbol: m.TradeSymbol, Required: m.Required, Fulfilled: m.Fulfilled})
	}
	return ports.ConstructionData{WaypointSymbol: w.Symbol, Materials: mats, IsComplete: w.IsComplete}
}

func (c *SpaceTradersClient) GetConstruction(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.ConstructionData, error) {
	var resp apiEnvelope[wireConstruction]
	path := fmt.Sprintf("/systems/%s/waypoints/%s/construction", systemSymbol, waypointSymbol)
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	data := resp.Data.toData()
	return &data, nil
}

func (c *SpaceTradersClient) SupplyConstruction(ctx context.Context, shipSymbol, waypointSymbol, tradeSymbol string, units int) (*ports.ConstructionSupplyResponse, error) {
	body := map[string]any{"shipSymbol": shipSymbol, "tradeSymbol": tradeSymbol, "units": units}
	var resp apiEnvelope[struct {
		Construction wireConstruction `json:"construction"`
		Cargo        wireCargo        `json:"cargo"`
	}]
	systemSymbol := shared.ExtractSystemSymbol(waypointSymbol)
	path := fmt.Sprintf("/systems/%s/waypoints/%s/construction/supply", systemSymbol, waypointSymbol)
	if err := c.request(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &ports.ConstructionSupplyResponse{Construction: resp.Data.Construction.toData(), Cargo: cargoToShared(resp.Data.Cargo)}, nil
}

// request makes an HTTP request with rate limiting, circuit breaker and
// exponential-backoff retries. The retry/backoff/circuit-breaker shape
// carries over from a single fixed client token, with no per-call token
// argument.
func (c *SpaceTradersClient) request(ctx context.Context, method, path string, body, result interface{}) error {
	target := c.baseURL + path
	if _, err := url.Parse(target); err != nil {
		return fmt.Errorf("invalid request url: %w", err)
	}

	var lastErr error

	err := c.circuitBreaker.Call(func() error {
		for attempt := 0; attempt <= c.maxRetries; attempt++ {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter error: %w", err)
			}

			var reqBody io.Reader
			if body != nil {
				jsonData, err := json.Marshal(body)
				if err != nil {
					return fmt.Errorf("failed to marshal request body: %w", err)
				}
				reqBody = bytes.NewBuffer(jsonData)
			}

			req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.token)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				lastErr = fmt.Errorf("network error: %w", err)
				if attempt >= c.maxRetries || ctx.Err() != nil {
					break
				}
				c.clock.Sleep(c.backoffBase * time.Duration(1<<attempt))
				continue
			}

			respBody, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode >= 500 {
				lastErr = parseRemoteError(resp.StatusCode, respBody)
				if attempt >= c.maxRetries || ctx.Err() != nil {
					break
				}
				delay := c.backoffBase * time.Duration(1<<attempt)
				if resp.StatusCode == http.StatusTooManyRequests {
					if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
						if seconds, err := strconv.Atoi(retryAfter); err == nil {
							delay = time.Duration(seconds) * time.Second
						}
					}
				}
				c.clock.Sleep(delay)
				continue
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return parseRemoteError(resp.StatusCode, respBody)
			}

			if result != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, result); err != nil {
					return fmt.Errorf("failed to unmarshal response: %w", err)
				}
			}
			return nil
		}

		if lastErr != nil {
			return lastErr
		}
		return fmt.Errorf("max retries exceeded")
	})

	if errors.Is(err, ErrCircuitOpen) {
		return fmt.Errorf("circuit breaker open: %w", err)
	}
	return err
}

func parseRemoteError(status int, body []byte) error {
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &wrapped)
	msg := wrapped.Error.Message
	if msg == "" {
		msg = string(body)
	}
	return shared.NewRemoteApiError(status, wrapped.Error.Code, msg)
}
