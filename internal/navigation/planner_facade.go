package navigation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
)

// Planner is the in-process navigation service pilots consult (§1, §4.7).
// It owns one waypoint Graph per system and a galaxy-wide JumpGraph, both
// rebuilt from the store at startup (§5's "caches... derived and rebuilt
// from the store" rule — no remote calls happen here), and caches plan
// results keyed by (start, end, modes, only-markets, range) since fuel
// capacity varies per ship (§9 "Route caching").
type Planner struct {
	mu        sync.RWMutex
	graphs    map[string]*Graph
	jumpGraph *JumpGraph

	cacheMu sync.Mutex
	cache   map[string][]Leg
}

func NewPlanner() *Planner {
	return &Planner{
		graphs:    make(map[string]*Graph),
		jumpGraph: NewJumpGraph(nil),
		cache:     make(map[string][]Leg),
	}
}

// LoadSystemGraph installs (or replaces) the waypoint graph for a system.
func (p *Planner) LoadSystemGraph(g *Graph) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.graphs[g.SystemSymbol] = g
}

// LoadJumpGraph installs (or replaces) the galaxy-wide jump-gate graph.
func (p *Planner) LoadJumpGraph(connections []JumpConnection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jumpGraph = NewJumpGraph(connections)
}

// WaypointsInSystem exposes a system's waypoint set to role managers
// that need coordinates/traits without re-deriving their own graph
// (chart manager's "nearest uncharted waypoint", scrapping manager's
// "closest overdue marketplace", §4.5, §4.9).
func (p *Planner) WaypointsInSystem(system string) []*shared.Waypoint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[system]
	if !ok {
		return nil
	}
	return g.Waypoints()
}

// IsMarketplace reports whether a waypoint in system carries the
// MARKETPLACE trait.
func (p *Planner) IsMarketplace(system, waypoint string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[system]
	if !ok {
		return false
	}
	return g.IsMarketplace(waypoint)
}

// IsShipyard reports whether a waypoint in system carries the SHIPYARD
// trait.
func (p *Planner) IsShipyard(system, waypoint string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[system]
	if !ok {
		return false
	}
	return g.IsShipyard(waypoint)
}

// SystemSymbols lists every system the planner has a waypoint graph for,
// used at startup to seed per-system managers (scrapping schedule,
// mining assignment caps) without a separate store query.
func (p *Planner) SystemSymbols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.graphs))
	for system := range p.graphs {
		out = append(out, system)
	}
	return out
}

func (p *Planner) systemGraph(system string) (*Graph, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[system]
	return g, ok
}

func cacheKey(start, end string, modes []shared.FlightMode, onlyMarkets bool, fuelCapacity int) string {
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.Name()
	}
	sort.Strings(names)
	return fmt.Sprintf("%s|%s|%s|%v|%d", start, end, strings.Join(names, ","), onlyMarkets, fuelCapacity)
}

// planIntraSystemCached wraps PlanIntraSystem with the route cache.
// Per R2, identical inputs must return identical legs — the cache simply
// enforces that by construction (the second call is the same lookup).
func (p *Planner) planIntraSystemCached(g *Graph, start, end string, fuelCapacity int, modes []shared.FlightMode, onlyMarkets bool) ([]Leg, error) {
	key := cacheKey(start, end, modes, onlyMarkets, fuelCapacity)
	p.cacheMu.Lock()
	if cached, ok := p.cache[key]; ok {
		p.cacheMu.Unlock()
		return cached, nil
	}
	p.cacheMu.Unlock()

	legs, err := PlanIntraSystem(g, start, end, fuelCapacity, modes, onlyMarkets)
	if err != nil {
		return nil, err
	}

	p.cacheMu.Lock()
	p.cache[key] = legs
	p.cacheMu.Unlock()
	return legs, nil
}

// PlanRequest is the input to Plan: a navigation request from a ship
// actor building an executable route (§4.1 navigate_to).
type PlanRequest struct {
	StartWaypoint string
	EndWaypoint   string
	FuelCapacity  int
	EngineSpeed   int
	Modes         []shared.FlightMode
	OnlyMarkets   bool
}

// Plan produces RouteInstructions for a request, dispatching to intra- or
// inter-system routing depending on whether start and end share a system,
// per §4.7's inter-system routing rule (grounded on
// original_source/ship/src/autopilot/pathfinder.rs's Pathfinder::get_route).
func (p *Planner) Plan(req PlanRequest) ([]RouteInstruction, error) {
	startSystem := shared.ExtractSystemSymbol(req.StartWaypoint)
	endSystem := shared.ExtractSystemSymbol(req.EndWaypoint)

	if startSystem == endSystem {
		g, ok := p.systemGraph(startSystem)
		if !ok {
			return nil, ErrNoRoute
		}
		legs, err := p.planIntraSystemCached(g, req.StartWaypoint, req.EndWaypoint, req.FuelCapacity, req.Modes, req.OnlyMarkets)
		if err != nil {
			return nil, err
		}
		legs = RecomputeTravelTimes(legs, req.EngineSpeed)
		return BuildRouteInstructions(g, legs), nil
	}

	return p.planInterSystem(req, startSystem, endSystem)
}

// planInterSystem stitches {start-system intra route to a jump gate;
// inter-system jump chain; final jump gate to intra-system end}, per
// §4.7 and the original pathfinder.rs.
func (p *Planner) planInterSystem(req PlanRequest, startSystem, endSystem string) ([]RouteInstruction, error) {
	startGraph, ok := p.systemGraph(startSystem)
	if !ok {
		return nil, ErrNoRoute
	}
	endGraph, ok := p.systemGraph(endSystem)
	if !ok {
		return nil, ErrNoRoute
	}

	startGate := findJumpGate(startGraph)
	endGate := findJumpGate(endGraph)
	if startGate == "" || endGate == "" {
		return nil, ErrNoRoute
	}

	jumpLegs, err := p.jumpGraph.FindRoute(startGate, endGate)
	if err != nil {
		return nil, err
	}

	var legs []Leg

	if req.StartWaypoint != startGate {
		intraLegs, err := p.planIntraSystemCached(startGraph, req.StartWaypoint, startGate, req.FuelCapacity, req.Modes, req.OnlyMarkets)
		if err != nil {
			return nil, err
		}
		legs = append(legs, intraLegs...)
	}

	for _, jl := range jumpLegs {
		legs = append(legs, Leg{
			Start:      jl.From,
			End:        jl.To,
			Mode:       shared.FlightModeBurn,
			Distance:   jl.Distance,
			FuelCost:   0, // jump-gate travel does not consume ship fuel
			TravelTime: int(jl.Distance * 1_000_000),
			IsJump:     true,
		})
	}

	if req.EndWaypoint != endGate {
		intraLegs, err := p.planIntraSystemCached(endGraph, endGate, req.EndWaypoint, req.FuelCapacity, req.Modes, req.OnlyMarkets)
		if err != nil {
			return nil, err
		}
		legs = append(legs, intraLegs...)
	}

	legs = RecomputeTravelTimes(legs, req.EngineSpeed)

	// The fuel-instruction rewrite must be computed per-leg's own system
	// graph (marketplace status differs across systems); jump legs never
	// require refueling so they pass through untouched.
	instrs := make([]RouteInstruction, 0, len(legs))
	var segment []Leg
	flushMarket := func(g *Graph) {
		if len(segment) == 0 {
			return
		}
		instrs = append(instrs, BuildRouteInstructions(g, segment)...)
		segment = nil
	}
	curSystem := startSystem
	for _, leg := range legs {
		if leg.IsJump {
			flushMarket(graphFor(startGraph, endGraph, curSystem))
			instrs = append(instrs, RouteInstruction{Leg: leg})
			curSystem = shared.ExtractSystemSymbol(leg.End)
			continue
		}
		segment = append(segment, leg)
	}
	flushMarket(graphFor(startGraph, endGraph, curSystem))

	return instrs, nil
}

func graphFor(startGraph, endGraph *Graph, system string) *Graph {
	if startGraph.SystemSymbol == system {
		return startGraph
	}
	return endGraph
}

// JumpsBetweenSystems returns how many jump-gate hops separate the jump
// gates of two systems, used by the fleet manager's procurement ranking
// (§4.10 "jumps·antimatter" cost term).
func (p *Planner) JumpsBetweenSystems(fromSystem, toSystem string) (int, bool) {
	fromGraph, ok := p.systemGraph(fromSystem)
	if !ok {
		return 0, false
	}
	toGraph, ok := p.systemGraph(toSystem)
	if !ok {
		return 0, false
	}
	fromGate := findJumpGate(fromGraph)
	toGate := findJumpGate(toGraph)
	if fromGate == "" || toGate == "" {
		return 0, false
	}
	if fromGate == toGate {
		return 0, true
	}

	p.mu.RLock()
	jg := p.jumpGraph
	p.mu.RUnlock()

	legs, err := jg.FindRoute(fromGate, toGate)
	if err != nil {
		return 0, false
	}
	return len(legs), true
}

func findJumpGate(g *Graph) string {
	for _, wp := range g.Waypoints() {
		if wp.IsJumpGate() {
			return wp.Symbol
		}
	}
	return ""
}
