package navigation

import "github.com/acdtunes/fleetctl/internal/domain/shared"

// Graph is a star system's waypoint graph: every waypoint is implicitly
// connected to every other (edges are distance-derived at plan time, per
// §4.7), so the graph is really just the set of waypoints plus which ones
// are marketplaces. Grounded on internal/domain/system/navigation_graph.go,
// trimmed of the API-ingestion conversion helpers that belonged to the deleted
// API-adapter layer.
type Graph struct {
	SystemSymbol string
	waypoints    map[string]*shared.Waypoint
}

// NewGraph creates an empty graph for a system.
func NewGraph(systemSymbol string) *Graph {
	return &Graph{SystemSymbol: systemSymbol, waypoints: make(map[string]*shared.Waypoint)}
}

// AddWaypoint registers a waypoint in the graph.
func (g *Graph) AddWaypoint(wp *shared.Waypoint) { g.waypoints[wp.Symbol] = wp }

// Waypoint looks up a waypoint by symbol.
func (g *Graph) Waypoint(symbol string) (*shared.Waypoint, bool) {
	wp, ok := g.waypoints[symbol]
	return wp, ok
}

// Waypoints returns every waypoint in the graph.
func (g *Graph) Waypoints() []*shared.Waypoint {
	out := make([]*shared.Waypoint, 0, len(g.waypoints))
	for _, wp := range g.waypoints {
		out = append(out, wp)
	}
	return out
}

// IsMarketplace reports whether a waypoint carries the MARKETPLACE trait.
func (g *Graph) IsMarketplace(symbol string) bool {
	wp, ok := g.waypoints[symbol]
	return ok && wp.IsMarketplace()
}

// IsShipyard reports whether a waypoint carries the SHIPYARD trait.
func (g *Graph) IsShipyard(symbol string) bool {
	wp, ok := g.waypoints[symbol]
	return ok && wp.IsShipyard()
}

func (g *Graph) Count() int { return len(g.waypoints) }
