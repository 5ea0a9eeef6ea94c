package navigation

import (
	"container/heap"
	"errors"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
)

// ErrNoRoute is returned when no path exists under the given constraints
// (§8 boundary behavior: "Planner with range=0 and no marketplace
// adjacency → returns 'no route', not a partial path.").
var ErrNoRoute = errors.New("navigation: no route found")

// dijkstraState is a (waypoint, fuel-remaining) pair, per §4.7.
type dijkstraState struct {
	waypoint string
	fuel     int
}

type dijkstraEdge struct {
	to   string
	mode shared.FlightMode
	dist float64
	cost int
}

// PlanIntraSystem finds a minimum-cost path from start to end within a
// single system, per §4.7. Edge cost is fuel_cost(mode, d)·multiplier(mode)
// (FlightMode.CostMultiplier), not raw fuel spend: fuel-remaining is
// tracked separately as Dijkstra state so Drift's flat 1-fuel cost can't
// make an all-Drift route look cheap when it's actually the slowest mode.
//
// It runs Dijkstra over (waypoint, fuel-remaining) states: the tank is
// assumed full (fuelCapacity) at start and is implicitly topped back up
// to full every time the path passes through a marketplace (since the
// ship can refuel there before departing) — so a state's fuel-remaining
// tracks what the ship would have if it declined to refuel, which is
// exactly what's needed to reject edges the ship cannot physically fly
// without an intermediate stop, and to support the fuel-instruction
// rewrite's non-marketplace-subsequence accounting (P6).
//
// modes restricts which flight modes' edges are considered. onlyMarkets
// requires every intermediate vertex (not start or end) to be a
// marketplace.
func PlanIntraSystem(g *Graph, start, end string, fuelCapacity int, modes []shared.FlightMode, onlyMarkets bool) ([]Leg, error) {
	if start == end {
		return nil, nil
	}
	if _, ok := g.Waypoint(start); !ok {
		return nil, ErrNoRoute
	}
	if _, ok := g.Waypoint(end); !ok {
		return nil, ErrNoRoute
	}

	best := map[dijkstraState]float64{}
	prevState := map[dijkstraState]dijkstraState{}
	prevEdge := map[dijkstraState]dijkstraEdge{}

	startState := dijkstraState{waypoint: start, fuel: fuelCapacity}
	best[startState] = 0

	pq := &priorityQueue{{state: startState, priority: 0}}
	heap.Init(pq)

	waypoints := g.Waypoints()

	var goal dijkstraState
	found := false

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		cur := item.state
		curCost := item.priority
		if c, ok := best[cur]; ok && curCost > c {
			continue
		}
		if cur.waypoint == end {
			goal = cur
			found = true
			break
		}

		fromWp, _ := g.Waypoint(cur.waypoint)
		// Fuel available for the next leg: a full tank if we're sitting at
		// a marketplace (we may refuel before departing), otherwise
		// whatever fuel remains from the prior leg.
		fuelAvail := cur.fuel
		if g.IsMarketplace(cur.waypoint) {
			fuelAvail = fuelCapacity
		}

		for _, toWp := range waypoints {
			if toWp.Symbol == cur.waypoint {
				continue
			}
			if onlyMarkets && toWp.Symbol != end && !g.IsMarketplace(toWp.Symbol) {
				continue
			}
			d := fromWp.DistanceTo(toWp)
			for _, mode := range modes {
				if d > mode.Range(fuelCapacity) {
					continue
				}
				fc := mode.FuelCost(d)
				if fc > fuelAvail {
					continue
				}
				nextFuel := fuelAvail - fc
				next := dijkstraState{waypoint: toWp.Symbol, fuel: nextFuel}
				edgeCost := float64(fc) * mode.CostMultiplier()
				nextCost := curCost + edgeCost
				if c, ok := best[next]; !ok || nextCost < c {
					best[next] = nextCost
					prevState[next] = cur
					prevEdge[next] = dijkstraEdge{to: toWp.Symbol, mode: mode, dist: d, cost: fc}
					heap.Push(pq, &pqItem{state: next, priority: nextCost})
				}
			}
		}
	}

	if !found {
		return nil, ErrNoRoute
	}

	// Walk the state chain back to start, building legs in forward order.
	var legs []Leg
	cur := goal
	for cur != startState {
		e := prevEdge[cur]
		from := prevState[cur]
		legs = append([]Leg{{
			Start:      from.waypoint,
			End:        e.to,
			Mode:       e.mode,
			Distance:   e.dist,
			FuelCost:   e.cost,
			TravelTime: e.mode.TravelTime(e.dist, 1),
		}}, legs...)
		cur = from
	}
	return legs, nil
}

// RecomputeTravelTimes rewrites each leg's TravelTime for a specific
// ship's engine speed. The planner itself computes a placeholder travel
// time (engine speed 1) so that routes can be cached across ships with
// different engines (§9 "Route caching") and recomputed cheaply per ship.
func RecomputeTravelTimes(legs []Leg, engineSpeed int) []Leg {
	out := make([]Leg, len(legs))
	for i, leg := range legs {
		leg.TravelTime = leg.Mode.TravelTime(leg.Distance, engineSpeed)
		out[i] = leg
	}
	return out
}

type pqItem struct {
	state    dijkstraState
	priority float64
	index    int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].priority < pq[j].priority }
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
