package navigation

import (
	"container/heap"
	"errors"
)

// JumpConnection is an undirected pair of waypoint symbols plus the
// under-construction flag of each endpoint, per §3 "Jump-gate
// connection". A connection is traversable iff neither endpoint is under
// construction.
type JumpConnection struct {
	A, B                     string
	Distance                 float64
	AUnderConstruction       bool
	BUnderConstruction       bool
}

func (c JumpConnection) Traversable() bool {
	return !c.AUnderConstruction && !c.BUnderConstruction
}

// JumpGraph is the galaxy-wide graph of jump-gate-connected waypoints,
// grounded on original_source/ship/src/autopilot/pathfinder.rs, which
// builds this graph from stored connections excluding under-construction
// endpoints before running its own shortest-path search.
type JumpGraph struct {
	adjacency map[string][]jumpEdge
}

type jumpEdge struct {
	to       string
	distance float64
}

// NewJumpGraph builds a traversable jump graph from stored connections,
// dropping any connection with an under-construction endpoint.
func NewJumpGraph(connections []JumpConnection) *JumpGraph {
	g := &JumpGraph{adjacency: make(map[string][]jumpEdge)}
	for _, c := range connections {
		if !c.Traversable() {
			continue
		}
		g.adjacency[c.A] = append(g.adjacency[c.A], jumpEdge{to: c.B, distance: c.Distance})
		g.adjacency[c.B] = append(g.adjacency[c.B], jumpEdge{to: c.A, distance: c.Distance})
	}
	return g
}

// JumpLeg is one hop of an inter-system jump-gate route.
type JumpLeg struct {
	From, To string
	Distance float64
}

var ErrNoJumpRoute = errors.New("navigation: no jump-gate route found")

// jumpRankState is the priority-queue key: shortest path first by jump
// count, then by total distance, per §4.7 "shortest path by (jumps,
// distance)".
type jumpRankState struct {
	gate   string
	jumps  int
	dist   float64
}

type jumpPQItem struct {
	state jumpRankState
	index int
}

type jumpPQ []*jumpPQItem

func (pq jumpPQ) Len() int { return len(pq) }
func (pq jumpPQ) Less(i, j int) bool {
	a, b := pq[i].state, pq[j].state
	if a.jumps != b.jumps {
		return a.jumps < b.jumps
	}
	return a.dist < b.dist
}
func (pq jumpPQ) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *jumpPQ) Push(x interface{}) {
	item := x.(*jumpPQItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *jumpPQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// FindRoute returns the shortest jump-gate chain from start to end,
// ranked first by number of jumps, then by total distance.
func (g *JumpGraph) FindRoute(start, end string) ([]JumpLeg, error) {
	if start == end {
		return nil, nil
	}

	type key struct{ gate string }
	bestJumps := map[string]int{start: 0}
	bestDist := map[string]float64{start: 0}
	prev := map[string]string{}
	prevLeg := map[string]JumpLeg{}

	pq := &jumpPQ{{state: jumpRankState{gate: start, jumps: 0, dist: 0}}}
	heap.Init(pq)
	visited := map[string]bool{}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*jumpPQItem)
		cur := item.state
		if visited[cur.gate] {
			continue
		}
		visited[cur.gate] = true
		if cur.gate == end {
			break
		}
		for _, e := range g.adjacency[cur.gate] {
			nj := cur.jumps + 1
			nd := cur.dist + e.distance
			bj, ok := bestJumps[e.to]
			better := !ok || nj < bj || (nj == bj && nd < bestDist[e.to])
			if better {
				bestJumps[e.to] = nj
				bestDist[e.to] = nd
				prev[e.to] = cur.gate
				prevLeg[e.to] = JumpLeg{From: cur.gate, To: e.to, Distance: e.distance}
				heap.Push(pq, &jumpPQItem{state: jumpRankState{gate: e.to, jumps: nj, dist: nd}})
			}
		}
	}

	if !visited[end] {
		return nil, ErrNoJumpRoute
	}

	var legs []JumpLeg
	cur := end
	for cur != start {
		leg := prevLeg[cur]
		legs = append([]JumpLeg{leg}, legs...)
		cur = prev[cur]
	}
	return legs, nil
}
