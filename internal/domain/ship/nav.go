package ship

import "time"

// NavStatus is the ship's current navigation state, per spec.md §3.
type NavStatus string

const (
	NavInTransit NavStatus = "IN_TRANSIT"
	NavInOrbit   NavStatus = "IN_ORBIT"
	NavDocked    NavStatus = "DOCKED"
)

// Route describes a single in-flight leg: where it started, where it is
// headed, and when it departed/arrives. Status=InTransit iff now is before
// ArrivalTime (the invariant named in §3).
type Route struct {
	Origin        string
	Destination   string
	DepartureTime time.Time
	ArrivalTime   time.Time
}

// NavState is the navigation substate from §3.
type NavState struct {
	SystemSymbol   string
	WaypointSymbol string
	Status         NavStatus
	FlightMode     FlightModeName
	Route          *Route
}

// FlightModeName mirrors shared.FlightMode as a string so ship snapshots
// serialize without importing the planner's internal representation.
type FlightModeName string

const (
	FlightCruise  FlightModeName = "CRUISE"
	FlightDrift   FlightModeName = "DRIFT"
	FlightBurn    FlightModeName = "BURN"
	FlightStealth FlightModeName = "STEALTH"
)

// InTransit reports whether the ship is currently en route, per the §3
// invariant: status=InTransit ↔ now < arrival time.
func (n NavState) InTransit(now time.Time) bool {
	return n.Status == NavInTransit && n.Route != nil && now.Before(n.Route.ArrivalTime)
}
