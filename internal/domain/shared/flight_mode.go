package shared

import "math"

// FlightMode is one of the four speed/fuel tradeoffs a ship can fly a leg
// under. Stealth is never selected by the planner (it has no fuel/time
// advantage over Cruise) but ships can still be commanded into it manually.
type FlightMode int

const (
	FlightModeCruise FlightMode = iota
	FlightModeDrift
	FlightModeBurn
	FlightModeStealth
)

func (f FlightMode) Name() string {
	switch f {
	case FlightModeCruise:
		return "CRUISE"
	case FlightModeDrift:
		return "DRIFT"
	case FlightModeBurn:
		return "BURN"
	case FlightModeStealth:
		return "STEALTH"
	default:
		return "UNKNOWN"
	}
}

func (f FlightMode) String() string { return f.Name() }

// speedCoef is the travel_time multiplier per mode.
func (f FlightMode) speedCoef() float64 {
	switch f {
	case FlightModeBurn:
		return 15
	case FlightModeCruise:
		return 25
	case FlightModeDrift:
		return 250
	case FlightModeStealth:
		return 30
	default:
		return 25
	}
}

// Range returns r(mode, fuelCapacity): the maximum distance an edge under
// this mode may span, per the planner's edge-existence rule.
func (f FlightMode) Range(fuelCapacity int) float64 {
	switch f {
	case FlightModeBurn:
		return float64(fuelCapacity) / 2
	case FlightModeCruise:
		return float64(fuelCapacity)
	case FlightModeDrift:
		return math.Inf(1)
	default:
		return float64(fuelCapacity)
	}
}

// FuelCost is fuel_cost(mode, d) from §4.7: Burn=⌈2·max(d,1)⌉,
// Cruise=⌈max(d,1)⌉, Drift=1.
func (f FlightMode) FuelCost(distance float64) int {
	d := math.Max(distance, 1)
	switch f {
	case FlightModeBurn:
		return int(math.Ceil(2 * d))
	case FlightModeCruise, FlightModeStealth:
		return int(math.Ceil(d))
	case FlightModeDrift:
		return 1
	default:
		return int(math.Ceil(d))
	}
}

// CostMultiplier is multiplier(mode) from §4.7's edge-cost formula
// (edge_cost = fuel_cost(mode, d) · multiplier(mode)): Burn is weighted
// below its raw fuel spend since it's the fast option, Drift well above
// its flat 1-fuel cost since it's the slow one, so the planner doesn't
// default to all-Drift routes just because Drift is fuel-cheap.
func (f FlightMode) CostMultiplier() float64 {
	switch f {
	case FlightModeBurn:
		return 0.5
	case FlightModeCruise:
		return 1.0
	case FlightModeDrift:
		return 10.0
	default:
		return 1.0
	}
}

// TravelTime is ⌈max(d,1)·speed_coef(mode)/engine_speed⌉ + 15, per §4.7.
func (f FlightMode) TravelTime(distance float64, engineSpeed int) int {
	if engineSpeed < 1 {
		engineSpeed = 1
	}
	d := math.Max(distance, 1)
	return int(math.Ceil(d*f.speedCoef()/float64(engineSpeed))) + 15
}

// AllFlightModes lists every mode the navigation planner may enumerate as
// an allowed-modes set M ⊆ {Drift, Cruise, Burn}.
func AllFlightModes() []FlightMode {
	return []FlightMode{FlightModeBurn, FlightModeCruise, FlightModeDrift}
}
