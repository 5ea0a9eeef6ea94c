package navigation

import "github.com/acdtunes/fleetctl/internal/domain/shared"

// Leg is one ⟨start, end, mode, distance, fuel_cost, travel_time⟩ hop of a
// planned route, per §4.7.
type Leg struct {
	Start      string
	End        string
	Mode       shared.FlightMode
	Distance   float64
	FuelCost   int
	TravelTime int
	// IsJump marks a jump-gate hop between systems: the ship actor must
	// call the remote jump endpoint instead of navigate, and the leg
	// consumes no fuel.
	IsJump bool
}

// RouteInstruction is a leg annotated with the ⟨refuel_to, fuel_in_cargo⟩
// pair the ship actor consumes (§4.1, §4.7's fuel-instruction rewrite).
// RefuelTo is only meaningful when Leg.Start is a marketplace.
type RouteInstruction struct {
	Leg           Leg
	RefuelTo      int
	FuelInCargo   int
	AtMarketplace bool
}

// BuildRouteInstructions produces the fuel instructions for a planned
// path by walking it in reverse, per §4.7: "maintain carry fuel needed
// downstream; at a marketplace-starting leg, require refuel_to=leg.fuel_cost
// and carry resets to 0; at a non-marketplace leg, carry += leg.fuel_cost."
func BuildRouteInstructions(g *Graph, legs []Leg) []RouteInstruction {
	instrs := make([]RouteInstruction, len(legs))
	carry := 0
	for i := len(legs) - 1; i >= 0; i-- {
		leg := legs[i]
		if g.IsMarketplace(leg.Start) {
			instrs[i] = RouteInstruction{Leg: leg, RefuelTo: leg.FuelCost, FuelInCargo: carry, AtMarketplace: true}
			carry = 0
		} else {
			carry += leg.FuelCost
			instrs[i] = RouteInstruction{Leg: leg, RefuelTo: 0, FuelInCargo: carry}
		}
	}
	return instrs
}
