package shared

import "math"

// RefuelInstruction is the ⟨refuel_to, fuel_in_cargo⟩ pair the navigation
// planner attaches to a leg's departure waypoint (§4.7 fuel-instruction
// rewrite) and the ship actor consumes (§4.1 refueling decision).
type RefuelInstruction struct {
	RefuelTo     int
	FuelInCargo  int
}

// RefuelPlan is what the ship actor actually does with a RefuelInstruction
// given its current state, per §4.1: "compute refuel_amount = max(0,
// refuel_to - current_fuel) rounded up to the next 100-unit market
// granularity; restock_amount = ceil(fuel_in_cargo/100) - current_cargo_fuel."
type RefuelPlan struct {
	RefuelAmount  int
	RestockAmount int
}

// PlanRefuel computes the RefuelPlan for an instruction given the ship's
// current fuel tank level and how much fuel-as-cargo it is already
// carrying.
func PlanRefuel(instr RefuelInstruction, currentFuel, currentCargoFuel int) RefuelPlan {
	raw := instr.RefuelTo - currentFuel
	if raw < 0 {
		raw = 0
	}
	refuelAmount := int(math.Ceil(float64(raw)/100)) * 100

	restock := int(math.Ceil(float64(instr.FuelInCargo)/100)) - currentCargoFuel
	if restock < 0 {
		restock = 0
	}

	return RefuelPlan{RefuelAmount: refuelAmount, RestockAmount: restock}
}
