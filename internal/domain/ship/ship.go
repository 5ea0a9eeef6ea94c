package ship

import (
	"time"

	"github.com/acdtunes/fleetctl/internal/domain/shared"
)

// Ship is the aggregate described in spec.md §3. It is pure state: no I/O,
// no locking. Locking and remote calls live one layer up, in the ship
// actor/ship manager (internal/shipactor, internal/shipmanager) — this
// type only guarantees its own invariants are never violated by a direct
// mutation.
//
// Invariants (New, SetCargo and SetFuel reject states that break the
// first two; the third is kept by SetNav's caller):
//   - cargo.Units == Σ cargo.Inventory[·].Units
//   - 0 <= fuel.Current <= fuel.Capacity
//   - Nav.Status == InTransit iff now < Nav.Route.ArrivalTime
type Ship struct {
	symbol             string
	engineSpeed        int
	registrationRole   string
	cooldownExpiration *time.Time
	nav                NavState
	cargo              shared.Cargo
	fuel               shared.Fuel
	modules            []string
	mounts             []string
	pilotRole          PilotRole
	status             Status
}

// New constructs a Ship, validating the invariants named in §3.
func New(
	symbol string,
	engineSpeed int,
	registrationRole string,
	nav NavState,
	cargo shared.Cargo,
	fuel shared.Fuel,
	modules, mounts []string,
	pilotRole PilotRole,
) (*Ship, error) {
	if symbol == "" {
		return nil, shared.NewValidationError("symbol", "cannot be empty")
	}
	if engineSpeed <= 0 {
		return nil, shared.NewValidationError("engine_speed", "must be positive")
	}
	if fuel.Current < 0 || fuel.Current > fuel.Capacity {
		return nil, shared.NewInvalidShipDataError("fuel current out of range")
	}
	if cargo.Units > cargo.Capacity {
		return nil, shared.NewInvalidShipDataError("cargo units exceed capacity")
	}
	sum := 0
	for _, item := range cargo.Inventory {
		sum += item.Units
	}
	if sum != cargo.Units {
		return nil, shared.NewInvalidShipDataError("cargo inventory sum mismatch")
	}

	return &Ship{
		symbol:           symbol,
		engineSpeed:      engineSpeed,
		registrationRole: registrationRole,
		nav:              nav,
		cargo:            cargo,
		fuel:             fuel,
		modules:          append([]string(nil), modules...),
		mounts:           append([]string(nil), mounts...),
		pilotRole:        pilotRole,
		status:           IdleStatus(),
	}, nil
}

func (s *Ship) Symbol() string                      { return s.symbol }
func (s *Ship) EngineSpeed() int                     { return s.engineSpeed }
func (s *Ship) RegistrationRole() string             { return s.registrationRole }
func (s *Ship) CooldownExpiration() *time.Time       { return s.cooldownExpiration }
func (s *Ship) Nav() NavState                        { return s.nav }
func (s *Ship) Cargo() shared.Cargo                  { return s.cargo }
func (s *Ship) Fuel() shared.Fuel                    { return s.fuel }
func (s *Ship) Modules() []string                    { return append([]string(nil), s.modules...) }
func (s *Ship) Mounts() []string                     { return append([]string(nil), s.mounts...) }
func (s *Ship) PilotRole() PilotRole                 { return s.pilotRole }
func (s *Ship) Status() Status                       { return s.status }

// HasModule reports whether the ship carries a module or mount with the
// given symbol (e.g. "MODULE_JUMP_DRIVE_I", "MOUNT_MINING_LASER_II").
func (s *Ship) HasModule(symbol string) bool {
	for _, m := range s.modules {
		if m == symbol {
			return true
		}
	}
	for _, m := range s.mounts {
		if m == symbol {
			return true
		}
	}
	return false
}

// CooldownExpired reports whether the ship may start another
// cooldown-bearing action, given now.
func (s *Ship) CooldownExpired(now time.Time) bool {
	return s.cooldownExpiration == nil || !now.Before(*s.cooldownExpiration)
}

func (s *Ship) SetCooldown(expiresAt time.Time) { s.cooldownExpiration = &expiresAt }
func (s *Ship) ClearCooldown()                  { s.cooldownExpiration = nil }

func (s *Ship) SetPilotRole(role PilotRole) { s.pilotRole = role }
func (s *Ship) SetStatus(status Status)     { s.status = status }

// SetNav replaces the navigation substate wholesale; callers are
// responsible for keeping the InTransit invariant consistent (the ship
// actor is the only caller, and it derives Route/Status together).
func (s *Ship) SetNav(nav NavState) { s.nav = nav }

// SetCargo replaces the cargo substate, validating the inventory-sum
// invariant.
func (s *Ship) SetCargo(cargo shared.Cargo) error {
	sum := 0
	for _, item := range cargo.Inventory {
		sum += item.Units
	}
	if sum != cargo.Units {
		return shared.NewInvalidShipDataError("cargo inventory sum mismatch")
	}
	if cargo.Units > cargo.Capacity {
		return shared.NewInvalidShipDataError("cargo units exceed capacity")
	}
	s.cargo = cargo
	return nil
}

// SetFuel replaces the fuel substate, validating 0 <= current <= capacity.
func (s *Ship) SetFuel(fuel shared.Fuel) error {
	if fuel.Current < 0 || fuel.Current > fuel.Capacity {
		return shared.NewInsufficientFuelError(fuel.Current, fuel.Capacity)
	}
	s.fuel = fuel
	return nil
}

// Snapshot is the immutable value broadcast to observers (§4.1, §4.2):
// every state-mutating primitive concludes by emitting one of these.
type Snapshot struct {
	Symbol             string
	EngineSpeed        int
	RegistrationRole   string
	CooldownExpiration *time.Time
	Nav                NavState
	Cargo              shared.Cargo
	Fuel               shared.Fuel
	PilotRole          PilotRole
	Status             Status
	ObservedAt         time.Time
}

// ToSnapshot captures the ship's current state as an immutable value.
func (s *Ship) ToSnapshot(now time.Time) Snapshot {
	return Snapshot{
		Symbol:             s.symbol,
		EngineSpeed:        s.engineSpeed,
		RegistrationRole:   s.registrationRole,
		CooldownExpiration: s.cooldownExpiration,
		Nav:                s.nav,
		Cargo:              s.cargo,
		Fuel:               s.fuel,
		PilotRole:          s.pilotRole,
		Status:             s.status,
		ObservedAt:         now,
	}
}
