// Package common holds the handful of types shared across role-manager
// mailboxes so managers never import one another directly (spec.md
// §4.4 "Manager-to-manager calls are not permitted"). RequiredShips is
// the aggregate every manager's GetShips reply carries to the fleet
// manager for ship procurement (§4.10), grounded on
// original_source/src/manager/fleet_manager/message.rs's RequiredShips.
package common

import "context"

// Priority mirrors the three reserved-fund floor classes of §4.10.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// ShipRequest is one manager's ask for an additional ship of a given
// role in a given system, with the budget it can offer toward the
// purchase.
type ShipRequest struct {
	System   string
	Role     string
	Priority Priority
	Budget   int64
}

// RequiredShips is the reply to a GetShips message.
type RequiredShips struct {
	Requests []ShipRequest
}

// ChannelState mirrors the diagnostic info every manager's messenger
// handle exposes (§4.4 "a shared busy flag and channel-depth statistic").
type ChannelState int

const (
	ChannelOpen ChannelState = iota
	ChannelClosed
)

type ChannelInfo struct {
	State         ChannelState
	TotalCapacity int
	UsedCapacity  int
	FreeCapacity  int
}

// ShipsProvider is implemented by every role manager's messenger so the
// fleet manager can poll required-ship requests uniformly (§4.10).
type ShipsProvider interface {
	GetShips(ctx context.Context) (RequiredShips, error)
}
