// Package device defines the contract between the stepping kernel and
// per-vehicle behavior devices: movement notification hooks, a
// string-keyed parameter interface and a trip-output hook. Devices
// are identified by a type tag so other agents can ask "does this
// vehicle run the same behavior" without type reflection.
package device

import (
	"github.com/opensimlab/rescuelane/internal/network"
	"github.com/opensimlab/rescuelane/internal/output"
	"github.com/opensimlab/rescuelane/internal/units"
)

// Notification is the reason a vehicle entered or left a lane.
type Notification int

const (
	// NotificationDeparted - vehicle was inserted into the network.
	NotificationDeparted Notification = iota
	// NotificationJunction - vehicle crossed a junction onto a new lane.
	NotificationJunction
	// NotificationLaneChange - vehicle changed to a parallel lane.
	NotificationLaneChange
	// NotificationArrived - vehicle reached its destination.
	NotificationArrived
	// NotificationTeleport - vehicle was repositioned by the kernel.
	NotificationTeleport
)

func (n Notification) String() string {
	switch n {
	case NotificationDeparted:
		return "departed"
	case NotificationJunction:
		return "junction"
	case NotificationLaneChange:
		return "laneChange"
	case NotificationArrived:
		return "arrived"
	case NotificationTeleport:
		return "teleport"
	default:
		return "unknown"
	}
}

// Clock gives devices access to simulation time.
type Clock interface {
	// Now returns the current simulation time.
	Now() units.Time
	// StepLength returns the length of one simulation step.
	StepLength() units.Time
}

// Device is a per-vehicle behavior attached by the kernel. All hooks
// run synchronously inside the kernel's step, one vehicle at a time.
// The boolean returns follow the move-reminder convention: false
// detaches the device.
type Device interface {
	// ID is the unique device instance id.
	ID() string
	// Type is the device type tag, also used for behavior detection
	// on other agents.
	Type() string
	// NotifyMove runs once per step while the holder moves.
	NotifyMove(now units.Time, oldPos, newPos, newSpeed float64) bool
	// NotifyEnter runs when the holder enters a lane.
	NotifyEnter(now units.Time, reason Notification, lane *network.Lane) bool
	// NotifyLeave runs when the holder leaves a lane.
	NotifyLeave(now units.Time, lastPos float64, reason Notification, lane *network.Lane) bool
	// Parameter reads a runtime-tunable parameter by key.
	Parameter(key string) (string, error)
	// SetParameter writes a runtime-tunable parameter by key.
	SetParameter(key, value string) error
	// GenerateOutput emits the device's trip-summary contribution.
	GenerateOutput(w *output.TripWriter)
	// Shutdown releases all outstanding effects before the holder
	// leaves the simulation.
	Shutdown()
}
