// Package sim implements the minimal stepping kernel: a millisecond
// clock, a deterministic per-step agent loop with a simple
// longitudinal movement update, and the plumbing that invokes device
// hooks and emits trip summaries.
package sim

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/opensimlab/rescuelane/internal/device"
	"github.com/opensimlab/rescuelane/internal/network"
	"github.com/opensimlab/rescuelane/internal/output"
	"github.com/opensimlab/rescuelane/internal/units"
	"github.com/opensimlab/rescuelane/internal/vehicle"
)

const (
	// defaultAccel / defaultDecel bound the simple movement update.
	defaultAccel = 2.6
	defaultDecel = 4.5
)

// Engine drives the simulation forward step by step. Execution is
// single-threaded and cooperative: all device hooks run synchronously
// inside Step, one vehicle at a time, in id order.
type Engine struct {
	net        *network.Network
	fleet      *vehicle.Fleet
	now        units.Time
	stepLength units.Time
	rng        *rand.Rand
	trips      *output.TripWriter
	arrived    []string
	logger     *slog.Logger
}

// NewEngine creates an engine over the given network and fleet with
// a seeded random source, so runs with equal seeds reproduce the
// same probabilistic draws.
func NewEngine(net *network.Network, fleet *vehicle.Fleet, stepLength units.Time, seed int64) *Engine {
	if stepLength <= 0 {
		stepLength = units.Second
	}
	return &Engine{
		net:        net,
		fleet:      fleet,
		stepLength: stepLength,
		rng:        rand.New(rand.NewSource(seed)),
		logger:     slog.Default().With("component", "sim"),
	}
}

// Now implements device.Clock.
func (e *Engine) Now() units.Time { return e.now }

// StepLength implements device.Clock.
func (e *Engine) StepLength() units.Time { return e.stepLength }

// RNG returns the engine's seeded random source.
func (e *Engine) RNG() *rand.Rand { return e.rng }

// Network returns the roadway model.
func (e *Engine) Network() *network.Network { return e.net }

// Fleet returns the agent container.
func (e *Engine) Fleet() *vehicle.Fleet { return e.fleet }

// SetTripWriter directs per-trip summaries to the given writer.
func (e *Engine) SetTripWriter(w *output.TripWriter) { e.trips = w }

// ArrivedIDs returns the ids of vehicles that completed their trip.
func (e *Engine) ArrivedIDs() []string { return e.arrived }

// Insert places a vehicle on a lane and registers it with the fleet.
func (e *Engine) Insert(v *vehicle.Vehicle, lane *network.Lane, pos, speed float64) {
	v.SetSpeed(speed)
	e.fleet.Add(v)
	v.EnterLane(e.now, lane, pos, device.NotificationDeparted)
}

// Step advances the simulation by one step: movement update and
// device notification for every vehicle in id order.
func (e *Engine) Step() {
	e.now += e.stepLength
	dt := e.stepLength.Seconds()

	for _, id := range e.fleet.IDs() {
		v := e.fleet.Vehicle(id)
		if v == nil || v.Lane() == nil {
			continue
		}
		oldPos := v.PositionOnLane()
		e.updateSpeed(v, dt)
		e.advance(v, dt)
		if v.Lane() == nil {
			// arrived during this step
			continue
		}
		for _, d := range v.Devices() {
			d.NotifyMove(e.now, oldPos, v.PositionOnLane(), v.Speed())
		}
	}
}

// Run advances the simulation by the given number of steps.
func (e *Engine) Run(steps int) {
	for i := 0; i < steps; i++ {
		e.Step()
	}
}

// updateSpeed applies the injected speed trajectory when one covers
// the current time, otherwise approaches the vehicle's permitted
// speed under the acceleration bounds.
func (e *Engine) updateSpeed(v *vehicle.Vehicle, dt float64) {
	target := math.Min(v.DesiredSpeed(), v.LaneMaxSpeed())
	if s, ok := v.Influencer().InfluencedSpeed(e.now); ok {
		target = s
	}
	speed := v.Speed()
	if target > speed {
		speed = math.Min(target, speed+defaultAccel*dt)
	} else {
		speed = math.Max(target, speed-defaultDecel*dt)
	}
	v.SetSpeed(math.Max(speed, 0))
}

// advance moves a vehicle along its lane, crossing onto the next
// route lane when the current one ends. A vehicle at the end of its
// route arrives; a vehicle without a continuation halts at the lane
// end and leaves the unblocking to the devices.
func (e *Engine) advance(v *vehicle.Vehicle, dt float64) {
	pos := v.PositionOnLane() + v.Speed()*dt
	for pos > v.Lane().Length() {
		lanes := network.UpcomingLanes(v.Lane(), v.Lane().Length(), v.Route(), v.RouteIndex(), 1)
		if len(lanes) < 2 {
			if v.RouteIndex() >= len(v.Route())-1 && !v.Lane().IsInternal() {
				e.finishTrip(v)
				return
			}
			// geometrically blocked, halt at the end of the lane
			pos = v.Lane().Length()
			v.SetSpeed(0)
			break
		}
		next := lanes[1]
		pos -= v.Lane().Length()
		v.LeaveLane(e.now, device.NotificationJunction, next)
		v.SetTentativePosition(next, pos, v.LateralPositionOnLane())
		v.EnterLaneAtMove(e.now, next)
	}
	v.SetPositionOnLane(math.Min(pos, v.Lane().Length()))
}

// finishTrip removes an arrived vehicle, shutting its devices down
// and emitting its trip summary.
func (e *Engine) finishTrip(v *vehicle.Vehicle) {
	v.LeaveLane(e.now, device.NotificationArrived, nil)
	if e.trips != nil {
		e.trips.OpenTag("tripinfo",
			output.Attr{Key: "id", Value: v.ID()},
			output.Attr{Key: "arrival", Value: e.now.String()},
		)
		for _, d := range v.Devices() {
			d.GenerateOutput(e.trips)
		}
		e.trips.CloseTag()
	}
	for _, d := range v.Devices() {
		d.Shutdown()
	}
	e.arrived = append(e.arrived, v.ID())
	e.fleet.Remove(v.ID())
	e.logger.Debug("vehicle arrived", "vehicle", v.ID(), "time", e.now)
}
