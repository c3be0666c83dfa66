// Package bluelight implements the priority-vehicle device: while
// active, ordinary vehicles ahead of the holder yield laterally to
// form a rescue lane, junction foes brake early, and the holder may
// cross junctions its lane geometry does not connect. All effects on
// other agents are reversible and tracked by an influence registry.
package bluelight

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/opensimlab/rescuelane/internal/config"
	"github.com/opensimlab/rescuelane/internal/device"
	"github.com/opensimlab/rescuelane/internal/network"
	"github.com/opensimlab/rescuelane/internal/output"
	"github.com/opensimlab/rescuelane/internal/units"
	"github.com/opensimlab/rescuelane/internal/vehicle"
)

// TypeTag identifies this behavior on a vehicle's device set. Other
// instances use it to recognize vehicles that must not be influenced.
const TypeTag = "bluelight"

const (
	// closeApproachDist is how near the holder must be to a stopped
	// influenced vehicle before it slows down to enter the forming
	// rescue lane.
	closeApproachDist = 10.0
	// rescueEntrySpeed is the reduced target while entering the
	// rescue lane, about 20 km/h.
	rescueEntrySpeed = 5.56
	// rescueEntryRamp is the ramp duration toward rescueEntrySpeed.
	rescueEntryRamp = 2 * units.Second

	// foeComfortDecel is the comfortable deceleration assumed for
	// junction foes when judging whether they can stop in time.
	foeComfortDecel = 4.5
	// foeBrakeMargin is added to a foe's naive braking time.
	foeBrakeMargin = 1 * units.Second

	// egoSpeedFactor is the speed-limit multiplier granted while
	// active.
	egoSpeedFactor = 1.5
)

// Stats are per-device counters surfaced in run summaries.
type Stats struct {
	InfluencedTotal int // influence grants over the device lifetime
	InfluencedPeak  int // largest concurrent influenced set
	ManualCrossings int // forced junction crossings
	FoeSlowdowns    int // braking schedules injected on junction foes
}

// Device is the priority-vehicle behavior attached to one holder.
type Device struct {
	id     string
	holder *vehicle.Vehicle
	fleet  *vehicle.Fleet
	clock  device.Clock
	rng    *rand.Rand

	reactionDist    float64
	minGapFactor    float64
	activated       bool
	invertDirection bool

	nearDist         float64
	reactionProbNear float64
	reactionProbFar  float64

	registry *registry
	stats    Stats
	logger   *slog.Logger
}

// New creates a device for the given holder. If the device starts
// activated, the special traversal rights are granted immediately;
// no reroute is requested at creation since the initial route is
// computed afterwards anyway.
func New(holder *vehicle.Vehicle, fleet *vehicle.Fleet, clock device.Clock, rng *rand.Rand, cfg config.DeviceConfig) *Device {
	d := &Device{
		id:               fmt.Sprintf("%s_%s", TypeTag, holder.ID()),
		holder:           holder,
		fleet:            fleet,
		clock:            clock,
		rng:              rng,
		reactionDist:     cfg.ReactionDist,
		minGapFactor:     cfg.MinGapFactor,
		activated:        cfg.Activated,
		nearDist:         cfg.NearDist,
		reactionProbNear: cfg.ReactionProbNear,
		reactionProbFar:  cfg.ReactionProbFar,
	}
	d.logger = slog.Default().With("component", "bluelight", "device", d.id)
	d.registry = newRegistry(fleet, d.logger)
	if d.activated {
		d.grantPriorityRights(false)
	}
	if cfg.InvertDirection {
		holder.LaneChangeModel().ChangedToOpposite()
	}
	return d
}

// ID implements device.Device.
func (d *Device) ID() string { return d.id }

// Type implements device.Device.
func (d *Device) Type() string { return TypeTag }

// Stats returns the device counters.
func (d *Device) Stats() Stats { return d.stats }

// InfluencedCount returns the size of the current influenced set.
func (d *Device) InfluencedCount() int { return d.registry.size() }

// NotifyMove implements device.Device. This is the per-step entry
// point: horizon perception, reaction decisions, junction foe
// anticipation and the manual continuation fallback, in that order.
func (d *Device) NotifyMove(now units.Time, _, _, _ float64) bool {
	if !d.activated {
		return true
	}
	ego := d.holder
	if ego.Lane() == nil {
		return true
	}

	d.tuneEgoLaneChange()

	h := d.computeHorizon()
	d.applyReactions(now, h)
	d.anticipateFoes(now, h)
	d.manualContinuation(now)

	if n := d.registry.size(); n > d.stats.InfluencedPeak {
		d.stats.InfluencedPeak = n
	}
	return true
}

// NotifyEnter implements device.Device.
func (d *Device) NotifyEnter(now units.Time, reason device.Notification, lane *network.Lane) bool {
	d.logger.Debug("entered lane", "time", now, "reason", reason.String(), "lane", laneID(lane))
	return true
}

// NotifyLeave implements device.Device.
func (d *Device) NotifyLeave(now units.Time, _ float64, reason device.Notification, lane *network.Lane) bool {
	d.logger.Debug("left lane", "time", now, "reason", reason.String(), "approached", laneID(lane))
	return true
}

// GenerateOutput implements device.Device: the trip summary carries a
// fixed empty marker identifying that this behavior was present.
func (d *Device) GenerateOutput(w *output.TripWriter) {
	w.EmptyTag("bluelight")
}

// Shutdown implements device.Device. Any vehicle still influenced at
// destruction is force-released; teardown never fails.
func (d *Device) Shutdown() {
	if d.registry.size() > 0 {
		d.logger.Warn("releasing influenced vehicles at device teardown", "count", d.registry.size())
		d.registry.drainAll()
	}
}

// tuneEgoLaneChange makes the holder's own lane changing aggressive
// while it is stuck below half of its permitted speed, and restores
// the profile defaults once it flows again. The lateral min-gap
// parameter is optional across lane-change models.
func (d *Device) tuneEgoLaneChange() {
	ego := d.holder
	lcm := ego.LaneChangeModel()
	if ego.Speed() < 0.5*ego.LaneMaxSpeed() {
		// advance as far as possible, assume vehicles keep moving out
		// of the way
		_ = lcm.SetParameter(vehicle.LCParamStrategic, "-1")
		_ = lcm.SetParameter(vehicle.LCParamSpeedGainLookahead, "0")
		if lcm.SupportsParameter(vehicle.LCParamMinGapLat) {
			_ = lcm.SetParameter(vehicle.LCParamMinGapLat, "0")
		}
	} else {
		p := ego.Profile()
		_ = lcm.SetParameter(vehicle.LCParamStrategic, p.LCParam(vehicle.LCParamStrategic, "1"))
		_ = lcm.SetParameter(vehicle.LCParamSpeedGainLookahead, p.LCParam(vehicle.LCParamSpeedGainLookahead, "5"))
		if lcm.SupportsParameter(vehicle.LCParamMinGapLat) {
			_ = lcm.SetParameter(vehicle.LCParamMinGapLat, fmt.Sprintf("%g", p.MinGapLat))
		}
	}
}

// grantPriorityRights applies the special traversal rights: red-light
// violation, emergency class on a private profile and an elevated
// speed factor. A class change can affect permitted paths, so a
// reroute is requested except at initial creation.
func (d *Device) grantPriorityRights(reroute bool) {
	ego := d.holder
	ego.Influencer().SetSpeedMode(vehicle.SpeedModeIgnoreRedLights)

	p := ego.SingularProfile()
	p.Class = network.ClassEmergency
	p.SpeedFactor = egoSpeedFactor
	// let the holder pick its lateral position freely inside the
	// opening rescue lane
	p.Alignment = vehicle.AlignArbitrary

	if reroute {
		ego.Reroute(d.clock.Now(), "device:bluelight:classChanged")
	}
}

// revokePriorityRights undoes everything grantPriorityRights and the
// per-step influence did: default speed mode, any pending injected
// slowdown, original profile, full registry drain and the holder's
// declared lane-change defaults.
func (d *Device) revokePriorityRights() {
	ego := d.holder
	ego.Influencer().SetSpeedMode(vehicle.SpeedModeDefault)
	ego.Influencer().ClearSpeedTimeline()

	store := d.fleet.ProfileStore()
	if target := store.Get(ego.Profile().OriginalID()); target != nil {
		ego.ReplaceProfile(target)
	}
	ego.Reroute(d.clock.Now(), "device:bluelight:classChanged")

	d.registry.drainAll()

	p := ego.Profile()
	lcm := ego.LaneChangeModel()
	_ = lcm.SetParameter(vehicle.LCParamStrategic, p.LCParam(vehicle.LCParamStrategic, "1"))
	_ = lcm.SetParameter(vehicle.LCParamSpeedGainLookahead, p.LCParam(vehicle.LCParamSpeedGainLookahead, "5"))
	if lcm.SupportsParameter(vehicle.LCParamMinGapLat) {
		_ = lcm.SetParameter(vehicle.LCParamMinGapLat, fmt.Sprintf("%g", p.MinGapLat))
	}
}

func laneID(l *network.Lane) string {
	if l == nil {
		return "<none>"
	}
	return l.ID()
}
