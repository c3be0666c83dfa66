package bluelight

import (
	"github.com/opensimlab/rescuelane/internal/units"
	"github.com/opensimlab/rescuelane/internal/vehicle"
)

// applyReactions runs the per-agent influence decisions for one step:
// release vehicles that left the horizon, refresh the alignment of
// vehicles still forming the rescue lane, run the probabilistic
// reaction trial for newcomers, and slow the holder down when it
// closes in on a stopped yielding vehicle.
func (d *Device) applyReactions(now units.Time, h *horizon) {
	ego := d.holder

	// vehicles influenced last step that are no longer on any horizon
	// edge have been passed; give them their behavior back
	onHorizon := make(map[string]struct{}, len(h.vehicleIDs))
	for _, id := range h.vehicleIDs {
		onHorizon[id] = struct{}{}
	}
	for _, id := range d.registry.ids() {
		if _, ok := onHorizon[id]; !ok {
			d.registry.end(id)
		}
	}

	for _, id := range h.vehicleIDs {
		veh2 := d.fleet.Vehicle(id)
		if veh2 == nil || veh2.Lane() == nil {
			// not a controllable vehicle, skip
			continue
		}
		if veh2.HasDevice(TypeTag) {
			// vehicles running the same behavior do not react
			continue
		}

		if !h.containsEdge(veh2.Lane().Edge()) {
			// moved off the horizon between enumeration and now
			if d.registry.isInfluenced(id) && ego.DistanceTo(veh2) > d.reactionDist {
				d.registry.end(id)
			}
			continue
		}

		numLanes := veh2.Lane().Edge().NumLanes()
		if d.registry.isInfluenced(id) {
			// lanes and relative positions change between steps, so
			// the alignment target needs refreshing every step
			p := veh2.SingularProfile()
			p.Alignment = d.alignmentFor(veh2, numLanes)
		}

		dist := ego.DistanceTo(veh2)

		// careful entry into the forming rescue lane: slow the holder
		// toward a fixed reduced speed next to a stopped yielder
		if dist <= closeApproachDist && d.registry.isInfluenced(id) && veh2.Speed() < 1 {
			ego.Influencer().SetSpeedTimeline([]vehicle.SpeedPoint{
				{T: now, Speed: ego.Speed()},
				{T: now + rescueEntryRamp, Speed: rescueEntrySpeed},
			})
		}

		if dist <= d.reactionDist && !d.registry.isInfluenced(id) {
			d.tryInfluence(now, veh2, dist, numLanes)
		} else if d.registry.isInfluenced(id) && dist > d.reactionDist {
			// still on a horizon edge but out of earshot
			d.registry.end(id)
		}
	}
}

// tryInfluence runs the Bernoulli reaction trial for a vehicle within
// the reaction distance. The acceptance rate is a distance-banded
// probability scaled by the vehicle's own action-step length, and the
// trial only runs on the vehicle's action step so longer-stepped
// vehicles are not biased.
//
// The linear scaling by action-step length is a known approximation
// of a per-unit-time hazard rate; it is exact for one-second steps.
func (d *Device) tryInfluence(now units.Time, veh2 *vehicle.Vehicle, dist float64, numLanes int) {
	if !veh2.IsActionStep(now) {
		return
	}
	prob := d.reactionProbFar
	if dist < d.nearDist {
		prob = d.reactionProbNear
	}
	if d.rng.Float64() >= prob*veh2.ActionStepSeconds() {
		return
	}

	d.registry.begin(veh2.ID(), veh2.Profile().ID())
	d.stats.InfluencedTotal++

	p := veh2.SingularProfile()
	p.Alignment = d.alignmentFor(veh2, numLanes)
	p.MinGap *= d.minGapFactor
	if d.minGapFactor != 1 {
		p.CollisionMinGapFactor = d.minGapFactor
		p.StopLineGap = d.minGapFactor
	}

	// the yielding vehicle must not use the opening rescue lane, so
	// it may not request changes of its own; externally imposed
	// changes still execute
	veh2.Influencer().SetLaneChangeMode(vehicle.LaneChangeModeNoRequests)

	d.logger.Debug("vehicle joins rescue lane",
		"time", now,
		"vehicle", veh2.ID(),
		"laneIndex", veh2.Lane().Index(),
		"numLanes", numLanes,
		"alignment", string(p.Alignment),
	)
}

// alignmentFor decides which side a yielding vehicle clears toward.
// On a single lane everything moves right. Otherwise a vehicle on
// the leftmost lane, or on any lane left of the holder's, clears
// left; everything else clears right.
func (d *Device) alignmentFor(veh2 *vehicle.Vehicle, numLanes int) vehicle.Alignment {
	if numLanes == 1 {
		return vehicle.AlignRight
	}
	egoLane := d.holder.Lane()
	egoIndex := -1
	if egoLane != nil {
		egoIndex = egoLane.Index()
	}
	idx := veh2.Lane().Index()
	if idx == numLanes-1 || idx > egoIndex {
		return vehicle.AlignLeft
	}
	return vehicle.AlignRight
}
