package bluelight

import (
	"math"

	"github.com/samber/lo"

	"github.com/opensimlab/rescuelane/internal/device"
	"github.com/opensimlab/rescuelane/internal/units"
)

// manualContinuation advances the holder across a junction when the
// normal lane geometry offers no connection where it is permitted to
// go. It triggers only when the current lane has no onward
// continuation, the holder sits at the lane end, and the route
// continues. Among the reachable lanes of the next edge the one
// minimizing the lateral jump is chosen, with the lateral offset
// clamped inside the new lane. This is a last-resort geometric
// correction, not a lane-change maneuver.
func (d *Device) manualContinuation(now units.Time) {
	ego := d.holder
	lane := ego.Lane()
	if lane == nil {
		return
	}
	distToEnd := lane.Length() - ego.PositionOnLane()
	if len(ego.BestLaneContinuations()) != 1 || distToEnd > units.PositionEps {
		return
	}
	route := ego.Route()
	idx := ego.RouteIndex()
	if idx+1 >= len(route) {
		// route ends here, nothing to continue onto
		return
	}

	currentEdge := lane.Edge()
	// move onto the junction as if there was a connection from the
	// current lane
	next := currentEdge.InternalFollower(route[idx+1], ego.Class())
	if next == nil {
		next = route[idx+1]
	}

	allowed := next.AllowedLanes(ego.Class())
	nextLane := next.Lane(0)
	bestJump := math.MaxFloat64
	newPosLat := 0.0
	for _, cand := range allowed {
		for _, ili := range cand.Incoming() {
			if ili.Lane.Edge() != currentEdge {
				continue
			}
			shift := lane.LateralOffsetFrom(ili.Lane) + ego.LateralPositionOnLane()
			jump := math.Abs(shift)
			if jump < bestJump {
				bestJump = jump
				nextLane = cand
				// stay within the new lane
				maxOffset := math.Max(0, cand.Width()-ego.Width()) / 2
				newPosLat = lo.Clamp(shift, -maxOffset, maxOffset)
			}
		}
	}
	if nextLane == nil {
		return
	}

	ego.LeaveLane(now, device.NotificationJunction, nextLane)
	lcm := ego.LaneChangeModel()
	lcm.CleanupShadowLane()
	lcm.CleanupTargetLane()
	ego.SetTentativePosition(nextLane, 0, newPosLat)
	ego.EnterLaneAtMove(now, nextLane)
	// the lateral model must adapt its state to the new lane
	lcm.PrepareStep()

	d.stats.ManualCrossings++
	d.logger.Debug("manual junction crossing",
		"time", now,
		"from", lane.ID(),
		"to", nextLane.ID(),
		"posLat", newPosLat,
	)
}
