package bluelight

import (
	"github.com/opensimlab/rescuelane/internal/units"
	"github.com/opensimlab/rescuelane/internal/vehicle"
)

// anticipateFoes makes conflicting traffic at upcoming junctions
// brake before the holder arrives. For every conflict link on the
// horizon the link is asked for the holder's unobstructed arrival
// estimate and the set of blocking foes; a foe close enough that it
// could not comfortably stop on its own gets a braking schedule that
// reaches zero at the holder's arrival.
//
// No state is kept for foes: the schedule is advisory, recomputed
// every step and superseded by the next injection.
func (d *Device) anticipateFoes(now units.Time, h *horizon) {
	ego := d.holder
	for _, link := range h.links {
		dist := h.distanceToLink(link)
		if dist < 0 {
			continue
		}
		arrival := link.Approach(now, dist, ego.Speed())
		timeToArrival := arrival.ArrivalTime - now

		for _, foeID := range link.BlockingFoes(now, arrival, d.fleet) {
			foe := d.fleet.Vehicle(foeID)
			if foe == nil || foe.HasDevice(TypeTag) {
				// priority vehicles do not yield to each other here
				continue
			}
			if ego.DistanceTo(foe) >= d.reactionDist {
				continue
			}
			timeToBrake := units.FromSeconds(foe.Speed()/foeComfortDecel) + foeBrakeMargin
			if timeToArrival < timeToBrake {
				foe.Influencer().SetSpeedTimeline([]vehicle.SpeedPoint{
					{T: now, Speed: foe.Speed()},
					{T: arrival.ArrivalTime, Speed: 0},
				})
				d.stats.FoeSlowdowns++
			}
		}
	}
}
