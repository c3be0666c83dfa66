package network

import (
	"sort"

	"github.com/opensimlab/rescuelane/internal/units"
)

// blockingWindow is how far beyond the crossing vehicle's arrival a
// foe's own arrival may lie and still count as conflicting.
const blockingWindow = 3 * units.Second

// ApproachInfo is the unobstructed arrival estimate of a vehicle at a
// junction-conflict link.
type ApproachInfo struct {
	ArrivalTime  units.Time
	ArrivalSpeed float64
}

// Kinematics is the minimal movement state of a vehicle as seen by
// the network.
type Kinematics struct {
	Lane  *Lane
	Pos   float64
	Speed float64
}

// VehicleLocator resolves vehicle ids to their current kinematic
// state. Implemented by the fleet.
type VehicleLocator interface {
	VehicleKinematics(id string) (Kinematics, bool)
}

// Link is a junction-conflict link: the crossing carried by an
// internal lane, together with the foe lanes whose traffic conflicts
// with it.
type Link struct {
	id       string
	via      *Lane
	foeLanes []*Lane
}

// ID returns the link identifier.
func (lk *Link) ID() string { return lk.id }

// Via returns the internal lane carrying the crossing.
func (lk *Link) Via() *Lane { return lk.via }

// FoeLanes returns the lanes whose approach conflicts with this link.
func (lk *Link) FoeLanes() []*Lane { return lk.foeLanes }

// Approach estimates when and how fast a vehicle dist meters before
// the link would arrive, assuming an unobstructed approach at its
// current speed. Crawling vehicles are estimated at a 1 m/s floor so
// the arrival time stays finite.
func (lk *Link) Approach(now units.Time, dist, speed float64) ApproachInfo {
	v := speed
	if v < 1.0 {
		v = 1.0
	}
	return ApproachInfo{
		ArrivalTime:  now + units.FromSeconds(dist/v),
		ArrivalSpeed: v,
	}
}

// BlockingFoes returns the sorted ids of vehicles on this link's foe
// lanes (or already inside the crossing) whose own arrival at the
// junction falls within the crossing vehicle's arrival window.
func (lk *Link) BlockingFoes(now units.Time, arrival ApproachInfo, loc VehicleLocator) []string {
	var foes []string
	consider := func(laneIDs []string, inside bool) {
		for _, id := range laneIDs {
			k, ok := loc.VehicleKinematics(id)
			if !ok || k.Lane == nil {
				continue
			}
			if inside {
				foes = append(foes, id)
				continue
			}
			v := k.Speed
			if v < 1.0 {
				v = 1.0
			}
			foeArrival := now + units.FromSeconds((k.Lane.Length()-k.Pos)/v)
			if foeArrival <= arrival.ArrivalTime+blockingWindow {
				foes = append(foes, id)
			}
		}
	}
	for _, fl := range lk.foeLanes {
		consider(fl.OccupantIDs(), false)
	}
	if lk.via != nil {
		consider(lk.via.OccupantIDs(), true)
	}
	sort.Strings(foes)
	return foes
}
