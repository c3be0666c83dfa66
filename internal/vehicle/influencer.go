package vehicle

import (
	"sort"

	"github.com/opensimlab/rescuelane/internal/units"
)

// Speed mode bitmasks. The default mode obeys all checks; the
// override mode permits passing red lights while keeping safe-gap
// checks against other vehicles.
const (
	SpeedModeDefault         = 31
	SpeedModeIgnoreRedLights = 39
)

// Lane-change mode bitmasks. The default mode allows the vehicle to
// request its own changes; the no-request mode forbids self-initiated
// changes while still executing externally imposed ones.
const (
	LaneChangeModeDefault    = 1621
	LaneChangeModeNoRequests = 1536
)

// SpeedPoint is one vertex of a piecewise-linear speed trajectory.
type SpeedPoint struct {
	T     units.Time
	Speed float64
}

// Influencer is the channel through which external controllers (such
// as devices) impose speed trajectories and permission masks on a
// vehicle without touching its profile.
type Influencer struct {
	speedMode      int
	laneChangeMode int
	timeline       []SpeedPoint
}

// NewInfluencer returns an influencer with default permissions.
func NewInfluencer() *Influencer {
	return &Influencer{
		speedMode:      SpeedModeDefault,
		laneChangeMode: LaneChangeModeDefault,
	}
}

// SetSpeedMode sets the speed permission bitmask.
func (in *Influencer) SetSpeedMode(mode int) { in.speedMode = mode }

// SpeedMode returns the current speed permission bitmask.
func (in *Influencer) SpeedMode() int { return in.speedMode }

// SetLaneChangeMode sets the lane-change permission bitmask.
func (in *Influencer) SetLaneChangeMode(mode int) { in.laneChangeMode = mode }

// LaneChangeMode returns the current lane-change permission bitmask.
func (in *Influencer) LaneChangeMode() int { return in.laneChangeMode }

// SetSpeedTimeline replaces the injected speed trajectory. Points are
// kept sorted by time; a later injection supersedes an earlier one.
func (in *Influencer) SetSpeedTimeline(points []SpeedPoint) {
	in.timeline = append([]SpeedPoint(nil), points...)
	sort.Slice(in.timeline, func(i, j int) bool { return in.timeline[i].T < in.timeline[j].T })
}

// SpeedTimeline returns the currently injected trajectory.
func (in *Influencer) SpeedTimeline() []SpeedPoint { return in.timeline }

// InfluencedSpeed interpolates the injected trajectory at the given
// time. The second return is false when no trajectory covers now,
// in which case the caller keeps its model speed. A trajectory whose
// last point lies in the past is spent and gets dropped, so the
// vehicle resumes normal driving.
func (in *Influencer) InfluencedSpeed(now units.Time) (float64, bool) {
	n := len(in.timeline)
	if n == 0 || now < in.timeline[0].T {
		return 0, false
	}
	if now > in.timeline[n-1].T {
		in.timeline = nil
		return 0, false
	}
	if now == in.timeline[n-1].T {
		return in.timeline[n-1].Speed, true
	}
	for i := 0; i < n-1; i++ {
		a, b := in.timeline[i], in.timeline[i+1]
		if now >= a.T && now < b.T {
			frac := float64(now-a.T) / float64(b.T-a.T)
			return a.Speed + frac*(b.Speed-a.Speed), true
		}
	}
	return 0, false
}

// ClearSpeedTimeline drops the injected trajectory.
func (in *Influencer) ClearSpeedTimeline() { in.timeline = nil }
