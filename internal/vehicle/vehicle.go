package vehicle

import (
	"log/slog"
	"math"

	"github.com/opensimlab/rescuelane/internal/device"
	"github.com/opensimlab/rescuelane/internal/network"
	"github.com/opensimlab/rescuelane/internal/units"
)

// Vehicle is one agent in the simulation: kinematic state on a lane,
// a route of edges, a behavioral profile and the attachment points
// for devices.
type Vehicle struct {
	id     string
	lane   *network.Lane
	pos    float64 // longitudinal position on lane, meters
	posLat float64 // lateral offset from lane center, meters
	speed  float64

	route    []*network.Edge
	routeIdx int

	profile    *Profile
	store      *ProfileStore
	influencer *Influencer
	lcModel    LaneChangeModel

	actionStep units.Time
	desired    float64 // free-flow target speed before limits

	devices    []device.Device
	deviceTags map[string]struct{}

	reroutes []string
	logger   *slog.Logger
}

// New creates a vehicle with the given shared profile, positioned at
// the start of its route.
func New(id string, profile *Profile, store *ProfileStore, route []*network.Edge) *Vehicle {
	return &Vehicle{
		id:         id,
		profile:    profile,
		store:      store,
		route:      route,
		influencer: NewInfluencer(),
		lcModel:    NewBasicLaneChangeModel(true),
		actionStep: units.Second,
		desired:    math.Inf(1),
		deviceTags: make(map[string]struct{}),
		logger:     slog.Default().With("component", "vehicle", "vehicle", id),
	}
}

// ID returns the vehicle identifier.
func (v *Vehicle) ID() string { return v.id }

// Lane returns the current lane, nil before insertion or after
// arrival.
func (v *Vehicle) Lane() *network.Lane { return v.lane }

// PositionOnLane returns the longitudinal position on the current
// lane in meters.
func (v *Vehicle) PositionOnLane() float64 { return v.pos }

// LateralPositionOnLane returns the lateral offset from the lane
// center in meters, positive to the left.
func (v *Vehicle) LateralPositionOnLane() float64 { return v.posLat }

// Speed returns the current speed in m/s.
func (v *Vehicle) Speed() float64 { return v.speed }

// SetSpeed sets the current speed. Used by the kernel's movement
// update.
func (v *Vehicle) SetSpeed(s float64) { v.speed = s }

// DesiredSpeed returns the vehicle's own free-flow target.
func (v *Vehicle) DesiredSpeed() float64 { return v.desired }

// SetDesiredSpeed sets the free-flow target speed.
func (v *Vehicle) SetDesiredSpeed(s float64) { v.desired = s }

// Position returns the vehicle's world coordinates.
func (v *Vehicle) Position() (x, y float64) {
	if v.lane == nil {
		return 0, 0
	}
	return v.lane.PositionAt(v.pos, v.posLat)
}

// DistanceTo returns the straight-line distance to another vehicle.
func (v *Vehicle) DistanceTo(other *Vehicle) float64 {
	x1, y1 := v.Position()
	x2, y2 := other.Position()
	return math.Hypot(x2-x1, y2-y1)
}

// Route returns the route as a sequence of normal edges.
func (v *Vehicle) Route() []*network.Edge { return v.route }

// RouteIndex returns the index of the current (or last) normal route
// edge.
func (v *Vehicle) RouteIndex() int { return v.routeIdx }

// Profile returns the active behavioral profile.
func (v *Vehicle) Profile() *Profile { return v.profile }

// Class returns the active vehicle class.
func (v *Vehicle) Class() network.Class { return v.profile.Class }

// Length returns the vehicle length from its profile.
func (v *Vehicle) Length() float64 { return v.profile.Length }

// Width returns the vehicle width from its profile.
func (v *Vehicle) Width() float64 { return v.profile.Width }

// Influencer returns the external-control channel.
func (v *Vehicle) Influencer() *Influencer { return v.influencer }

// LaneChangeModel returns the active lane-change model.
func (v *Vehicle) LaneChangeModel() LaneChangeModel { return v.lcModel }

// SetLaneChangeModel replaces the lane-change model.
func (v *Vehicle) SetLaneChangeModel(m LaneChangeModel) { v.lcModel = m }

// ActionStepLength returns the vehicle's decision interval.
func (v *Vehicle) ActionStepLength() units.Time { return v.actionStep }

// SetActionStepLength sets the vehicle's decision interval.
func (v *Vehicle) SetActionStepLength(t units.Time) {
	if t > 0 {
		v.actionStep = t
	}
}

// ActionStepSeconds returns the decision interval in seconds.
func (v *Vehicle) ActionStepSeconds() float64 { return v.actionStep.Seconds() }

// IsActionStep reports whether the vehicle takes a decision at the
// given time.
func (v *Vehicle) IsActionStep(now units.Time) bool {
	return v.actionStep > 0 && now%v.actionStep == 0
}

// LaneMaxSpeed returns the speed this vehicle may drive on its
// current lane, including its profile's speed factor.
func (v *Vehicle) LaneMaxSpeed() float64 {
	if v.lane == nil {
		return 0
	}
	return v.lane.MaxSpeed() * v.profile.SpeedFactor
}

// SingularProfile returns the vehicle's private profile, cloning the
// active one on first use so mutations never touch the shared
// bundle.
func (v *Vehicle) SingularProfile() *Profile {
	if v.profile.SingularFor() == v.id {
		return v.profile
	}
	clone := v.store.Singularize(v.profile, v.id)
	v.profile = clone
	return clone
}

// ReplaceProfile replaces the active profile wholesale. A singular
// profile being replaced is removed from the store, which is what
// later restoration attempts key off to detect "already restored".
func (v *Vehicle) ReplaceProfile(p *Profile) {
	if p == nil || p == v.profile {
		return
	}
	if v.profile.IsSingular() {
		v.store.Remove(v.profile.ID())
	}
	v.profile = p
}

// Reroute requests a route recomputation. Routing itself is a kernel
// concern; the request is recorded and logged so behavior that
// depends on "a reroute happened" stays observable.
func (v *Vehicle) Reroute(now units.Time, reason string) {
	v.reroutes = append(v.reroutes, reason)
	v.logger.Debug("reroute requested", "time", now, "reason", reason)
}

// RerouteCount returns how many reroutes were requested.
func (v *Vehicle) RerouteCount() int { return len(v.reroutes) }

// AttachDevice attaches a behavior device and registers its type tag.
func (v *Vehicle) AttachDevice(d device.Device) {
	v.devices = append(v.devices, d)
	v.deviceTags[d.Type()] = struct{}{}
}

// HasDevice reports whether a device with the given type tag is
// attached.
func (v *Vehicle) HasDevice(typeTag string) bool {
	_, ok := v.deviceTags[typeTag]
	return ok
}

// Devices returns the attached devices in attachment order.
func (v *Vehicle) Devices() []device.Device { return v.devices }

// UpcomingLanes returns the lanes ahead of the vehicle along its
// route until at least dist meters are covered.
func (v *Vehicle) UpcomingLanes(dist float64) []*network.Lane {
	if v.lane == nil {
		return nil
	}
	return network.UpcomingLanes(v.lane, v.pos, v.route, v.routeIdx, dist)
}

// BestLaneContinuations returns the current lane followed by its
// onward continuations along the route. A length of one means the
// normal lane geometry offers no way to continue.
func (v *Vehicle) BestLaneContinuations() []*network.Lane {
	if v.lane == nil {
		return nil
	}
	lanes := v.UpcomingLanes(math.Max(v.lane.Length()-v.pos+1, 1))
	return lanes
}

// EnterLane places the vehicle at the start of a lane, notifying
// attached devices. Used at insertion.
func (v *Vehicle) EnterLane(now units.Time, l *network.Lane, pos float64, reason device.Notification) {
	v.lane = l
	v.pos = pos
	l.Enter(v.id)
	v.syncRouteIndex(l)
	for _, d := range v.devices {
		d.NotifyEnter(now, reason, l)
	}
}

// LeaveLane removes the vehicle from its current lane, notifying
// attached devices with the given reason. The approached lane may be
// nil on arrival.
func (v *Vehicle) LeaveLane(now units.Time, reason device.Notification, approached *network.Lane) {
	if v.lane == nil {
		return
	}
	last := v.lane
	last.Leave(v.id)
	for _, d := range v.devices {
		d.NotifyLeave(now, v.pos, reason, approached)
	}
	v.lane = nil
}

// SetTentativePosition places the vehicle on a lane at the given
// longitudinal and lateral position without notifications. Used by
// forced repositioning.
func (v *Vehicle) SetTentativePosition(l *network.Lane, pos, posLat float64) {
	v.lane = l
	v.pos = pos
	v.posLat = posLat
}

// EnterLaneAtMove registers the vehicle on the lane set by a
// preceding SetTentativePosition and advances the route index when
// the lane belongs to the next route edge.
func (v *Vehicle) EnterLaneAtMove(now units.Time, l *network.Lane) {
	l.Enter(v.id)
	v.lane = l
	v.syncRouteIndex(l)
	for _, d := range v.devices {
		d.NotifyEnter(now, device.NotificationJunction, l)
	}
}

// SetLateralPosition sets the lateral offset from the lane center.
func (v *Vehicle) SetLateralPosition(posLat float64) { v.posLat = posLat }

// SetPositionOnLane sets the longitudinal position on the lane.
func (v *Vehicle) SetPositionOnLane(pos float64) { v.pos = pos }

func (v *Vehicle) syncRouteIndex(l *network.Lane) {
	if l.IsInternal() {
		return
	}
	for i := v.routeIdx; i < len(v.route); i++ {
		if v.route[i] == l.Edge() {
			v.routeIdx = i
			return
		}
	}
}
