package bluelight

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensimlab/rescuelane/internal/device"
	"github.com/opensimlab/rescuelane/internal/network"
	"github.com/opensimlab/rescuelane/internal/units"
	"github.com/opensimlab/rescuelane/internal/vehicle"
)

func TestComputeHorizon(t *testing.T) {
	f := newFixture(t, testDeviceConfig())
	f.addCar(t, "c1", f.net.Lane("approach_0"), 12, 12)
	f.addCar(t, "c2", f.net.Lane("approach_1"), 40, 12)
	f.addCar(t, "foe", f.net.Lane("side_0"), 140, 10)

	f.ego.SetPositionOnLane(190)
	h := f.dev.computeHorizon()

	var laneIDs []string
	for _, l := range h.lanes {
		laneIDs = append(laneIDs, l.ID())
	}
	assert.Equal(t, []string{"approach_0", "junction_0", "exit_0"}, laneIDs)

	assert.True(t, h.containsEdge(f.net.Edge("approach")))
	assert.True(t, h.containsEdge(f.net.Edge("junction")))
	assert.False(t, h.containsEdge(f.net.Edge("side")))

	// vehicles on horizon edges, excluding the holder, id-sorted
	assert.Equal(t, []string{"c1", "c2"}, h.vehicleIDs)

	require.Len(t, h.links, 1)
	assert.Equal(t, "crossing", h.links[0].ID())
	assert.InDelta(t, 10.0, h.distanceToLink(h.links[0]), 1e-9)
}

func TestHorizonSkipsDistantJunction(t *testing.T) {
	f := newFixture(t, testDeviceConfig())

	// far from the junction the link is out of the affected range
	f.ego.SetPositionOnLane(100)
	h := f.dev.computeHorizon()
	assert.Empty(t, h.links)
}

func TestDistanceToUnknownLink(t *testing.T) {
	f := newFixture(t, testDeviceConfig())
	other, err := f.net.AddLink("elsewhere", f.net.Lane("junction_1"))
	require.NoError(t, err)

	f.ego.SetPositionOnLane(190)
	h := f.dev.computeHorizon()
	assert.Negative(t, h.distanceToLink(other))
}

func TestFoeSlowdownAtJunction(t *testing.T) {
	f := newFixture(t, testDeviceConfig())
	foe := f.addCar(t, "foe", f.net.Lane("side_0"), 140, 10)

	f.ego.SetPositionOnLane(190)
	f.ego.SetSpeed(10)
	now := units.Second
	f.dev.NotifyMove(now, 0, 0, 0)

	// the holder arrives in 1s, the foe needs over 3s to stop: it gets
	// a braking schedule reaching zero at the holder's arrival
	arrival := now + units.FromSeconds(1)
	got, ok := foe.Influencer().InfluencedSpeed(arrival)
	require.True(t, ok)
	assert.InDelta(t, 0.0, got, 1e-9)

	got, ok = foe.Influencer().InfluencedSpeed(now)
	require.True(t, ok)
	assert.InDelta(t, 10.0, got, 1e-9)

	// the schedule lapses after the holder has passed
	_, ok = foe.Influencer().InfluencedSpeed(arrival + units.Second)
	assert.False(t, ok, "foe must resume driving once the holder is through")

	assert.Equal(t, 1, f.dev.Stats().FoeSlowdowns)
	// the foe is not part of the rescue lane formation
	assert.False(t, foe.Profile().IsSingular())
}

func TestSlowFoeLeftAlone(t *testing.T) {
	f := newFixture(t, testDeviceConfig())
	// a foe far up the side road can stop comfortably on its own
	foe := f.addCar(t, "foe", f.net.Lane("side_0"), 40, 2)

	f.ego.SetPositionOnLane(190)
	f.ego.SetSpeed(10)
	f.dev.NotifyMove(units.Second, 0, 0, 0)

	_, ok := foe.Influencer().InfluencedSpeed(units.Second)
	assert.False(t, ok)
	assert.Equal(t, 0, f.dev.Stats().FoeSlowdowns)
}

func TestOtherPriorityVehicleNotSlowed(t *testing.T) {
	f := newFixture(t, testDeviceConfig())
	foe := f.addCar(t, "amb2", f.net.Lane("side_0"), 140, 10)
	foe.AttachDevice(New(foe, f.fleet, f.clock, f.dev.rng, testDeviceConfig()))

	f.ego.SetPositionOnLane(190)
	f.ego.SetSpeed(10)
	f.dev.NotifyMove(units.Second, 0, 0, 0)

	_, ok := foe.Influencer().InfluencedSpeed(units.Second)
	assert.False(t, ok)
}

// blockedFixture builds an edge whose rightmost lane has no outgoing
// connection while its left neighbor connects across the junction.
func blockedFixture(t *testing.T) *fixture {
	t.Helper()
	n := network.New()
	approach, err := n.AddEdge("approach", 2, 200, 3.2, 13.89, false)
	require.NoError(t, err)
	junction, err := n.AddEdge("junction", 2, 12, 3.2, 13.89, true)
	require.NoError(t, err)
	exit, err := n.AddEdge("exit", 2, 200, 3.2, 13.89, false)
	require.NoError(t, err)

	// approach_0 dead-ends at the junction
	network.Connect(approach.Lane(1), junction.Lane(1), nil)
	network.Connect(junction.Lane(0), exit.Lane(0), nil)
	network.Connect(junction.Lane(1), exit.Lane(1), nil)
	approach.SetInternalFollower(exit, junction)

	store := vehicle.NewProfileStore()
	amb := vehicle.NewProfile("amb")
	amb.Width = 2.2
	require.NoError(t, store.Add(amb))
	fleet := vehicle.NewFleet(store)
	clock := &testClock{}

	ego := vehicle.New("ego", amb, store, []*network.Edge{approach, exit})
	fleet.Add(ego)
	ego.EnterLane(0, approach.Lane(0), 0, device.NotificationDeparted)

	dev := New(ego, fleet, clock, rand.New(rand.NewSource(1)), testDeviceConfig())
	ego.AttachDevice(dev)
	return &fixture{net: n, store: store, fleet: fleet, clock: clock, ego: ego, dev: dev}
}

func TestManualContinuationCrossesJunction(t *testing.T) {
	f := blockedFixture(t)
	f.ego.SetPositionOnLane(200)
	lcm := f.ego.LaneChangeModel().(*vehicle.BasicLaneChangeModel)
	lcm.SetShadowLane(f.net.Lane("approach_1"))
	lcm.SetTargetLane(f.net.Lane("approach_1"))

	f.dev.NotifyMove(units.Second, 0, 0, 0)

	require.NotNil(t, f.ego.Lane())
	assert.Equal(t, "junction_1", f.ego.Lane().ID())
	assert.InDelta(t, 0.0, f.ego.PositionOnLane(), 1e-9)
	assert.Equal(t, 1, f.dev.Stats().ManualCrossings)

	// the lateral jump from approach_0 to the reachable junction_1 is
	// one lane width, clamped inside the new lane
	maxOffset := (3.2 - 2.2) / 2
	assert.InDelta(t, -maxOffset, f.ego.LateralPositionOnLane(), 1e-9)

	// any in-progress change state was cleaned up and re-prepared
	assert.Nil(t, lcm.ShadowLane())
	assert.Nil(t, lcm.TargetLane())
	assert.Equal(t, 1, lcm.PreparedSteps())
}

func TestManualContinuationOnlyAtLaneEnd(t *testing.T) {
	f := blockedFixture(t)
	f.ego.SetPositionOnLane(180)

	f.dev.NotifyMove(units.Second, 0, 0, 0)

	assert.Equal(t, "approach_0", f.ego.Lane().ID())
	assert.Equal(t, 0, f.dev.Stats().ManualCrossings)
}

func TestNoManualContinuationWithConnection(t *testing.T) {
	f := newFixture(t, testDeviceConfig())
	f.ego.SetPositionOnLane(200)

	f.dev.NotifyMove(units.Second, 0, 0, 0)

	// approach_0 connects onto the junction normally, so the holder is
	// left to the regular movement update
	assert.Equal(t, "approach_0", f.ego.Lane().ID())
	assert.Equal(t, 0, f.dev.Stats().ManualCrossings)
}

func TestNoManualContinuationAtRouteEnd(t *testing.T) {
	f := blockedFixture(t)
	// a route ending on the blocked edge offers nothing to continue to
	f.ego.LeaveLane(0, device.NotificationArrived, nil)
	short := vehicle.New("short", f.store.Get("amb"), f.store, []*network.Edge{f.net.Edge("approach")})
	f.fleet.Add(short)
	short.EnterLane(0, f.net.Lane("approach_0"), 200, device.NotificationDeparted)
	dev := New(short, f.fleet, f.clock, rand.New(rand.NewSource(1)), testDeviceConfig())
	short.AttachDevice(dev)

	dev.NotifyMove(units.Second, 0, 0, 0)

	assert.Equal(t, "approach_0", short.Lane().ID())
	assert.Equal(t, 0, dev.Stats().ManualCrossings)
}
