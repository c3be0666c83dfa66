package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensimlab/rescuelane/internal/units"
)

// buildCorridor wires approach -> junction (internal) -> exit with two
// lanes each and a conflict link on the junction's rightmost lane.
func buildCorridor(t *testing.T) (*Network, *Link) {
	t.Helper()
	n := New()
	approach, err := n.AddEdge("approach", 2, 200, 3.2, 13.89, false)
	require.NoError(t, err)
	junction, err := n.AddEdge("junction", 2, 12, 3.2, 13.89, true)
	require.NoError(t, err)
	exit, err := n.AddEdge("exit", 2, 200, 3.2, 13.89, false)
	require.NoError(t, err)
	side, err := n.AddEdge("side", 1, 150, 3.2, 13.89, false)
	require.NoError(t, err)

	link, err := n.AddLink("crossing", junction.Lane(0), side.Lane(0))
	require.NoError(t, err)

	Connect(approach.Lane(0), junction.Lane(0), link)
	Connect(junction.Lane(0), exit.Lane(0), nil)
	Connect(approach.Lane(1), junction.Lane(1), nil)
	Connect(junction.Lane(1), exit.Lane(1), nil)
	approach.SetInternalFollower(exit, junction)
	return n, link
}

func TestAddEdge(t *testing.T) {
	n := New()
	e, err := n.AddEdge("a", 3, 100, 3.2, 13.89, false)
	require.NoError(t, err)

	assert.Equal(t, 3, e.NumLanes())
	assert.Equal(t, "a_0", e.Lane(0).ID())
	assert.Equal(t, "a_2", e.Lane(2).ID())
	assert.Nil(t, e.Lane(3))
	assert.Same(t, e.Lane(1), n.Lane("a_1"))

	_, err = n.AddEdge("a", 1, 50, 3.2, 13.89, false)
	assert.Error(t, err)

	_, err = n.AddEdge("b", 0, 50, 3.2, 13.89, false)
	assert.Error(t, err)
}

func TestLateralOffsetBetweenLanes(t *testing.T) {
	n := New()
	e, err := n.AddEdge("a", 3, 100, 3.2, 13.89, false)
	require.NoError(t, err)

	assert.InDelta(t, 3.2, e.Lane(1).LateralOffsetFrom(e.Lane(0)), 1e-9)
	assert.InDelta(t, -6.4, e.Lane(0).LateralOffsetFrom(e.Lane(2)), 1e-9)
	assert.InDelta(t, 0.0, e.Lane(1).LateralOffsetFrom(e.Lane(1)), 1e-9)
}

func TestPositionAtUsesLeftHandNormal(t *testing.T) {
	n := New()
	e, err := n.AddEdge("a", 1, 100, 3.2, 13.89, false)
	require.NoError(t, err)
	l := e.Lane(0)
	l.SetGeometry(10, 20, 1, 0)

	x, y := l.PositionAt(5, 0)
	assert.InDelta(t, 15.0, x, 1e-9)
	assert.InDelta(t, 20.0, y, 1e-9)

	// positive lateral offsets go to the left of the travel direction
	x, y = l.PositionAt(5, 2)
	assert.InDelta(t, 15.0, x, 1e-9)
	assert.InDelta(t, 22.0, y, 1e-9)
}

func TestUpcomingLanes(t *testing.T) {
	n, _ := buildCorridor(t)
	approach := n.Edge("approach")
	junction := n.Edge("junction")
	exit := n.Edge("exit")
	route := []*Edge{approach, exit}

	tests := []struct {
		name     string
		start    *Lane
		startPos float64
		dist     float64
		expected []string
	}{
		{
			"covered by current lane",
			approach.Lane(0), 0, 50,
			[]string{"approach_0"},
		},
		{
			"crosses junction onto exit",
			approach.Lane(0), 190, 50,
			[]string{"approach_0", "junction_0", "exit_0"},
		},
		{
			"stops when the distance is covered",
			approach.Lane(0), 190, 15,
			[]string{"approach_0", "junction_0"},
		},
		{
			"starts on internal lane",
			junction.Lane(0), 0, 30,
			[]string{"junction_0", "exit_0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lanes := UpcomingLanes(tt.start, tt.startPos, route, 0, tt.dist)
			var got []string
			for _, l := range lanes {
				got = append(got, l.ID())
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUpcomingLanesStopsAtRouteEnd(t *testing.T) {
	n, _ := buildCorridor(t)
	exit := n.Edge("exit")
	route := []*Edge{n.Edge("approach"), exit}

	lanes := UpcomingLanes(exit.Lane(0), 195, route, 1, 100)
	require.Len(t, lanes, 1)
	assert.Equal(t, "exit_0", lanes[0].ID())
}

func TestUpcomingLanesStopsWhenDisconnected(t *testing.T) {
	n, _ := buildCorridor(t)
	side := n.Edge("side")
	route := []*Edge{side, n.Edge("exit")}

	// the side road has no connection toward the exit
	lanes := UpcomingLanes(side.Lane(0), 140, route, 0, 100)
	require.Len(t, lanes, 1)
}

func TestLanePermissions(t *testing.T) {
	n := New()
	e, err := n.AddEdge("a", 2, 100, 3.2, 13.89, false)
	require.NoError(t, err)
	e.Lane(0).Disallow(ClassPassenger)

	assert.False(t, e.Lane(0).Allows(ClassPassenger))
	assert.True(t, e.Lane(0).Allows(ClassEmergency))

	allowed := e.AllowedLanes(ClassPassenger)
	require.Len(t, allowed, 1)
	assert.Equal(t, 1, allowed[0].Index())
}

func TestInternalFollower(t *testing.T) {
	n, _ := buildCorridor(t)
	approach := n.Edge("approach")
	exit := n.Edge("exit")
	junction := n.Edge("junction")

	assert.Same(t, junction, approach.InternalFollower(exit, ClassPassenger))
	assert.Nil(t, approach.InternalFollower(n.Edge("side"), ClassPassenger))

	// a junction closed to a class offers no crossing for it
	junction.Lane(0).Disallow(ClassBicycle)
	junction.Lane(1).Disallow(ClassBicycle)
	assert.Nil(t, approach.InternalFollower(exit, ClassBicycle))
}

func TestEdgeVehicleIDs(t *testing.T) {
	n, _ := buildCorridor(t)
	e := n.Edge("approach")
	e.Lane(0).Enter("v2")
	e.Lane(0).Enter("v1")
	e.Lane(1).Enter("v3")
	e.Lane(1).Enter("v1") // same vehicle shadowing a second lane

	assert.Equal(t, []string{"v1", "v2", "v3"}, e.VehicleIDs())

	e.Lane(0).Leave("v2")
	assert.Equal(t, []string{"v1", "v3"}, e.VehicleIDs())
}

type fakeLocator map[string]Kinematics

func (f fakeLocator) VehicleKinematics(id string) (Kinematics, bool) {
	k, ok := f[id]
	return k, ok
}

func TestLinkApproach(t *testing.T) {
	_, link := buildCorridor(t)

	a := link.Approach(10*units.Second, 50, 10)
	assert.Equal(t, 15*units.Second, a.ArrivalTime)
	assert.Equal(t, 10.0, a.ArrivalSpeed)

	// crawling vehicles are estimated at the 1 m/s floor
	a = link.Approach(0, 5, 0)
	assert.Equal(t, 5*units.Second, a.ArrivalTime)
	assert.Equal(t, 1.0, a.ArrivalSpeed)
}

func TestLinkBlockingFoes(t *testing.T) {
	n, link := buildCorridor(t)
	side := n.Edge("side")
	junction := n.Edge("junction")

	side.Lane(0).Enter("near")
	side.Lane(0).Enter("far")
	junction.Lane(0).Enter("inside")

	loc := fakeLocator{
		// arrives at the junction in 2s, inside the window
		"near": {Lane: side.Lane(0), Pos: 130, Speed: 10},
		// arrives in 14s, outside the window
		"far": {Lane: side.Lane(0), Pos: 10, Speed: 10},
		// already on the crossing, always blocking
		"inside": {Lane: junction.Lane(0), Pos: 3, Speed: 5},
	}

	arrival := ApproachInfo{ArrivalTime: 3 * units.Second, ArrivalSpeed: 10}
	foes := link.BlockingFoes(0, arrival, loc)
	assert.Equal(t, []string{"inside", "near"}, foes)
}
