package bluelight

import (
	"sort"

	"github.com/opensimlab/rescuelane/internal/network"
)

// horizon is the ephemeral per-step perception of the roadway ahead:
// the ordered lanes and edges within the reaction distance, the
// junction-conflict links whose approach falls inside it, and the
// foreign agents on any horizon edge.
type horizon struct {
	lanes   []*network.Lane
	edges   []*network.Edge
	links   []*network.Link
	egoPos  float64
	edgeSet map[*network.Edge]struct{}

	// deduplicated, id-sorted agents on horizon edges
	vehicleIDs []string
}

// computeHorizon walks the holder's upcoming lanes until the reaction
// distance is covered. A conflict link is collected when its internal
// lane is reached while the remaining affected distance is still
// positive.
func (d *Device) computeHorizon() *horizon {
	ego := d.holder
	h := &horizon{
		egoPos:  ego.PositionOnLane(),
		edgeSet: make(map[*network.Edge]struct{}),
	}
	h.lanes = ego.UpcomingLanes(d.reactionDist)

	affectedJunctionDist := ego.PositionOnLane() + d.reactionDist
	for _, l := range h.lanes {
		if _, seen := h.edgeSet[l.Edge()]; !seen {
			h.edgeSet[l.Edge()] = struct{}{}
			h.edges = append(h.edges, l.Edge())
		}
		affectedJunctionDist -= l.Length()
		if affectedJunctionDist > 0 && l.IsInternal() {
			if inc := l.Incoming(); len(inc) > 0 && inc[0].Via != nil {
				h.links = append(h.links, inc[0].Via)
			}
		}
	}

	seen := make(map[string]struct{})
	for _, e := range h.edges {
		for _, id := range e.VehicleIDs() {
			if id == ego.ID() {
				continue
			}
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				h.vehicleIDs = append(h.vehicleIDs, id)
			}
		}
	}
	sort.Strings(h.vehicleIDs)
	return h
}

// containsEdge reports whether the edge belongs to the horizon.
func (h *horizon) containsEdge(e *network.Edge) bool {
	_, ok := h.edgeSet[e]
	return ok
}

// distanceToLink returns the driving distance from the holder's
// position to the start of the link's internal lane, negative when
// the link is not on the horizon.
func (h *horizon) distanceToLink(lk *network.Link) float64 {
	if len(h.lanes) == 0 {
		return -1
	}
	dist := h.lanes[0].Length() - h.egoPos
	if h.lanes[0] == lk.Via() {
		return 0
	}
	for _, l := range h.lanes[1:] {
		if l == lk.Via() {
			return dist
		}
		dist += l.Length()
	}
	return -1
}
