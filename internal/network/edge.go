package network

import "sort"

// Edge is a directed roadway segment with one or more parallel lanes.
// Junction-internal edges connect two normal edges across an
// intersection.
type Edge struct {
	id       string
	lanes    []*Lane
	internal bool

	// internal edges reachable from this edge, keyed by the normal
	// edge they lead to
	internalFollowers map[string]*Edge
}

// ID returns the edge identifier.
func (e *Edge) ID() string { return e.id }

// IsInternal reports whether this edge lies inside a junction.
func (e *Edge) IsInternal() bool { return e.internal }

// NumLanes returns the number of parallel lanes.
func (e *Edge) NumLanes() int { return len(e.lanes) }

// Lanes returns the lanes ordered by index, rightmost first.
func (e *Edge) Lanes() []*Lane { return e.lanes }

// Lane returns the lane at the given index, nil if out of range.
func (e *Edge) Lane(index int) *Lane {
	if index < 0 || index >= len(e.lanes) {
		return nil
	}
	return e.lanes[index]
}

// AllowedLanes returns the lanes a vehicle of the given class may
// use. A lane with no explicit restriction allows every class.
func (e *Edge) AllowedLanes(class Class) []*Lane {
	var out []*Lane
	for _, l := range e.lanes {
		if l.Allows(class) {
			out = append(out, l)
		}
	}
	return out
}

// SetInternalFollower declares that crossing the junction from this
// edge toward next passes over the given internal edge.
func (e *Edge) SetInternalFollower(next, via *Edge) {
	e.internalFollowers[next.id] = via
}

// InternalFollower resolves the junction-internal edge between this
// edge and next, if one exists and admits the class.
func (e *Edge) InternalFollower(next *Edge, class Class) *Edge {
	via := e.internalFollowers[next.id]
	if via == nil {
		return nil
	}
	if len(via.AllowedLanes(class)) == 0 {
		return nil
	}
	return via
}

// VehicleIDs returns the deduplicated, sorted ids of all vehicles
// currently on any lane of this edge.
func (e *Edge) VehicleIDs() []string {
	seen := make(map[string]struct{})
	for _, l := range e.lanes {
		for id := range l.occupants {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
