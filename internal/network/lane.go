package network

import "sort"

// IncomingLane describes a lane feeding into another, possibly across
// a junction-conflict link.
type IncomingLane struct {
	Lane *Lane
	Via  *Link
}

// Connection describes a lane continuation, possibly onto a
// junction-internal lane.
type Connection struct {
	To  *Lane
	Via *Link
}

// Lane is one driving lane of an edge. Index 0 is the rightmost lane.
type Lane struct {
	id        string
	edge      *Edge
	index     int
	length    float64
	width     float64
	maxSpeed  float64
	centerLat float64

	// straight-line geometry for position computations
	originX, originY float64
	dirX, dirY       float64

	incoming   []IncomingLane
	outgoing   []Connection
	occupants  map[string]struct{}
	disallowed map[Class]struct{}
}

// ID returns the lane identifier.
func (l *Lane) ID() string { return l.id }

// Edge returns the owning edge.
func (l *Lane) Edge() *Edge { return l.edge }

// Index returns the lane index within its edge, 0 = rightmost.
func (l *Lane) Index() int { return l.index }

// Length returns the lane length in meters.
func (l *Lane) Length() float64 { return l.length }

// Width returns the lane width in meters.
func (l *Lane) Width() float64 { return l.width }

// MaxSpeed returns the speed limit in m/s.
func (l *Lane) MaxSpeed() float64 { return l.maxSpeed }

// IsInternal reports whether the lane lies inside a junction.
func (l *Lane) IsInternal() bool { return l.edge.internal }

// SetGeometry anchors the lane in world coordinates: origin point and
// unit direction. Lateral offsets use the left-hand normal.
func (l *Lane) SetGeometry(x, y, dirX, dirY float64) {
	l.originX, l.originY = x, y
	l.dirX, l.dirY = dirX, dirY
}

// PositionAt maps a longitudinal/lateral position on this lane to
// world coordinates.
func (l *Lane) PositionAt(pos, posLat float64) (x, y float64) {
	// left-hand normal of the direction vector
	nx, ny := -l.dirY, l.dirX
	x = l.originX + l.dirX*pos + nx*posLat
	y = l.originY + l.dirY*pos + ny*posLat
	return
}

// LateralOffsetFrom returns the lateral shift between this lane's
// center and another lane's center, in this lane's frame. Only
// meaningful for lanes of adjoining edges laid out in the same
// corridor.
func (l *Lane) LateralOffsetFrom(other *Lane) float64 {
	return l.centerLat - other.centerLat
}

// Disallow forbids the given class on this lane.
func (l *Lane) Disallow(class Class) {
	if l.disallowed == nil {
		l.disallowed = make(map[Class]struct{})
	}
	l.disallowed[class] = struct{}{}
}

// Allows reports whether the class may use this lane.
func (l *Lane) Allows(class Class) bool {
	_, banned := l.disallowed[class]
	return !banned
}

// AddIncoming registers a lane feeding into this one.
func (l *Lane) AddIncoming(from *Lane, via *Link) {
	l.incoming = append(l.incoming, IncomingLane{Lane: from, Via: via})
}

// AddOutgoing registers a continuation of this lane.
func (l *Lane) AddOutgoing(to *Lane, via *Link) {
	l.outgoing = append(l.outgoing, Connection{To: to, Via: via})
}

// Incoming returns the lanes feeding into this one.
func (l *Lane) Incoming() []IncomingLane { return l.incoming }

// Outgoing returns the continuations of this lane.
func (l *Lane) Outgoing() []Connection { return l.outgoing }

// Enter records a vehicle as occupying this lane.
func (l *Lane) Enter(vehicleID string) {
	l.occupants[vehicleID] = struct{}{}
}

// Leave removes a vehicle from this lane's occupant set.
func (l *Lane) Leave(vehicleID string) {
	delete(l.occupants, vehicleID)
}

// OccupantIDs returns the ids of vehicles on this lane, sorted for
// deterministic iteration.
func (l *Lane) OccupantIDs() []string {
	ids := make([]string, 0, len(l.occupants))
	for id := range l.occupants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Connect wires from → to as a lane continuation and records the
// reverse incoming entry, carrying the link if the continuation
// crosses one.
func Connect(from, to *Lane, via *Link) {
	from.AddOutgoing(to, via)
	to.AddIncoming(from, via)
}

// UpcomingLanes walks the lanes ahead of a position until at least
// dist meters are covered, following the route through junction
// internal lanes. The walk stops early when the route ends or no
// connection continues it.
func UpcomingLanes(start *Lane, startPos float64, route []*Edge, routeIdx int, dist float64) []*Lane {
	lanes := []*Lane{start}
	covered := start.Length() - startPos
	cur := start
	idx := routeIdx
	for covered < dist {
		var next *Lane
		if cur.IsInternal() {
			// internal lanes have a unique continuation
			if len(cur.outgoing) == 0 {
				break
			}
			next = cur.outgoing[0].To
			if !next.IsInternal() {
				if idx+1 < len(route) && next.Edge() == route[idx+1] {
					idx++
				} else {
					break
				}
			}
		} else {
			if idx+1 >= len(route) {
				break
			}
			target := route[idx+1]
			for _, c := range cur.outgoing {
				if c.To.Edge() == target {
					next = c.To
					idx++
					break
				}
				if c.To.IsInternal() && leadsTo(c.To, target) {
					next = c.To
					break
				}
			}
		}
		if next == nil {
			break
		}
		lanes = append(lanes, next)
		covered += next.Length()
		cur = next
	}
	return lanes
}

// leadsTo follows the unique continuations of an internal lane until
// a normal edge is reached and reports whether it is the target.
func leadsTo(l *Lane, target *Edge) bool {
	for l != nil && l.IsInternal() {
		if len(l.outgoing) == 0 {
			return false
		}
		l = l.outgoing[0].To
	}
	return l != nil && l.Edge() == target
}
