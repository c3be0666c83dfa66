// Package network implements the minimal roadway model the simulation
// runs on: edges made of indexed lanes, junction-internal edges, and
// conflict links with approach estimation. The priority-vehicle
// device only consumes this surface; car-following and routing live
// elsewhere.
package network

import (
	"fmt"
	"sort"

	"github.com/opensimlab/rescuelane/internal/simerr"
)

// Class is a vehicle class used for lane permissions and routing.
type Class string

const (
	ClassPassenger Class = "passenger"
	ClassEmergency Class = "emergency"
	ClassBus       Class = "bus"
	ClassBicycle   Class = "bicycle"
)

// Network is the container for all edges, lanes and links.
type Network struct {
	edges map[string]*Edge
	lanes map[string]*Lane
	links map[string]*Link
}

// New returns an empty network.
func New() *Network {
	return &Network{
		edges: make(map[string]*Edge),
		lanes: make(map[string]*Lane),
		links: make(map[string]*Link),
	}
}

// AddEdge creates an edge with the given number of parallel lanes.
// Lane indices run from 0 (rightmost) upward; lane centers are laid
// out side by side so lateral offsets between neighboring lanes are
// well defined.
func (n *Network) AddEdge(id string, numLanes int, length, width, maxSpeed float64, internal bool) (*Edge, error) {
	if _, ok := n.edges[id]; ok {
		return nil, simerr.TopologyErrorf("edge '%s' already exists", id)
	}
	if numLanes < 1 {
		return nil, simerr.TopologyErrorf("edge '%s' needs at least one lane", id)
	}
	e := &Edge{
		id:                id,
		internal:          internal,
		internalFollowers: make(map[string]*Edge),
	}
	for i := 0; i < numLanes; i++ {
		l := &Lane{
			id:        laneID(id, i),
			edge:      e,
			index:     i,
			length:    length,
			width:     width,
			maxSpeed:  maxSpeed,
			centerLat: float64(i) * width,
			occupants: make(map[string]struct{}),
		}
		e.lanes = append(e.lanes, l)
		n.lanes[l.id] = l
	}
	n.edges[id] = e
	return e, nil
}

// AddLink registers a junction-conflict link carried by the given
// internal lane. Foe lanes hold the traffic whose approach conflicts
// with crossing the link.
func (n *Network) AddLink(id string, via *Lane, foeLanes ...*Lane) (*Link, error) {
	if _, ok := n.links[id]; ok {
		return nil, simerr.TopologyErrorf("link '%s' already exists", id)
	}
	lk := &Link{id: id, via: via, foeLanes: foeLanes}
	n.links[id] = lk
	return lk, nil
}

// Edge looks up an edge by id, nil if absent.
func (n *Network) Edge(id string) *Edge { return n.edges[id] }

// Lane looks up a lane by id, nil if absent.
func (n *Network) Lane(id string) *Lane { return n.lanes[id] }

// Link looks up a link by id, nil if absent.
func (n *Network) Link(id string) *Link { return n.links[id] }

// EdgeIDs returns all edge ids in sorted order.
func (n *Network) EdgeIDs() []string {
	ids := make([]string, 0, len(n.edges))
	for id := range n.edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func laneID(edgeID string, index int) string {
	return fmt.Sprintf("%s_%d", edgeID, index)
}
