package vehicle

import (
	"sort"

	"github.com/opensimlab/rescuelane/internal/network"
)

// Fleet owns every agent in the simulation. Not every transportable
// in a simulation is a controllable vehicle; Vehicle returns nil for
// unknown ids, and callers treat that as a normal skip.
type Fleet struct {
	vehicles map[string]*Vehicle
	store    *ProfileStore
}

// NewFleet creates an empty fleet backed by the given profile store.
func NewFleet(store *ProfileStore) *Fleet {
	return &Fleet{
		vehicles: make(map[string]*Vehicle),
		store:    store,
	}
}

// ProfileStore returns the shared profile store.
func (f *Fleet) ProfileStore() *ProfileStore { return f.store }

// Add registers a vehicle.
func (f *Fleet) Add(v *Vehicle) { f.vehicles[v.id] = v }

// Remove unregisters a vehicle.
func (f *Fleet) Remove(id string) { delete(f.vehicles, id) }

// Vehicle resolves an agent id to a controllable vehicle, nil when
// the id is unknown or the agent is not a vehicle.
func (f *Fleet) Vehicle(id string) *Vehicle { return f.vehicles[id] }

// Size returns the number of registered vehicles.
func (f *Fleet) Size() int { return len(f.vehicles) }

// IDs returns all vehicle ids in sorted order for deterministic
// iteration.
func (f *Fleet) IDs() []string {
	ids := make([]string, 0, len(f.vehicles))
	for id := range f.vehicles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// VehicleKinematics implements network.VehicleLocator.
func (f *Fleet) VehicleKinematics(id string) (network.Kinematics, bool) {
	v := f.vehicles[id]
	if v == nil || v.Lane() == nil {
		return network.Kinematics{}, false
	}
	return network.Kinematics{Lane: v.Lane(), Pos: v.PositionOnLane(), Speed: v.Speed()}, true
}
