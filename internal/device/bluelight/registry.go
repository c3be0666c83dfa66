package bluelight

import (
	"log/slog"
	"sort"

	"github.com/opensimlab/rescuelane/internal/vehicle"
)

// registry tracks which vehicles are currently influenced and the id
// of the profile each had before influence began, so every mutation
// stays reversible. An id is present iff the vehicle's parameters
// are currently altered by this device.
type registry struct {
	fleet      *vehicle.Fleet
	influenced map[string]struct{}
	originals  map[string]string
	logger     *slog.Logger
}

func newRegistry(fleet *vehicle.Fleet, logger *slog.Logger) *registry {
	return &registry{
		fleet:      fleet,
		influenced: make(map[string]struct{}),
		originals:  make(map[string]string),
		logger:     logger,
	}
}

// begin records a vehicle as influenced, capturing its pre-influence
// profile id. No-op when the vehicle is already tracked.
func (r *registry) begin(vehicleID, originalProfileID string) {
	if _, ok := r.influenced[vehicleID]; ok {
		return
	}
	r.influenced[vehicleID] = struct{}{}
	r.originals[vehicleID] = originalProfileID
}

// isInfluenced reports whether the vehicle is currently tracked.
func (r *registry) isInfluenced(vehicleID string) bool {
	_, ok := r.influenced[vehicleID]
	return ok
}

// size returns the number of tracked vehicles.
func (r *registry) size() int { return len(r.influenced) }

// ids returns the tracked vehicle ids in sorted order.
func (r *registry) ids() []string {
	out := make([]string, 0, len(r.influenced))
	for id := range r.influenced {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// end removes a vehicle from the registry and restores its original
// profile. Restoration is skipped when the recorded profile no
// longer exists, which signals it was already replaced elsewhere;
// stale state is never restored over a newer legitimate one.
func (r *registry) end(vehicleID string) {
	if _, ok := r.influenced[vehicleID]; !ok {
		return
	}
	delete(r.influenced, vehicleID)
	originalID := r.originals[vehicleID]
	delete(r.originals, vehicleID)

	veh := r.fleet.Vehicle(vehicleID)
	if veh == nil {
		r.logger.Warn("cannot restore influenced vehicle, holder gone", "vehicle", vehicleID)
		return
	}
	r.restore(veh, originalID)
}

// restore gives a vehicle back its pre-influence profile and default
// lane-change permissions.
func (r *registry) restore(veh *vehicle.Vehicle, originalProfileID string) {
	target := r.fleet.ProfileStore().Get(originalProfileID)
	if target == nil {
		// already restored by someone else
		return
	}
	veh.Influencer().SetLaneChangeMode(vehicle.LaneChangeModeDefault)
	veh.ReplaceProfile(target)
}

// drainAll restores and removes every entry. Used on deactivation
// and at device teardown.
func (r *registry) drainAll() {
	for _, id := range r.ids() {
		r.end(id)
	}
}
