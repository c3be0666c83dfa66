package vehicle

import (
	"github.com/opensimlab/rescuelane/internal/network"
	"github.com/opensimlab/rescuelane/internal/simerr"
)

// LaneChangeModel is the pluggable lateral-behavior surface of a
// vehicle. Models differ in which parameters they support; callers
// check SupportsParameter instead of probing with errors.
type LaneChangeModel interface {
	// SetParameter sets a runtime-tunable model parameter. Returns an
	// invalid-argument error for values the model cannot parse and a
	// model error for unsupported keys.
	SetParameter(key, value string) error
	// Parameter reads a model parameter; ok is false for unknown keys.
	Parameter(key string) (value string, ok bool)
	// SupportsParameter reports whether the model knows the key.
	SupportsParameter(key string) bool
	// ChangedToOpposite triggers an immediate opposite-direction
	// lane-change maneuver.
	ChangedToOpposite()
	// CleanupShadowLane clears any in-progress change's shadow claim.
	CleanupShadowLane()
	// CleanupTargetLane clears any pending change target.
	CleanupTargetLane()
	// PrepareStep adapts internal state after an external reposition.
	PrepareStep()
}

// BasicLaneChangeModel is the default model: it stores parameters and
// tracks maneuver state but performs no lateral dynamics of its own.
// Support for the lateral min-gap parameter is optional, mirroring
// models that have no sublane resolution.
type BasicLaneChangeModel struct {
	params          map[string]string
	supportsLatGap  bool
	oppositeChanges int
	shadowLane      *network.Lane
	targetLane      *network.Lane
	prepared        int
}

// NewBasicLaneChangeModel creates the default model. supportsLatGap
// selects whether the lateral min-gap parameter is available.
func NewBasicLaneChangeModel(supportsLatGap bool) *BasicLaneChangeModel {
	return &BasicLaneChangeModel{
		params:         make(map[string]string),
		supportsLatGap: supportsLatGap,
	}
}

// SetParameter implements LaneChangeModel.
func (m *BasicLaneChangeModel) SetParameter(key, value string) error {
	if !m.SupportsParameter(key) {
		return simerr.ModelUnsupportedf("lane-change model does not support parameter '%s'", key)
	}
	m.params[key] = value
	return nil
}

// Parameter implements LaneChangeModel.
func (m *BasicLaneChangeModel) Parameter(key string) (string, bool) {
	v, ok := m.params[key]
	return v, ok
}

// SupportsParameter implements LaneChangeModel.
func (m *BasicLaneChangeModel) SupportsParameter(key string) bool {
	switch key {
	case LCParamStrategic, LCParamSpeedGainLookahead:
		return true
	case LCParamMinGapLat:
		return m.supportsLatGap
	default:
		return false
	}
}

// ChangedToOpposite implements LaneChangeModel.
func (m *BasicLaneChangeModel) ChangedToOpposite() { m.oppositeChanges++ }

// OppositeChanges returns how many opposite-direction maneuvers were
// triggered.
func (m *BasicLaneChangeModel) OppositeChanges() int { return m.oppositeChanges }

// SetShadowLane records an in-progress change's shadow claim.
func (m *BasicLaneChangeModel) SetShadowLane(l *network.Lane) { m.shadowLane = l }

// ShadowLane returns the current shadow claim, nil if none.
func (m *BasicLaneChangeModel) ShadowLane() *network.Lane { return m.shadowLane }

// SetTargetLane records a pending change target.
func (m *BasicLaneChangeModel) SetTargetLane(l *network.Lane) { m.targetLane = l }

// TargetLane returns the pending change target, nil if none.
func (m *BasicLaneChangeModel) TargetLane() *network.Lane { return m.targetLane }

// CleanupShadowLane implements LaneChangeModel.
func (m *BasicLaneChangeModel) CleanupShadowLane() { m.shadowLane = nil }

// CleanupTargetLane implements LaneChangeModel.
func (m *BasicLaneChangeModel) CleanupTargetLane() { m.targetLane = nil }

// PrepareStep implements LaneChangeModel.
func (m *BasicLaneChangeModel) PrepareStep() { m.prepared++ }

// PreparedSteps returns how many times state was re-prepared.
func (m *BasicLaneChangeModel) PreparedSteps() int { return m.prepared }
