package bluelight

import (
	"strconv"

	"github.com/opensimlab/rescuelane/internal/simerr"
)

// Parameter keys of the runtime-tunable device settings.
const (
	ParamReactionDist    = "reactiondist"
	ParamMinGapFactor    = "mingapfactor"
	ParamActivated       = "activated"
	ParamInvertDirection = "invertDirection"
)

// Parameter implements device.Device.
func (d *Device) Parameter(key string) (string, error) {
	switch key {
	case ParamReactionDist:
		return strconv.FormatFloat(d.reactionDist, 'g', -1, 64), nil
	case ParamMinGapFactor:
		return strconv.FormatFloat(d.minGapFactor, 'g', -1, 64), nil
	case ParamActivated:
		return strconv.FormatBool(d.activated), nil
	case ParamInvertDirection:
		// one-shot trigger, reads back as false once consumed
		return strconv.FormatBool(d.invertDirection), nil
	}
	return "", simerr.InvalidArgumentf("parameter '%s' is not supported for device of type '%s'", key, TypeTag)
}

// SetParameter implements device.Device. Setting 'activated' drives
// the activation state machine; setting 'invertDirection' to true is
// a one-shot command that triggers the opposite-direction maneuver
// and resets itself.
func (d *Device) SetParameter(key, value string) error {
	switch key {
	case ParamReactionDist:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return simerr.InvalidArgumentf("setting parameter '%s' requires a number for device of type '%s'", key, TypeTag)
		}
		if f < 0 {
			return simerr.InvalidArgumentf("parameter '%s' must be >= 0 for device of type '%s'", key, TypeTag)
		}
		d.reactionDist = f
	case ParamMinGapFactor:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return simerr.InvalidArgumentf("setting parameter '%s' requires a number for device of type '%s'", key, TypeTag)
		}
		if f <= 0 {
			return simerr.InvalidArgumentf("parameter '%s' must be > 0 for device of type '%s'", key, TypeTag)
		}
		d.minGapFactor = f
	case ParamActivated:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return simerr.InvalidArgumentf("setting parameter '%s' requires a bool for device of type '%s'", key, TypeTag)
		}
		d.setActivated(b)
	case ParamInvertDirection:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return simerr.InvalidArgumentf("setting parameter '%s' requires a bool for device of type '%s'", key, TypeTag)
		}
		if b {
			d.holder.LaneChangeModel().ChangedToOpposite()
		}
		d.invertDirection = false
	default:
		return simerr.InvalidArgumentf("setting parameter '%s' is not supported for device of type '%s'", key, TypeTag)
	}
	return nil
}

// Activated reports the current activation state.
func (d *Device) Activated() bool { return d.activated }

// setActivated drives the Active/Inactive state machine. Repeating
// the current state is a no-op so rights are never granted or
// revoked twice.
func (d *Device) setActivated(activated bool) {
	if activated == d.activated {
		return
	}
	d.activated = activated
	if activated {
		d.logger.Info("priority rights granted")
		d.grantPriorityRights(true)
	} else {
		d.logger.Info("priority rights revoked")
		d.revokePriorityRights()
	}
}
