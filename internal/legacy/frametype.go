package legacy

import "errors"

// ErrInconsistentFrameTypes is returned when a legacy file's FrameType
// column mixes 0 and 1 values, both meaning MS1 under different acquisition
// software eras (spec.md §4.C). The store package surfaces this as its own
// InconsistentFrameTypes error.
var ErrInconsistentFrameTypes = errors.New("legacy frame_type values are inconsistent: both 0 and 1 are present")

// DetermineFrameTypeConvention decides, from the distinct raw FrameType
// values found across a file's frames, whether 0 is this file's MS1
// encoding. Only MS1 has the historical 0/1 ambiguity; MS2/Calibration/
// Prescan are unambiguous in every era.
func DetermineFrameTypeConvention(distinctValues []int32) (zeroMeansMS1 bool, err error) {
	hasZero, hasOne := false, false
	for _, v := range distinctValues {
		switch v {
		case 0:
			hasZero = true
		case 1:
			hasOne = true
		}
	}
	if hasZero && hasOne {
		return false, ErrInconsistentFrameTypes
	}
	return hasZero, nil
}
