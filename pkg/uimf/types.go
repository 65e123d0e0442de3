// Package uimf contains the shared types of a UIMF dataset: the typed
// parameter value, the closed parameter-id enum, frame types, and the
// plain data-transfer shapes used by both the writer and the reader.
package uimf

import "fmt"

// DataType is the closed enum of scalar types a ParamValue may hold.
type DataType string

const (
	TypeInt32 DataType = "int32"
	TypeInt64 DataType = "int64"
	TypeFloat DataType = "float64"
	TypeText  DataType = "text"
	TypeBytes DataType = "bytes"
)

func (t DataType) Valid() bool {
	switch t {
	case TypeInt32, TypeInt64, TypeFloat, TypeText, TypeBytes:
		return true
	default:
		return false
	}
}

// ParamValue is a tagged union over the five scalar types a parameter can
// carry. The database column is always text; Kind decides how it is
// coerced on read and formatted on write.
type ParamValue struct {
	Kind DataType
	i    int64
	f    float64
	s    string
	b    []byte
}

func Int32Value(v int32) ParamValue { return ParamValue{Kind: TypeInt32, i: int64(v)} }
func Int64Value(v int64) ParamValue { return ParamValue{Kind: TypeInt64, i: v} }
func FloatValue(v float64) ParamValue { return ParamValue{Kind: TypeFloat, f: v} }
func TextValue(v string) ParamValue { return ParamValue{Kind: TypeText, s: v} }
func BytesValue(v []byte) ParamValue { return ParamValue{Kind: TypeBytes, b: append([]byte(nil), v...)} }

func (v ParamValue) Int32() (int32, bool) {
	if v.Kind != TypeInt32 {
		return 0, false
	}
	return int32(v.i), true
}

func (v ParamValue) Int64() (int64, bool) {
	if v.Kind != TypeInt64 && v.Kind != TypeInt32 {
		return 0, false
	}
	return v.i, true
}

func (v ParamValue) Float64() (float64, bool) {
	switch v.Kind {
	case TypeFloat:
		return v.f, true
	case TypeInt32, TypeInt64:
		return float64(v.i), true
	default:
		return 0, false
	}
}

func (v ParamValue) Text() (string, bool) {
	if v.Kind != TypeText {
		return "", false
	}
	return v.s, true
}

func (v ParamValue) Bytes() ([]byte, bool) {
	if v.Kind != TypeBytes {
		return nil, false
	}
	return v.b, true
}

// Raw renders the value the way it is stored in the param_value text column.
func (v ParamValue) Raw() string {
	switch v.Kind {
	case TypeInt32, TypeInt64:
		return fmt.Sprintf("%d", v.i)
	case TypeFloat:
		return fmt.Sprintf("%g", v.f)
	case TypeText:
		return v.s
	case TypeBytes:
		return string(v.b)
	default:
		return ""
	}
}

// ParseParamValue coerces a raw text column value into a typed ParamValue
// according to the data-type tag recorded for the key.
func ParseParamValue(raw string, kind DataType) (ParamValue, error) {
	switch kind {
	case TypeInt32:
		var n int32
		if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
			return ParamValue{}, fmt.Errorf("UIMF/PARAMVALUE > parse int32 %q: %w", raw, err)
		}
		return Int32Value(n), nil
	case TypeInt64:
		var n int64
		if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
			return ParamValue{}, fmt.Errorf("UIMF/PARAMVALUE > parse int64 %q: %w", raw, err)
		}
		return Int64Value(n), nil
	case TypeFloat:
		var f float64
		if _, err := fmt.Sscanf(raw, "%g", &f); err != nil {
			return ParamValue{}, fmt.Errorf("UIMF/PARAMVALUE > parse float64 %q: %w", raw, err)
		}
		return FloatValue(f), nil
	case TypeText:
		return TextValue(raw), nil
	case TypeBytes:
		return BytesValue([]byte(raw)), nil
	default:
		return ParamValue{}, fmt.Errorf("UIMF/PARAMVALUE > unknown data type %q", kind)
	}
}

// FrameType enumerates the kind of LC frame. Its on-disk representation is
// an integer; MS1 is the only value with a historical 0/1 ambiguity (see
// legacy.DetermineFrameTypeConvention and store.DetectFrameTypeConvention).
type FrameType int32

const (
	FrameTypeMS1         FrameType = 1
	FrameTypeMS2         FrameType = 2
	FrameTypeCalibration FrameType = 3
	FrameTypePrescan     FrameType = 4
)

func (t FrameType) String() string {
	switch t {
	case FrameTypeMS1:
		return "MS1"
	case FrameTypeMS2:
		return "MS2"
	case FrameTypeCalibration:
		return "Calibration"
	case FrameTypePrescan:
		return "Prescan"
	default:
		return fmt.Sprintf("FrameType(%d)", int32(t))
	}
}

func (t FrameType) Valid() bool {
	switch t {
	case FrameTypeMS1, FrameTypeMS2, FrameTypeCalibration, FrameTypePrescan:
		return true
	default:
		return false
	}
}

// PressureUnit is the closed enum for the PressureUnits global parameter.
type PressureUnit string

const (
	PressureTorr      PressureUnit = "Torr"
	PressureMilliTorr PressureUnit = "MilliTorr"
)

// GlobalParams holds the process-/dataset-wide acquisition settings.
// Fields map 1:1 to the well-known parameter ids in the registry; the Extra
// map preserves any parameter id this build does not know about verbatim.
type GlobalParams struct {
	BinCount        int32
	BinWidthNS      float64
	TOFCorrectionNS float64
	StartTime       string
	InstrumentName  string
	NumFrames       int32
	IntensityType   string
	PrescanTOF      int32
	PrescanAccum    int32
	PressureUnits   PressureUnit

	Extra map[ParamID]ParamValue
}

// FrameParams holds the per-frame acquisition settings of spec.md §3.
type FrameParams struct {
	Frame int32

	StartTime        float64
	DurationSeconds  float64
	Accumulations    int32
	FrameType        FrameType
	ScanCount        int32
	AvgTOFLength     float64
	CalibrationSlope float64
	CalibrationInter float64
	MassCalCoefA2    float64
	MassCalCoefB2    float64
	MassCalCoefC2    float64
	MassCalCoefD2    float64
	MassCalCoefE2    float64
	MassCalCoefF2    float64
	PressureFront    float64
	PressureBack     float64
	HighVoltage      float64
	RearIonFunnelPressure float64
	IonFunnelTrapPressure float64
	EncodingSequence string
	PressureUnits    PressureUnit

	Extra map[ParamID]ParamValue
}

// ScanInfo is what Reader.GetFrameScans returns per scan.
type ScanInfo struct {
	Scan           int32
	NonZeroCount   int32
	BPI            float64
	BPIMz          float64
	TIC            float64
	DriftTime      float64
	DriftTimeRaw   float64
}

// VersionInfo is an append-only row written on every write-session open.
type VersionInfo struct {
	VersionID              int64
	FileVersion            string
	CallingAssemblyName    string
	CallingAssemblyVersion string
	Entered                string
}

// ParamKeyDef is the identity metadata for a parameter.
type ParamKeyDef struct {
	ID          ParamID
	Name        string
	DataType    DataType
	Description string
}
