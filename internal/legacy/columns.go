// Package legacy holds the static translation tables and heuristics used
// when a dataset only has the wide legacy tables Frame_Parameters /
// Global_Parameters instead of the key/value Frame_Params / Global_Params
// layout (spec.md §4.B, §9 "legacy column coverage").
package legacy

import "github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"

// ColumnMapping associates one legacy wide-table column with the parameter
// id it carries under the key/value layout.
type ColumnMapping struct {
	Column string
	Param  uimf.ParamID
}

// FrameParameterColumns maps the legacy Frame_Parameters columns this
// library recognizes. Columns introduced by later acquisition software that
// are absent from a given file are simply not found during introspection;
// callers of PresentColumns treat those as default/missing (spec.md §9).
var FrameParameterColumns = []ColumnMapping{
	{"StartTime", uimf.ParamFrameStartTime},
	{"Duration", uimf.ParamFrameDuration},
	{"Accumulations", uimf.ParamAccumulations},
	{"FrameType", uimf.ParamFrameType},
	{"Scans", uimf.ParamScanCount},
	{"AverageTOFLength", uimf.ParamAvgTOFLength},
	{"CalibrationSlope", uimf.ParamCalibrationSlope},
	{"CalibrationIntercept", uimf.ParamCalibrationIntercept},
	{"a2", uimf.ParamMassCalCoefA2},
	{"b2", uimf.ParamMassCalCoefB2},
	{"c2", uimf.ParamMassCalCoefC2},
	{"d2", uimf.ParamMassCalCoefD2},
	{"e2", uimf.ParamMassCalCoefE2},
	{"f2", uimf.ParamMassCalCoefF2},
	{"HighVoltage", uimf.ParamHighVoltage},
	{"PressureFront", uimf.ParamPressureFront},
	{"PressureBack", uimf.ParamPressureBack},
	{"RearIonFunnelPressure", uimf.ParamRearIonFunnelPressure},
	{"IonFunnelTrapPressure", uimf.ParamIonFunnelTrapPressure},
	{"IMFProfile", uimf.ParamEncodingSequence},
	{"PressureUnits", uimf.ParamPressureUnits},
	{"DriftTubeTemperature", uimf.ParamDriftTubeTemperature},
}

// GlobalParameterColumns maps the legacy Global_Parameters columns.
var GlobalParameterColumns = []ColumnMapping{
	{"Bins", uimf.ParamBinCount},
	{"BinWidth", uimf.ParamBinWidth},
	{"TOFCorrectionTime", uimf.ParamTOFCorrectionTime},
	{"StartTime", uimf.ParamStartTimeMinutes},
	{"DateStarted", uimf.ParamDateStarted},
	{"InstrumentName", uimf.ParamInstrumentName},
	{"NumFrames", uimf.ParamNumFrames},
	{"TOFIntensityType", uimf.ParamIntensityType},
	{"PrescanTOFPulses", uimf.ParamPrescanTOFPulses},
	{"PrescanAccumulations", uimf.ParamPrescanAccumulations},
}

// LookupColumn returns the ParamID for a legacy column name within the given
// mapping table, and whether the column is recognized at all.
func LookupColumn(table []ColumnMapping, column string) (uimf.ParamID, bool) {
	for _, m := range table {
		if m.Column == column {
			return m.Param, true
		}
	}
	return 0, false
}

// PresentColumns intersects wantColumns against the columns actually present
// in a legacy table (as returned by schema introspection), preserving
// wantColumns' order. Missing columns are simply omitted, matching the
// "columns absent are treated as default" rule; the caller logs the absence
// once per name via its event sink.
func PresentColumns(wantColumns []ColumnMapping, actualColumns map[string]bool) []ColumnMapping {
	present := make([]ColumnMapping, 0, len(wantColumns))
	for _, m := range wantColumns {
		if actualColumns[m.Column] {
			present = append(present, m)
		}
	}
	return present
}
