package uimf

// ParamID is the closed, stable numeric id of a known parameter. New
// parameters get new ids; existing ids never change meaning (spec.md §3,
// ParamKeyDef invariant).
type ParamID int32

const (
	ParamStartTimeMinutes   ParamID = 1
	ParamDateStarted        ParamID = 2
	ParamNumFrames          ParamID = 3
	ParamFrameType          ParamID = 4
	ParamBinCount           ParamID = 5
	ParamBinWidth           ParamID = 6
	ParamTOFCorrectionTime  ParamID = 7
	ParamInstrumentName     ParamID = 8
	ParamIntensityType      ParamID = 9
	ParamPrescanTOFPulses   ParamID = 10
	ParamPrescanAccumulations ParamID = 11
	ParamCalibrationSlope   ParamID = 12
	ParamCalibrationIntercept ParamID = 13
	ParamMassCalCoefA2      ParamID = 14
	ParamMassCalCoefB2      ParamID = 15
	ParamMassCalCoefC2      ParamID = 16
	ParamMassCalCoefD2      ParamID = 17
	ParamMassCalCoefE2      ParamID = 18
	ParamMassCalCoefF2      ParamID = 19
	ParamScanCount          ParamID = 20
	ParamAccumulations      ParamID = 21
	ParamAvgTOFLength       ParamID = 22
	ParamFrameDuration      ParamID = 23
	ParamFrameStartTime     ParamID = 24
	ParamHighVoltage        ParamID = 25
	ParamPressureFront      ParamID = 26
	ParamPressureBack       ParamID = 27
	ParamRearIonFunnelPressure ParamID = 28
	ParamIonFunnelTrapPressure ParamID = 29
	ParamEncodingSequence   ParamID = 30
	ParamPressureUnits      ParamID = 51
	ParamDriftTubeTemperature ParamID = 52
)

// Registry maps every known ParamID to its identity metadata. Unknown ids
// encountered on disk are preserved (the store package's Reader keeps them
// under GlobalParams.Extra / FrameParams.Extra) but never added here at runtime — the registry is closed per
// spec.md §3 and §6.
var Registry = map[ParamID]ParamKeyDef{
	ParamStartTimeMinutes:      {ParamStartTimeMinutes, "StartTime", TypeFloat, "acquisition start time, minutes or legacy ticks"},
	ParamDateStarted:           {ParamDateStarted, "DateStarted", TypeText, "acquisition start timestamp"},
	ParamNumFrames:             {ParamNumFrames, "NumFrames", TypeInt32, "number of frames in the dataset"},
	ParamFrameType:             {ParamFrameType, "FrameType", TypeInt32, "MS1/MS2/Calibration/Prescan"},
	ParamBinCount:              {ParamBinCount, "Bins", TypeInt32, "dataset bin count"},
	ParamBinWidth:              {ParamBinWidth, "BinWidth", TypeFloat, "bin width in ns"},
	ParamTOFCorrectionTime:     {ParamTOFCorrectionTime, "TOFCorrectionTime", TypeFloat, "TOF correction time"},
	ParamInstrumentName:        {ParamInstrumentName, "InstrumentName", TypeText, "instrument name"},
	ParamIntensityType:         {ParamIntensityType, "TOFIntensityType", TypeText, "raw intensity representation"},
	ParamPrescanTOFPulses:      {ParamPrescanTOFPulses, "PrescanTOFPulses", TypeInt32, "prescan TOF pulse count"},
	ParamPrescanAccumulations:  {ParamPrescanAccumulations, "PrescanAccumulations", TypeInt32, "prescan accumulation count"},
	ParamCalibrationSlope:      {ParamCalibrationSlope, "CalibrationSlope", TypeFloat, "bin-to-mz calibration slope"},
	ParamCalibrationIntercept:  {ParamCalibrationIntercept, "CalibrationIntercept", TypeFloat, "bin-to-mz calibration intercept"},
	ParamMassCalCoefA2:         {ParamMassCalCoefA2, "MassCalCoefficienta2", TypeFloat, "mass error polynomial coefficient a2"},
	ParamMassCalCoefB2:         {ParamMassCalCoefB2, "MassCalCoefficientb2", TypeFloat, "mass error polynomial coefficient b2"},
	ParamMassCalCoefC2:         {ParamMassCalCoefC2, "MassCalCoefficientc2", TypeFloat, "mass error polynomial coefficient c2"},
	ParamMassCalCoefD2:         {ParamMassCalCoefD2, "MassCalCoefficientd2", TypeFloat, "mass error polynomial coefficient d2"},
	ParamMassCalCoefE2:         {ParamMassCalCoefE2, "MassCalCoefficiente2", TypeFloat, "mass error polynomial coefficient e2"},
	ParamMassCalCoefF2:         {ParamMassCalCoefF2, "MassCalCoefficientf2", TypeFloat, "mass error polynomial coefficient f2"},
	ParamScanCount:             {ParamScanCount, "Scans", TypeInt32, "IMS scan count for this frame"},
	ParamAccumulations:         {ParamAccumulations, "Accumulations", TypeInt32, "number of accumulations for this frame"},
	ParamAvgTOFLength:          {ParamAvgTOFLength, "AverageTOFLength", TypeFloat, "average TOF length in ns"},
	ParamFrameDuration:         {ParamFrameDuration, "Duration", TypeFloat, "frame duration in seconds"},
	ParamFrameStartTime:        {ParamFrameStartTime, "StartTime", TypeFloat, "frame start time"},
	ParamHighVoltage:           {ParamHighVoltage, "HighVoltage", TypeFloat, "drift tube high voltage"},
	ParamPressureFront:         {ParamPressureFront, "PressureFront", TypeFloat, "front pressure reading"},
	ParamPressureBack:          {ParamPressureBack, "PressureBack", TypeFloat, "back pressure reading"},
	ParamRearIonFunnelPressure: {ParamRearIonFunnelPressure, "RearIonFunnelPressure", TypeFloat, "rear ion funnel pressure reading"},
	ParamIonFunnelTrapPressure: {ParamIonFunnelTrapPressure, "IonFunnelTrapPressure", TypeFloat, "ion funnel trap pressure reading"},
	ParamEncodingSequence:      {ParamEncodingSequence, "IMFProfile", TypeText, "IMS encoding sequence"},
	ParamPressureUnits:         {ParamPressureUnits, "PressureUnits", TypeText, "Torr or MilliTorr"},
	ParamDriftTubeTemperature:  {ParamDriftTubeTemperature, "DriftTubeTemperature", TypeFloat, "drift tube temperature"},
}

// Lookup returns the key definition for id, and whether it is known.
func Lookup(id ParamID) (ParamKeyDef, bool) {
	def, ok := Registry[id]
	return def, ok
}
