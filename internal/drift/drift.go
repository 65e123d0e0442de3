// Package drift computes IMS drift time and its pressure-normalized form
// (spec.md §4.E "Drift time").
package drift

import "github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"

// PressureSource holds the three pressure readings a frame may carry.
// SelectPressure picks the first non-zero one, in this priority order.
type PressureSource struct {
	Back          float64
	RearIonFunnel float64
	IonFunnelTrap float64
}

// SelectPressure returns the first non-zero reading among Back,
// RearIonFunnel, IonFunnelTrap, in that order.
func SelectPressure(p PressureSource) (float64, bool) {
	for _, v := range []float64{p.Back, p.RearIonFunnel, p.IonFunnelTrap} {
		if v != 0 {
			return v, true
		}
	}
	return 0, false
}

// pressureInferenceSampleCount is how many non-zero samples are averaged to
// guess the pressure unit when PressureUnits is not declared (spec.md §4.E,
// §6 "Pressure units").
const pressureInferenceSampleCount = 25

// InferPressureUnit guesses Torr vs MilliTorr from the average of the first
// 25 non-zero pressure samples in acquisition order: an average over 100
// can only be MilliTorr readings.
func InferPressureUnit(samples []float64) uimf.PressureUnit {
	var sum float64
	n := 0
	for _, s := range samples {
		if s == 0 {
			continue
		}
		sum += s
		n++
		if n == pressureInferenceSampleCount {
			break
		}
	}
	if n == 0 {
		return uimf.PressureTorr
	}
	if sum/float64(n) > 100 {
		return uimf.PressureMilliTorr
	}
	return uimf.PressureTorr
}

// ToTorr converts a pressure reading to Torr given its declared/inferred unit.
func ToTorr(value float64, unit uimf.PressureUnit) float64 {
	if unit == uimf.PressureMilliTorr {
		return value / 1000.0
	}
	return value
}

// RawMS is the drift time of scan s in frame f: avg_tof_length(f)·s/1e6 ms.
func RawMS(avgTOFLengthNS float64, scan int32) float64 {
	return avgTOFLengthNS * float64(scan) / 1e6
}

// NormalizedMS is the pressure-normalized drift time: raw·(4.0/pressureTorr).
// A zero pressure leaves the raw value unchanged (no normalization possible).
func NormalizedMS(rawMS, pressureTorr float64) float64 {
	if pressureTorr == 0 {
		return rawMS
	}
	return rawMS * (4.0 / pressureTorr)
}

// Compute returns (raw, normalized) drift time in ms for one scan. unit is
// the frame's declared PressureUnits, or "" if not declared — in which case
// inferredUnit (typically from InferPressureUnit over the pressure readings
// of the file's frames) is used instead.
func Compute(avgTOFLengthNS float64, scan int32, pressures PressureSource, unit, inferredUnit uimf.PressureUnit) (raw, normalized float64) {
	raw = RawMS(avgTOFLengthNS, scan)

	p, ok := SelectPressure(pressures)
	if !ok {
		return raw, raw
	}

	effectiveUnit := unit
	if effectiveUnit == "" {
		effectiveUnit = inferredUnit
	}

	torr := ToTorr(p, effectiveUnit)
	if torr == 0 {
		return raw, raw
	}
	return raw, NormalizedMS(raw, torr)
}
