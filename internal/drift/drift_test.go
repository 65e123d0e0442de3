package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

func TestSelectPressure_PrefersBackThenRearThenTrap(t *testing.T) {
	v, ok := SelectPressure(PressureSource{Back: 5, RearIonFunnel: 7})
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)

	v, ok = SelectPressure(PressureSource{RearIonFunnel: 7, IonFunnelTrap: 9})
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)

	v, ok = SelectPressure(PressureSource{IonFunnelTrap: 9})
	assert.True(t, ok)
	assert.Equal(t, 9.0, v)

	_, ok = SelectPressure(PressureSource{})
	assert.False(t, ok)
}

func TestInferPressureUnit(t *testing.T) {
	assert.Equal(t, uimf.PressureMilliTorr, InferPressureUnit([]float64{0, 760, 755, 762}))
	assert.Equal(t, uimf.PressureTorr, InferPressureUnit([]float64{0, 1.2, 1.1, 1.3}))
	assert.Equal(t, uimf.PressureTorr, InferPressureUnit(nil))
}

func TestInferPressureUnit_CapsAtSampleCount(t *testing.T) {
	samples := make([]float64, 0, 100)
	for i := 0; i < 25; i++ {
		samples = append(samples, 900) // MilliTorr-scale
	}
	for i := 0; i < 50; i++ {
		samples = append(samples, 1) // Torr-scale, should not dilute the average
	}
	assert.Equal(t, uimf.PressureMilliTorr, InferPressureUnit(samples))
}

func TestRawMS(t *testing.T) {
	assert.Equal(t, 0.0, RawMS(500000, 0))
	assert.InDelta(t, 5.0, RawMS(500000, 10), 1e-9)
}

func TestCompute_DeclaredMilliTorr(t *testing.T) {
	raw, normalized := Compute(500000, 10, PressureSource{Back: 2000}, uimf.PressureMilliTorr, "")
	assert.InDelta(t, 5.0, raw, 1e-9)
	// pressure = 2 Torr, normalized = raw * (4.0/2.0) = raw*2
	assert.InDelta(t, 10.0, normalized, 1e-9)
}

func TestCompute_InfersUnitWhenUndeclared(t *testing.T) {
	raw, normalized := Compute(500000, 10, PressureSource{Back: 2000}, "", uimf.PressureMilliTorr)
	assert.InDelta(t, 5.0, raw, 1e-9)
	assert.InDelta(t, 10.0, normalized, 1e-9)
}

func TestCompute_NoPressureLeavesRawUnchanged(t *testing.T) {
	raw, normalized := Compute(500000, 10, PressureSource{}, uimf.PressureTorr, "")
	assert.Equal(t, raw, normalized)
}
