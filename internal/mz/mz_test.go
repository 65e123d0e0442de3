package mz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S3: slope=0.5, intercept=0, tof_corr=0, bin_width=1.0, bpi_bin=6
// -> bpi_mz = (0.5*(6*1.0/1000 - 0))^2 = 9.0e-6.
func TestBinToMZ_S3(t *testing.T) {
	cal := Calibration{Slope: 0.5, BinWidthNS: 1.0}
	got := cal.BinToMZ(6)
	assert.InDelta(t, 9.0e-6, got, 1e-12)
}

func TestBinToMZ_WithResidualAndCorrection(t *testing.T) {
	cal := Calibration{
		Slope:           0.8,
		Intercept:       0.05,
		BinWidthNS:      2.0,
		TOFCorrectionNS: 10,
		A2:              0.001,
	}
	bin := int32(100)
	tExpected := float64(bin) * cal.BinWidthNS / 1000.0
	baseExpected := cal.Slope * (tExpected - cal.TOFCorrectionNS/1000.0 - cal.Intercept)
	wantMZ := baseExpected*baseExpected + cal.A2*tExpected

	assert.InDelta(t, wantMZ, cal.BinToMZ(bin), 1e-9)
}

func TestValidate_RejectsNonPositiveSlope(t *testing.T) {
	require.ErrorIs(t, Calibration{Slope: 0}.Validate(), ErrNonPositiveSlope)
	require.ErrorIs(t, Calibration{Slope: -1}.Validate(), ErrNonPositiveSlope)
	require.NoError(t, Calibration{Slope: 0.1}.Validate())
}

func TestMZToBin_IsApproximateInverse(t *testing.T) {
	cal := Calibration{Slope: 0.5, BinWidthNS: 1.0}
	for _, bin := range []int32{0, 6, 50, 999} {
		target := cal.BinToMZ(bin)
		got := cal.MZToBin(target, 2000)
		assert.InDelta(t, float64(bin), float64(got), 2)
	}
}
