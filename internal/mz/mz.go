// Package mz implements the bin↔m/z calibration identity a UIMF frame's
// calibration slope/intercept and mass-error polynomial define (spec.md
// §4.D, §4.E, invariant 7).
package mz

import (
	"errors"
	"math"
)

// ErrNonPositiveSlope is returned when a frame's calibration slope is not
// strictly positive, which spec.md §3 requires for bin↔m/z to be defined.
var ErrNonPositiveSlope = errors.New("mz: calibration slope must be strictly positive")

// Calibration bundles the per-frame calibration coefficients and the
// global bin width / TOF correction time needed to convert a bin index to
// m/z.
type Calibration struct {
	Slope           float64
	Intercept       float64
	BinWidthNS      float64
	TOFCorrectionNS float64
	A2, B2, C2, D2, E2, F2 float64
}

// Validate checks the one invariant the conversion formula depends on.
func (c Calibration) Validate() error {
	if c.Slope <= 0 {
		return ErrNonPositiveSlope
	}
	return nil
}

// BinToMZ converts a bin index to m/z using
// mz = (slope·(t − tof_corr/1000 − intercept))² + residual(t), t = bin·bin_width/1000.
func (c Calibration) BinToMZ(bin int32) float64 {
	t := float64(bin) * c.BinWidthNS / 1000.0
	base := c.Slope * (t - c.TOFCorrectionNS/1000.0 - c.Intercept)
	return base*base + c.residual(t)
}

func (c Calibration) residual(t float64) float64 {
	return c.A2*t +
		c.B2*math.Pow(t, 3) +
		c.C2*math.Pow(t, 5) +
		c.D2*math.Pow(t, 7) +
		c.E2*math.Pow(t, 9) +
		c.F2*math.Pow(t, 11)
}

// MZToBin finds the smallest bin in [0, maxBin] whose m/z is >= targetMZ,
// by bisection over BinToMZ. The bisection assumes BinToMZ increases over
// [0, maxBin]; Validate only checks the slope sign, so a positive
// intercept or a residual polynomial can break that. Used by the reader to translate an mz_range query into a
// bin_range before scanning intensities.
func (c Calibration) MZToBin(targetMZ float64, maxBin int32) int32 {
	lo, hi := int32(0), maxBin
	for lo < hi {
		mid := lo + (hi-lo)/2
		if c.BinToMZ(mid) < targetMZ {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
