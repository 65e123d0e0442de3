package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: dense intensities [0,0,5,0,0,0,7,0,2] -> RLZ words [-2,5,-3,7,-1,2],
// tic=14, bpi=7, bpi_bin=6, non_zero_count=3.
func TestEncode_S1(t *testing.T) {
	blob, stats, err := Encode([]int32{0, 0, 5, 0, 0, 0, 7, 0, 2})
	require.NoError(t, err)
	assert.NotEmpty(t, blob)
	assert.Equal(t, int64(14), stats.TIC)
	assert.Equal(t, int32(7), stats.BPI)
	assert.Equal(t, int32(6), stats.BPIBin)
	assert.Equal(t, int32(3), stats.NonZeroCount)

	pairs, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{2, 5}, {6, 7}, {8, 2}}, pairs)
}

// S2: an all-zero vector must encode to an empty blob with zeroed stats.
func TestEncode_S2_AllZero(t *testing.T) {
	blob, stats, err := Encode([]int32{0, 0, 0, 0})
	require.NoError(t, err)
	assert.Empty(t, blob)
	assert.Equal(t, int64(0), stats.TIC)
	assert.Equal(t, int32(0), stats.NonZeroCount)
	assert.Equal(t, int32(-1), stats.BPIBin)

	pairs, err := Decode(blob)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestEncode_NegativeIntensityRejected(t *testing.T) {
	_, _, err := Encode([]int32{0, -1, 3})
	require.Error(t, err)
	var invalid *InvalidIntensity
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Bin)
	assert.Equal(t, -1, invalid.Value)
}

// Invariant 3: encode_sparse of the densified pairs with time_offset=1
// matches Encode's own leading-skip convention (previous_bin=-1).
func TestEncodeSparse_MatchesDenseConvention(t *testing.T) {
	dense := []int32{0, 0, 5, 0, 0, 0, 7, 0, 2}
	denseBlob, denseStats, err := Encode(dense)
	require.NoError(t, err)

	pairs := []Pair{{2, 5}, {6, 7}, {8, 2}}
	sparseBlob, sparseStats, err := EncodeSparse(pairs, 1)
	require.NoError(t, err)

	assert.Equal(t, denseBlob, sparseBlob)
	assert.Equal(t, denseStats, sparseStats)
}

func TestEncodeSparse_ZeroTimeOffsetShiftsLeadingSkip(t *testing.T) {
	pairs := []Pair{{2, 5}}
	blob, _, err := EncodeSparse(pairs, 0)
	require.NoError(t, err)

	decoded, err := Decode(blob)
	require.NoError(t, err)
	// With time_offset=0 the cursor starts one bin earlier than the dense
	// convention, so the recovered bin differs by one from the sparse input.
	require.Len(t, decoded, 1)
	assert.Equal(t, int32(1), decoded[0].Bin)
	assert.Equal(t, int32(5), decoded[0].Intensity)
}

func TestEncodeSparse_NonPositiveIntensityRejected(t *testing.T) {
	_, _, err := EncodeSparse([]Pair{{0, 0}}, 1)
	require.Error(t, err)
}

func TestRoundTrip_LongRunsExerciseBackReferences(t *testing.T) {
	n := 5000
	dense := make([]int32, n)
	for i := 0; i < n; i += 7 {
		dense[i] = int32(1 + i%50)
	}

	blob, stats, err := Encode(dense)
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	pairs, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, int(stats.NonZeroCount), len(pairs))

	reconstructed := make([]int32, n)
	for _, p := range pairs {
		reconstructed[p.Bin] = p.Intensity
	}
	assert.Equal(t, dense, reconstructed)
}

func TestDecodeInto_StopsOnCallbackError(t *testing.T) {
	blob, _, err := Encode([]int32{0, 5, 0, 7})
	require.NoError(t, err)

	calls := 0
	sentinel := assertErr("stop")
	err = DecodeInto(blob, func(bin, val int32) error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
