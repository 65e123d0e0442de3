package legacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

// S4 (all-zero convention): frames 1..3 carry FrameType=0 and no
// Frame_Params table; get_frame_params(1).frame_type must resolve to MS1.
func TestDetermineFrameTypeConvention_AllZero(t *testing.T) {
	zeroMeansMS1, err := DetermineFrameTypeConvention([]int32{0, 0, 0})
	require.NoError(t, err)
	assert.True(t, zeroMeansMS1)
}

func TestDetermineFrameTypeConvention_AllOne(t *testing.T) {
	zeroMeansMS1, err := DetermineFrameTypeConvention([]int32{1, 1})
	require.NoError(t, err)
	assert.False(t, zeroMeansMS1)
}

// S4 (mixed convention): some rows at 0 and some at 1 fails on open.
func TestDetermineFrameTypeConvention_Mixed(t *testing.T) {
	_, err := DetermineFrameTypeConvention([]int32{0, 1, 0})
	require.ErrorIs(t, err, ErrInconsistentFrameTypes)
}

func TestLookupColumn(t *testing.T) {
	id, ok := LookupColumn(FrameParameterColumns, "CalibrationSlope")
	require.True(t, ok)
	assert.Equal(t, uimf.ParamCalibrationSlope, id)

	_, ok = LookupColumn(FrameParameterColumns, "DoesNotExist")
	assert.False(t, ok)
}

func TestPresentColumns_OmitsMissing(t *testing.T) {
	actual := map[string]bool{
		"StartTime": true,
		"FrameType": true,
	}
	present := PresentColumns(FrameParameterColumns, actual)
	require.Len(t, present, 2)
	assert.Equal(t, "StartTime", present[0].Column)
	assert.Equal(t, "FrameType", present[1].Column)
}

func TestCorrectStartTimeMinutes_PlausibleDateLeavesRawAlone(t *testing.T) {
	got := CorrectStartTimeMinutes(718000, "2011-05-12 08:00:00")
	assert.Equal(t, 718000.0, got)
}

func TestCorrectStartTimeMinutes_CorruptDateConvertsTicks(t *testing.T) {
	// 0001-01-01-ish DateStarted signals StartTime actually holds ticks.
	ticks := 430920000000000.0 // ~718,200 minutes worth of ticks
	got := CorrectStartTimeMinutes(ticks, "0001-01-01 00:00:00")
	assert.InDelta(t, ticks/ticksPerMinute, got, 1e-9)
}

func TestCorrectStartTimeMinutes_UnparseableDateLeavesRawAlone(t *testing.T) {
	got := CorrectStartTimeMinutes(1234.5, "not-a-date")
	assert.Equal(t, 1234.5, got)
}
