// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

func writeRoundTripFile(t *testing.T) string {
	path := tempUIMFPath(t)
	w, err := OpenWrite(path)
	require.NoError(t, err)

	require.NoError(t, w.InsertGlobalParams(uimf.GlobalParams{
		BinCount:        10,
		BinWidthNS:      1.0,
		TOFCorrectionNS: 0.0,
		InstrumentName:  "test-instrument",
		NumFrames:       1,
		IntensityType:   "Counts",
		Extra:           map[uimf.ParamID]uimf.ParamValue{9999: uimf.TextValue("unrecognized-global")},
	}))
	require.NoError(t, w.InsertFrame(uimf.FrameParams{
		Frame:            1,
		ScanCount:        3,
		CalibrationSlope: 0.5,
		CalibrationInter: 0.0,
		FrameType:        uimf.FrameTypeMS1,
		Extra:            map[uimf.ParamID]uimf.ParamValue{9998: uimf.TextValue("unrecognized-frame")},
	}))
	require.NoError(t, w.InsertScan(1, 0, []int32{0, 0, 5, 0, 0, 0, 7, 0, 2}))
	require.NoError(t, w.InsertScan(1, 1, []int32{0, 0, 0, 0, 0, 0, 0, 0, 0}))
	require.NoError(t, w.Close())
	return path
}

func TestReaderRoundTrip(t *testing.T) {
	path := writeRoundTripFile(t)

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	t.Run("get_tic sums non-zero bins", func(t *testing.T) {
		tic, err := r.GetTIC(uimf.FrameTypeMS1, Range{Low: 1, High: 1}, Range{Low: 0, High: 0})
		require.NoError(t, err)
		assert.Equal(t, 14.0, tic[1])
	})

	t.Run("get_frame_scans reports bpi/bpi_mz and omits the all-zero scan", func(t *testing.T) {
		scans, err := r.GetFrameScans(1)
		require.NoError(t, err)
		require.Len(t, scans, 1, "the all-zero scan at scan=1 must not appear")

		s := scans[0]
		assert.Equal(t, int32(0), s.Scan)
		assert.Equal(t, int32(3), s.NonZeroCount)
		assert.Equal(t, 7.0, s.BPI)
		assert.InDelta(t, 9.0e-6, s.BPIMz, 1e-12)
		assert.Equal(t, 14.0, s.TIC)
	})

	t.Run("get_spectrum uses frame 1's calibration", func(t *testing.T) {
		mzs, intensities, err := r.GetSpectrum(Range{Low: 1, High: 1}, uimf.FrameTypeMS1, Range{Low: 0, High: 1}, nil)
		require.NoError(t, err)
		require.Len(t, mzs, 3)
		assert.InDelta(t, 9.0e-6, mzs[1], 1e-12)

		sum := map[float64]int64{}
		for i, mz := range mzs {
			sum[mz] = intensities[i]
		}
		var total int64
		for _, v := range sum {
			total += v
		}
		assert.Equal(t, int64(14), total)
	})

	t.Run("unrecognized parameters survive under Extra", func(t *testing.T) {
		g, err := r.GetGlobalParams()
		require.NoError(t, err)
		v, ok := g.Extra[9999]
		require.True(t, ok, "unrecognized global parameter must round-trip")
		s, _ := v.Text()
		assert.Equal(t, "unrecognized-global", s)

		fp, err := r.GetFrameParams(1)
		require.NoError(t, err)
		v, ok = fp.Extra[9998]
		require.True(t, ok, "unrecognized frame parameter must round-trip")
		s, _ = v.Text()
		assert.Equal(t, "unrecognized-frame", s)
	})
}

func TestReaderXIC(t *testing.T) {
	path := tempUIMFPath(t)
	w, err := OpenWrite(path)
	require.NoError(t, err)
	require.NoError(t, w.InsertGlobalParams(uimf.GlobalParams{BinCount: 10, BinWidthNS: 1.0, NumFrames: 2}))
	require.NoError(t, w.InsertFrame(uimf.FrameParams{Frame: 1, ScanCount: 4, CalibrationSlope: 1.0, FrameType: uimf.FrameTypeMS1}))
	require.NoError(t, w.InsertFrame(uimf.FrameParams{Frame: 2, ScanCount: 4, CalibrationSlope: 1.0, FrameType: uimf.FrameTypeMS1}))
	require.NoError(t, w.InsertScan(1, 2, []int32{0, 0, 0, 0, 0, 3, 0, 0, 0, 0}))
	require.NoError(t, w.InsertScan(2, 0, []int32{0, 0, 0, 0, 0, 7, 0, 0, 0, 0}))
	require.NoError(t, w.AddBinCentricTables(t.TempDir()))
	require.NoError(t, w.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	cal, err := r.calibrationFor(1)
	require.NoError(t, err)
	targetMZ := cal.BinToMZ(5)

	points, err := r.GetXIC(targetMZ, 1e-9, TolMZ, nil, nil, uimf.FrameTypeMS1)
	require.NoError(t, err)
	require.Len(t, points, 2)

	byFrame := map[int32]XICPoint{}
	for _, p := range points {
		byFrame[p.FrameIndex] = p
	}
	require.Contains(t, byFrame, int32(0))
	require.Contains(t, byFrame, int32(1))
	assert.Equal(t, int32(2), byFrame[0].Scan)
	assert.Equal(t, int64(3), byFrame[0].Intensity)
	assert.Equal(t, int32(0), byFrame[1].Scan)
	assert.Equal(t, int64(7), byFrame[1].Intensity)
}

func TestReaderGetXICWithoutBinCentricTables(t *testing.T) {
	// A legacy-schema file never gets the current schema's migrations run
	// against it, so it has no Bin_Intensities table at all.
	path := createLegacyFile(t, []int32{1, 1})
	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.GetXIC(100.0, 0.1, TolMZ, nil, nil, uimf.FrameTypeMS1)
	require.Error(t, err)
	var missing *BinCentricMissing
	assert.ErrorAs(t, err, &missing)
}

func TestReaderGetXICBeforeAddBinCentricTables(t *testing.T) {
	path := tempUIMFPath(t)
	w, err := OpenWrite(path)
	require.NoError(t, err)
	require.NoError(t, w.InsertGlobalParams(uimf.GlobalParams{BinCount: 10, BinWidthNS: 1.0, NumFrames: 1}))
	require.NoError(t, w.InsertFrame(uimf.FrameParams{Frame: 1, ScanCount: 4, CalibrationSlope: 1.0, FrameType: uimf.FrameTypeMS1}))
	require.NoError(t, w.InsertScan(1, 0, []int32{0, 0, 0, 0, 0, 3, 0, 0, 0, 0}))
	require.NoError(t, w.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.GetXIC(100.0, 0.1, TolMZ, nil, nil, uimf.FrameTypeMS1)
	require.Error(t, err, "a current-schema file that never ran AddBinCentricTables has an empty Bin_Intensities table, not a missing one")
	var missing *BinCentricMissing
	assert.ErrorAs(t, err, &missing)
}

func TestReaderFrameOutOfRange(t *testing.T) {
	path := writeRoundTripFile(t)

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.GetFrameParams(2)
	require.Error(t, err)
	var outOfRange *FrameOutOfRange
	require.ErrorAs(t, err, &outOfRange)
	assert.Equal(t, int32(2), outOfRange.Frame)
	assert.Equal(t, int32(1), outOfRange.NumFrames)

	_, err = r.GetFrameScans(0)
	require.Error(t, err)
	require.ErrorAs(t, err, &outOfRange)

	_, _, err = r.GetSpectrum(Range{Low: 1, High: 2}, uimf.FrameTypeMS1, Range{Low: 0, High: 1}, nil)
	require.Error(t, err)
	require.ErrorAs(t, err, &outOfRange)
}

func TestReaderGetScanNotFound(t *testing.T) {
	path := writeRoundTripFile(t)

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.GetScan(1, 0)
	require.NoError(t, err, "scan=0 was inserted with non-zero bins")

	_, err = r.GetScan(1, 1)
	require.Error(t, err, "scan=1 was all-zero and dropped at insert time")
	var notFound *ScanNotFound
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, int32(1), notFound.Frame)
	assert.Equal(t, int32(1), notFound.Scan)
}

func createLegacyFile(t *testing.T, frameTypes []int32) string {
	path := tempUIMFPath(t)
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE Global_Parameters (Bins INTEGER, BinWidth REAL, NumFrames INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO Global_Parameters (Bins, BinWidth, NumFrames) VALUES (?, ?, ?)`, 10, 1.0, len(frameTypes))
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE Frame_Parameters (
		FrameNum INTEGER PRIMARY KEY,
		FrameType INTEGER,
		Scans INTEGER,
		CalibrationSlope REAL,
		CalibrationIntercept REAL
	)`)
	require.NoError(t, err)
	for i, ft := range frameTypes {
		_, err = db.Exec(`INSERT INTO Frame_Parameters (FrameNum, FrameType, Scans, CalibrationSlope, CalibrationIntercept) VALUES (?, ?, ?, ?, ?)`,
			i+1, ft, 4, 0.5, 0.0)
		require.NoError(t, err)
	}
	return path
}

func TestReaderLegacyFrameTypeConvention(t *testing.T) {
	path := createLegacyFile(t, []int32{0, 0, 0})

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	fp, err := r.GetFrameParams(1)
	require.NoError(t, err)
	assert.Equal(t, uimf.FrameTypeMS1, fp.FrameType, "a legacy file using 0 for MS1 must resolve through that convention")
}

func TestReaderLegacyInconsistentFrameTypes(t *testing.T) {
	path := createLegacyFile(t, []int32{0, 1, 0})

	_, err := OpenRead(path)
	require.Error(t, err)
	var inconsistent *InconsistentFrameTypes
	assert.ErrorAs(t, err, &inconsistent)
}
