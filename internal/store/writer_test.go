// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

func tempUIMFPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "test.uimf")
}

func openTestWriter(t *testing.T) *Writer {
	w, err := OpenWrite(tempUIMFPath(t))
	require.NoError(t, err, "OpenWrite should succeed")
	t.Cleanup(func() { w.Close() })
	return w
}

func TestWriterGlobalAndFrameRoundTrip(t *testing.T) {
	w := openTestWriter(t)

	t.Run("insert global params", func(t *testing.T) {
		err := w.InsertGlobalParams(uimf.GlobalParams{
			BinCount:        10,
			BinWidthNS:      1.0,
			TOFCorrectionNS: 0.0,
			InstrumentName:  "test-instrument",
			NumFrames:       1,
			IntensityType:   "Counts",
		})
		require.NoError(t, err, "InsertGlobalParams should succeed")
	})

	t.Run("insert frame params", func(t *testing.T) {
		err := w.InsertFrame(uimf.FrameParams{
			Frame:            1,
			ScanCount:        3,
			CalibrationSlope: 0.5,
			CalibrationInter: 0.0,
			FrameType:        uimf.FrameTypeMS1,
		})
		require.NoError(t, err, "InsertFrame should succeed")
	})

	t.Run("insert scan computes tic/bpi/bpi_mz", func(t *testing.T) {
		err := w.InsertScan(1, 0, []int32{0, 0, 5, 0, 0, 0, 7, 0, 2})
		require.NoError(t, err, "InsertScan should succeed")

		var row struct {
			NonZeroCount int32   `db:"non_zero_count"`
			BPI          float64 `db:"bpi"`
			TIC          float64 `db:"tic"`
			BPIMz        float64 `db:"bpi_mz"`
		}
		require.NoError(t, w.tx.Tx().Get(&row, `SELECT non_zero_count, bpi, tic, bpi_mz FROM Frame_Scans WHERE frame_num = 1 AND scan_num = 0`))
		assert.Equal(t, int32(3), row.NonZeroCount)
		assert.Equal(t, 7.0, row.BPI)
		assert.Equal(t, 14.0, row.TIC)
		assert.InDelta(t, 9.0e-6, row.BPIMz, 1e-12, "bin 6 at slope=0.5, bin_width=1ns")
	})
}

func TestWriterInsertScanSkipsAllZero(t *testing.T) {
	w := openTestWriter(t)
	require.NoError(t, w.InsertGlobalParams(uimf.GlobalParams{BinCount: 4, BinWidthNS: 1.0}))
	require.NoError(t, w.InsertFrame(uimf.FrameParams{Frame: 1, ScanCount: 1, CalibrationSlope: 1.0}))

	err := w.InsertScan(1, 0, []int32{0, 0, 0, 0})
	require.NoError(t, err, "an all-zero scan is silently dropped, not an error")

	var count int
	require.NoError(t, w.tx.Tx().Get(&count, `SELECT COUNT(*) FROM Frame_Scans WHERE frame_num = 1 AND scan_num = 0`))
	assert.Equal(t, 0, count, "all-zero scan must not produce a Frame_Scans row")
}

func TestWriterDeleteFrame(t *testing.T) {
	w := openTestWriter(t)
	require.NoError(t, w.InsertGlobalParams(uimf.GlobalParams{BinCount: 4, BinWidthNS: 1.0, NumFrames: 2}))
	require.NoError(t, w.InsertFrame(uimf.FrameParams{Frame: 1, ScanCount: 1, CalibrationSlope: 1.0}))
	require.NoError(t, w.InsertScan(1, 0, []int32{0, 3, 0, 0}))

	require.NoError(t, w.DeleteFrame(1, true))

	var scanCount, paramCount int
	require.NoError(t, w.tx.Tx().Get(&scanCount, `SELECT COUNT(*) FROM Frame_Scans WHERE frame_num = 1`))
	require.NoError(t, w.tx.Tx().Get(&paramCount, `SELECT COUNT(*) FROM Frame_Params WHERE frame_num = 1`))
	assert.Equal(t, 0, scanCount)
	assert.Equal(t, 0, paramCount)

	v, ok, err := w.params.GetGlobal(uimf.ParamNumFrames, uimf.TypeInt32)
	require.NoError(t, err)
	require.True(t, ok)
	n, _ := v.Int32()
	assert.Equal(t, int32(1), n, "NumFrames should be decremented")
}

func TestWriterUpdateCalibrationRecomputesBPIMz(t *testing.T) {
	w := openTestWriter(t)
	require.NoError(t, w.InsertGlobalParams(uimf.GlobalParams{BinCount: 10, BinWidthNS: 1.0}))
	require.NoError(t, w.InsertFrame(uimf.FrameParams{Frame: 1, ScanCount: 1, CalibrationSlope: 0.5}))
	require.NoError(t, w.InsertScan(1, 0, []int32{0, 0, 5, 0, 0, 0, 7, 0, 2}))

	require.NoError(t, w.UpdateCalibration(1, 1.0, 0.0))

	var bpiMZ float64
	require.NoError(t, w.tx.Tx().Get(&bpiMZ, `SELECT bpi_mz FROM Frame_Scans WHERE frame_num = 1 AND scan_num = 0`))

	t6 := 6.0 * 1.0 / 1000.0
	want := (1.0 * t6) * (1.0 * t6)
	assert.InDelta(t, want, bpiMZ, 1e-12, "bpi_mz should reflect the new slope")
}

func TestWriterFlushThenContinueWriting(t *testing.T) {
	w := openTestWriter(t)
	require.NoError(t, w.InsertGlobalParams(uimf.GlobalParams{BinCount: 4, BinWidthNS: 1.0, NumFrames: 2}))
	require.NoError(t, w.InsertFrame(uimf.FrameParams{Frame: 1, ScanCount: 1, CalibrationSlope: 1.0}))
	require.NoError(t, w.InsertScan(1, 0, []int32{0, 9, 0, 0}))

	require.NoError(t, w.Flush(), "flush should commit and rebegin without leaving params stale")

	require.NoError(t, w.InsertFrame(uimf.FrameParams{Frame: 2, ScanCount: 1, CalibrationSlope: 1.0}))
	require.NoError(t, w.InsertScan(2, 0, []int32{0, 0, 4, 0}))
	require.NoError(t, w.DeleteFrame(1, true))

	var frame2Count int
	require.NoError(t, w.tx.Tx().Get(&frame2Count, `SELECT COUNT(*) FROM Frame_Scans WHERE frame_num = 2`))
	assert.Equal(t, 1, frame2Count, "writes issued after a flush must land in the new transaction")

	v, ok, err := w.params.GetGlobal(uimf.ParamNumFrames, uimf.TypeInt32)
	require.NoError(t, err)
	require.True(t, ok)
	n, _ := v.Int32()
	assert.Equal(t, int32(1), n, "param writes after a flush must use the rebound ParamStore")
}

func TestWriterScanIdempotentAcrossReopen(t *testing.T) {
	path := tempUIMFPath(t)

	w, err := OpenWrite(path)
	require.NoError(t, err)
	require.NoError(t, w.InsertGlobalParams(uimf.GlobalParams{BinCount: 4, BinWidthNS: 1.0, NumFrames: 1}))
	require.NoError(t, w.InsertFrame(uimf.FrameParams{Frame: 1, ScanCount: 1, CalibrationSlope: 1.0}))
	require.NoError(t, w.InsertScan(1, 0, []int32{0, 9, 0, 0}))
	require.NoError(t, w.Close())

	w2, err := OpenWrite(path)
	require.NoError(t, err)
	defer w2.Close()

	var tic float64
	require.NoError(t, w2.tx.Tx().Get(&tic, `SELECT tic FROM Frame_Scans WHERE frame_num = 1 AND scan_num = 0`))
	assert.Equal(t, 9.0, tic, "scan data must survive a close/reopen cycle")
}
