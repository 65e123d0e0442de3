// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/log"
)

// Range is an inclusive [Low, High] bound used throughout the reader's
// range-based queries (spec.md §4.E).
type Range struct {
	Low, High int32
}

// FrameScanRow is what QueryFrameScans returns per Frame_Scans row.
type FrameScanRow struct {
	Frame        int32   `db:"frame_num"`
	Scan         int32   `db:"scan_num"`
	NonZeroCount int32   `db:"non_zero_count"`
	BPI          float64 `db:"bpi"`
	BPIMz        float64 `db:"bpi_mz"`
	TIC          float64 `db:"tic"`
	Intensities  []byte  `db:"intensities"`
}

// QueryFrameScans returns every Frame_Scans row for the given frame numbers,
// optionally narrowed to a scan range, ordered by (frame, scan).
func QueryFrameScans(db *sqlx.DB, frames []int32, scanRange *Range) ([]FrameScanRow, error) {
	if len(frames) == 0 {
		return nil, nil
	}

	query := sq.Select(
		"frame_num", "scan_num", "non_zero_count", "bpi", "bpi_mz", "tic", "intensities",
	).From("Frame_Scans").Where(sq.Eq{"frame_num": frames})

	if scanRange != nil {
		query = query.Where(sq.Expr("scan_num BETWEEN ? AND ?", scanRange.Low, scanRange.High))
	}
	query = query.OrderBy("frame_num ASC", "scan_num ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("STORE/QUERY > build frame-scan query: %w", err)
	}
	log.Debugf("STORE/QUERY > %s %v", sqlStr, args)

	var rows []FrameScanRow
	if err := db.Select(&rows, sqlStr, args...); err != nil {
		return nil, storageFault("query frame scans", err)
	}
	for _, row := range rows {
		if row.Scan < 0 {
			return nil, &CorruptScan{Frame: row.Frame, Scan: row.Scan, Err: fmt.Errorf("negative scan_num")}
		}
	}
	return rows, nil
}

// FramesOfType resolves frameRange into the frame numbers whose FrameType
// parameter matches one of rawFrameTypeValues (the 0/1 convention is
// resolved by the caller before this is invoked).
func FramesOfType(db *sqlx.DB, frameRange Range, frameTypeParamID int32, rawFrameTypeValues []string) ([]int32, error) {
	query := sq.Select("frame_num").From("Frame_Params").
		Where(sq.Expr("frame_num BETWEEN ? AND ?", frameRange.Low, frameRange.High)).
		Where(sq.Eq{"param_id": frameTypeParamID}).
		Where(sq.Eq{"param_value": rawFrameTypeValues}).
		OrderBy("frame_num ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("STORE/QUERY > build frame-type filter: %w", err)
	}
	log.Debugf("STORE/QUERY > %s %v", sqlStr, args)

	var frames []int32
	if err := db.Select(&frames, sqlStr, args...); err != nil {
		return nil, storageFault("query frames of type", err)
	}
	return frames, nil
}

// BinRow is one Bin_Intensities row.
type BinRow struct {
	Bin         int32  `db:"mz_bin"`
	Intensities []byte `db:"intensities"`
}

// QueryBins returns the Bin_Intensities rows within binRange, ordered by bin.
func QueryBins(db *sqlx.DB, binRange Range) ([]BinRow, error) {
	query := sq.Select("mz_bin", "intensities").From("Bin_Intensities").
		Where(sq.Expr("mz_bin BETWEEN ? AND ?", binRange.Low, binRange.High)).
		OrderBy("mz_bin ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("STORE/QUERY > build bin query: %w", err)
	}

	var rows []BinRow
	if err := db.Select(&rows, sqlStr, args...); err != nil {
		return nil, storageFault("query bins", err)
	}
	return rows, nil
}
