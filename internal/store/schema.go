package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pnnl-comp-mass-spec/go-uimf/internal/legacy"
)

// TablesPresent reports, for each requested name, whether a table by that
// name exists in the sqlite_master catalog.
func TablesPresent(db *sqlx.DB, names ...string) (map[string]bool, error) {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		var count int
		if err := db.Get(&count, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, n); err != nil {
			return nil, storageFault("check table "+n, err)
		}
		present[n] = count > 0
	}
	return present, nil
}

// BinCentricPopulated reports whether Bin_Intensities exists and has at
// least one row. Migration 0002_bin_centric creates the table eagerly
// (spec.md §4.C), so presence alone doesn't tell apart a file that never
// ran AddBinCentricTables from one that did.
func BinCentricPopulated(db *sqlx.DB) (bool, error) {
	present, err := TablesPresent(db, "Bin_Intensities")
	if err != nil {
		return false, err
	}
	if !present["Bin_Intensities"] {
		return false, nil
	}
	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM Bin_Intensities`); err != nil {
		return false, storageFault("count bin_intensities", err)
	}
	return count > 0, nil
}

// ColumnsOf returns the set of column names table actually has. Used to
// tolerate legacy files missing columns introduced by later acquisition
// software revisions (spec.md §9 "legacy column coverage").
func ColumnsOf(db *sqlx.DB, table string) (map[string]bool, error) {
	rows, err := db.Queryx(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, storageFault("introspect "+table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return nil, storageFault("scan table_info "+table, err)
		}
		// PRAGMA table_info columns: cid, name, type, notnull, dflt_value, pk
		name, ok := row[1].(string)
		if !ok {
			if b, ok := row[1].([]byte); ok {
				name = string(b)
			}
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// HasLegacyTables reports whether the wide legacy Frame_Parameters /
// Global_Parameters tables are present.
func HasLegacyTables(db *sqlx.DB) (frameLegacy, globalLegacy bool, err error) {
	present, err := TablesPresent(db, "Frame_Parameters", "Global_Parameters")
	if err != nil {
		return false, false, err
	}
	return present["Frame_Parameters"], present["Global_Parameters"], nil
}

// HasCurrentTables reports whether the key/value Frame_Params / Global_Params
// tables are present.
func HasCurrentTables(db *sqlx.DB) (framesCurrent, globalCurrent bool, err error) {
	present, err := TablesPresent(db, "Frame_Params", "Global_Params")
	if err != nil {
		return false, false, err
	}
	return present["Frame_Params"], present["Global_Params"], nil
}

// DetectFrameTypeConvention scans the distinct FrameType values recorded for
// a file — from Frame_Params if present, else from the legacy
// Frame_Parameters.FrameType column — and decides whether 0 means MS1 in
// this file (spec.md §4.C, §8 S4).
func DetectFrameTypeConvention(db *sqlx.DB, frameTypeParamID int32) (zeroMeansMS1 bool, err error) {
	framesCurrent, _, err := HasCurrentTables(db)
	if err != nil {
		return false, err
	}

	var distinct []int32
	if framesCurrent {
		var rawValues []string
		if err := db.Select(&rawValues, `SELECT DISTINCT param_value FROM Frame_Params WHERE param_id = ?`, frameTypeParamID); err != nil {
			return false, storageFault("read frame_type values", err)
		}
		for _, raw := range rawValues {
			var v int32
			if _, serr := fmt.Sscanf(raw, "%d", &v); serr == nil {
				distinct = append(distinct, v)
			}
		}
	} else {
		if err := db.Select(&distinct, `SELECT DISTINCT FrameType FROM Frame_Parameters`); err != nil {
			return false, storageFault("read legacy frame_type values", err)
		}
	}

	zeroMeansMS1, convErr := legacy.DetermineFrameTypeConvention(distinct)
	if convErr != nil {
		return false, &InconsistentFrameTypes{}
	}
	return zeroMeansMS1, nil
}
