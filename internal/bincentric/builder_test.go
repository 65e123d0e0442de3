package bincentric

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pnnl-comp-mass-spec/go-uimf/internal/codec"
	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

// openMinimalDB builds just enough of the current schema for Build to work
// against: Frame_Params (for frame 1's scan count) and Frame_Scans.
func openMinimalDB(t *testing.T) *sqlx.DB {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.MustExec(`CREATE TABLE Frame_Params (
		frame_num INTEGER NOT NULL,
		param_id INTEGER NOT NULL,
		param_value TEXT
	)`)
	db.MustExec(`CREATE TABLE Frame_Scans (
		frame_num INTEGER NOT NULL,
		scan_num INTEGER NOT NULL,
		non_zero_count INTEGER NOT NULL,
		bpi REAL NOT NULL,
		bpi_mz REAL NOT NULL,
		tic REAL NOT NULL,
		intensities BLOB
	)`)
	db.MustExec(`CREATE TABLE Bin_Intensities (
		mz_bin INTEGER NOT NULL,
		intensities BLOB
	)`)
	db.MustExec(`CREATE UNIQUE INDEX idx_bin_intensities_mz_bin ON Bin_Intensities (mz_bin)`)
	return db
}

func insertScan(t *testing.T, db *sqlx.DB, frame, scan int32, intensities []int32) {
	blob, stats, err := codec.Encode(intensities)
	require.NoError(t, err)
	db.MustExec(`INSERT INTO Frame_Scans (frame_num, scan_num, non_zero_count, bpi, bpi_mz, tic, intensities) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		frame, scan, stats.NonZeroCount, float64(stats.BPI), 0.0, float64(stats.TIC), blob)
}

// TestBuildAndDecodeBinCentric reproduces the walkthrough: 2 frames of 4
// scans over 10 bins, with frame 1 scan 2 and frame 2 scan 0 both non-zero
// at bin 5 (values 3 and 7). The bin-5 BLOB must decode to addresses
// 1*4+2=6 and 2*4+0=8.
func TestBuildAndDecodeBinCentric(t *testing.T) {
	db := openMinimalDB(t)
	db.MustExec(`INSERT INTO Frame_Params (frame_num, param_id, param_value) VALUES (1, ?, '4')`, int32(uimf.ParamScanCount))

	for scan := int32(0); scan < 4; scan++ {
		intensities := make([]int32, 10)
		if scan == 2 {
			intensities[5] = 3
		}
		insertScan(t, db, 1, scan, intensities)
	}
	for scan := int32(0); scan < 4; scan++ {
		intensities := make([]int32, 10)
		if scan == 0 {
			intensities[5] = 7
		}
		insertScan(t, db, 2, scan, intensities)
	}

	require.NoError(t, Build(db, t.TempDir(), uimf.DefaultConfig(), nil))

	var blob []byte
	require.NoError(t, db.Get(&blob, `SELECT intensities FROM Bin_Intensities WHERE mz_bin = 5`))

	pairs, err := Decode(blob)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, Pair{Address: 6, Intensity: 3}, pairs[0])
	assert.Equal(t, Pair{Address: 8, Intensity: 7}, pairs[1])
}

func TestDecodeEmptyBlob(t *testing.T) {
	pairs, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestDecodeTruncatedBlob(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}
