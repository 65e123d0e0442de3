package bincentric

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"

	"github.com/pnnl-comp-mass-spec/go-uimf/internal/codec"
	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

const defaultPartitionSize = 200

// Build runs the three-phase bin-centric pipeline against db, writing the
// result into db's own Bin_Intensities table (spec.md §4.F): spray every
// non-zero sample into a sidecar partitioned store (37%), index each
// partition (30%), then transpose per bin and write (33%). The sidecar file
// lives in workingDir and is removed on success; a removal failure is
// logged through sink, not fatal.
func Build(db *sqlx.DB, workingDir string, cfg *uimf.Config, sink uimf.Sink) error {
	sink = uimf.OrConsole(sink)

	partitionSize := defaultPartitionSize
	if cfg != nil && cfg.BinCentricPartitionSize > 0 {
		partitionSize = cfg.BinCentricPartitionSize
	}

	sidecarPath := filepath.Join(workingDir, fmt.Sprintf(".uimf-bincentric-%s.db", uuid.New().String()))
	sidecar, err := sql.Open("sqlite3", sidecarPath)
	if err != nil {
		return fmt.Errorf("BINCENTRIC > open sidecar store: %w", err)
	}
	defer func() {
		sidecar.Close()
		if err := os.Remove(sidecarPath); err != nil {
			sink.Error("Cleanup", fmt.Sprintf("remove sidecar %q: %v", sidecarPath, err))
		}
	}()

	if err := sprayPartitions(db, sidecar, partitionSize, sink); err != nil {
		return err
	}
	sink.Progress(37, "spray")

	if err := indexPartitions(sidecar); err != nil {
		return err
	}
	sink.Progress(67, "index")

	if err := transposeBins(db, sidecar); err != nil {
		return err
	}
	sink.Progress(100, "transpose")

	return nil
}

// sprayPartitions walks every Frame_Scans row once, decoding its intensity
// blob and appending each non-zero (bin, frame, scan, intensity) sample to
// the sidecar inside a single transaction. The partition a bin belongs to
// (⌊bin/partitionSize⌋·partitionSize) is recorded alongside it so phase 2
// can index per partition without a separate table per partition.
func sprayPartitions(db *sqlx.DB, sidecar *sql.DB, partitionSize int, sink uimf.Sink) error {
	if _, err := sidecar.Exec(`CREATE TABLE entries (
		partition_base INTEGER NOT NULL,
		bin            INTEGER NOT NULL,
		frame          INTEGER NOT NULL,
		scan           INTEGER NOT NULL,
		intensity      INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("BINCENTRIC > create sidecar table: %w", err)
	}

	tx, err := sidecar.Begin()
	if err != nil {
		return fmt.Errorf("BINCENTRIC > begin sidecar transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO entries (partition_base, bin, frame, scan, intensity) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("BINCENTRIC > prepare sidecar insert: %w", err)
	}
	defer stmt.Close()

	type scanRow struct {
		Frame       int32  `db:"frame_num"`
		Scan        int32  `db:"scan_num"`
		Intensities []byte `db:"intensities"`
	}
	var rows []scanRow
	if err := db.Select(&rows, `SELECT frame_num, scan_num, intensities FROM Frame_Scans ORDER BY frame_num, scan_num`); err != nil {
		tx.Rollback()
		return fmt.Errorf("BINCENTRIC > read frame scans: %w", err)
	}

	for _, r := range rows {
		decodeErr := codec.DecodeInto(r.Intensities, func(bin, val int32) error {
			base := (bin / int32(partitionSize)) * int32(partitionSize)
			_, err := stmt.Exec(base, bin, r.Frame, r.Scan, val)
			return err
		})
		if decodeErr != nil {
			tx.Rollback()
			sink.Error("CorruptScan", fmt.Sprintf("frame=%d scan=%d: %v", r.Frame, r.Scan, decodeErr))
			return fmt.Errorf("BINCENTRIC > spray frame=%d scan=%d: %w", r.Frame, r.Scan, decodeErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("BINCENTRIC > commit sidecar spray: %w", err)
	}
	return nil
}

func indexPartitions(sidecar *sql.DB) error {
	if _, err := sidecar.Exec(`CREATE INDEX idx_entries_partition_bin_frame_scan ON entries (partition_base, bin, frame, scan)`); err != nil {
		return fmt.Errorf("BINCENTRIC > index sidecar: %w", err)
	}
	return nil
}

func transposeBins(db *sqlx.DB, sidecar *sql.DB) error {
	scansPerFrame, err := scanCountOfFrame1(db)
	if err != nil {
		return err
	}

	rows, err := sidecar.Query(`SELECT DISTINCT bin FROM entries ORDER BY bin`)
	if err != nil {
		return fmt.Errorf("BINCENTRIC > list bins: %w", err)
	}
	var bins []int32
	for rows.Next() {
		var b int32
		if err := rows.Scan(&b); err != nil {
			rows.Close()
			return fmt.Errorf("BINCENTRIC > scan bin list: %w", err)
		}
		bins = append(bins, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("BINCENTRIC > list bins: %w", err)
	}

	for _, chunk := range lo.Chunk(bins, 64) {
		if err := transposeChunk(db, sidecar, chunk, scansPerFrame); err != nil {
			return err
		}
	}
	return nil
}

func scanCountOfFrame1(db *sqlx.DB) (int32, error) {
	var raw string
	if err := db.Get(&raw, `SELECT param_value FROM Frame_Params WHERE frame_num = 1 AND param_id = ?`, int32(uimf.ParamScanCount)); err != nil {
		return 0, fmt.Errorf("BINCENTRIC > read frame 1 scan count: %w", err)
	}
	var n int32
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, fmt.Errorf("BINCENTRIC > parse frame 1 scan count: %w", err)
	}
	return n, nil
}

// transposeChunk reads each bin's entries in (frame, scan) order and emits
// the RLZ stream over the linear address frame·scansPerFrame+scan (spec.md
// §4.F phase 3), writing the packed blob into Bin_Intensities.
func transposeChunk(db *sqlx.DB, sidecar *sql.DB, bins []int32, scansPerFrame int32) error {
	for _, bin := range bins {
		rows, err := sidecar.Query(`SELECT frame, scan, intensity FROM entries WHERE bin = ? ORDER BY frame, scan`, bin)
		if err != nil {
			return fmt.Errorf("BINCENTRIC > read bin %d entries: %w", bin, err)
		}

		var words []int32
		previousAddress := int32(0)
		for rows.Next() {
			var frame, scan, intensity int32
			if err := rows.Scan(&frame, &scan, &intensity); err != nil {
				rows.Close()
				return fmt.Errorf("BINCENTRIC > scan bin %d entry: %w", bin, err)
			}
			address := frame*scansPerFrame + scan
			if skip := address - previousAddress - 1; skip > 0 {
				words = append(words, -skip)
			}
			words = append(words, intensity)
			previousAddress = address
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("BINCENTRIC > read bin %d entries: %w", bin, err)
		}
		rows.Close()

		if _, err := db.Exec(
			`INSERT INTO Bin_Intensities (mz_bin, intensities) VALUES (?, ?)
			 ON CONFLICT(mz_bin) DO UPDATE SET intensities = excluded.intensities`,
			bin, packWords(words),
		); err != nil {
			return fmt.Errorf("BINCENTRIC > write bin %d: %w", bin, err)
		}
	}
	return nil
}

func packWords(words []int32) []byte {
	if len(words) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(w))
	}
	return buf
}
