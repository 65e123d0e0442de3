package store

import "fmt"

// StorageFault wraps any underlying SQL I/O, schema, or transaction error
// (spec.md §7). It is never retried by the library.
type StorageFault struct {
	Context string
	Err     error
}

func (e *StorageFault) Error() string {
	return fmt.Sprintf("STORE/FAULT > %s: %v", e.Context, e.Err)
}

func (e *StorageFault) Unwrap() error { return e.Err }

func storageFault(context string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageFault{Context: context, Err: err}
}

// CorruptScan is returned by QueryFrameScans for a Frame_Scans row whose
// scan_num is negative (spec.md §4.E, §7). An intensity BLOB that fails to
// decompress is not returned as this error: the reader reports it to its
// sink under the "CorruptScan" kind, once per failing scan, skips that scan
// and continues. Decoded bin indices are not checked against the file's
// bin count.
type CorruptScan struct {
	Frame int32
	Scan  int32
	Err   error
}

func (e *CorruptScan) Error() string {
	return fmt.Sprintf("STORE/SCAN > corrupt scan frame=%d scan=%d: %v", e.Frame, e.Scan, e.Err)
}

func (e *CorruptScan) Unwrap() error { return e.Err }

// FrameOutOfRange is raised when a query references a frame outside
// [1, num_frames].
type FrameOutOfRange struct {
	Frame     int32
	NumFrames int32
}

func (e *FrameOutOfRange) Error() string {
	return fmt.Sprintf("STORE/FRAME > frame %d out of range [1,%d]", e.Frame, e.NumFrames)
}

// ScanNotFound is raised when a (frame, scan) pair has no row.
type ScanNotFound struct {
	Frame int32
	Scan  int32
}

func (e *ScanNotFound) Error() string {
	return fmt.Sprintf("STORE/SCAN > scan not found frame=%d scan=%d", e.Frame, e.Scan)
}

// InconsistentFrameTypes is raised when a legacy file's FrameType column
// mixes the 0 and 1 MS1 conventions (spec.md §4.C, §8 S4).
type InconsistentFrameTypes struct{}

func (e *InconsistentFrameTypes) Error() string {
	return "STORE/SCHEMA > inconsistent frame_type values: both 0 and 1 present"
}

// BinCentricMissing is raised when GetXIC is called on a file that has no
// Bin_Intensities table, or one with no rows (spec.md §4.E, §7).
type BinCentricMissing struct{}

func (e *BinCentricMissing) Error() string {
	return "STORE/XIC > bin-centric tables are not present; run AddBinCentricTables first"
}

// UnknownParameter is a recoverable condition: the id is preserved on
// rewrite but kept out of the typed view.
type UnknownParameter struct {
	ID   int32
	Name string
}

func (e *UnknownParameter) Error() string {
	return fmt.Sprintf("STORE/PARAM > unknown parameter id=%d name=%q", e.ID, e.Name)
}
