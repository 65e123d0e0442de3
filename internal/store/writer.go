// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"fmt"
	"time"

	"github.com/pnnl-comp-mass-spec/go-uimf/internal/bincentric"
	"github.com/pnnl-comp-mass-spec/go-uimf/internal/codec"
	"github.com/pnnl-comp-mass-spec/go-uimf/internal/mz"
	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/log"
	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

// Writer is the open write-session handle for one UIMF file (spec.md §4.D
// state machine: Open -> (Begin -> inserts -> Commit)* -> Close). All
// writes happen inside one outer transaction; Flush commits it and starts a
// new one, bounding how much work a crash between flushes loses.
type Writer struct {
	conn   *Connection
	tx     *Transaction
	params *ParamStore
	cfg    *uimf.Config
	sink   uimf.Sink

	globalBinWidthNS float64
	globalTOFCorrNS  float64
	calibrations     map[int32]mz.Calibration
}

type writerOptions struct {
	config                 *uimf.Config
	sink                   uimf.Sink
	callingAssemblyName    string
	callingAssemblyVersion string
}

// WriterOption configures OpenWrite.
type WriterOption func(*writerOptions)

func WithWriterConfig(cfg *uimf.Config) WriterOption {
	return func(o *writerOptions) { o.config = cfg }
}

func WithWriterSink(sink uimf.Sink) WriterOption {
	return func(o *writerOptions) { o.sink = sink }
}

// WithCallingAssembly names the writer in the Version_Info row each open
// appends (spec.md §4.C).
func WithCallingAssembly(name, version string) WriterOption {
	return func(o *writerOptions) { o.callingAssemblyName, o.callingAssemblyVersion = name, version }
}

// OpenWrite opens or creates path, ensures the current schema, begins the
// outer transaction and appends a Version_Info row.
func OpenWrite(path string, opts ...WriterOption) (*Writer, error) {
	o := &writerOptions{callingAssemblyName: "go-uimf", callingAssemblyVersion: "dev"}
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.config
	if cfg == nil {
		cfg = uimf.GetConfig()
	}

	conn, err := Open(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(conn.DB.DB); err != nil {
		conn.Close()
		return nil, err
	}

	tx, err := BeginTransaction(conn.DB)
	if err != nil {
		conn.Close()
		return nil, err
	}

	w := &Writer{
		conn:         conn,
		tx:           tx,
		params:       NewParamStore(tx.Tx()),
		cfg:          cfg,
		sink:         uimf.OrConsole(o.sink),
		calibrations: make(map[int32]mz.Calibration),
	}

	if err := w.writeVersionInfo(o.callingAssemblyName, o.callingAssemblyVersion); err != nil {
		tx.Rollback()
		conn.Close()
		return nil, err
	}

	w.loadGlobals()
	log.Debugf("STORE/WRITER > opened %q for writing", path)
	return w, nil
}

func (w *Writer) writeVersionInfo(assemblyName, assemblyVersion string) error {
	return w.tx.Exec(
		`INSERT INTO Version_Info (file_version, calling_assembly_name, calling_assembly_version, entered) VALUES (?, ?, ?, ?)`,
		fmt.Sprintf("%d", supportedVersion), assemblyName, assemblyVersion, time.Now().UTC().Format(time.RFC3339),
	)
}

func (w *Writer) loadGlobals() {
	if v, ok, _ := w.params.GetGlobal(uimf.ParamBinWidth, uimf.TypeFloat); ok {
		w.globalBinWidthNS, _ = v.Float64()
	}
	if v, ok, _ := w.params.GetGlobal(uimf.ParamTOFCorrectionTime, uimf.TypeFloat); ok {
		w.globalTOFCorrNS, _ = v.Float64()
	}
}

// InsertGlobalParams upserts every known GlobalParams field plus any Extra
// parameters, and refreshes the cached bin width / TOF correction time used
// to compute BPI_MZ on subsequent scan inserts.
func (w *Writer) InsertGlobalParams(params uimf.GlobalParams) error {
	values := []struct {
		id uimf.ParamID
		v  uimf.ParamValue
	}{
		{uimf.ParamBinCount, uimf.Int32Value(params.BinCount)},
		{uimf.ParamBinWidth, uimf.FloatValue(params.BinWidthNS)},
		{uimf.ParamTOFCorrectionTime, uimf.FloatValue(params.TOFCorrectionNS)},
		{uimf.ParamStartTimeMinutes, uimf.FloatValue(0)},
		{uimf.ParamInstrumentName, uimf.TextValue(params.InstrumentName)},
		{uimf.ParamNumFrames, uimf.Int32Value(params.NumFrames)},
		{uimf.ParamIntensityType, uimf.TextValue(params.IntensityType)},
		{uimf.ParamPrescanTOFPulses, uimf.Int32Value(params.PrescanTOF)},
		{uimf.ParamPrescanAccumulations, uimf.Int32Value(params.PrescanAccum)},
		{uimf.ParamPressureUnits, uimf.TextValue(string(params.PressureUnits))},
	}
	if params.StartTime != "" {
		values = append(values, struct {
			id uimf.ParamID
			v  uimf.ParamValue
		}{uimf.ParamDateStarted, uimf.TextValue(params.StartTime)})
	}

	for _, kv := range values {
		if err := w.params.PutGlobal(kv.id, kv.v); err != nil {
			return err
		}
	}
	for id, v := range params.Extra {
		if err := w.params.PutGlobal(id, v); err != nil {
			return err
		}
	}

	w.globalBinWidthNS = params.BinWidthNS
	w.globalTOFCorrNS = params.TOFCorrectionNS
	return nil
}

// InsertFrame upserts every known FrameParams field plus any Extra
// parameters for frame, idempotent by (frame, param_id) (spec.md §4.D
// insert_frame).
func (w *Writer) InsertFrame(params uimf.FrameParams) error {
	frame := params.Frame
	values := []struct {
		id uimf.ParamID
		v  uimf.ParamValue
	}{
		{uimf.ParamFrameStartTime, uimf.FloatValue(params.StartTime)},
		{uimf.ParamFrameDuration, uimf.FloatValue(params.DurationSeconds)},
		{uimf.ParamAccumulations, uimf.Int32Value(params.Accumulations)},
		{uimf.ParamFrameType, uimf.Int32Value(int32(params.FrameType))},
		{uimf.ParamScanCount, uimf.Int32Value(params.ScanCount)},
		{uimf.ParamAvgTOFLength, uimf.FloatValue(params.AvgTOFLength)},
		{uimf.ParamCalibrationSlope, uimf.FloatValue(params.CalibrationSlope)},
		{uimf.ParamCalibrationIntercept, uimf.FloatValue(params.CalibrationInter)},
		{uimf.ParamMassCalCoefA2, uimf.FloatValue(params.MassCalCoefA2)},
		{uimf.ParamMassCalCoefB2, uimf.FloatValue(params.MassCalCoefB2)},
		{uimf.ParamMassCalCoefC2, uimf.FloatValue(params.MassCalCoefC2)},
		{uimf.ParamMassCalCoefD2, uimf.FloatValue(params.MassCalCoefD2)},
		{uimf.ParamMassCalCoefE2, uimf.FloatValue(params.MassCalCoefE2)},
		{uimf.ParamMassCalCoefF2, uimf.FloatValue(params.MassCalCoefF2)},
		{uimf.ParamPressureFront, uimf.FloatValue(params.PressureFront)},
		{uimf.ParamPressureBack, uimf.FloatValue(params.PressureBack)},
		{uimf.ParamHighVoltage, uimf.FloatValue(params.HighVoltage)},
		{uimf.ParamRearIonFunnelPressure, uimf.FloatValue(params.RearIonFunnelPressure)},
		{uimf.ParamIonFunnelTrapPressure, uimf.FloatValue(params.IonFunnelTrapPressure)},
		{uimf.ParamEncodingSequence, uimf.TextValue(params.EncodingSequence)},
		{uimf.ParamPressureUnits, uimf.TextValue(string(params.PressureUnits))},
	}

	for _, kv := range values {
		if err := w.params.PutFrame(frame, kv.id, kv.v); err != nil {
			return err
		}
	}
	for id, v := range params.Extra {
		if err := w.params.PutFrame(frame, id, v); err != nil {
			return err
		}
	}

	w.calibrations[frame] = mz.Calibration{
		Slope:           params.CalibrationSlope,
		Intercept:       params.CalibrationInter,
		BinWidthNS:      w.globalBinWidthNS,
		TOFCorrectionNS: w.globalTOFCorrNS,
		A2:              params.MassCalCoefA2,
		B2:              params.MassCalCoefB2,
		C2:              params.MassCalCoefC2,
		D2:              params.MassCalCoefD2,
		E2:              params.MassCalCoefE2,
		F2:              params.MassCalCoefF2,
	}
	return nil
}

// InsertScan encodes a dense bin-indexed intensity vector and inserts the
// resulting Frame_Scans row. A vector with no non-zero entries is silently
// dropped (spec.md §4.D, §8 S6) rather than producing an empty row.
func (w *Writer) InsertScan(frame, scan int32, intensities []int32) error {
	blob, stats, err := codec.Encode(intensities)
	if err != nil {
		return fmt.Errorf("STORE/WRITER > encode scan frame=%d scan=%d: %w", frame, scan, err)
	}
	return w.insertScanRow(frame, scan, stats, blob)
}

// InsertScanSparse is InsertScan's sparse-input overload: pairs already
// given as ascending (bin, intensity) samples.
func (w *Writer) InsertScanSparse(frame, scan, timeOffset int32, pairs []codec.Pair) error {
	blob, stats, err := codec.EncodeSparse(pairs, timeOffset)
	if err != nil {
		return fmt.Errorf("STORE/WRITER > encode sparse scan frame=%d scan=%d: %w", frame, scan, err)
	}
	return w.insertScanRow(frame, scan, stats, blob)
}

func (w *Writer) insertScanRow(frame, scan int32, stats codec.Stats, blob []byte) error {
	if stats.NonZeroCount == 0 {
		log.Debugf("STORE/WRITER > frame=%d scan=%d is all-zero, skipping insert", frame, scan)
		return nil
	}

	var bpiMZ float64
	if cal, ok := w.calibrations[frame]; ok && cal.Validate() == nil {
		bpiMZ = cal.BinToMZ(stats.BPIBin)
	}

	return w.tx.InsertScan(frame, scan, stats.NonZeroCount, float64(stats.BPI), bpiMZ, float64(stats.TIC), blob)
}

// DeleteFrame removes a frame's scans and parameters. When decrementCount is
// set, the global NumFrames parameter is decremented to match.
func (w *Writer) DeleteFrame(frame int32, decrementCount bool) error {
	if err := w.tx.Exec(`DELETE FROM Frame_Scans WHERE frame_num = ?`, frame); err != nil {
		return err
	}
	if err := w.tx.Exec(`DELETE FROM Frame_Params WHERE frame_num = ?`, frame); err != nil {
		return err
	}
	delete(w.calibrations, frame)

	if !decrementCount {
		return nil
	}
	v, ok, err := w.params.GetGlobal(uimf.ParamNumFrames, uimf.TypeInt32)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	count, _ := v.Int32()
	return w.params.PutGlobal(uimf.ParamNumFrames, uimf.Int32Value(count-1))
}

// DeleteScansOfType removes every Frame_Scans row belonging to a frame
// whose FrameType parameter equals frameType, leaving the frame params
// themselves in place.
func (w *Writer) DeleteScansOfType(frameType uimf.FrameType) error {
	return w.tx.Exec(
		`DELETE FROM Frame_Scans WHERE frame_num IN (
			SELECT frame_num FROM Frame_Params WHERE param_id = ? AND param_value = ?)`,
		int32(uimf.ParamFrameType), fmt.Sprintf("%d", int32(frameType)),
	)
}

// UpdateCalibration replaces a frame's calibration slope/intercept and
// recomputes BPI_MZ for its already-inserted scans (spec.md §4.D).
func (w *Writer) UpdateCalibration(frame int32, slope, intercept float64) error {
	if err := w.params.PutFrame(frame, uimf.ParamCalibrationSlope, uimf.FloatValue(slope)); err != nil {
		return err
	}
	if err := w.params.PutFrame(frame, uimf.ParamCalibrationIntercept, uimf.FloatValue(intercept)); err != nil {
		return err
	}

	cal := w.calibrations[frame]
	cal.Slope, cal.Intercept = slope, intercept
	cal.BinWidthNS, cal.TOFCorrectionNS = w.globalBinWidthNS, w.globalTOFCorrNS
	w.calibrations[frame] = cal

	return w.recomputeBPIMZ(frame, cal)
}

// recomputeBPIMZ re-derives BPI_MZ for every already-inserted scan of frame
// under a new calibration. The BPI bin itself isn't stored, so each scan's
// blob is decoded once to find the first bin whose intensity equals the
// stored BPI value.
func (w *Writer) recomputeBPIMZ(frame int32, cal mz.Calibration) error {
	if err := cal.Validate(); err != nil {
		return nil
	}

	type scanRow struct {
		Scan        int32   `db:"scan_num"`
		BPI         float64 `db:"bpi"`
		Intensities []byte  `db:"intensities"`
	}
	var rows []scanRow
	if err := w.tx.Tx().Select(&rows, `SELECT scan_num, bpi, intensities FROM Frame_Scans WHERE frame_num = ?`, frame); err != nil {
		return storageFault("read scans for recalibration", err)
	}

	for _, r := range rows {
		bpiBin := int32(-1)
		target := int32(r.BPI)
		if err := codec.DecodeInto(r.Intensities, func(bin, val int32) error {
			if bpiBin < 0 && val == target {
				bpiBin = bin
			}
			return nil
		}); err != nil {
			return fmt.Errorf("STORE/WRITER > decode scan frame=%d scan=%d for recalibration: %w", frame, r.Scan, err)
		}
		if bpiBin < 0 {
			continue
		}
		if err := w.tx.Exec(`UPDATE Frame_Scans SET bpi_mz = ? WHERE frame_num = ? AND scan_num = ?`,
			cal.BinToMZ(bpiBin), frame, r.Scan); err != nil {
			return err
		}
	}
	return nil
}

// AddBinCentricTables builds the Bin_Intensities table via the three-phase
// partitioned pipeline (spec.md §4.F). The outer transaction is fully
// committed first, not just flushed: the pipeline issues its own queries
// against the same single-connection pool (spec.md §5), so holding the
// outer transaction open would starve it of the only pooled connection. A
// fresh transaction is begun afterward regardless of outcome, so the writer
// stays usable for further inserts.
func (w *Writer) AddBinCentricTables(workingDir string) error {
	if err := w.tx.Commit(); err != nil {
		return err
	}

	buildErr := bincentric.Build(w.conn.DB, workingDir, w.cfg, w.sink)

	if err := w.reopenTransaction(); err != nil {
		if buildErr != nil {
			return buildErr
		}
		return err
	}
	return buildErr
}

// Flush commits the current transaction and immediately begins a new one,
// rebinding params to the new transaction handle.
func (w *Writer) Flush() error {
	if err := w.tx.Flush(); err != nil {
		return err
	}
	w.params = NewParamStore(w.tx.Tx())
	return nil
}

// Close commits the final transaction and releases the connection.
func (w *Writer) Close() error {
	if err := w.tx.Commit(); err != nil {
		w.conn.Close()
		return err
	}
	return w.conn.Close()
}

// Vacuum reclaims free space; sqlite forbids VACUUM inside a transaction, so
// the current one is committed first and a fresh one begun afterward.
func (w *Writer) Vacuum() error {
	if err := w.tx.Commit(); err != nil {
		return err
	}
	if _, err := w.conn.DB.Exec(`VACUUM`); err != nil {
		return storageFault("vacuum", err)
	}
	return w.reopenTransaction()
}

func (w *Writer) reopenTransaction() error {
	tx, err := BeginTransaction(w.conn.DB)
	if err != nil {
		return err
	}
	w.tx = tx
	w.params = NewParamStore(tx.Tx())
	return nil
}
