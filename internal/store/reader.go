// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pnnl-comp-mass-spec/go-uimf/internal/bincentric"
	"github.com/pnnl-comp-mass-spec/go-uimf/internal/codec"
	"github.com/pnnl-comp-mass-spec/go-uimf/internal/drift"
	"github.com/pnnl-comp-mass-spec/go-uimf/internal/legacy"
	"github.com/pnnl-comp-mass-spec/go-uimf/internal/mz"
	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

// TolKind selects how GetXIC's tolerance argument is interpreted.
type TolKind string

const (
	TolMZ  TolKind = "mz"
	TolPPM TolKind = "ppm"
)

// XICPoint is one sample of an extracted-ion-chromatogram: a frame/scan
// address and the summed intensity of every bin within tolerance of the
// target m/z at that address (spec.md §4.F, §8 S5).
type XICPoint struct {
	FrameIndex int32
	Scan       int32
	Intensity  int64
}

type readerOptions struct {
	config *uimf.Config
	sink   uimf.Sink
}

// ReaderOption configures OpenRead.
type ReaderOption func(*readerOptions)

func WithReaderConfig(cfg *uimf.Config) ReaderOption {
	return func(o *readerOptions) { o.config = cfg }
}

func WithReaderSink(sink uimf.Sink) ReaderOption {
	return func(o *readerOptions) { o.sink = sink }
}

// Reader is the open read-only handle for one UIMF file (spec.md §4.E).
// FrameParams and GlobalParams are cached after their first read; the
// spectrum cache bounds how many decoded query windows stay resident.
type Reader struct {
	conn   *Connection
	params *ParamStore
	cfg    *uimf.Config
	sink   uimf.Sink

	zeroMeansMS1 bool

	globalCache      *uimf.GlobalParams
	frameParamsCache map[int32]uimf.FrameParams
	inferredUnit     uimf.PressureUnit

	spectrumCache *SpectrumCache
}

// OpenRead opens path read-only, resolving the legacy FrameType 0/1
// convention once up front (spec.md §4.C, §8 S4).
func OpenRead(path string, opts ...ReaderOption) (*Reader, error) {
	o := &readerOptions{}
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

	zeroMeansMS1, err := DetectFrameTypeConvention(conn.DB, int32(uimf.ParamFrameType))
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Reader{
		conn:             conn,
		params:           NewParamStore(conn.DB),
		cfg:              cfg,
		sink:             uimf.OrConsole(o.sink),
		zeroMeansMS1:     zeroMeansMS1,
		frameParamsCache: make(map[int32]uimf.FrameParams),
		spectrumCache:    NewSpectrumCache(cfg.SpectrumCacheHardCapBytes, cfg.SpectrumCacheSoftCap),
	}, nil
}

// Close releases the underlying connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// FrameTypeConvention reports whether this file encodes MS1 as FrameType 0
// (true) or 1 (false), resolved once at Open time.
func (r *Reader) FrameTypeConvention() bool {
	return r.zeroMeansMS1
}

func (r *Reader) resolveFrameType(raw int32) uimf.FrameType {
	if raw == 0 && r.zeroMeansMS1 {
		return uimf.FrameTypeMS1
	}
	return uimf.FrameType(raw)
}

func (r *Reader) rawFrameTypeValues(frameType uimf.FrameType) []string {
	if frameType == uimf.FrameTypeMS1 && r.zeroMeansMS1 {
		return []string{"0"}
	}
	return []string{fmt.Sprintf("%d", int32(frameType))}
}

// GetGlobalParams returns the dataset-wide parameters, cached after the
// first read.
func (r *Reader) GetGlobalParams() (uimf.GlobalParams, error) {
	if r.globalCache != nil {
		return *r.globalCache, nil
	}

	_, globalsCurrent, err := HasCurrentTables(r.conn.DB)
	if err != nil {
		return uimf.GlobalParams{}, err
	}

	var g uimf.GlobalParams
	if globalsCurrent {
		g, err = r.globalParamsFromCurrent()
	} else {
		g, err = r.globalParamsFromLegacy()
	}
	if err != nil {
		return uimf.GlobalParams{}, err
	}
	r.globalCache = &g
	return g, nil
}

func (r *Reader) globalParamsFromCurrent() (uimf.GlobalParams, error) {
	type row struct {
		ParamID int32  `db:"param_id"`
		Name    string `db:"param_name"`
		Value   string `db:"param_value"`
	}
	var rows []row
	if err := r.conn.DB.Select(&rows, `SELECT param_id, param_name, param_value FROM Global_Params`); err != nil {
		return uimf.GlobalParams{}, storageFault("list global params", err)
	}

	g := uimf.GlobalParams{Extra: make(map[uimf.ParamID]uimf.ParamValue)}
	for _, row := range rows {
		id := uimf.ParamID(row.ParamID)
		def, ok := uimf.Lookup(id)
		if !ok {
			g.Extra[id] = uimf.TextValue(row.Value)
			r.sink.Error("UnknownParameter", (&UnknownParameter{ID: int32(id), Name: row.Name}).Error())
			continue
		}
		val, err := uimf.ParseParamValue(row.Value, def.DataType)
		if err != nil {
			return uimf.GlobalParams{}, err
		}
		r.assignGlobalField(&g, id, val)
	}
	return g, nil
}

func (r *Reader) globalParamsFromLegacy() (uimf.GlobalParams, error) {
	cols, err := ColumnsOf(r.conn.DB, "Global_Parameters")
	if err != nil {
		return uimf.GlobalParams{}, err
	}
	present := legacy.PresentColumns(legacy.GlobalParameterColumns, cols)
	if len(present) == 0 {
		return uimf.GlobalParams{Extra: make(map[uimf.ParamID]uimf.ParamValue)}, nil
	}

	colNames := make([]string, len(present))
	for i, m := range present {
		colNames[i] = m.Column
	}

	row := r.conn.DB.QueryRowx("SELECT " + strings.Join(colNames, ", ") + " FROM Global_Parameters")
	values := make([]interface{}, len(colNames))
	ptrs := make([]interface{}, len(colNames))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		return uimf.GlobalParams{}, storageFault("scan legacy global params", err)
	}

	raw := make(map[uimf.ParamID]string, len(present))
	for i, m := range present {
		raw[m.Param] = fmt.Sprintf("%v", values[i])
	}

	g := uimf.GlobalParams{Extra: make(map[uimf.ParamID]uimf.ParamValue)}
	for id, s := range raw {
		if id == uimf.ParamStartTimeMinutes {
			var minutes float64
			fmt.Sscanf(s, "%g", &minutes)
			minutes = legacy.CorrectStartTimeMinutes(minutes, raw[uimf.ParamDateStarted])
			g.Extra[id] = uimf.FloatValue(minutes)
			continue
		}
		def, ok := uimf.Lookup(id)
		if !ok {
			continue
		}
		val, err := uimf.ParseParamValue(s, def.DataType)
		if err != nil {
			continue
		}
		r.assignGlobalField(&g, id, val)
	}
	return g, nil
}

func (r *Reader) assignGlobalField(g *uimf.GlobalParams, id uimf.ParamID, val uimf.ParamValue) {
	switch id {
	case uimf.ParamBinCount:
		g.BinCount, _ = val.Int32()
	case uimf.ParamBinWidth:
		g.BinWidthNS, _ = val.Float64()
	case uimf.ParamTOFCorrectionTime:
		g.TOFCorrectionNS, _ = val.Float64()
	case uimf.ParamDateStarted:
		g.StartTime, _ = val.Text()
	case uimf.ParamInstrumentName:
		g.InstrumentName, _ = val.Text()
	case uimf.ParamNumFrames:
		g.NumFrames, _ = val.Int32()
	case uimf.ParamIntensityType:
		g.IntensityType, _ = val.Text()
	case uimf.ParamPrescanTOFPulses:
		g.PrescanTOF, _ = val.Int32()
	case uimf.ParamPrescanAccumulations:
		g.PrescanAccum, _ = val.Int32()
	case uimf.ParamPressureUnits:
		s, _ := val.Text()
		g.PressureUnits = uimf.PressureUnit(s)
	default:
		g.Extra[id] = val
	}
}

// GetFrameParams returns one frame's parameters, cached after the first
// read.
func (r *Reader) GetFrameParams(frame int32) (uimf.FrameParams, error) {
	if cached, ok := r.frameParamsCache[frame]; ok {
		return cached, nil
	}

	g, err := r.GetGlobalParams()
	if err != nil {
		return uimf.FrameParams{}, err
	}
	if frame < 1 || frame > g.NumFrames {
		return uimf.FrameParams{}, &FrameOutOfRange{Frame: frame, NumFrames: g.NumFrames}
	}

	framesCurrent, _, err := HasCurrentTables(r.conn.DB)
	if err != nil {
		return uimf.FrameParams{}, err
	}

	var fp uimf.FrameParams
	if framesCurrent {
		fp, err = r.frameParamsFromCurrent(frame)
	} else {
		fp, err = r.frameParamsFromLegacy(frame)
	}
	if err != nil {
		return uimf.FrameParams{}, err
	}
	r.frameParamsCache[frame] = fp
	return fp, nil
}

func (r *Reader) frameParamsFromCurrent(frame int32) (uimf.FrameParams, error) {
	rows, err := r.params.AllFrameParamRows(frame)
	if err != nil {
		return uimf.FrameParams{}, err
	}

	fp := uimf.FrameParams{Frame: frame, Extra: make(map[uimf.ParamID]uimf.ParamValue)}
	for _, row := range rows {
		def, ok := uimf.Lookup(row.ParamID)
		if !ok {
			fp.Extra[row.ParamID] = uimf.TextValue(row.Value)
			r.sink.Error("UnknownParameter", fmt.Sprintf("frame=%d: %s", frame, (&UnknownParameter{ID: int32(row.ParamID), Name: row.Name}).Error()))
			continue
		}
		val, err := uimf.ParseParamValue(row.Value, def.DataType)
		if err != nil {
			return uimf.FrameParams{}, err
		}
		r.assignFrameField(&fp, row.ParamID, val)
	}
	return fp, nil
}

func (r *Reader) frameParamsFromLegacy(frame int32) (uimf.FrameParams, error) {
	cols, err := ColumnsOf(r.conn.DB, "Frame_Parameters")
	if err != nil {
		return uimf.FrameParams{}, err
	}
	present := legacy.PresentColumns(legacy.FrameParameterColumns, cols)

	colNames := make([]string, len(present))
	for i, m := range present {
		colNames[i] = m.Column
	}

	sqlStr := "SELECT " + strings.Join(colNames, ", ") + " FROM Frame_Parameters WHERE FrameNum = ?"
	row := r.conn.DB.QueryRowx(sqlStr, frame)

	values := make([]interface{}, len(colNames))
	ptrs := make([]interface{}, len(colNames))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		return uimf.FrameParams{}, storageFault("scan legacy frame params", err)
	}

	fp := uimf.FrameParams{Frame: frame, Extra: make(map[uimf.ParamID]uimf.ParamValue)}
	for i, m := range present {
		def, ok := uimf.Lookup(m.Param)
		if !ok {
			continue
		}
		raw := fmt.Sprintf("%v", values[i])
		val, err := uimf.ParseParamValue(raw, def.DataType)
		if err != nil {
			continue
		}
		r.assignFrameField(&fp, m.Param, val)
	}
	return fp, nil
}

func (r *Reader) assignFrameField(fp *uimf.FrameParams, id uimf.ParamID, val uimf.ParamValue) {
	switch id {
	case uimf.ParamFrameStartTime:
		fp.StartTime, _ = val.Float64()
	case uimf.ParamFrameDuration:
		fp.DurationSeconds, _ = val.Float64()
	case uimf.ParamAccumulations:
		fp.Accumulations, _ = val.Int32()
	case uimf.ParamFrameType:
		raw, _ := val.Int32()
		fp.FrameType = r.resolveFrameType(raw)
	case uimf.ParamScanCount:
		fp.ScanCount, _ = val.Int32()
	case uimf.ParamAvgTOFLength:
		fp.AvgTOFLength, _ = val.Float64()
	case uimf.ParamCalibrationSlope:
		fp.CalibrationSlope, _ = val.Float64()
	case uimf.ParamCalibrationIntercept:
		fp.CalibrationInter, _ = val.Float64()
	case uimf.ParamMassCalCoefA2:
		fp.MassCalCoefA2, _ = val.Float64()
	case uimf.ParamMassCalCoefB2:
		fp.MassCalCoefB2, _ = val.Float64()
	case uimf.ParamMassCalCoefC2:
		fp.MassCalCoefC2, _ = val.Float64()
	case uimf.ParamMassCalCoefD2:
		fp.MassCalCoefD2, _ = val.Float64()
	case uimf.ParamMassCalCoefE2:
		fp.MassCalCoefE2, _ = val.Float64()
	case uimf.ParamMassCalCoefF2:
		fp.MassCalCoefF2, _ = val.Float64()
	case uimf.ParamPressureFront:
		fp.PressureFront, _ = val.Float64()
	case uimf.ParamPressureBack:
		fp.PressureBack, _ = val.Float64()
	case uimf.ParamHighVoltage:
		fp.HighVoltage, _ = val.Float64()
	case uimf.ParamRearIonFunnelPressure:
		fp.RearIonFunnelPressure, _ = val.Float64()
	case uimf.ParamIonFunnelTrapPressure:
		fp.IonFunnelTrapPressure, _ = val.Float64()
	case uimf.ParamEncodingSequence:
		fp.EncodingSequence, _ = val.Text()
	case uimf.ParamPressureUnits:
		s, _ := val.Text()
		fp.PressureUnits = uimf.PressureUnit(s)
	default:
		fp.Extra[id] = val
	}
}

func (r *Reader) calibrationFor(frame int32) (mz.Calibration, error) {
	fp, err := r.GetFrameParams(frame)
	if err != nil {
		return mz.Calibration{}, err
	}
	g, err := r.GetGlobalParams()
	if err != nil {
		return mz.Calibration{}, err
	}
	return mz.Calibration{
		Slope:           fp.CalibrationSlope,
		Intercept:       fp.CalibrationInter,
		BinWidthNS:      g.BinWidthNS,
		TOFCorrectionNS: g.TOFCorrectionNS,
		A2:              fp.MassCalCoefA2,
		B2:              fp.MassCalCoefB2,
		C2:              fp.MassCalCoefC2,
		D2:              fp.MassCalCoefD2,
		E2:              fp.MassCalCoefE2,
		F2:              fp.MassCalCoefF2,
	}, nil
}

func (r *Reader) framesOfType(frameRange Range, frameType uimf.FrameType) ([]int32, error) {
	return FramesOfType(r.conn.DB, frameRange, int32(uimf.ParamFrameType), r.rawFrameTypeValues(frameType))
}

// inferPressureUnit guesses the pressure unit from up to the first 25
// non-zero pressure readings across frames 1..NumFrames, in frame order,
// when a frame does not declare PressureUnits itself.
func (r *Reader) inferPressureUnit() (uimf.PressureUnit, error) {
	if r.inferredUnit != "" {
		return r.inferredUnit, nil
	}
	g, err := r.GetGlobalParams()
	if err != nil {
		return "", err
	}

	var samples []float64
	for frame := int32(1); frame <= g.NumFrames && len(samples) < 25; frame++ {
		fp, err := r.GetFrameParams(frame)
		if err != nil {
			continue
		}
		if p, ok := drift.SelectPressure(drift.PressureSource{
			Back:          fp.PressureBack,
			RearIonFunnel: fp.RearIonFunnelPressure,
			IonFunnelTrap: fp.IonFunnelTrapPressure,
		}); ok {
			samples = append(samples, p)
		}
	}

	r.inferredUnit = drift.InferPressureUnit(samples)
	return r.inferredUnit, nil
}

// GetFrameScans returns every scan recorded for frame, with drift time
// computed from the frame's average TOF length and pressure readings.
func (r *Reader) GetFrameScans(frame int32) ([]uimf.ScanInfo, error) {
	fp, err := r.GetFrameParams(frame)
	if err != nil {
		return nil, err
	}

	rows, err := QueryFrameScans(r.conn.DB, []int32{frame}, nil)
	if err != nil {
		return nil, err
	}

	unit := fp.PressureUnits
	var inferred uimf.PressureUnit
	if unit == "" {
		inferred, err = r.inferPressureUnit()
		if err != nil {
			return nil, err
		}
	}
	pressures := drift.PressureSource{
		Back:          fp.PressureBack,
		RearIonFunnel: fp.RearIonFunnelPressure,
		IonFunnelTrap: fp.IonFunnelTrapPressure,
	}

	scans := make([]uimf.ScanInfo, 0, len(rows))
	for _, row := range rows {
		raw, normalized := drift.Compute(fp.AvgTOFLength, row.Scan, pressures, unit, inferred)
		scans = append(scans, uimf.ScanInfo{
			Scan:         row.Scan,
			NonZeroCount: row.NonZeroCount,
			BPI:          row.BPI,
			BPIMz:        row.BPIMz,
			TIC:          row.TIC,
			DriftTime:    normalized,
			DriftTimeRaw: raw,
		})
	}
	return scans, nil
}

// GetScan returns one specific (frame, scan) row, or ScanNotFound if the
// pair has no row — either it was never written, or its intensities were
// all-zero and so dropped at insert time (spec.md §4.D, §8 S6).
func (r *Reader) GetScan(frame, scan int32) (uimf.ScanInfo, error) {
	fp, err := r.GetFrameParams(frame)
	if err != nil {
		return uimf.ScanInfo{}, err
	}

	rows, err := QueryFrameScans(r.conn.DB, []int32{frame}, &Range{Low: scan, High: scan})
	if err != nil {
		return uimf.ScanInfo{}, err
	}
	if len(rows) == 0 {
		return uimf.ScanInfo{}, &ScanNotFound{Frame: frame, Scan: scan}
	}
	row := rows[0]

	unit := fp.PressureUnits
	var inferred uimf.PressureUnit
	if unit == "" {
		inferred, err = r.inferPressureUnit()
		if err != nil {
			return uimf.ScanInfo{}, err
		}
	}
	pressures := drift.PressureSource{
		Back:          fp.PressureBack,
		RearIonFunnel: fp.RearIonFunnelPressure,
		IonFunnelTrap: fp.IonFunnelTrapPressure,
	}
	raw, normalized := drift.Compute(fp.AvgTOFLength, row.Scan, pressures, unit, inferred)
	return uimf.ScanInfo{
		Scan:         row.Scan,
		NonZeroCount: row.NonZeroCount,
		BPI:          row.BPI,
		BPIMz:        row.BPIMz,
		TIC:          row.TIC,
		DriftTime:    normalized,
		DriftTimeRaw: raw,
	}, nil
}

func (r *Reader) computeSpectrum(frames []int32, scanRange Range) *Spectrum {
	sp := &Spectrum{PerScan: make(map[int32]map[int32]int64), Summed: make(map[int32]int64)}

	rows, err := QueryFrameScans(r.conn.DB, frames, &scanRange)
	if err != nil {
		r.sink.Error("StorageFault", err.Error())
		return sp
	}

	for _, row := range rows {
		bins := make(map[int32]int64)
		if err := codec.DecodeInto(row.Intensities, func(bin, val int32) error {
			bins[bin] += int64(val)
			sp.Summed[bin] += int64(val)
			return nil
		}); err != nil {
			r.sink.Error("CorruptScan", fmt.Sprintf("frame=%d scan=%d: %v", row.Frame, row.Scan, err))
			continue
		}
		sp.PerScan[row.Scan] = bins
	}
	return sp
}

// GetSpectrum sums intensities across frameRange/scanRange (filtered to
// frames of frameType), returning only non-zero bins narrowed to binRange
// if given. Bin->m/z uses the first matching frame's calibration (spec.md
// §4.E, §8 invariant 7).
func (r *Reader) GetSpectrum(frameRange Range, frameType uimf.FrameType, scanRange Range, binRange *Range) ([]float64, []int64, error) {
	g, err := r.GetGlobalParams()
	if err != nil {
		return nil, nil, err
	}
	if frameRange.Low < 1 {
		return nil, nil, &FrameOutOfRange{Frame: frameRange.Low, NumFrames: g.NumFrames}
	}
	if frameRange.High > g.NumFrames {
		return nil, nil, &FrameOutOfRange{Frame: frameRange.High, NumFrames: g.NumFrames}
	}

	frames, err := r.framesOfType(frameRange, frameType)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, nil
	}

	key := SpectrumKey{FrameLow: frameRange.Low, FrameHigh: frameRange.High, FrameType: frameType, ScanLow: scanRange.Low, ScanHigh: scanRange.High}
	spectrum := r.spectrumCache.GetOrCompute(key, func() *Spectrum {
		return r.computeSpectrum(frames, scanRange)
	})

	cal, err := r.calibrationFor(frames[0])
	if err != nil {
		return nil, nil, err
	}

	bins := make([]int32, 0, len(spectrum.Summed))
	for bin := range spectrum.Summed {
		if binRange != nil && (bin < binRange.Low || bin > binRange.High) {
			continue
		}
		bins = append(bins, bin)
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i] < bins[j] })

	mzs := make([]float64, len(bins))
	intensities := make([]int64, len(bins))
	for i, bin := range bins {
		mzs[i] = cal.BinToMZ(bin)
		intensities[i] = spectrum.Summed[bin]
	}
	return mzs, intensities, nil
}

// GetIntensityBlock returns a dense [frame][scan][bin] array over the
// requested ranges, decoding every matching scan's blob.
func (r *Reader) GetIntensityBlock(frameRange Range, frameType uimf.FrameType, scanRange, binRange Range) ([][][]int64, error) {
	frames, err := r.framesOfType(frameRange, frameType)
	if err != nil {
		return nil, err
	}

	numScans := int(scanRange.High-scanRange.Low) + 1
	numBins := int(binRange.High-binRange.Low) + 1

	block := make([][][]int64, len(frames))
	for i := range block {
		block[i] = make([][]int64, numScans)
		for s := range block[i] {
			block[i][s] = make([]int64, numBins)
		}
	}

	frameIndex := make(map[int32]int, len(frames))
	for i, f := range frames {
		frameIndex[f] = i
	}

	rows, err := QueryFrameScans(r.conn.DB, frames, &scanRange)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		fi, ok := frameIndex[row.Frame]
		if !ok {
			continue
		}
		si := int(row.Scan - scanRange.Low)
		if si < 0 || si >= numScans {
			continue
		}
		if err := codec.DecodeInto(row.Intensities, func(bin, val int32) error {
			if bin < binRange.Low || bin > binRange.High {
				return nil
			}
			block[fi][si][bin-binRange.Low] += int64(val)
			return nil
		}); err != nil {
			r.sink.Error("CorruptScan", fmt.Sprintf("frame=%d scan=%d: %v", row.Frame, row.Scan, err))
		}
	}
	return block, nil
}

func (r *Reader) aggregate(frameType uimf.FrameType, frameRange, scanRange Range, combine func(acc *float64, row FrameScanRow)) (map[int32]float64, error) {
	frames, err := r.framesOfType(frameRange, frameType)
	if err != nil {
		return nil, err
	}
	out := make(map[int32]float64, len(frames))
	for _, f := range frames {
		out[f] = 0
	}

	rows, err := QueryFrameScans(r.conn.DB, frames, &scanRange)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		v := out[row.Frame]
		combine(&v, row)
		out[row.Frame] = v
	}
	return out, nil
}

// GetTIC returns, per frame, the sum of TIC across scanRange.
func (r *Reader) GetTIC(frameType uimf.FrameType, frameRange, scanRange Range) (map[int32]float64, error) {
	return r.aggregate(frameType, frameRange, scanRange, func(acc *float64, row FrameScanRow) {
		*acc += row.TIC
	})
}

// GetBPI returns, per frame, the max BPI across scanRange.
func (r *Reader) GetBPI(frameType uimf.FrameType, frameRange, scanRange Range) (map[int32]float64, error) {
	return r.aggregate(frameType, frameRange, scanRange, func(acc *float64, row FrameScanRow) {
		if row.BPI > *acc {
			*acc = row.BPI
		}
	})
}

func (r *Reader) scansPerFrameCount() (int32, error) {
	fp, err := r.GetFrameParams(1)
	if err != nil {
		return 0, err
	}
	if fp.ScanCount == 0 {
		return 0, fmt.Errorf("STORE/READER > frame 1 has no recorded scan count, cannot decode bin-centric addresses")
	}
	return fp.ScanCount, nil
}

// GetXIC extracts an ion chromatogram around targetMZ, requiring the
// bin-centric tables (spec.md §4.F, §8 S5). Address decoding assumes a
// uniform scan count per frame, taken from frame 1.
func (r *Reader) GetXIC(targetMZ, tol float64, tolKind TolKind, frameRange, scanRange *Range, frameType uimf.FrameType) ([]XICPoint, error) {
	populated, err := BinCentricPopulated(r.conn.DB)
	if err != nil {
		return nil, err
	}
	if !populated {
		return nil, &BinCentricMissing{}
	}

	g, err := r.GetGlobalParams()
	if err != nil {
		return nil, err
	}
	cal, err := r.calibrationFor(1)
	if err != nil {
		return nil, err
	}

	var lowerMZ, upperMZ float64
	if tolKind == TolPPM {
		delta := targetMZ * tol / 1e6
		lowerMZ, upperMZ = targetMZ-delta, targetMZ+delta
	} else {
		lowerMZ, upperMZ = targetMZ-tol, targetMZ+tol
	}
	lowerBin := cal.MZToBin(lowerMZ, g.BinCount-1)
	upperBin := cal.MZToBin(upperMZ, g.BinCount-1)
	if upperBin > lowerBin && cal.BinToMZ(upperBin) > upperMZ {
		upperBin--
	}

	rows, err := QueryBins(r.conn.DB, Range{Low: lowerBin, High: upperBin})
	if err != nil {
		return nil, err
	}

	scansPerFrame, err := r.scansPerFrameCount()
	if err != nil {
		return nil, err
	}

	allowedFrames, err := r.framesOfType(Range{Low: 1, High: g.NumFrames}, frameType)
	if err != nil {
		return nil, err
	}
	allowed := make(map[int32]bool, len(allowedFrames))
	for _, f := range allowedFrames {
		allowed[f] = true
	}

	sums := make(map[int32]int64)
	var order []int32
	for _, row := range rows {
		addrs, err := bincentric.Decode(row.Intensities)
		if err != nil {
			r.sink.Error("CorruptScan", fmt.Sprintf("bin=%d: %v", row.Bin, err))
			continue
		}
		for _, a := range addrs {
			frameNumber := a.Address / scansPerFrame
			scan := a.Address % scansPerFrame
			if !allowed[frameNumber] {
				continue
			}
			if frameRange != nil && (frameNumber < frameRange.Low || frameNumber > frameRange.High) {
				continue
			}
			if scanRange != nil && (scan < scanRange.Low || scan > scanRange.High) {
				continue
			}
			if _, seen := sums[a.Address]; !seen {
				order = append(order, a.Address)
			}
			sums[a.Address] += int64(a.Intensity)
		}
	}

	var points []XICPoint
	for _, addr := range order {
		points = append(points, XICPoint{FrameIndex: addr/scansPerFrame - 1, Scan: addr % scansPerFrame, Intensity: sums[addr]})
	}
	return points, nil
}
