package store

import (
	"database/sql"
	"errors"

	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

// sqlxHandle is satisfied by both *sqlx.DB and *sqlx.Tx, letting ParamStore
// run standalone against the handle or inside the writer's outer
// transaction without duplicating the query set.
type sqlxHandle interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
}

// ParamStore is the shared key/value accessor backing FrameParams and
// GlobalParams persistence (spec.md §4.B). Writing always targets this
// layout; legacy translation lives in internal/legacy and internal/store's
// own up-conversion path.
type ParamStore struct {
	db          sqlxHandle
	ensuredKeys map[uimf.ParamID]bool
}

func NewParamStore(db sqlxHandle) *ParamStore {
	return &ParamStore{db: db, ensuredKeys: make(map[uimf.ParamID]bool)}
}

func (p *ParamStore) ensureFrameKeyDef(id uimf.ParamID) error {
	if p.ensuredKeys[id] {
		return nil
	}
	def, ok := uimf.Lookup(id)
	if !ok {
		// Unrecognized id: still writable, but there is no identity metadata
		// to register — it round-trips under UnknownParameter semantics.
		return nil
	}
	_, err := p.db.Exec(
		`INSERT OR IGNORE INTO Frame_Param_Keys (param_id, param_name, param_data_type, param_description) VALUES (?, ?, ?, ?)`,
		int32(def.ID), def.Name, string(def.DataType), def.Description,
	)
	if err != nil {
		return storageFault("ensure frame key definition", err)
	}
	p.ensuredKeys[id] = true
	return nil
}

// PutFrame upserts one frame-scoped parameter, keyed by (frame, param_id).
func (p *ParamStore) PutFrame(frame int32, id uimf.ParamID, v uimf.ParamValue) error {
	if err := p.ensureFrameKeyDef(id); err != nil {
		return err
	}
	_, err := p.db.Exec(
		`INSERT INTO Frame_Params (frame_num, param_id, param_value) VALUES (?, ?, ?)
		 ON CONFLICT(frame_num, param_id) DO UPDATE SET param_value = excluded.param_value`,
		frame, int32(id), v.Raw(),
	)
	return storageFault("put frame param", err)
}

// GetFrame reads one frame-scoped parameter, coerced via kind.
func (p *ParamStore) GetFrame(frame int32, id uimf.ParamID, kind uimf.DataType) (uimf.ParamValue, bool, error) {
	var raw string
	err := p.db.Get(&raw, `SELECT param_value FROM Frame_Params WHERE frame_num = ? AND param_id = ?`, frame, int32(id))
	if errors.Is(err, sql.ErrNoRows) {
		return uimf.ParamValue{}, false, nil
	}
	if err != nil {
		return uimf.ParamValue{}, false, storageFault("get frame param", err)
	}
	val, perr := uimf.ParseParamValue(raw, kind)
	if perr != nil {
		return uimf.ParamValue{}, false, perr
	}
	return val, true, nil
}

// GetFrameOr returns def if the parameter is absent.
func (p *ParamStore) GetFrameOr(frame int32, id uimf.ParamID, kind uimf.DataType, def uimf.ParamValue) (uimf.ParamValue, error) {
	v, ok, err := p.GetFrame(frame, id, kind)
	if err != nil {
		return uimf.ParamValue{}, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

func (p *ParamStore) HasFrame(frame int32, id uimf.ParamID) (bool, error) {
	var count int
	if err := p.db.Get(&count, `SELECT COUNT(*) FROM Frame_Params WHERE frame_num = ? AND param_id = ?`, frame, int32(id)); err != nil {
		return false, storageFault("has frame param", err)
	}
	return count > 0, nil
}

// FrameParamRow is one raw (param_id, param_name, param_value) row, joined
// against Frame_Param_Keys so a name is available even for ids this build's
// static table doesn't recognize (spec.md §4.B).
type FrameParamRow struct {
	ParamID uimf.ParamID
	Name    string
	Value   string
}

// AllFrameParams returns every (param_id, raw value) pair recorded for
// frame, preserving unrecognized ids verbatim (spec.md §8 invariant 6).
func (p *ParamStore) AllFrameParams(frame int32) (map[uimf.ParamID]string, error) {
	rows, err := p.AllFrameParamRows(frame)
	if err != nil {
		return nil, err
	}
	out := make(map[uimf.ParamID]string, len(rows))
	for _, r := range rows {
		out[r.ParamID] = r.Value
	}
	return out, nil
}

// AllFrameParamRows is AllFrameParams with each row's stored param_name
// attached, for callers that need to report an unrecognized id by name.
func (p *ParamStore) AllFrameParamRows(frame int32) ([]FrameParamRow, error) {
	type row struct {
		ParamID int32  `db:"param_id"`
		Name    string `db:"param_name"`
		Value   string `db:"param_value"`
	}
	var rows []row
	if err := p.db.Select(&rows, `SELECT fp.param_id, COALESCE(k.param_name, '') AS param_name, fp.param_value
		FROM Frame_Params fp
		LEFT JOIN Frame_Param_Keys k ON k.param_id = fp.param_id
		WHERE fp.frame_num = ?`, frame); err != nil {
		return nil, storageFault("list frame params", err)
	}
	out := make([]FrameParamRow, len(rows))
	for i, r := range rows {
		out[i] = FrameParamRow{ParamID: uimf.ParamID(r.ParamID), Name: r.Name, Value: r.Value}
	}
	return out, nil
}

// PutGlobal upserts one global (file-wide) parameter, keyed by param_id.
func (p *ParamStore) PutGlobal(id uimf.ParamID, v uimf.ParamValue) error {
	name, description := "", ""
	if def, ok := uimf.Lookup(id); ok {
		name, description = def.Name, def.Description
	}
	_, err := p.db.Exec(
		`INSERT INTO Global_Params (param_id, param_name, param_value, param_data_type, param_description)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(param_id) DO UPDATE SET param_value = excluded.param_value`,
		int32(id), name, v.Raw(), string(v.Kind), description,
	)
	return storageFault("put global param", err)
}

// GetGlobal reads one global parameter, coerced via kind.
func (p *ParamStore) GetGlobal(id uimf.ParamID, kind uimf.DataType) (uimf.ParamValue, bool, error) {
	var raw string
	err := p.db.Get(&raw, `SELECT param_value FROM Global_Params WHERE param_id = ?`, int32(id))
	if errors.Is(err, sql.ErrNoRows) {
		return uimf.ParamValue{}, false, nil
	}
	if err != nil {
		return uimf.ParamValue{}, false, storageFault("get global param", err)
	}
	val, perr := uimf.ParseParamValue(raw, kind)
	if perr != nil {
		return uimf.ParamValue{}, false, perr
	}
	return val, true, nil
}

func (p *ParamStore) GetGlobalOr(id uimf.ParamID, kind uimf.DataType, def uimf.ParamValue) (uimf.ParamValue, error) {
	v, ok, err := p.GetGlobal(id, kind)
	if err != nil {
		return uimf.ParamValue{}, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

func (p *ParamStore) HasGlobal(id uimf.ParamID) (bool, error) {
	var count int
	if err := p.db.Get(&count, `SELECT COUNT(*) FROM Global_Params WHERE param_id = ?`, int32(id)); err != nil {
		return false, storageFault("has global param", err)
	}
	return count > 0, nil
}
