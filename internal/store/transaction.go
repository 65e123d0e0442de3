// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"github.com/jmoiron/sqlx"

	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/log"
)

const insertScanSQL = `INSERT INTO Frame_Scans
	(frame_num, scan_num, non_zero_count, bpi, bpi_mz, tic, intensities)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// Transaction is the writer's single outer transaction, bundled the same
// way the teacher bundles batched inserts in sqlite: one transaction is
// begun on open, and Flush commits it and immediately starts a new one,
// bounding how much work a crash loses (spec.md §4.D state machine).
type Transaction struct {
	db             *sqlx.DB
	tx             *sqlx.Tx
	insertScanStmt *sqlx.Stmt
}

// BeginTransaction opens the outer transaction a Writer keeps for its
// entire session.
func BeginTransaction(db *sqlx.DB) (*Transaction, error) {
	t := &Transaction{db: db}
	if err := t.begin(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transaction) begin() error {
	tx, err := t.db.Beginx()
	if err != nil {
		return storageFault("begin transaction", err)
	}
	stmt, err := tx.Preparex(insertScanSQL)
	if err != nil {
		tx.Rollback()
		return storageFault("prepare scan insert", err)
	}
	t.tx = tx
	t.insertScanStmt = stmt
	return nil
}

// Tx exposes the underlying *sqlx.Tx so callers (ParamStore, schema
// up-conversion) can run statements inside the same transaction.
func (t *Transaction) Tx() *sqlx.Tx { return t.tx }

// Flush commits the current transaction and immediately begins a new one.
func (t *Transaction) Flush() error {
	if t.insertScanStmt != nil {
		t.insertScanStmt.Close()
	}
	if err := t.tx.Commit(); err != nil {
		return storageFault("commit on flush", err)
	}
	log.Debug("STORE/TRANSACTION > flushed")
	return t.begin()
}

// Commit commits the current transaction without reopening it; used on
// Writer.Close.
func (t *Transaction) Commit() error {
	if t.tx == nil {
		return nil
	}
	if t.insertScanStmt != nil {
		t.insertScanStmt.Close()
	}
	if err := t.tx.Commit(); err != nil {
		return storageFault("commit", err)
	}
	t.tx = nil
	return nil
}

// Rollback discards the current transaction; OpenWrite uses it when
// writing the Version_Info row fails.
func (t *Transaction) Rollback() error {
	if t.tx == nil {
		return nil
	}
	err := t.tx.Rollback()
	t.tx = nil
	return err
}

// InsertScan inserts one Frame_Scans row using the prepared statement.
func (t *Transaction) InsertScan(frame, scan, nonZeroCount int32, bpi, bpiMZ, tic float64, blob []byte) error {
	_, err := t.insertScanStmt.Exec(frame, scan, nonZeroCount, bpi, bpiMZ, tic, blob)
	return storageFault("insert scan", err)
}

// Exec runs an arbitrary statement inside the transaction (frame deletes,
// calibration updates).
func (t *Transaction) Exec(query string, args ...interface{}) error {
	_, err := t.tx.Exec(query, args...)
	return storageFault("exec", err)
}
