// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"

	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/log"
	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

// sqliteDriverName is registered once per process: sqlhooks wraps the
// sqlite3 driver so every query goes through Hooks (spec.md §9, ambient
// query tracing).
const sqliteDriverName = "sqlite3WithUimfHooks"

var driverRegistered bool

// Connection owns the sqlx handle to one UIMF file. sqlite does not
// multiplex writers, so MaxOpenConns is normally 1 (spec.md §5 "single
// writer" concurrency model).
type Connection struct {
	DB *sqlx.DB
}

// Open opens path as a sqlite3-backed UIMF file, registering the hooked
// driver the first time it's needed.
func Open(path string, cfg *uimf.Config) (*Connection, error) {
	if cfg == nil {
		cfg = uimf.DefaultConfig()
	}
	if !driverRegistered {
		sql.Register(sqliteDriverName, sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, &Hooks{}))
		driverRegistered = true
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on", path)
	db, err := sqlx.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("STORE/CONNECTION > open %q: %w", path, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("STORE/CONNECTION > ping %q: %w", path, err)
	}

	log.Debugf("STORE/CONNECTION > opened %q", path)
	return &Connection{DB: db}, nil
}

// Close releases the underlying connection pool.
func (c *Connection) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
