// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/log"
)

// supportedVersion is the highest schema migration this build knows about
// (spec.md §4.C "Creates on demand" table/index set). It is not the same
// thing as the Version_Info rows the writer appends on every open.
const supportedVersion uint = 2

//go:embed migrations/*
var migrationFiles embed.FS

// EnsureSchema runs pending migrations against db, creating Global_Params,
// Frame_Param_Keys, Frame_Params, Frame_Scans, Version_Info and the
// Bin_Intensities table on a brand new file. Opening a file that already
// has a newer schema than this build understands is an error; a file with
// no migration history at all (a legacy-only file) is not an error — every
// migration is applied to it, and its legacy tables are left in place.
func EnsureSchema(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("STORE/MIGRATION > sqlite3 driver: %w", err)
	}

	src, err := iofs.New(migrationFiles, "migrations/sqlite3")
	if err != nil {
		return fmt.Errorf("STORE/MIGRATION > load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("STORE/MIGRATION > build migrator: %w", err)
	}

	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("STORE/MIGRATION > read version: %w", err)
	}
	if dirty {
		return fmt.Errorf("STORE/MIGRATION > schema is dirty at version %d, needs manual repair", v)
	}
	if v > supportedVersion {
		return fmt.Errorf("STORE/MIGRATION > file schema version %d is newer than this build supports (%d)", v, supportedVersion)
	}

	log.Debugf("STORE/MIGRATION > current version %d, target %d", v, supportedVersion)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("STORE/MIGRATION > up: %w", err)
	}

	return nil
}
