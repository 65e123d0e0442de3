// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"context"
	"time"

	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/log"
)

type hookCtxKey struct{}

// Hooks satisfies sqlhooks.Hooks, giving every query issued against a UIMF
// file debug-level tracing without the caller wiring anything.
type Hooks struct{}

// Before prints the query with its args and stashes the start time.
func (h *Hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("SQL query %s %q", query, args)
	return context.WithValue(ctx, hookCtxKey{}, time.Now()), nil
}

// After prints the elapsed time recorded by Before.
func (h *Hooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	begin, _ := ctx.Value(hookCtxKey{}).(time.Time)
	log.Debugf("Took: %s", time.Since(begin))
	return ctx, nil
}
