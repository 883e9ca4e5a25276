// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package reportuc contains the record lifecycle use case which
// supports the two state-changing operations of the system:
//  1. Filing a stolen-vehicle report,
//  2. Marking a reported vehicle as recovered.
//
// Both operations require an established identity session and reject
// callers without one, leaving the store untouched.
package reportuc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patamocomando/Choque-TAX/pkg/core/cerr"
	"github.com/patamocomando/Choque-TAX/pkg/core/identity"
	"github.com/patamocomando/Choque-TAX/pkg/core/model"
	"github.com/patamocomando/Choque-TAX/pkg/core/repo"
)

// ActiveIndex is the duplicate-active check dependency: the live
// mirror of the record collection, consulted for plates which still
// have an active report. The check runs against this local mirror, not
// against the store.
type ActiveIndex interface {
	HasActivePlate(plate string) bool
}

// Draft carries the user-submitted fields of a new report. Identity,
// status, and timestamps are assigned by the filing operation itself.
type Draft struct {
	Type     string
	Plate    string
	Model    string
	Color    string
	Year     string
	Location string
	Notes    string
}

// UseCase represents the record lifecycle use case. It holds a
// database connection pool, the records repository instance (to be
// guided with the DB pool), the live collection mirror for the
// duplicate-active check, and the display-time formatting settings.
type UseCase struct {
	pool      repo.Pool
	recordsrp repo.Records
	active    ActiveIndex

	now        func() time.Time
	displayLoc *time.Location
}

// New instantiates a record lifecycle use case.
// Required parameters are passed individually, so caller has to
// provision them and whenever they change, caller will notice and fix
// them due to a compilation error.
// Optional parameters are passed as a series of functional options
// in order to facilitate their validation and flexibility.
func New(p repo.Pool, r repo.Records, a ActiveIndex, opts ...Option) (*UseCase, error) {
	uc := &UseCase{pool: p, recordsrp: r, active: a}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	// now, deal with defaults
	if uc.now == nil {
		uc.now = time.Now
	}
	if uc.displayLoc == nil {
		uc.displayLoc = time.Local
	}
	return uc, nil
}

// FileReport use case validates and persists the d draft as a new
// record with the stolen status, stamping the machine and display
// timestamps with the operation time and recording the s session
// identifier as the creator.
//
// The plate is normalized (trimmed and upper-cased) before any check
// or write. If the local mirror already holds an active record with
// the same normalized plate, the operation is rejected with a conflict
// wrapping model.DuplicateActivePlateError and no write is issued.
// Two filers racing on one plate between two push deliveries can
// both pass this check; the store-side uniqueness constraint fails
// the later write in that case, which surfaces as the same conflict.
func (rc *UseCase) FileReport(ctx context.Context, s model.Session, d Draft) (rec *model.VehicleRecord, err error) {
	if !s.Established() {
		return nil, cerr.Authentication(identity.ErrSessionUnavailable)
	}
	plate := model.NormalizePlate(d.Plate)
	if rc.active.HasActivePlate(plate) {
		return nil, cerr.Conflict(model.DuplicateActivePlateError(plate))
	}
	now := rc.now()
	rec = &model.VehicleRecord{
		Type:           d.Type,
		Plate:          plate,
		Model:          d.Model,
		Color:          d.Color,
		Year:           d.Year,
		Location:       d.Location,
		Notes:          d.Notes,
		Status:         model.RecordStatusStolen,
		ReportedAt:     now.UTC(),
		ReportedAtText: now.In(rc.displayLoc).Format(model.DisplayTimeLayout),
		ReportedBy:     s.UID,
	}
	err = rc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			q := rc.recordsrp.Tx(tx)
			id, err := q.Create(ctx, rec)
			if err != nil {
				return err
			}
			rec.ID = id
			return nil
		})
	})
	if err != nil {
		return nil, writeFailed("filing report", err)
	}
	return rec, nil
}

// MarkRecovered use case transitions the rid record to the recovered
// status, stamping the display-formatted recovery time and the s
// session identifier as the recoverer. The current status is not
// checked beforehand; recovering twice reapplies the transition with
// fresher metadata, which is acceptable since the enum has no state
// beyond recovered.
func (rc *UseCase) MarkRecovered(ctx context.Context, s model.Session, rid string) (rec *model.VehicleRecord, err error) {
	if !s.Established() {
		return nil, cerr.Authentication(identity.ErrSessionUnavailable)
	}
	at := rc.now().In(rc.displayLoc).Format(model.DisplayTimeLayout)
	err = rc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			q := rc.recordsrp.Tx(tx)
			rec, err = q.Recover(ctx, rid, s.UID, at)
			return err
		})
	})
	if err != nil {
		return nil, writeFailed("marking record recovered", err)
	}
	return rec, nil
}

// writeFailed classifies an error of a store write. Errors which
// already carry an HTTP status (business-rule rejections from the
// repository, such as unknown keys or the uniqueness constraint) pass
// through unchanged, while transport and store failures are wrapped as
// a write failure, so the caller may preserve the originating form
// state and let the user retry manually.
func writeFailed(op string, err error) error {
	var ce *cerr.Error
	if errors.As(err, &ce) {
		return err
	}
	return cerr.WriteFailed(fmt.Errorf("%s: %w", op, err))
}
