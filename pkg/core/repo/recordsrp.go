// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/patamocomando/Choque-TAX/pkg/core/model"
)

// RecordsConnQueryer is a RecordsQueryer which operates on a single
// connection, out of any transaction.
type RecordsConnQueryer interface {
	RecordsQueryer
}

// RecordsTxQueryer is a RecordsQueryer which operates within an open
// transaction. Create and Recover notify the collection watchers as
// part of the writing transaction, so subscribers observe a change
// only after it has been committed.
type RecordsTxQueryer interface {
	RecordsQueryer
}

// RecordsQueryer provides the write and read operations of the vehicle
// records document collection.
type RecordsQueryer interface {
	// List returns the entire current collection contents, ordered by
	// arrival (i.e., creation order). No server-side filtering is
	// performed; filtering and sorting for presentation are local
	// concerns of the view model.
	List(ctx context.Context) ([]model.VehicleRecord, error)

	// Create persists r as a new document and returns its
	// store-assigned key. The ID field of r is ignored.
	// A unique-active-plate violation is reported as a
	// cerr.Conflict wrapping model.DuplicateActivePlateError.
	Create(ctx context.Context, r *model.VehicleRecord) (string, error)

	// Recover transitions the rid document to the recovered status,
	// stamping the human-readable recovery time and the recoverer
	// session identifier. No status precondition is checked, hence,
	// recovering an already recovered record reapplies the same
	// transition with fresher metadata. The updated record is
	// returned; unknown keys yield a cerr.NotFound.
	Recover(ctx context.Context, rid, recoveredBy, recoveredAtText string) (*model.VehicleRecord, error)
}

// Records is the vehicle records repository, adapting a Conn or Tx
// into a records queryer.
type Records interface {
	Conn(Conn) RecordsConnQueryer
	Tx(Tx) RecordsTxQueryer
}
