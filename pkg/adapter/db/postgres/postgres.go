// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package postgres adapts the record store boundary with a PostgreSQL
// DBMS. The vehicle records document collection is one namespaced
// table; writes notify the collection channel within their own
// transaction while the recordsrp sub-package delivers full collection
// snapshots to its subscribers through LISTEN/NOTIFY.
package postgres

import (
	"context"
	"fmt"

	"github.com/patamocomando/Choque-TAX/pkg/core/repo"
)

// schemaDDL creates the vehicle records collection schema. Statements
// are idempotent, so re-running the initialization is harmless.
//
// The partial unique index realizes the at-most-one-active-record-per
// -plate rule at the store side: the client-side duplicate check reads
// a possibly stale mirror, hence, two racing filers may both pass it
// and only this index keeps the second write out.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS vehicle_records (
    rid uuid PRIMARY KEY,
    seq bigint GENERATED ALWAYS AS IDENTITY,
    namespace text NOT NULL,
    vtype text NOT NULL DEFAULT '',
    plate text NOT NULL DEFAULT '',
    model text NOT NULL DEFAULT '',
    color text NOT NULL DEFAULT '',
    year text NOT NULL DEFAULT '',
    location text NOT NULL DEFAULT '',
    notes text NOT NULL DEFAULT '',
    status text NOT NULL CHECK (status IN ('STOLEN', 'RECOVERED')),
    reported_at timestamptz,
    reported_at_text text NOT NULL DEFAULT '',
    recovered_at_text text NOT NULL DEFAULT '',
    reported_by text NOT NULL DEFAULT '',
    recovered_by text NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS vehicle_records_active_plate
    ON vehicle_records (namespace, plate) WHERE status = 'STOLEN';
CREATE INDEX IF NOT EXISTS vehicle_records_arrival
    ON vehicle_records (namespace, seq);
`

// InitSchema creates the vehicle records schema objects if they do not
// exist yet. It is invoked by the "db init" command and by the
// integration test suites.
func InitSchema(ctx context.Context, q repo.Queryer) error {
	if _, err := q.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("creating schema objects: %w", err)
	}
	return nil
}
