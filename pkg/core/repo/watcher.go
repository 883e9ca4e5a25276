// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/patamocomando/Choque-TAX/pkg/core/model"
)

// SnapshotEvent is one push delivery of the watched collection.
// Exactly one of the two fields is meaningful: either Records holds
// the full current collection contents, ordered by arrival (a nil or
// empty slice is a valid, empty collection), or Err reports a
// delivery failure. A delivery failure is non-fatal for the stream;
// the transport keeps the subscription alive and further events may
// follow.
type SnapshotEvent struct {
	Records []model.VehicleRecord
	Err     error
}

// RecordsWatcher is the live subscription side of the record store
// boundary. Implementations deliver an initial full snapshot promptly
// after Watch and a fresh full snapshot after every collection change,
// replacing (never merging with) earlier deliveries. Reconnecting
// after transport failures is the implementation's own concern; the
// consumer never resubscribes on errors.
type RecordsWatcher interface {
	// Watch subscribes to the collection. The returned channel is
	// closed when ctx is canceled, which is the only way to release
	// the subscription.
	Watch(ctx context.Context) (<-chan SnapshotEvent, error)
}
