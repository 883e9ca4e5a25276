// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package recordsrp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/patamocomando/Choque-TAX/pkg/core/model"
	"github.com/patamocomando/Choque-TAX/pkg/core/repo"
)

// Watcher delivers full snapshots of one namespaced collection. It
// holds a dedicated LISTEN connection (a pooled connection may not
// listen, as the pool would hand it to other queries) and re-reads the
// entire collection on every notification, realizing the
// full-replacement push contract. The watcher is the transport of the
// subscription: delivery failures are pushed to the consumer as
// events while the watcher reconnects with a fixed backoff on its own;
// consumers never resubscribe.
type Watcher struct {
	url       string
	namespace string
	backoff   time.Duration
}

// NewWatcher instantiates a collection watcher which connects to the
// url DBMS and listens on the namespace channel.
func NewWatcher(url, namespace string) *Watcher {
	return &Watcher{
		url:       url,
		namespace: namespace,
		backoff:   time.Second,
	}
}

// Watch subscribes to the collection. The returned channel delivers an
// initial full snapshot promptly, a fresh full snapshot after every
// committed collection change, and an error event for every delivery
// failure. It is closed when ctx is canceled, releasing the
// subscription and its connection.
func (w *Watcher) Watch(ctx context.Context) (<-chan repo.SnapshotEvent, error) {
	events := make(chan repo.SnapshotEvent)
	go w.run(ctx, events)
	return events, nil
}

func (w *Watcher) run(ctx context.Context, events chan<- repo.SnapshotEvent) {
	defer close(events)
	for ctx.Err() == nil {
		err := w.session(ctx, events)
		if err == nil || ctx.Err() != nil {
			return
		}
		w.deliver(ctx, events, repo.SnapshotEvent{Err: err})
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.backoff):
		}
	}
}

// session runs one LISTEN connection until it fails or ctx ends.
// A nil return value means ctx ended and the watch is over.
func (w *Watcher) session(ctx context.Context, events chan<- repo.SnapshotEvent) error {
	conn, err := pgx.Connect(ctx, w.url)
	if err != nil {
		return fmt.Errorf("connecting for LISTEN: %w", err)
	}
	defer conn.Close(context.Background())
	_, err = conn.Exec(
		ctx, "LISTEN "+pgx.Identifier{w.namespace}.Sanitize(),
	)
	if err != nil {
		return fmt.Errorf("listening on %q: %w", w.namespace, err)
	}
	records, err := w.list(ctx, conn)
	if err != nil {
		return err
	}
	w.deliver(ctx, events, repo.SnapshotEvent{Records: records})
	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("waiting for notification: %w", err)
		}
		records, err := w.list(ctx, conn)
		if err != nil {
			return err
		}
		w.deliver(ctx, events, repo.SnapshotEvent{Records: records})
	}
}

// list re-reads the whole collection in arrival order over the LISTEN
// connection itself (no notification can be missed meanwhile; it is
// buffered by the server and picked up by the next wait).
func (w *Watcher) list(ctx context.Context, conn *pgx.Conn) ([]model.VehicleRecord, error) {
	rows, err := conn.Query(ctx, `
		SELECT rid::text, vtype, plate, model, color, year,
		       location, notes, status, reported_at,
		       reported_at_text, recovered_at_text,
		       reported_by, recovered_by
		FROM vehicle_records WHERE namespace = $1 ORDER BY seq`,
		w.namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	defer rows.Close()
	var records []model.VehicleRecord
	for rows.Next() {
		var r model.VehicleRecord
		var status string
		var reportedAt *time.Time
		err := rows.Scan(
			&r.ID, &r.Type, &r.Plate, &r.Model, &r.Color, &r.Year,
			&r.Location, &r.Notes, &status, &reportedAt,
			&r.ReportedAtText, &r.RecoveredAtText,
			&r.ReportedBy, &r.RecoveredBy,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		// a degenerate status is kept invalid, never faulting the rest
		r.Status, _ = model.ParseRecordStatus(status)
		if reportedAt != nil {
			r.ReportedAt = reportedAt.UTC()
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading snapshot rows: %w", err)
	}
	return records, nil
}

func (w *Watcher) deliver(ctx context.Context, events chan<- repo.SnapshotEvent, ev repo.SnapshotEvent) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
