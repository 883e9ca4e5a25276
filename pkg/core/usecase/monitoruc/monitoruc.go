// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package monitoruc contains the monitoring use case: an in-memory
// mirror of the record store collection which is replaced wholesale on
// every push delivery, next to the derivations which the operational
// view renders, that is, the per-status counts and the filtered/sorted
// presentation sequence.
//
// A delivery error freezes the mirror at its last good contents
// (stale-but-available) and is propagated to the live subscribers as a
// notification; the subscription itself is never retried here since
// the transport owns reconnection.
package monitoruc

import (
	"context"
	"fmt"
	"sync"

	"github.com/patamocomando/Choque-TAX/pkg/core/log"
	"github.com/patamocomando/Choque-TAX/pkg/core/model"
	"github.com/patamocomando/Choque-TAX/pkg/core/repo"
)

// Update is one delivery to a live view subscriber. When Err is nil,
// Records and Stats describe the freshly replaced collection contents.
// When Err is non-nil, the delivery failed and the previously
// delivered contents remain valid for rendering.
type Update struct {
	Records []model.VehicleRecord
	Stats   Stats
	Err     error
}

// UseCase mirrors the watched record collection. The mirror is owned
// and exclusively written by the Run loop; view handlers only read it.
type UseCase struct {
	watcher repo.RecordsWatcher

	mu      sync.RWMutex
	records []model.VehicleRecord

	smu     sync.Mutex
	subs    map[chan Update]struct{}
	subSize int
}

// New instantiates a monitoring use case over the given collection
// watcher.
func New(w repo.RecordsWatcher, opts ...Option) (*UseCase, error) {
	uc := &UseCase{
		watcher: w,
		subs:    make(map[chan Update]struct{}),
	}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	// now, deal with defaults
	if uc.subSize == 0 {
		uc.subSize = 1
	}
	return uc, nil
}

// Run subscribes to the record store and consumes push deliveries
// until ctx is canceled, replacing the whole mirror on every
// successful delivery and fanning the change out to subscribers.
// It must be called at most once.
func (m *UseCase) Run(ctx context.Context) error {
	events, err := m.watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to record store: %w", err)
	}
	for ev := range events {
		if ev.Err != nil {
			log.Warn(ctx, "snapshot delivery failed",
				log.Err("error", ev.Err),
			)
			m.fanout(Update{Err: ev.Err, Stats: m.Stats()})
			continue
		}
		m.mu.Lock()
		m.records = ev.Records
		m.mu.Unlock()
		m.fanout(Update{Records: ev.Records, Stats: Count(ev.Records)})
	}
	return ctx.Err()
}

// Snapshot returns a copy of the current mirror contents in their
// arrival order.
func (m *UseCase) Snapshot() []model.VehicleRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make([]model.VehicleRecord, len(m.records))
	copy(snap, m.records)
	return snap
}

// Stats derives the per-status counts of the current mirror contents.
func (m *UseCase) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Count(m.records)
}

// Sequence derives the presentation sequence of the current mirror
// contents for the given query text.
func (m *UseCase) Sequence(query string) []model.VehicleRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Sequence(m.records, query)
}

// HasActivePlate reports whether some mirrored record carries the
// given normalized plate in the stolen status. This is the
// duplicate-active check of the report filing operation: it reads the
// local mirror, not the store, so two filers racing between two push
// deliveries may both pass it (the store-side uniqueness constraint
// then fails the later write).
func (m *UseCase) HasActivePlate(plate string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.records {
		if m.records[i].Active() && m.records[i].Plate == plate {
			return true
		}
	}
	return false
}

// Subscribe registers a live view subscriber and seeds it with the
// current mirror contents, so a fresh consumer renders immediately.
// The returned cancel function releases the subscription and must be
// called when the consuming view is torn down.
func (m *UseCase) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, m.subSize)
	m.smu.Lock()
	// registering before seeding closes the window where a push
	// landing in between would be missed until the next push; the
	// seed send cannot block since fanout waits on the same lock
	// and the fresh channel buffer is empty
	m.subs[ch] = struct{}{}
	ch <- Update{Records: m.Snapshot(), Stats: m.Stats()}
	m.smu.Unlock()
	return ch, func() {
		m.smu.Lock()
		delete(m.subs, ch)
		m.smu.Unlock()
	}
}

// fanout delivers u to every subscriber without ever blocking the Run
// loop: a subscriber which is not keeping up loses its queued delivery
// in favor of the latest one, which is sound because every delivery
// carries the full collection state.
func (m *UseCase) fanout(u Update) {
	m.smu.Lock()
	defer m.smu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- u:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- u:
		default:
		}
	}
}
