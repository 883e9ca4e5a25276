// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package monitoruc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/patamocomando/Choque-TAX/pkg/core/model"
	"github.com/patamocomando/Choque-TAX/pkg/core/repo"
	"github.com/patamocomando/Choque-TAX/pkg/core/usecase/monitoruc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWatcher delivers the events which a test pushes into its channel
// and closes the stream when the watch context is canceled.
type fakeWatcher struct {
	events chan repo.SnapshotEvent
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan repo.SnapshotEvent)}
}

func (w *fakeWatcher) Watch(ctx context.Context) (
	<-chan repo.SnapshotEvent, error,
) {
	out := make(chan repo.SnapshotEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-w.events:
				select {
				case <-ctx.Done():
					return
				case out <- ev:
				}
			}
		}
	}()
	return out, nil
}

func startMonitor(t *testing.T, w repo.RecordsWatcher) (
	*monitoruc.UseCase, context.CancelFunc,
) {
	uc, err := monitoruc.New(w)
	require.NoError(t, err, "cannot instantiate monitoring use case")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := uc.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return uc, cancel
}

func recvUpdate(t *testing.T, ch <-chan monitoruc.Update) monitoruc.Update {
	select {
	case u := <-ch:
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for an update")
		return monitoruc.Update{}
	}
}

func TestRunReplacesMirror(t *testing.T) {
	w := newFakeWatcher()
	uc, _ := startMonitor(t, w)
	updates, release := uc.Subscribe()
	defer release()

	seed := recvUpdate(t, updates)
	require.NoError(t, seed.Err)
	assert.Empty(t, seed.Records, "fresh mirror must be empty")

	records := []model.VehicleRecord{
		record("r1", "AAA1111", model.RecordStatusStolen, day(2)),
		record("r2", "BBB2222", model.RecordStatusRecovered, day(1)),
	}
	w.events <- repo.SnapshotEvent{Records: records}
	u := recvUpdate(t, updates)
	require.NoError(t, u.Err)
	assert.Equal(t, records, u.Records)
	assert.Equal(t, monitoruc.Stats{Active: 1, Recovered: 1}, u.Stats)
	assert.Equal(t, records, uc.Snapshot())

	// the next snapshot replaces, never merges
	w.events <- repo.SnapshotEvent{}
	u = recvUpdate(t, updates)
	require.NoError(t, u.Err)
	assert.Empty(t, u.Records)
	assert.Empty(t, uc.Snapshot())
	assert.Equal(t, monitoruc.Stats{}, uc.Stats())
}

func TestDeliveryErrorFreezesMirror(t *testing.T) {
	w := newFakeWatcher()
	uc, _ := startMonitor(t, w)
	updates, release := uc.Subscribe()
	defer release()
	_ = recvUpdate(t, updates) // seed

	records := []model.VehicleRecord{
		record("r1", "AAA1111", model.RecordStatusStolen, day(1)),
	}
	w.events <- repo.SnapshotEvent{Records: records}
	_ = recvUpdate(t, updates)

	failure := errors.New("listener dropped")
	w.events <- repo.SnapshotEvent{Err: failure}
	u := recvUpdate(t, updates)
	assert.ErrorIs(t, u.Err, failure)
	assert.Equal(
		t, monitoruc.Stats{Active: 1}, u.Stats,
		"stats of the frozen mirror accompany the failure",
	)
	assert.Equal(
		t, records, uc.Snapshot(),
		"a delivery failure must keep the last good contents",
	)
}

func TestSubscribeSeedsCurrentState(t *testing.T) {
	w := newFakeWatcher()
	uc, _ := startMonitor(t, w)
	records := []model.VehicleRecord{
		record("r1", "AAA1111", model.RecordStatusStolen, day(1)),
	}
	w.events <- repo.SnapshotEvent{Records: records}
	require.Eventually(t, func() bool {
		return uc.Stats().Active == 1
	}, 5*time.Second, 10*time.Millisecond)

	updates, release := uc.Subscribe()
	defer release()
	seed := recvUpdate(t, updates)
	require.NoError(t, seed.Err)
	assert.Equal(t, records, seed.Records)
	assert.Equal(t, monitoruc.Stats{Active: 1}, seed.Stats)
}

func TestSlowSubscriberObservesLatest(t *testing.T) {
	w := newFakeWatcher()
	uc, _ := startMonitor(t, w)
	updates, release := uc.Subscribe()
	defer release()
	// do not consume the seed; let newer deliveries supersede it
	first := []model.VehicleRecord{
		record("r1", "AAA1111", model.RecordStatusStolen, day(1)),
	}
	second := []model.VehicleRecord{
		record("r1", "AAA1111", model.RecordStatusRecovered, day(1)),
	}
	w.events <- repo.SnapshotEvent{Records: first}
	w.events <- repo.SnapshotEvent{Records: second}
	require.Eventually(t, func() bool {
		return uc.Stats().Recovered == 1
	}, 5*time.Second, 10*time.Millisecond)

	u := recvUpdate(t, updates)
	require.NoError(t, u.Err)
	assert.Equal(
		t, second, u.Records,
		"a lagging subscriber must observe the latest delivery",
	)
}

func TestSubscribeCatchesConcurrentDelivery(t *testing.T) {
	w := newFakeWatcher()
	uc, _ := startMonitor(t, w)
	// a delivery racing the subscription must reach the subscriber,
	// through the seed or through the fan-out, even when no further
	// push ever follows
	for i := 0; i < 50; i++ {
		records := []model.VehicleRecord{
			record("r1", "AAA1111", model.RecordStatusStolen, day(1+i%27)),
		}
		sent := make(chan struct{})
		go func() {
			defer close(sent)
			w.events <- repo.SnapshotEvent{Records: records}
		}()
		updates, release := uc.Subscribe()
		<-sent
		require.Eventually(t, func() bool {
			select {
			case u := <-updates:
				return assert.ObjectsAreEqual(records, u.Records)
			default:
				return false
			}
		}, 5*time.Second, time.Millisecond,
			"delivery %d was lost by a racing subscription", i,
		)
		release()
	}
}

func TestHasActivePlate(t *testing.T) {
	w := newFakeWatcher()
	uc, _ := startMonitor(t, w)
	w.events <- repo.SnapshotEvent{Records: []model.VehicleRecord{
		record("r1", "AAA1111", model.RecordStatusStolen, day(1)),
		record("r2", "BBB2222", model.RecordStatusRecovered, day(2)),
	}}
	require.Eventually(t, func() bool {
		return uc.Stats().Active == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, uc.HasActivePlate("AAA1111"))
	assert.False(
		t, uc.HasActivePlate("BBB2222"),
		"recovered plates may be reported again",
	)
	assert.False(t, uc.HasActivePlate("CCC3333"))
}
