// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model_test

import (
	"testing"

	"github.com/patamocomando/Choque-TAX/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStatus(t *testing.T) {
	for _, tc := range []struct {
		name     string
		status   model.RecordStatus
		str      string
		priority int
	}{
		{"stolen", model.RecordStatusStolen, "STOLEN", 0},
		{"recovered", model.RecordStatusRecovered, "RECOVERED", 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, tc.status.Validate())
			assert.Equal(t, tc.str, tc.status.String())
			assert.Equal(t, tc.priority, tc.status.Priority())

			b, err := tc.status.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, tc.str, string(b))

			parsed, err := model.ParseRecordStatus(tc.str)
			require.NoError(t, err)
			assert.Equal(t, tc.status, parsed)
		})
	}
}

func TestInvalidRecordStatus(t *testing.T) {
	var s model.RecordStatus
	assert.Error(t, s.Validate())
	assert.Equal(t, 2, s.Priority())
	assert.Panics(t, func() { _ = s.String() })

	_, err := s.MarshalText()
	assert.Error(t, err)

	_, err = model.ParseRecordStatus("stolen")
	assert.ErrorIs(t, err, model.ErrUnknownRecordStatus)

	err = s.UnmarshalText([]byte("MISSING"))
	assert.ErrorIs(t, err, model.ErrUnknownRecordStatus)
}

func TestNormalizePlate(t *testing.T) {
	for _, tc := range []struct {
		in, out string
	}{
		{" abc1234 ", "ABC1234"},
		{"abc1d23", "ABC1D23"},
		{"ABC1234", "ABC1234"},
		{"\tqgc8i75\n", "QGC8I75"},
		{"", ""},
		{"   ", ""},
	} {
		assert.Equal(t, tc.out, model.NormalizePlate(tc.in), tc.in)
	}
}

func TestMatches(t *testing.T) {
	r := &model.VehicleRecord{
		Plate: "QGC8I75",
		Model: "VW Gol",
	}
	for _, tc := range []struct {
		query string
		want  bool
	}{
		{"", true},
		{"qgc", true},
		{"8i7", true},
		{"gol", true},
		{"vw g", true},
		{"uno", false},
		{"qgc9", false},
	} {
		assert.Equal(t, tc.want, r.Matches(tc.query), tc.query)
	}
	// absent fields behave as empty strings
	empty := &model.VehicleRecord{}
	assert.True(t, empty.Matches(""))
	assert.False(t, empty.Matches("gol"))
}

func TestActive(t *testing.T) {
	r := &model.VehicleRecord{Status: model.RecordStatusStolen}
	assert.True(t, r.Active())
	r.Status = model.RecordStatusRecovered
	assert.False(t, r.Active())
}

func TestSessionEstablished(t *testing.T) {
	assert.False(t, model.Session{}.Established())
	assert.True(t, model.Session{UID: "u1"}.Established())
	assert.True(
		t, model.Session{UID: "u1", Operational: true}.Established(),
	)
}
