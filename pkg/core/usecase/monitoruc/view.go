// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package monitoruc

import (
	"sort"

	"github.com/patamocomando/Choque-TAX/pkg/core/model"
)

// Stats holds the aggregate per-status counts over the full cached
// collection. The search query never affects these numbers.
type Stats struct {
	Active    int `json:"active"`    // records in the stolen status
	Recovered int `json:"recovered"` // records in the recovered status
}

// Count derives the Stats of the given records. Every record has
// exactly one of the two statuses, so Active+Recovered equals the
// collection size.
func Count(records []model.VehicleRecord) Stats {
	var s Stats
	for i := range records {
		if records[i].Active() {
			s.Active++
		} else {
			s.Recovered++
		}
	}
	return s
}

// Sequence derives the presentation sequence of the given records:
// records whose plate or model contains the query text as a
// case-insensitive substring, sorted by status priority first (stolen
// before recovered, regardless of timestamps) and by the machine
// report timestamp descending second (most recent report first, with
// absent timestamps sorting last). The sort is stable, so records with
// equal keys keep their relative arrival order. An empty query keeps
// the whole collection. The records argument is never mutated; a fresh
// slice is returned.
func Sequence(records []model.VehicleRecord, query string) []model.VehicleRecord {
	seq := make([]model.VehicleRecord, 0, len(records))
	for i := range records {
		if records[i].Matches(query) {
			seq = append(seq, records[i])
		}
	}
	sort.SliceStable(seq, func(i, j int) bool {
		pi, pj := seq[i].Status.Priority(), seq[j].Status.Priority()
		if pi != pj {
			return pi < pj
		}
		return seq[i].ReportedAt.After(seq[j].ReportedAt)
	})
	return seq
}
