// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model defines the inner most layer of the Clean Architecture
// containing the business-level models, also called entities or domain.
// This layer may not depend on outter layers, while all other layers
// may depend on it.
// By the way, it is acceptable to annotate structs in this package with
// multiple frameworks dependent tags (e.g., as required by ORM
// libraries) since adding more tags does not complicate definition of
// a struct, but can prevent unnecessary structs duplication.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RecordStatus specifies the lifecycle status enum of a vehicle
// record. A record starts as stolen and may transition to recovered
// exactly once (recovered is terminal and records are never deleted).
// Although this enum is numeric, it is (de)serialized as a string for
// readability in the adapter layer.
type RecordStatus int

// Valid values for the RecordStatus enum.
const (
	RecordStatusInvalid RecordStatus = iota // zero value is invalid

	RecordStatusStolen    // an active report; the vehicle is missing
	RecordStatusRecovered // terminal; the vehicle has been found
)

// ErrUnknownRecordStatus indicates that a given string may not be
// parsed as a valid/known record status. This error does not carry the
// invalid status string itself because the caller of Parse already
// knows about it and can wrap this error with that information.
var ErrUnknownRecordStatus = errors.New("unknown record status")

// RecordStatusError indicates an invalid record status value,
// containing the invalid status as an integer.
type RecordStatusError int

// Error implements the error interface, returning a string
// representation of the RecordStatusError.
func (e RecordStatusError) Error() string {
	return fmt.Sprintf("invalid record status: %d", int(e))
}

// Validate returns nil if RecordStatus value is valid. For invalid
// values, an instance of the RecordStatusError will be returned.
func (s RecordStatus) Validate() error {
	switch s {
	case RecordStatusStolen, RecordStatusRecovered:
		return nil
	default:
		return RecordStatusError(s)
	}
}

// String converts the RecordStatus enum to a string, helping to
// serialize it for transmission to web clients. Invalid record status
// causes a panic.
func (s RecordStatus) String() string {
	switch s {
	case RecordStatusStolen:
		return "STOLEN"
	case RecordStatusRecovered:
		return "RECOVERED"
	default:
		panic(RecordStatusError(s))
	}
}

// Priority returns the presentation rank of this status. Stolen
// records always rank above recovered ones, independent of their
// timestamps, hence, stolen maps to 0 and recovered maps to 1.
// Invalid statuses rank after both.
func (s RecordStatus) Priority() int {
	switch s {
	case RecordStatusStolen:
		return 0
	case RecordStatusRecovered:
		return 1
	default:
		return 2
	}
}

// MarshalText implements encoding.TextMarshaler, serializing the
// status using its String method. Invalid statuses are reported as an
// error instead of a panic, so a partially initialized record cannot
// take down a serialization path.
func (s RecordStatus) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using
// ParseRecordStatus.
func (s *RecordStatus) UnmarshalText(data []byte) error {
	ss, err := ParseRecordStatus(string(data))
	if err != nil {
		return fmt.Errorf("parsing %q: %w", string(data), err)
	}
	*s = ss
	return nil
}

// ParseRecordStatus parses the given string and returns a
// RecordStatus, helping to deserialize it when reading a REST API
// request or a database row. For invalid strings, RecordStatusInvalid
// and ErrUnknownRecordStatus will be returned.
func ParseRecordStatus(s string) (RecordStatus, error) {
	switch s {
	case "STOLEN":
		return RecordStatusStolen, nil
	case "RECOVERED":
		return RecordStatusRecovered, nil
	default:
		return RecordStatusInvalid, ErrUnknownRecordStatus
	}
}

// DisplayTimeLayout is the human-readable timestamp layout which is
// presented verbatim by the mobile front end, following the dd/mm/yyyy
// convention of the unit's locale.
const DisplayTimeLayout = "02/01/2006, 15:04:05"

// VehicleRecord models one stolen/recovered vehicle report as it is
// persisted in the record store. The ID is the store-assigned document
// key, immutable after creation. Records are created as stolen by the
// report-filing operation and mutated only by the recovery operation,
// never edited otherwise and never deleted.
//
// Any field other than ID and Status may be absent on older records,
// so consumers must treat zero values as valid inputs.
type VehicleRecord struct {
	ID string `json:"id"` // store-assigned document key

	Type     string `json:"type"`     // vehicle kind (car, motorcycle, ...)
	Plate    string `json:"plate"`    // normalized license plate
	Model    string `json:"model"`    // free-form make/model text
	Color    string `json:"color"`    // free-form color text
	Year     string `json:"year"`     // free-form year text
	Location string `json:"location"` // occurrence location
	Notes    string `json:"notes"`    // free-form tactical notes

	Status RecordStatus `json:"status"`

	// ReportedAt is the machine-sortable report timestamp (UTC).
	// A zero value means the timestamp is absent or unparseable and
	// such records must sort after every dated record.
	ReportedAt time.Time `json:"timestamp"`
	// ReportedAtText is the human-readable report time, formatted with
	// DisplayTimeLayout at filing time.
	ReportedAtText string `json:"reported_at"`
	// RecoveredAtText is the human-readable recovery time. It is empty
	// until the record is recovered.
	RecoveredAtText string `json:"recovered_at,omitempty"`

	ReportedBy  string `json:"reported_by"`            // filer session id
	RecoveredBy string `json:"recovered_by,omitempty"` // recoverer session id
}

// NormalizePlate trims surrounding whitespace and upper-cases the
// given plate text. Every plate comparison and every stored plate
// value goes through this normalization first.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// Matches reports whether this record should be part of a presentation
// sequence which is filtered by the query text. The query is matched
// as a case-insensitive substring against the plate and model fields;
// absent fields behave as empty strings. An empty query matches every
// record.
func (r *VehicleRecord) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(r.Plate), q) ||
		strings.Contains(strings.ToLower(r.Model), q)
}

// Active reports whether this record is an active (stolen) report.
func (r *VehicleRecord) Active() bool {
	return r.Status == RecordStatusStolen
}

// DuplicateActivePlateError indicates that filing a report was
// rejected because another record with the same normalized plate is
// still in the stolen status. The error value carries the normalized
// plate text.
type DuplicateActivePlateError string

// Error implements the error interface.
func (e DuplicateActivePlateError) Error() string {
	return fmt.Sprintf("plate %s already has an active report", string(e))
}
