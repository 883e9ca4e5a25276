// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package reportuc

import (
	"errors"
	"time"
)

// Option is a functional option for the record lifecycle use case.
type Option func(uc *UseCase) error

// WithClock option overrides the wall clock which stamps the machine
// and display timestamps of filed reports. It exists for the tests;
// production callers keep the default time.Now.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return errors.New("nil clock")
		}
		uc.now = now
		return nil
	}
}

// WithDisplayLocation option configures the time zone of the
// human-readable timestamp texts, matching what the unit expects to
// read on the mobile front end. This option may be passed to the
// New() function.
func WithDisplayLocation(loc *time.Location) Option {
	return func(uc *UseCase) error {
		if loc == nil {
			return errors.New("nil location")
		}
		uc.displayLoc = loc
		return nil
	}
}
