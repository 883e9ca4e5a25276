// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package monitoruc

import "fmt"

// Option represents an optional parameter of the monitoring use case.
type Option func(*UseCase) error

// WithSubscriberBuffer configures the per-subscriber delivery buffer
// size. The size must be positive; one is enough for correctness since
// every delivery carries the full collection state and a newer
// delivery supersedes a queued one.
func WithSubscriberBuffer(size int) Option {
	return func(uc *UseCase) error {
		if size <= 0 {
			return fmt.Errorf("non-positive buffer size: %d", size)
		}
		uc.subSize = size
		return nil
	}
}
