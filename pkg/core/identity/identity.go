// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package identity exports the expected interface of the identity
// provider which issues opaque session identities. The core consumes
// exactly one datum from an established session: its stable opaque
// identifier. Gate status (the operational flag) is carried alongside
// for the presentation layer, but it never governs record store
// access. For the token-based implementation, check the adapter layer.
package identity

import (
	"context"
	"errors"

	"github.com/patamocomando/Choque-TAX/pkg/core/model"
)

// ErrSessionUnavailable indicates that the identity step failed and no
// session identity can be obtained. All record store access must stay
// disabled while this condition holds; the core performs no automatic
// retry.
var ErrSessionUnavailable = errors.New("session unavailable")

// ErrInvalidToken indicates that a presented session token could not
// be verified.
var ErrInvalidToken = errors.New("invalid session token")

// Provider issues and verifies opaque session identities.
type Provider interface {
	// Establish creates a session. With an empty credential an
	// anonymous session with a fresh opaque identifier is issued;
	// a non-empty credential is a previously issued token whose
	// identity is resumed. The serialized token for subsequent calls
	// is returned next to the session itself.
	Establish(ctx context.Context, credential string) (model.Session, string, error)

	// Verify resolves a previously issued token into its session.
	Verify(ctx context.Context, token string) (model.Session, error)

	// Elevate reissues the token of the s session with the
	// operational flag set, after the session gate has been passed.
	// The flag only affects what the front end renders.
	Elevate(ctx context.Context, s model.Session) (string, error)
}
