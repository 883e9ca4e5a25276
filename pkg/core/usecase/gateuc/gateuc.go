// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gateuc contains the session gate use case. The gate compares
// a submitted identifier/secret pair against one fixed credential
// which is known at deployment time and, on match, marks the session
// as operational so the front end may show the operational view.
//
// The gate is a visibility gate, not an access-control boundary: it
// never talks to the identity provider or the record store, permits
// any number of attempts, and its verdict is not consulted for store
// access. The secret is kept as a scram hash, so no plaintext literal
// lives in the configuration file.
package gateuc

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/patamocomando/Choque-TAX/pkg/core/log"
	"github.com/patamocomando/Choque-TAX/pkg/core/model"
	"github.com/patamocomando/Choque-TAX/pkg/core/scram"
)

// UseCase represents the session gate use case, holding the fixed
// credential pair (identifier plus scram-hashed secret) and the hasher
// which recomputes submitted secrets for comparison.
type UseCase struct {
	identifier string
	secretHash string
	hasher     scram.Hasher
}

// New instantiates a session gate use case for the given fixed
// credential. The secretHash must follow the standard scram hash
// format, so its salt and iteration count can be recovered for
// verification; malformed hashes are rejected here rather than at the
// first authentication attempt.
func New(identifier, secretHash string, h scram.Hasher) (*UseCase, error) {
	if identifier == "" {
		return nil, fmt.Errorf("empty gate identifier")
	}
	if _, _, err := scram.SaltIters(secretHash); err != nil {
		return nil, fmt.Errorf("gate secret hash: %w", err)
	}
	return &UseCase{
		identifier: identifier,
		secretHash: secretHash,
		hasher:     h,
	}, nil
}

// Authenticate compares the submitted identifier and secret against
// the fixed credential and returns the resulting session. On match,
// the returned session is s with its operational flag set; on
// mismatch, s is returned unchanged next to ok=false, so prior state
// is preserved and the caller may surface a transient notice. There is
// no lockout or attempt limiting.
func (g *UseCase) Authenticate(s model.Session, identifier, secret string) (_ model.Session, ok bool) {
	salt, iters, err := scram.SaltIters(g.secretHash)
	if err != nil {
		// unreachable; New validated the stored hash
		return s, false
	}
	h, err := g.hasher.Hash(secret, salt, iters)
	if err != nil {
		log.Warn(context.Background(), "hashing submitted gate secret",
			log.Err("error", err),
		)
		return s, false
	}
	idOK := subtle.ConstantTimeCompare(
		[]byte(identifier), []byte(g.identifier),
	)
	secOK := subtle.ConstantTimeCompare([]byte(h), []byte(g.secretHash))
	if idOK&secOK != 1 {
		return s, false
	}
	s.Operational = true
	return s, true
}
