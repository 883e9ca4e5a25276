// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package jwtauth adapts the identity provider boundary with signed
// HS256 tokens. An anonymous session is a fresh random opaque
// identifier wrapped in a token; a previously issued token resumes the
// same identity. The only datum which the core consumes out of a
// session is that opaque identifier; the operational flag is a
// presentation concern which rides along as a claim.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patamocomando/Choque-TAX/pkg/core/cerr"
	"github.com/patamocomando/Choque-TAX/pkg/core/identity"
	"github.com/patamocomando/Choque-TAX/pkg/core/model"
)

// Claims is the token claims set: the registered claims carry the
// opaque session identifier as the subject, next to one custom
// Operational flag which records a passed session gate.
type Claims struct {
	jwt.RegisteredClaims
	Operational bool `json:"operational,omitempty"`
}

// Provider implements the identity.Provider interface using HS256
// signed tokens.
type Provider struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// New instantiates a token-based identity provider. The key must be
// non-empty and the ttl must be positive.
func New(key []byte, ttl time.Duration) (*Provider, error) {
	if len(key) == 0 {
		return nil, errors.New("empty signing key")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("non-positive token ttl: %v", ttl)
	}
	return &Provider{key: key, ttl: ttl, now: time.Now}, nil
}

// Establish creates a session. With an empty credential a fresh
// anonymous identity is issued; a non-empty credential is an earlier
// token whose identity is resumed (with its operational flag reset,
// since the gate is not persisted across sessions). Failures are
// wrapped as cerr.SessionUnavailable because no record store access is
// possible without an identity.
func (p *Provider) Establish(ctx context.Context, credential string) (model.Session, string, error) {
	s := model.Session{}
	if credential == "" {
		s.UID = uuid.NewString()
	} else {
		resumed, err := p.Verify(ctx, credential)
		if err != nil {
			return model.Session{}, "", cerr.SessionUnavailable(
				fmt.Errorf("%w: %w", identity.ErrSessionUnavailable, err),
			)
		}
		s.UID = resumed.UID
	}
	token, err := p.sign(s)
	if err != nil {
		return model.Session{}, "", cerr.SessionUnavailable(
			fmt.Errorf("%w: %w", identity.ErrSessionUnavailable, err),
		)
	}
	return s, token, nil
}

// Verify resolves a previously issued token into its session.
func (p *Provider) Verify(_ context.Context, token string) (model.Session, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(
		token, claims,
		func(*jwt.Token) (any, error) { return p.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return model.Session{}, fmt.Errorf(
			"%w: %w", identity.ErrInvalidToken, err,
		)
	}
	if !t.Valid || claims.Subject == "" {
		return model.Session{}, identity.ErrInvalidToken
	}
	return model.Session{
		UID:         claims.Subject,
		Operational: claims.Operational,
	}, nil
}

// Elevate reissues the token of the s session with the operational
// flag set.
func (p *Provider) Elevate(_ context.Context, s model.Session) (string, error) {
	s.Operational = true
	token, err := p.sign(s)
	if err != nil {
		return "", fmt.Errorf("reissuing token: %w", err)
	}
	return token, nil
}

func (p *Provider) sign(s model.Session) (string, error) {
	now := p.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		Operational: s.Operational,
	})
	return t.SignedString(p.key)
}
