// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package jwtauth_test

import (
	"context"
	"testing"
	"time"

	"github.com/patamocomando/Choque-TAX/pkg/adapter/auth/jwtauth"
	"github.com/patamocomando/Choque-TAX/pkg/core/cerr"
	"github.com/patamocomando/Choque-TAX/pkg/core/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newProvider(t *testing.T) *jwtauth.Provider {
	p, err := jwtauth.New(testKey, time.Hour)
	require.NoError(t, err, "cannot instantiate provider")
	return p
}

func TestEstablishAnonymous(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s, token, err := p.Establish(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.UID)
	assert.False(t, s.Operational)
	require.NotEmpty(t, token)

	s2, err := p.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, s.UID, s2.UID)

	// two anonymous sessions take distinct identities
	s3, _, err := p.Establish(ctx, "")
	require.NoError(t, err)
	assert.NotEqual(t, s.UID, s3.UID)
}

func TestEstablishResumesIdentity(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s, token, err := p.Establish(ctx, "")
	require.NoError(t, err)

	s2, token2, err := p.Establish(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, s.UID, s2.UID, "token must resume the identity")
	assert.NotEmpty(t, token2)
}

func TestEstablishResetOperational(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s, _, err := p.Establish(ctx, "")
	require.NoError(t, err)

	elevated, err := p.Elevate(ctx, s)
	require.NoError(t, err)
	s2, err := p.Verify(ctx, elevated)
	require.NoError(t, err)
	assert.True(t, s2.Operational)

	// resuming with an elevated token keeps the identity, but the
	// gate has to be passed again
	s3, _, err := p.Establish(ctx, elevated)
	require.NoError(t, err)
	assert.Equal(t, s.UID, s3.UID)
	assert.False(t, s3.Operational)
}

func TestEstablishWithGarbageToken(t *testing.T) {
	p := newProvider(t)
	_, _, err := p.Establish(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, identity.ErrSessionUnavailable)
	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 503, ce.HTTPStatusCode)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	other, err := jwtauth.New(
		[]byte("ffffffffffffffffffffffffffffffff"), time.Hour,
	)
	require.NoError(t, err)
	_, token, err := other.Establish(ctx, "")
	require.NoError(t, err)

	_, err = p.Verify(ctx, token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	ctx := context.Background()
	p, err := jwtauth.New(testKey, time.Millisecond)
	require.NoError(t, err)
	_, token, err := p.Establish(ctx, "")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = p.Verify(ctx, token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestNewRejectsBadInputs(t *testing.T) {
	_, err := jwtauth.New(nil, time.Hour)
	assert.Error(t, err, "empty key must be rejected")
	_, err = jwtauth.New(testKey, 0)
	assert.Error(t, err, "non-positive ttl must be rejected")
}
