// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scram exports the expected interfaces for Salted Challenge
// Response Authentication Mechanism (SCRAM) hashing. For the
// corresponding implementation, check the adapter layer.
//
// The session gate only needs to verify one fixed shared credential
// without keeping its plaintext in the configuration file. For that
// purpose it is enough to generate a hash string with the standard
// scram format (having a password, salt, and iteration count) once,
// store it in the configuration, and recompute it with the recorded
// salt and iteration count whenever a submitted secret has to be
// compared. Challenge/response conversations, as defined by RFC 5802
// and RFC 7677, are not required in the use cases layer, so no client
// or server conversation interfaces are defined here.
package scram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Hasher represents the expectations from a SCRAM hasher
// implementation which for a specific underlying hash function (e.g.,
// SHA1 or SHA256) computes the storedKey and serverKey values whenever
// its Hash method is called with the relevant pass, salt, and iters
// arguments, representing password, random salt value, and hashing
// iterations count. A PBKDF2 algorithm is computed in order to slow
// down a dictionary attack as detailed in RFC 5802.
type Hasher interface {
	// Hash computes a hash string following the standard scram hash
	// format, so it can be stored and used later for authentication.
	//
	// The pass argument must be non-empty. The salt must contain a
	// base64 encoding of the desired salt bytes, otherwise, if an
	// empty value is passed, a random salt will be generated and used
	// instead. The iters must be at least equal to 4096 while RFC 7677
	// recommends 15000 or more.
	//
	// In absence of errors, a hashed string will be returned which
	// conforms to the following format, consisting only of ASCII
	// printable letters.
	//
	//	SCRAM-{SHA-X}${iters}:{b64-salt}${b64-storedKey}:{b64-serverKey}
	Hash(pass, salt string, iters int) (string, error)
}

// ErrMalformedHash indicates that a stored hash string does not follow
// the standard scram hash format and its salt and iteration count may
// not be recovered for a verification attempt.
var ErrMalformedHash = errors.New("malformed scram hash")

// SaltIters extracts the base64 salt and iteration count out of a
// stored scram hash string, so the same parameters can be passed to a
// Hasher in order to recompute and compare the complete hash string.
func SaltIters(hash string) (salt string, iters int, err error) {
	_, rest, found := strings.Cut(hash, "$")
	if !found {
		return "", 0, ErrMalformedHash
	}
	params, _, found := strings.Cut(rest, "$")
	if !found {
		return "", 0, ErrMalformedHash
	}
	is, salt, found := strings.Cut(params, ":")
	if !found {
		return "", 0, ErrMalformedHash
	}
	iters, err = strconv.Atoi(is)
	if err != nil {
		return "", 0, fmt.Errorf("%w: iters: %v", ErrMalformedHash, err)
	}
	return salt, iters, nil
}
