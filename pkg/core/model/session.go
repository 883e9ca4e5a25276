// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

// Session is the transient per-user state and is never persisted
// beyond the process lifetime. The UID is the opaque stable identifier
// which the identity provider assigned when the session was
// established; it is the only datum which the core consumes from that
// provider. Operational records whether the session gate has been
// passed; it gates the operational view visibility only and is never
// consulted for record store access.
type Session struct {
	UID         string
	Operational bool
}

// Established reports whether an identity provider session exists.
// Record store reads and writes require an established session and
// must no-op without one.
func (s Session) Established() bool {
	return s.UID != ""
}
