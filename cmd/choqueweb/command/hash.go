// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"

	"github.com/patamocomando/Choque-TAX/pkg/adapter/hash/scram"
	scrami "github.com/patamocomando/Choque-TAX/pkg/core/scram"
	"github.com/spf13/cobra"
)

var (
	hashMethod string
	hashIters  int
)

var hashCmd = &cobra.Command{
	Use:   "hash the-secret",
	Short: "Compute the scram hash of a gate secret",
	Long: `Compute the scram hash of a gate secret with a random salt,
so it can be recorded as the auth.gate.secret-hash configuration
setting without ever writing the plaintext secret to disk.`,
	Args: cobra.ExactArgs(1),
	RunE: hashSecret,
}

func hashSecret(_ *cobra.Command, args []string) error {
	var h scrami.Hasher
	switch hashMethod {
	case "scram-sha-1":
		h = scram.SHA1()
	case "scram-sha-256":
		h = scram.SHA256()
	default:
		return fmt.Errorf("unsupported method: %q", hashMethod)
	}
	hash, err := h.Hash(args[0], "", hashIters)
	if err != nil {
		return fmt.Errorf("hashing secret: %w", err)
	}
	fmt.Println(hash)
	return nil
}

func init() {
	hashCmd.Flags().StringVarP(
		&hashMethod, "method", "m", "scram-sha-256",
		"scram-sha-1 or scram-sha-256",
	)
	hashCmd.Flags().IntVarP(
		&hashIters, "iters", "i", 15000, "hash iterations count",
	)
	rootCmd.AddCommand(hashCmd)
}
