// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"

	"github.com/patamocomando/Choque-TAX/pkg/adapter/config"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/db/postgres"
	"github.com/patamocomando/Choque-TAX/pkg/core/repo"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management actions",
	Long: `Database management actions can be chosen by sub-commands.
For a fresh installation, the init sub-command creates the vehicle
records table, its indices, and the notification trigger objects.
The init sub-command is idempotent and may be repeated safely.`,
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema objects",
	RunE:  initDatabase,
}

func initDatabase(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	p, err := c.Database.ConnectionPool(ctx)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()
	err = p.Conn(ctx, func(ctx context.Context, cc repo.Conn) error {
		return cc.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			return postgres.InitSchema(ctx, tx)
		})
	})
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	fmt.Println("database schema is initialized")
	return nil
}

func init() {
	dbCmd.AddCommand(dbInitCmd)
	rootCmd.AddCommand(dbCmd)
}
