// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands for the
// choqueweb project. Commands are organized using the cobra library.
// The root command starts the web server itself while the "db"
// sub-command can be used for the database schema initialization and
// the "hash" sub-command can be used for computing the scram hash of
// a gate secret (to be stored in the configuration file).
//
//	./choqueweb [-c /path/of/main/config.yaml]       # start web server
//	./choqueweb db init [-c /path/of/main/config.yaml]
//	./choqueweb hash [-m scram-sha-256] the-secret
package command

import (
	"context"
	"fmt"
	"os"

	"github.com/patamocomando/Choque-TAX/pkg/adapter/config"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin/routes"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "choqueweb",
	Short: "A stolen vehicles tracking board for shock-police units",
	Long: `A stolen vehicles tracking board for shock-police units.
It keeps one shared list of stolen and recovered vehicle reports and
pushes every committed change to all connected clients, so the whole
unit observes the same board at the same time. Any client may follow
the board anonymously, while filing a report or marking a recovery
requires passing the operational gate with the shared credential.`,
	RunE: startWebServer,
}

func startWebServer(_ *cobra.Command, _ []string) error {
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
	var e *gin.Engine = c.Gin.NewEngine()
	if err = routes.Register(ctx, e, p, c); err != nil {
		return fmt.Errorf("registering routes: %w", err)
	}
	if err = e.Run(c.Gin.Listen); err != nil {
		return fmt.Errorf("running Gin engine: %w", err)
	}
	return nil
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command. The exit code may
// be a boolean (zero for success and non-zero for failure) or may be
// chosen based on the error condition (if it is desired to report
// several error conditions in the CLI of this program).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		// the default path should usually be in the /etc directory
		cfgPath = "configs/sample-config.yaml"
	}
}
