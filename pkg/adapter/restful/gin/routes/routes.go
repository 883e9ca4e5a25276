// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes contains all resource packages and facilitates
// instantiation and registration of all repo, use case, and resource
// packages based on the user provided configuration settings.
package routes

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/config"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin/sessionrs"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin/vehiclesrs"
	"github.com/patamocomando/Choque-TAX/pkg/core/log"
	"github.com/patamocomando/Choque-TAX/pkg/core/repo"
)

// Register instantiates relevant repositories and use cases based on
// the c configuration settings. The p connections pool is passed to
// the record lifecycle use case, so it may acquire/release connections
// and transactions on demand. These connections/transactions will be
// passed to the records repository later in order to run relevant
// queries on them and accomplish those use cases. The monitoring use
// case follows the committed records over its own dedicated listening
// connection instead, which is kept open (and reestablished on
// failures) as long as the ctx allows.
// Register instantiates a series of "resource" structs, from packages
// which are named like vehiclesrs, in order to adapt the use cases
// interfaces with the REST APIs. These resources are registered as
// request handlers using the e gin-gonic engine instance.
// Possible errors will be returned after possible wrapping.
func Register(
	ctx context.Context, e *gin.Engine, p repo.Pool, c *config.Config,
) error {
	provider, err := c.Auth.NewIdentityProvider()
	if err != nil {
		return fmt.Errorf("creating identity provider: %w", err)
	}
	gate, err := c.Auth.NewGateUseCase()
	if err != nil {
		return fmt.Errorf("creating gate use case: %w", err)
	}
	u, err := c.Database.ConnectionURL()
	if err != nil {
		return fmt.Errorf("computing connection url: %w", err)
	}
	monitor, err := c.Records.NewMonitorUseCase(
		c.Records.NewRecordsWatcher(u),
	)
	if err != nil {
		return fmt.Errorf("creating monitor use case: %w", err)
	}
	go func() {
		err := monitor.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error(
				ctx, "records monitoring stopped",
				log.Err("error", err),
			)
		}
	}()
	reports, err := c.Records.NewReportUseCase(
		p, c.Records.NewRecordsRepo(), monitor,
	)
	if err != nil {
		return fmt.Errorf("creating report use case: %w", err)
	}
	r := e.Group("/api/choqueweb/v1")
	sessionrs.Register(r, provider, gate)
	vr := r.Group("", sessionrs.Identity(provider))
	vehiclesrs.Register(vr, monitor, reports)
	return nil
}
