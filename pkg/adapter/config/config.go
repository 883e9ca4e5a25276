// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files from its users and allows the choqueweb to instantiate
// different components, from the adapter or use cases layers, using
// those loaded configuration settings.
// The parsed and validated configurations should be passed to their
// ultimate components as a series of individual params (for the
// mandatory items) and a series of functional options (for the
// optional items), so they may be accumulated and validated in the
// relevant end-component such as a UseCase instance.
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patamocomando/Choque-TAX/pkg/adapter/auth/jwtauth"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/config/settings"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/db/postgres"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/db/postgres/recordsrp"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/hash/scram"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin"
	"github.com/patamocomando/Choque-TAX/pkg/core/identity"
	"github.com/patamocomando/Choque-TAX/pkg/core/repo"
	scrami "github.com/patamocomando/Choque-TAX/pkg/core/scram"
	"github.com/patamocomando/Choque-TAX/pkg/core/usecase/gateuc"
	"github.com/patamocomando/Choque-TAX/pkg/core/usecase/monitoruc"
	"github.com/patamocomando/Choque-TAX/pkg/core/usecase/reportuc"
	"gopkg.in/yaml.v3"
)

// Config contains all settings which are required by different parts
// of the project, such as adapters or use cases.
type Config struct {
	Database Database // PostgreSQL database connection settings
	Gin      Gin      // Gin-Gonic instantiation settings
	Auth     Auth     // Identity session and operational gate settings
	Records  Records  // Vehicle records collection settings
}

// Load function loads, validates, and normalizes the configuration
// file and returns its settings as an instance of the Config struct.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// ValidateAndNormalize validates the configuration settings and
// returns an error if they were not acceptable. It can also modify
// settings in order to normalize them or replace some zero values
// with their expected default values (if any).
func (c *Config) ValidateAndNormalize() error {
	if err := c.Database.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	c.Gin.ValidateAndNormalize()
	if err := c.Auth.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Records.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("records: %w", err)
	}
	return nil
}

// Database contains the database related configuration settings.
type Database struct {
	Host    string // domain name or IP address of the DBMS server
	Port    int    // port number of the DBMS server
	Name    string // database name, like choqueweb
	Role    string // database role name, like choqueweb_role
	PassDir string `yaml:"pass-dir"` // path of the passwords dir
}

// ConnectionPool creates a database connection pool using the
// connection information which are kept in the `d` settings.
func (d Database) ConnectionPool(
	ctx context.Context,
) (repo.Pool, error) {
	u, err := d.ConnectionURL()
	if err != nil {
		return nil, err
	}
	p, err := postgres.NewPool(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("postgres.NewPool: %w", err)
	}
	return p, nil
}

// ConnectionURL returns the database connection URL embedding the
// host, port, role name, database name, and password value. These
// items are directly taken from the `d` settings, but the password
// value which is read from the .pgpass file in the d.PassDir folder.
// That file may contain empty or `#`-commented lines in addition to
// the password specifying lines which should conform with the pgpass
// files format with lines like this:
//
//	host:port:dbname:role:password
//
// Returned URL has the postgresql scheme.
func (d Database) ConnectionURL() (string, error) {
	path := filepath.Join(d.PassDir, ".pgpass")
	passLines, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pass-file: %w", err)
	}
	prfx := fmt.Sprintf("%s:%d:%s:%s:", d.Host, d.Port, d.Name, d.Role)
	var pass string
	for _, line := range strings.Split(string(passLines), "\n") {
		if line == "" || line[0] == '#' {
			continue
		}
		if strings.HasPrefix(line, prfx) {
			pass = line[len(prfx):]
			break
		}
	}
	if pass == "" {
		return "", fmt.Errorf("no matching password line in %q", path)
	}
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(d.Role, pass),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	return u.String(), nil
}

// ValidateAndNormalize validates the database settings and returns an
// error if they were not acceptable, filling zero values with their
// expected default values.
func (d *Database) ValidateAndNormalize() error {
	if d.Host == "" {
		d.Host = "127.0.0.1"
	}
	if d.Port == 0 {
		d.Port = 5432
	}
	switch {
	case d.Name == "":
		return fmt.Errorf("database name is required")
	case d.Role == "":
		return fmt.Errorf("database role is required")
	}
	return nil
}

// Gin contains the gin-gonic related configuration settings.
// The Logger and Recovery fields are defined as pointers, so it is
// possible to detect if they are or are not initialized and fill the
// missing items with their default values.
type Gin struct {
	Logger   *bool  // Whether to register the gin.Logger() middleware
	Recovery *bool  // Whether to register the gin.Recovery() middleware
	Listen   string // The host:port address to be listened
}

// NewEngine instantiates a new gin-gonic engine instance based on
// the `g` settings.
func (g Gin) NewEngine() *gin.Engine {
	middlewares := make([]gin.HandlerFunc, 0, 2)
	if *g.Logger {
		middlewares = append(middlewares, gin.Logger())
	}
	if *g.Recovery {
		middlewares = append(middlewares, gin.Recovery())
	}
	return gin.New(middlewares...)
}

// ValidateAndNormalize fills the missing gin settings with their
// default values, enabling both middlewares and listening on all
// interfaces.
func (g *Gin) ValidateAndNormalize() {
	t := true
	if g.Logger == nil {
		g.Logger = &t
	}
	if g.Recovery == nil {
		g.Recovery = &t
	}
	if g.Listen == "" {
		g.Listen = ":8080"
	}
}

// Auth contains the identity session and operational gate settings.
type Auth struct {
	// JWTSecret is the HMAC-SHA256 signing key for the session tokens.
	JWTSecret string `yaml:"jwt-secret"`

	// TokenTTL bounds the lifetime of a signed session token. Expired
	// tokens are rejected and their bearers fall back to establishing
	// a fresh anonymous session.
	TokenTTL settings.Duration `yaml:"token-ttl,omitempty"`

	// Gate holds the shared operational credential settings.
	Gate Gate
}

// Gate contains the shared operational credential settings. A session
// which presents this credential is elevated to the operational level
// and may file and recover vehicle reports.
type Gate struct {
	// Identifier is the expected operator identifier.
	Identifier string

	// SecretHash is the scram hash of the expected secret, in the
	// hash-name$iterations:salt$stored-key:server-key format as
	// produced by the choqueweb hash command.
	SecretHash string `yaml:"secret-hash"`

	// AuthMethod specifies how the presented secrets should be hashed
	// before comparing them against SecretHash.
	// Currently, only scram-sha-1 and scram-sha-256 methods are
	// supported. The scram-sha-256 is the default value.
	AuthMethod string `yaml:"auth-method,omitempty"`

	// hasher is instantiated based on the AuthMethod, so the gate
	// use case may hash the presented secrets properly.
	hasher scrami.Hasher `yaml:"-"`
}

// ValidateAndNormalize validates the auth settings and returns an
// error if they were not acceptable.
func (a *Auth) ValidateAndNormalize() error {
	if a.JWTSecret == "" {
		return fmt.Errorf("jwt-secret is required")
	}
	if a.TokenTTL == 0 {
		a.TokenTTL = settings.Duration(24 * time.Hour)
	}
	switch am := a.Gate.AuthMethod; am {
	case "scram-sha-1":
		a.Gate.hasher = scram.SHA1()
	case "":
		a.Gate.AuthMethod = "scram-sha-256"
		fallthrough
	case "scram-sha-256":
		a.Gate.hasher = scram.SHA256()
	default:
		return fmt.Errorf(
			"unsupported gate authentication method: %q", am,
		)
	}
	switch {
	case a.Gate.Identifier == "":
		return fmt.Errorf("gate identifier is required")
	case a.Gate.SecretHash == "":
		return fmt.Errorf("gate secret-hash is required")
	}
	return nil
}

// NewIdentityProvider instantiates a JWT-based identity provider
// based on the `a` settings.
func (a Auth) NewIdentityProvider() (identity.Provider, error) {
	return jwtauth.New(
		[]byte(a.JWTSecret), time.Duration(a.TokenTTL),
	)
}

// NewGateUseCase instantiates a new operational gate use case based
// on the `a` settings.
func (a Auth) NewGateUseCase() (*gateuc.UseCase, error) {
	return gateuc.New(
		a.Gate.Identifier, a.Gate.SecretHash, a.Gate.hasher,
	)
}

// Records contains the vehicle records collection settings.
type Records struct {
	// Namespace isolates the records of one deployment from other
	// deployments which share the same database.
	Namespace string `yaml:"namespace,omitempty"`

	// DisplayTimeZone names the IANA time zone for the human readable
	// report and recovery timestamps. The server local time zone is
	// used by default.
	DisplayTimeZone string `yaml:"display-time-zone,omitempty"`

	location *time.Location `yaml:"-"`
}

// ValidateAndNormalize validates the records settings and returns an
// error if they were not acceptable, filling zero values with their
// expected default values.
func (r *Records) ValidateAndNormalize() error {
	if r.Namespace == "" {
		r.Namespace = "choque-pmpb-v1"
	}
	if r.DisplayTimeZone == "" {
		r.location = time.Local
		return nil
	}
	loc, err := time.LoadLocation(r.DisplayTimeZone)
	if err != nil {
		return fmt.Errorf("loading display-time-zone: %w", err)
	}
	r.location = loc
	return nil
}

// NewRecordsRepo instantiates a vehicle records repository which
// queries the namespace of the `r` settings.
func (r Records) NewRecordsRepo() repo.Records {
	return recordsrp.New(r.Namespace)
}

// NewRecordsWatcher instantiates a watcher following the committed
// snapshots of the configured namespace over the `u` database
// connection URL.
func (r Records) NewRecordsWatcher(u string) repo.RecordsWatcher {
	return recordsrp.NewWatcher(u, r.Namespace)
}

// NewMonitorUseCase instantiates a new monitoring use case based on
// the settings in the `r` struct.
func (r Records) NewMonitorUseCase(
	w repo.RecordsWatcher,
) (*monitoruc.UseCase, error) {
	return monitoruc.New(w)
}

// NewReportUseCase instantiates a new record lifecycle use case based
// on the settings in the `r` struct.
func (r Records) NewReportUseCase(
	p repo.Pool, rr repo.Records, a reportuc.ActiveIndex,
) (*reportuc.UseCase, error) {
	return reportuc.New(
		p, rr, a, reportuc.WithDisplayLocation(r.location),
	)
}
