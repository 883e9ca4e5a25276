// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gin_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/goccy/go-json"
	"github.com/patamocomando/Choque-TAX/internal/test/dbcontainer"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/config"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/config/settings"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/db/postgres"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/hash/scram"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin/routes"
	"github.com/patamocomando/Choque-TAX/pkg/core/repo"
	"github.com/stretchr/testify/suite"
)

type IntegrationGinTestSuite struct {
	suite.Suite

	Ctx    context.Context
	Cancel context.CancelFunc
	Pg     *sqltestutil.PostgresContainer
	Pool   *postgres.Pool
	Gin    *gin.Engine
}

func TestIntegrationGinTestSuite(t *testing.T) {
	ctx := context.Background()
	pg, pool, dfrs, ok := dbcontainer.New(ctx, 60*time.Second, t)
	for _, f := range dfrs {
		defer f()
	}
	if !ok {
		return // errors are already logged
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	suite.Run(t, &IntegrationGinTestSuite{
		Ctx:    ctx,
		Cancel: cancel,
		Pg:     pg,
		Pool:   pool,
	})
}

func (igts *IntegrationGinTestSuite) SetupSuite() {
	err := igts.Pool.Conn(
		igts.Ctx, func(ctx context.Context, c repo.Conn) error {
			return postgres.InitSchema(ctx, c)
		},
	)
	igts.Require().NoError(err, "failed to create schema objects")

	c := igts.loadConfig()
	igts.Gin = c.Gin.NewEngine()
	igts.Require().NotNil(igts.Gin, "cannot instantiate Gin engine")
	err = routes.Register(igts.Ctx, igts.Gin, igts.Pool, c)
	igts.Require().NoError(err, "failed to register Gin routes")
}

// loadConfig derives a complete configuration from the test container
// connection URL, including a temporary .pgpass file, so the same
// loading path is exercised which a deployment would use.
func (igts *IntegrationGinTestSuite) loadConfig() *config.Config {
	u, err := url.Parse(igts.Pg.ConnectionString())
	igts.Require().NoError(err, "parsing DB container URL")
	port, err := strconv.Atoi(u.Port())
	igts.Require().NoError(err, "parsing DB container port")
	pass, _ := u.User.Password()
	dbName := strings.TrimPrefix(u.Path, "/")

	dir := igts.T().TempDir()
	pgpass := fmt.Sprintf(
		"%s:%d:%s:%s:%s\n",
		u.Hostname(), port, dbName, u.User.Username(), pass,
	)
	err = os.WriteFile(
		filepath.Join(dir, ".pgpass"), []byte(pgpass), 0o600,
	)
	igts.Require().NoError(err, "writing .pgpass file")

	hash, err := scram.SHA256().Hash("choque123", "", 4096)
	igts.Require().NoError(err, "hashing the gate secret")

	c := &config.Config{
		Database: config.Database{
			Host:    u.Hostname(),
			Port:    port,
			Name:    dbName,
			Role:    u.User.Username(),
			PassDir: dir,
		},
		Auth: config.Auth{
			JWTSecret: "gin-test-signing-key",
			TokenTTL:  settings.Duration(time.Hour),
			Gate: config.Gate{
				Identifier: "admin",
				SecretHash: hash,
			},
		},
		Records: config.Records{
			Namespace:       "choque-gin-test",
			DisplayTimeZone: "UTC",
		},
	}
	err = c.ValidateAndNormalize()
	igts.Require().NoError(err, "cannot validate configs")
	return c
}

func (igts *IntegrationGinTestSuite) sendReqRecvResp(
	w *httptest.ResponseRecorder, req *http.Request, res any,
) {
	if req.Body != nil {
		req.Header.Add("Content-Type", "application/json")
	}
	igts.Gin.ServeHTTP(w, req)
	b := w.Body.Bytes()
	igts.NoError(json.Unmarshal(b, res), "body is not json")
}

func jsonBody(v any) io.Reader {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return strings.NewReader(string(b))
}

type sessionResp struct {
	UID         string `json:"uid"`
	Operational bool   `json:"operational"`
	Token       string `json:"token"`
}

func (igts *IntegrationGinTestSuite) establish() sessionResp {
	w := httptest.NewRecorder()
	req, err := http.NewRequest(
		http.MethodPost, "/api/choqueweb/v1/sessions", nil,
	)
	igts.Require().NoError(err, "cannot create POST request")
	res := &sessionResp{}
	igts.sendReqRecvResp(w, req, res)
	igts.Require().Equal(201, w.Code, "cannot establish a session")
	igts.Require().NotEmpty(res.Token)
	return *res
}

func (igts *IntegrationGinTestSuite) TestEstablishSession() {
	s := igts.establish()
	igts.NotEmpty(s.UID)
	igts.False(s.Operational, "fresh sessions are not operational")

	s2 := igts.establish()
	igts.NotEqual(s.UID, s2.UID, "anonymous identities are distinct")
}

func (igts *IntegrationGinTestSuite) TestResumeSession() {
	s := igts.establish()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(
		http.MethodPost, "/api/choqueweb/v1/sessions",
		jsonBody(map[string]string{"credential": s.Token}),
	)
	igts.Require().NoError(err, "cannot create POST request")
	res := &sessionResp{}
	igts.sendReqRecvResp(w, req, res)
	igts.Equal(201, w.Code)
	igts.Equal(s.UID, res.UID, "token must resume the identity")
}

func (igts *IntegrationGinTestSuite) TestPassGate() {
	s := igts.establish()
	for _, tc := range []struct {
		name               string
		identifier, secret string
		code               int
		operational        bool
	}{
		{"wrong secret", "admin", "wrong", 401, false},
		{"wrong identifier", "root", "choque123", 401, false},
		{"match", "admin", "choque123", 200, true},
		{"retry after match", "admin", "wrong", 401, false},
	} {
		igts.Run(tc.name, func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest(
				http.MethodPost, "/api/choqueweb/v1/sessions/gate",
				jsonBody(map[string]string{
					"identifier": tc.identifier,
					"secret":     tc.secret,
				}),
			)
			igts.Require().NoError(err, "cannot create POST request")
			req.Header.Set("Authorization", "Bearer "+s.Token)
			res := &sessionResp{}
			igts.sendReqRecvResp(w, req, res)
			igts.Equal(tc.code, w.Code)
			igts.Equal(tc.operational, res.Operational)
			if tc.code == 200 {
				igts.Equal(s.UID, res.UID)
				igts.NotEmpty(res.Token)
			}
		})
	}
}

func (igts *IntegrationGinTestSuite) TestVehiclesRequireIdentity() {
	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/choqueweb/v1/vehicles"},
		{http.MethodGet, "/api/choqueweb/v1/vehicles/watch"},
		{http.MethodPost, "/api/choqueweb/v1/vehicles"},
		{
			http.MethodPatch,
			"/api/choqueweb/v1/vehicles/" +
				"3a0f8a2e-7b1c-4b59-9f57-000000000000",
		},
	} {
		w := httptest.NewRecorder()
		req, err := http.NewRequest(tc.method, tc.path, nil)
		igts.Require().NoError(err, "cannot create request")
		igts.Gin.ServeHTTP(w, req)
		igts.Equal(401, w.Code, "%s %s", tc.method, tc.path)
	}
}

type viewResp struct {
	Stats struct {
		Active    int `json:"active"`
		Recovered int `json:"recovered"`
	} `json:"stats"`
	Vehicles []struct {
		ID     string `json:"id"`
		Plate  string `json:"plate"`
		Status string `json:"status"`
	} `json:"vehicles"`
}

func (igts *IntegrationGinTestSuite) fileReport(
	token, plate string,
) (code int, body map[string]any) {
	w := httptest.NewRecorder()
	req, err := http.NewRequest(
		http.MethodPost, "/api/choqueweb/v1/vehicles",
		jsonBody(map[string]string{
			"type":  "car",
			"plate": plate,
			"model": "VW Gol",
		}),
	)
	igts.Require().NoError(err, "cannot create POST request")
	req.Header.Set("Authorization", "Bearer "+token)
	body = map[string]any{}
	igts.sendReqRecvResp(w, req, &body)
	return w.Code, body
}

func (igts *IntegrationGinTestSuite) listVehicles(
	token, query string,
) (int, *viewResp) {
	w := httptest.NewRecorder()
	path := "/api/choqueweb/v1/vehicles"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	req, err := http.NewRequest(http.MethodGet, path, nil)
	igts.Require().NoError(err, "cannot create GET request")
	req.Header.Set("Authorization", "Bearer "+token)
	res := &viewResp{}
	igts.sendReqRecvResp(w, req, res)
	return w.Code, res
}

// awaitStats polls the vehicles listing until the counts converge on
// the expected values, as push notifications update the served view
// asynchronously after each write.
func (igts *IntegrationGinTestSuite) awaitStats(
	token string, active, recovered int,
) *viewResp {
	var view *viewResp
	igts.Require().Eventually(func() bool {
		code, v := igts.listVehicles(token, "")
		if code != 200 {
			return false
		}
		view = v
		return v.Stats.Active == active && v.Stats.Recovered == recovered
	}, 30*time.Second, 100*time.Millisecond, "view did not converge")
	return view
}

func (igts *IntegrationGinTestSuite) TestReportLifecycle() {
	s := igts.establish()

	code, created := igts.fileReport(s.Token, " qgc8i75 ")
	igts.Require().Equal(201, code, "cannot file a report: %v", created)
	igts.Equal("QGC8I75", created["plate"], "plate must be normalized")
	igts.Equal("STOLEN", created["status"])
	igts.Equal(s.UID, created["reported_by"])
	rid, _ := created["id"].(string)
	igts.Require().NotEmpty(rid)

	// a duplicate active plate is kept out
	code, dup := igts.fileReport(s.Token, "QGC8I75")
	igts.Equal(409, code)
	igts.Contains(dup["detail"], "already has an active report")

	// the served view mirrors the store asynchronously
	view := igts.awaitStats(s.Token, 1, 0)
	igts.Require().Len(view.Vehicles, 1)
	igts.Equal(rid, view.Vehicles[0].ID)

	// filtering is a case-insensitive substring on plate/model
	_, filtered := igts.listVehicles(s.Token, "qgc")
	igts.Len(filtered.Vehicles, 1)
	_, missed := igts.listVehicles(s.Token, "uno")
	igts.Len(missed.Vehicles, 0)
	igts.Equal(
		1, missed.Stats.Active,
		"the query must never affect the counts",
	)

	// recovery
	w := httptest.NewRecorder()
	req, err := http.NewRequest(
		http.MethodPatch, "/api/choqueweb/v1/vehicles/"+rid,
		jsonBody(map[string]string{"op": "recover"}),
	)
	igts.Require().NoError(err, "cannot create PATCH request")
	req.Header.Set("Authorization", "Bearer "+s.Token)
	recovered := map[string]any{}
	igts.sendReqRecvResp(w, req, &recovered)
	igts.Require().Equal(200, w.Code)
	igts.Equal("RECOVERED", recovered["status"])
	igts.Equal(s.UID, recovered["recovered_by"])
	igts.NotEmpty(recovered["recovered_at"])

	igts.awaitStats(s.Token, 0, 1)

	// the plate is free for a fresh report again
	code, _ = igts.fileReport(s.Token, "qgc8i75")
	igts.Equal(201, code)
}

func (igts *IntegrationGinTestSuite) TestUpdateVehicleBadRequests() {
	s := igts.establish()
	for _, tc := range []struct {
		name, vid string
		body      io.Reader
	}{
		{
			name: "malformed vid",
			vid:  "not-a-uuid",
			body: jsonBody(map[string]string{"op": "recover"}),
		},
		{
			name: "unknown op",
			vid:  "3a0f8a2e-7b1c-4b59-9f57-000000000000",
			body: jsonBody(map[string]string{"op": "destroy"}),
		},
		{
			name: "no body",
			vid:  "3a0f8a2e-7b1c-4b59-9f57-000000000000",
			body: nil,
		},
	} {
		igts.Run(tc.name, func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest(
				http.MethodPatch,
				"/api/choqueweb/v1/vehicles/"+tc.vid, tc.body,
			)
			igts.Require().NoError(err, "cannot create PATCH request")
			req.Header.Set("Authorization", "Bearer "+s.Token)
			igts.Gin.ServeHTTP(w, req)
			igts.Equal(400, w.Code)
		})
	}
}

func (igts *IntegrationGinTestSuite) TestRecoverUnknownVehicle() {
	s := igts.establish()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(
		http.MethodPatch,
		"/api/choqueweb/v1/vehicles/"+
			"3a0f8a2e-7b1c-4b59-9f57-000000000000",
		jsonBody(map[string]string{"op": "recover"}),
	)
	igts.Require().NoError(err, "cannot create PATCH request")
	req.Header.Set("Authorization", "Bearer "+s.Token)
	res := &struct {
		Detail string
	}{}
	igts.sendReqRecvResp(w, req, res)
	igts.Equal(404, w.Code)
	igts.Equal("expected one row, but got 0", res.Detail)
}

func (igts *IntegrationGinTestSuite) TestWatchStreamsSnapshots() {
	s := igts.establish()
	ctx, cancel := context.WithTimeout(igts.Ctx, 5*time.Second)
	defer cancel()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(
		http.MethodGet,
		// EventSource cannot set headers; the token rides as a
		// query parameter
		"/api/choqueweb/v1/vehicles/watch?token="+
			url.QueryEscape(s.Token),
		nil,
	)
	igts.Require().NoError(err, "cannot create GET request")
	done := make(chan struct{})
	go func() {
		defer close(done)
		igts.Gin.ServeHTTP(w, req.WithContext(ctx))
	}()
	<-done
	igts.Equal(200, w.Code)
	body := w.Body.String()
	igts.Contains(
		body, "event:snapshot",
		"the stream must carry the seeding snapshot",
	)
	igts.Contains(body, `"stats"`)
	igts.Contains(body, `"vehicles"`)
}
