// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sessionrs realizes the sessions resource, allowing identity
// sessions to be established and the session gate to be passed:
//  1. POST request to /api/choqueweb/v1/sessions
//     in order to establish an anonymous or resumed session,
//  2. POST request to /api/choqueweb/v1/sessions/gate
//     in order to submit the shared credential and mark the session
//     operational.
//
// It also exports the Identity middleware which resolves the bearer
// token of protected routes into a model.Session.
package sessionrs

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin/serdser"
	"github.com/patamocomando/Choque-TAX/pkg/core/cerr"
	"github.com/patamocomando/Choque-TAX/pkg/core/identity"
	"github.com/patamocomando/Choque-TAX/pkg/core/model"
	"github.com/patamocomando/Choque-TAX/pkg/core/usecase/gateuc"
)

// sessionKey is the gin context key under which the Identity
// middleware records the resolved model.Session.
const sessionKey = "session"

type resource struct {
	provider identity.Provider
	gate     *gateuc.UseCase
}

// Register instantiates a resource adapting the identity provider and
// the session gate use case with the relevant REST APIs.
func Register(r *gin.RouterGroup, p identity.Provider, gate *gateuc.UseCase) {
	rs := &resource{provider: p, gate: gate}
	r.POST("sessions", rs.EstablishSession)
	r.POST("sessions/gate", Identity(p), rs.PassGate)
}

// Identity returns a middleware which resolves the bearer token of a
// request into a model.Session and aborts with a 401 when no valid
// token is presented. Record reads and writes require only this
// established identity; the operational flag is never checked here.
func Identity(p identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if h := c.GetHeader("Authorization"); h != "" {
			if parts := strings.SplitN(h, " ", 2); len(parts) == 2 &&
				strings.EqualFold(parts[0], "Bearer") {
				token = parts[1]
			}
		}
		if token == "" {
			// EventSource cannot set headers, so the live watch
			// passes its token as a query parameter instead
			token = c.Query("token")
		}
		if token == "" {
			serdser.SerErr(c, cerr.Authentication(
				identity.ErrSessionUnavailable,
			))
			c.Abort()
			return
		}
		s, err := p.Verify(c, token)
		if err != nil {
			serdser.SerErr(c, cerr.Authentication(err))
			c.Abort()
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// Session returns the model.Session which the Identity middleware
// recorded for this request. The zero session is returned for
// unprotected routes.
func Session(c *gin.Context) model.Session {
	if s, ok := c.Get(sessionKey); ok {
		return s.(model.Session)
	}
	return model.Session{}
}

func (rs *resource) EstablishSession(c *gin.Context) {
	req := rs.DserEstablishReq(c)
	if req == nil {
		return
	}
	s, token, err := rs.provider.Establish(c, req.Credential)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResp{
		UID:         s.UID,
		Operational: s.Operational,
		Token:       token,
	})
}

func (rs *resource) PassGate(c *gin.Context) {
	req := rs.DserGateReq(c)
	if req == nil {
		return
	}
	s, ok := rs.gate.Authenticate(Session(c), req.Identifier, req.Secret)
	if !ok {
		// a transient notice; prior state is left unchanged and
		// further attempts are permitted
		c.JSON(http.StatusUnauthorized, gin.H{
			"detail": "invalid identifier or secret",
		})
		return
	}
	token, err := rs.provider.Elevate(c, s)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResp{
		UID:         s.UID,
		Operational: s.Operational,
		Token:       token,
	})
}
