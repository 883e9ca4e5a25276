// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sessionrs

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin/serdser"
)

type establishReq struct {
	// Credential optionally resumes an earlier session from its
	// token; an empty value establishes an anonymous session.
	Credential string `json:"credential" binding:"omitempty"`
}

type gateReq struct {
	Identifier string `json:"identifier" binding:"required"`
	Secret     string `json:"secret" binding:"required"`
}

type sessionResp struct {
	UID         string `json:"uid"`
	Operational bool   `json:"operational"`
	Token       string `json:"token"`
}

func (rs *resource) DserEstablishReq(c *gin.Context) *establishReq {
	req := &establishReq{}
	// an empty body is a plain anonymous session request
	if c.Request.ContentLength == 0 {
		return req
	}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return nil
	}
	return req
}

func (rs *resource) DserGateReq(c *gin.Context) *gateReq {
	req := &gateReq{}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return nil
	}
	return req
}
