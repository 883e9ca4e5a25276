// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package vehiclesrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin/serdser"
	"github.com/patamocomando/Choque-TAX/pkg/core/model"
	"github.com/patamocomando/Choque-TAX/pkg/core/usecase/monitoruc"
)

// viewResp carries one consistent view of the records cache: the
// counts and the presentation sequence, both computed from the same
// snapshot.
type viewResp struct {
	Stats    monitoruc.Stats       `json:"stats"`
	Vehicles []model.VehicleRecord `json:"vehicles"`
}

type errResp struct {
	Detail string `json:"detail"`
}

// SerUpdate serializes one push delivery as an SSE event name and its
// JSON data string. A delivery which could not refresh the cache is
// reported as an "error" event, otherwise the refreshed view is
// filtered by the per-client query and sent as a "snapshot" event.
func SerUpdate(u monitoruc.Update, query string) (name, data string, err error) {
	if u.Err != nil {
		b, err := json.Marshal(errResp{Detail: u.Err.Error()})
		return "error", string(b), err
	}
	b, err := json.Marshal(viewResp{
		Stats:    u.Stats,
		Vehicles: monitoruc.Sequence(u.Records, query),
	})
	return "snapshot", string(b), err
}

type fileReportReq struct {
	Type     string `json:"type" binding:"required"`
	Plate    string `json:"plate" binding:"required"`
	Model    string `json:"model" binding:"required"`
	Color    string `json:"color"`
	Year     string `json:"year"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

func (rs *resource) DserFileReportReq(c *gin.Context) *fileReportReq {
	req := &fileReportReq{}
	if !serdser.Bind(c, req, binding.JSON) {
		return nil
	}
	return req
}

type rawUpdateVehicleReq struct {
	Op string `json:"op" binding:"required,oneof=recover"`
}

type updateVehicleReq struct {
	VehicleID string
	Op        string
}

func (rs *resource) DserUpdateVehicleReq(c *gin.Context) *updateVehicleReq {
	req := &rawUpdateVehicleReq{}
	if !serdser.Bind(c, req, binding.JSON) {
		return nil
	}
	vid := c.Param("vid")
	if _, err := uuid.Parse(vid); err != nil {
		var errs map[string][]string
		serdser.AddErr(&errs, "vid", "Path param vid is not UUID.")
		c.JSON(http.StatusBadRequest, errs)
		return nil
	}
	return &updateVehicleReq{VehicleID: vid, Op: req.Op}
}
