// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package vehiclesrs realizes the vehicles resource, adapting the
// monitoring and record lifecycle use cases with the relevant REST
// APIs including:
//  1. GET request to /api/choqueweb/v1/vehicles
//     in order to read the counts and the presentation sequence,
//  2. GET request to /api/choqueweb/v1/vehicles/watch
//     in order to follow the same data as a live SSE stream,
//  3. POST request to /api/choqueweb/v1/vehicles
//     in order to file a stolen-vehicle report,
//  4. PATCH request to /api/choqueweb/v1/vehicles/:vid
//     in order to mark a reported vehicle as recovered.
package vehiclesrs

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin/serdser"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/restful/gin/sessionrs"
	"github.com/patamocomando/Choque-TAX/pkg/core/model"
	"github.com/patamocomando/Choque-TAX/pkg/core/usecase/monitoruc"
	"github.com/patamocomando/Choque-TAX/pkg/core/usecase/reportuc"
)

type resource struct {
	monitor *monitoruc.UseCase
	reports *reportuc.UseCase
}

// Register instantiates a resource adapting the monitoring and record
// lifecycle use case instances with the vehicles REST APIs. All routes
// require an established identity session.
func Register(r *gin.RouterGroup, m *monitoruc.UseCase, rep *reportuc.UseCase) {
	rs := &resource{monitor: m, reports: rep}
	r.GET("vehicles", rs.ListVehicles)
	r.GET("vehicles/watch", rs.WatchVehicles)
	r.POST("vehicles", rs.FileReport)
	r.PATCH("vehicles/:vid", rs.UpdateVehicle)
}

func (rs *resource) ListVehicles(c *gin.Context) {
	query := c.Query("q")
	c.JSON(http.StatusOK, viewResp{
		Stats:    rs.monitor.Stats(),
		Vehicles: rs.monitor.Sequence(query),
	})
}

// WatchVehicles streams the live view as server-sent events: one
// "snapshot" event with the refreshed counts and presentation sequence
// per push delivery, and one "error" event per delivery failure (the
// last streamed snapshot stays valid in that case). The subscription
// is released when the client goes away.
func (rs *resource) WatchVehicles(c *gin.Context) {
	query := c.Query("q")
	updates, cancel := rs.monitor.Subscribe()
	defer cancel()
	c.Header("Cache-Control", "no-cache")
	clientGone := c.Request.Context().Done()
	c.Stream(func(io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case u, ok := <-updates:
			if !ok {
				return false
			}
			name, data, err := SerUpdate(u, query)
			if err != nil {
				return false
			}
			c.SSEvent(name, data)
			return true
		}
	})
}

func (rs *resource) FileReport(c *gin.Context) {
	req := rs.DserFileReportReq(c)
	if req == nil {
		return
	}
	rec, err := rs.reports.FileReport(c, sessionrs.Session(c), reportuc.Draft{
		Type:     req.Type,
		Plate:    req.Plate,
		Model:    req.Model,
		Color:    req.Color,
		Year:     req.Year,
		Location: req.Location,
		Notes:    req.Notes,
	})
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (rs *resource) UpdateVehicle(c *gin.Context) {
	req := rs.DserUpdateVehicleReq(c)
	if req == nil {
		return
	}
	var rec *model.VehicleRecord
	var err error
	switch req.Op {
	case "recover":
		rec, err = rs.reports.MarkRecovered(
			c, sessionrs.Session(c), req.VehicleID,
		)
	default:
		panic("unexpected op:" + req.Op)
	}
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
