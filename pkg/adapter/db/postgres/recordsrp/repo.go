// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package recordsrp realizes the vehicle records repository over a
// namespaced PostgreSQL table, together with the LISTEN/NOTIFY watcher
// which turns committed writes into full collection snapshot
// deliveries.
package recordsrp

import (
	"context"

	"github.com/patamocomando/Choque-TAX/pkg/adapter/db/postgres"
	"github.com/patamocomando/Choque-TAX/pkg/core/model"
	"github.com/patamocomando/Choque-TAX/pkg/core/repo"
)

// Repo is the vehicle records repository. All of its queries are
// scoped to one fixed logical namespace which doubles as the
// notification channel name of the collection.
type Repo struct {
	namespace string
}

// New instantiates a records repository for the given namespace.
func New(namespace string) *Repo {
	return &Repo{namespace: namespace}
}

type connQueryer struct {
	*postgres.Conn
	ns string
}

func (records *Repo) Conn(c repo.Conn) repo.RecordsConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc, ns: records.namespace}
}

func (cq connQueryer) List(ctx context.Context) ([]model.VehicleRecord, error) {
	return List(ctx, cq.Conn, cq.ns)
}

func (cq connQueryer) Create(ctx context.Context, r *model.VehicleRecord) (string, error) {
	return Create(ctx, cq.Conn, cq.ns, r)
}

func (cq connQueryer) Recover(ctx context.Context, rid, recoveredBy, recoveredAtText string) (*model.VehicleRecord, error) {
	return Recover(ctx, cq.Conn, cq.ns, rid, recoveredBy, recoveredAtText)
}

type txQueryer struct {
	*postgres.Tx
	ns string
}

func (records *Repo) Tx(tx repo.Tx) repo.RecordsTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt, ns: records.namespace}
}

func (tq txQueryer) List(ctx context.Context) ([]model.VehicleRecord, error) {
	return List(ctx, tq.Tx, tq.ns)
}

func (tq txQueryer) Create(ctx context.Context, r *model.VehicleRecord) (string, error) {
	return Create(ctx, tq.Tx, tq.ns, r)
}

func (tq txQueryer) Recover(ctx context.Context, rid, recoveredBy, recoveredAtText string) (*model.VehicleRecord, error) {
	return Recover(ctx, tq.Tx, tq.ns, rid, recoveredBy, recoveredAtText)
}
