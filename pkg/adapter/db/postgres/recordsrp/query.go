// Copyright (c) 2025 The Choque-TAX Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package recordsrp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/patamocomando/Choque-TAX/pkg/adapter/db/postgres"
	"github.com/patamocomando/Choque-TAX/pkg/core/cerr"
	"github.com/patamocomando/Choque-TAX/pkg/core/model"
	"gorm.io/gorm/clause"
)

// gRecord fixes the table/column mapping issues of the
// model.VehicleRecord struct for the GORM framework: the
// store-assigned key column, the arrival sequence (store-managed and
// read-only here), the namespace scope column, and the nullable
// machine timestamp.
type gRecord struct {
	RID       uuid.UUID `gorm:"primaryKey;type:uuid;column:rid"`
	Seq       int64     `gorm:"column:seq;->"`
	Namespace string    `gorm:"column:namespace"`

	Type     string `gorm:"column:vtype"`
	Plate    string `gorm:"column:plate"`
	Model    string `gorm:"column:model"`
	Color    string `gorm:"column:color"`
	Year     string `gorm:"column:year"`
	Location string `gorm:"column:location"`
	Notes    string `gorm:"column:notes"`

	Status          string     `gorm:"column:status"`
	ReportedAt      *time.Time `gorm:"column:reported_at"`
	ReportedAtText  string     `gorm:"column:reported_at_text"`
	RecoveredAtText string     `gorm:"column:recovered_at_text"`
	ReportedBy      string     `gorm:"column:reported_by"`
	RecoveredBy     string     `gorm:"column:recovered_by"`
}

func (gr *gRecord) TableName() string {
	return "vehicle_records"
}

// toModel converts the row into the business-level record. An absent
// or unknown status column value is kept as the invalid enum value
// instead of failing the conversion, so one degenerate row can never
// fault the rest of the snapshot pipeline.
func (gr *gRecord) toModel() *model.VehicleRecord {
	status, _ := model.ParseRecordStatus(gr.Status)
	r := &model.VehicleRecord{
		ID:              gr.RID.String(),
		Type:            gr.Type,
		Plate:           gr.Plate,
		Model:           gr.Model,
		Color:           gr.Color,
		Year:            gr.Year,
		Location:        gr.Location,
		Notes:           gr.Notes,
		Status:          status,
		ReportedAtText:  gr.ReportedAtText,
		RecoveredAtText: gr.RecoveredAtText,
		ReportedBy:      gr.ReportedBy,
		RecoveredBy:     gr.RecoveredBy,
	}
	if gr.ReportedAt != nil {
		r.ReportedAt = gr.ReportedAt.UTC()
	}
	return r
}

// List returns the whole ns collection contents in arrival order.
func List[Q postgres.Queryer](ctx context.Context, q Q, ns string) ([]model.VehicleRecord, error) {
	gdb := q.GORM(ctx)
	var grs []gRecord
	gdb.Where("namespace = ?", ns).Order("seq").Find(&grs)
	if err := gdb.Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	records := make([]model.VehicleRecord, 0, len(grs))
	for i := range grs {
		records = append(records, *grs[i].toModel())
	}
	return records, nil
}

// Create persists r as a new document of the ns collection, assigns
// its key, and notifies the collection channel within the current
// transaction, so watchers observe the document right after commit.
// A unique-active-plate violation is reported as a cerr.Conflict
// wrapping model.DuplicateActivePlateError.
func Create[Q postgres.Queryer](ctx context.Context, q Q, ns string, r *model.VehicleRecord) (string, error) {
	gr := &gRecord{
		RID:             uuid.New(),
		Namespace:       ns,
		Type:            r.Type,
		Plate:           r.Plate,
		Model:           r.Model,
		Color:           r.Color,
		Year:            r.Year,
		Location:        r.Location,
		Notes:           r.Notes,
		Status:          r.Status.String(),
		ReportedAtText:  r.ReportedAtText,
		RecoveredAtText: r.RecoveredAtText,
		ReportedBy:      r.ReportedBy,
		RecoveredBy:     r.RecoveredBy,
	}
	if !r.ReportedAt.IsZero() {
		at := r.ReportedAt.UTC()
		gr.ReportedAt = &at
	}
	gdb := q.GORM(ctx)
	gdb.Create(gr)
	if err := gdb.Error; err != nil {
		if isUniqueViolation(err) {
			return "", cerr.Conflict(
				model.DuplicateActivePlateError(r.Plate),
			)
		}
		return "", fmt.Errorf("query: %w", err)
	}
	if err := notify(ctx, q, ns, gr.RID.String()); err != nil {
		return "", err
	}
	return gr.RID.String(), nil
}

// Recover transitions the rid document of the ns collection to the
// recovered status and notifies the collection channel within the
// current transaction. No status precondition is checked; a repeated
// recovery overwrites the recovery metadata with fresher values.
func Recover[Q postgres.Queryer](ctx context.Context, q Q, ns, rid, recoveredBy, recoveredAtText string) (*model.VehicleRecord, error) {
	key, err := uuid.Parse(rid)
	if err != nil {
		return nil, cerr.NotFound(fmt.Errorf("parsing record id: %w", err))
	}
	gdb := q.GORM(ctx)
	var grs []gRecord
	gdb.Model(&grs).Clauses(clause.Returning{}).Select(
		"status", "recovered_at_text", "recovered_by",
	).Where(
		"rid = ? AND namespace = ?", key, ns,
	).Updates(gRecord{
		Status:          model.RecordStatusRecovered.String(),
		RecoveredAtText: recoveredAtText,
		RecoveredBy:     recoveredBy,
	})
	if err := gdb.Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if n := len(grs); n != 1 {
		return nil, cerr.NotFound(
			fmt.Errorf("expected one row, but got %d", n),
		)
	}
	if err := notify(ctx, q, ns, rid); err != nil {
		return nil, err
	}
	return grs[0].toModel(), nil
}

// notify wakes the ns collection watchers up. NOTIFY takes effect at
// commit time, hence, listeners can never observe a half-done write.
func notify[Q postgres.Queryer](ctx context.Context, q Q, ns, rid string) error {
	if _, err := q.Exec(
		ctx, "SELECT pg_notify(?, ?)", ns, rid,
	); err != nil {
		return fmt.Errorf("notifying channel %q: %w", ns, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
