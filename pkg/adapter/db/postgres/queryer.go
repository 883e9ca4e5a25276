package postgres

import (
	"context"

	"github.com/patamocomando/Choque-TAX/pkg/core/repo"
	"gorm.io/gorm"
)

// Queryer constrains the generic query functions to run over a single
// connection or an ongoing transaction, exposing the raw statement
// execution methods alongside the GORM instance of that connection
// or transaction.
type Queryer interface {
	*Conn | *Tx
	repo.Queryer

	// GORM returns the *gorm.DB instance which is backed by this
	// queryer, configured to operate with the ctx context.
	GORM(ctx context.Context) *gorm.DB
}
