package repo

import "context"

type TxHandler func(context.Context, Tx) error

// Conn represents a single database connection, obtained from a Pool.
// All record writes go through its Tx method, so they run in a
// transaction together with their change notification.
type Conn interface {
	Queryer
	Tx(ctx context.Context, handler TxHandler) error
	IsConn()
}
