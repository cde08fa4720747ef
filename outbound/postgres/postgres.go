// Package postgres holds the hand-written query layer. Every statement that
// the booking path depends on for correctness is a single atomic command;
// nothing here does read-modify-write in application code.
package postgres

import (
	"stall-booking/common/contract"

	"github.com/jackc/pgx/v5"
)

type Queries struct {
	db contract.DbConn
}

func New(db contract.DbConn) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}
