package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

var ErrNoDatabase = fmt.Errorf("db: postgres not configured: %w", fault.ErrUnavailable)

// OrUnavailable returns q, or a Querier failing every call with
// ErrNoDatabase when q is nil.
func OrUnavailable(q Querier) Querier {
	if q == nil {
		return unavailable{}
	}
	return q
}

type unavailable struct{}

func (unavailable) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, ErrNoDatabase
}

func (unavailable) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, ErrNoDatabase
}

func (unavailable) QueryRow(context.Context, string, ...any) pgx.Row {
	return failedRow{}
}

type failedRow struct{}

func (failedRow) Scan(...any) error { return ErrNoDatabase }
