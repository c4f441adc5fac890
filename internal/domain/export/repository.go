// internal/domain/export/repository.go
package export

import (
	"context"
	"time"
)

// Filter narrows FindLatest and Count. Zero values match everything.
type Filter struct {
	Successful *bool
	From       time.Time // inclusive lower bound on Date
}

// Store defines the operations for persisting and retrieving export records.
// Records are append-only: there is no update or delete.
type Store interface {
	// FindInRange returns records with start <= Date <= end, ascending by date.
	// A zero start or end leaves that side open.
	FindInRange(ctx context.Context, start, end time.Time) ([]*Record, error)
	// FindLatest returns records matching filter, descending by date. limit <= 0 means no limit.
	FindLatest(ctx context.Context, filter Filter, limit int) ([]*Record, error)
	Count(ctx context.Context, filter Filter) (int, error)
	// Insert persists rec and fills ID and CreatedAt.
	// Returns ErrDuplicateRecord if a record already exists for the same UTC day.
	Insert(ctx context.Context, rec *Record) error
}

// OnlySuccessful returns a filter pointer value for Filter.Successful.
func OnlySuccessful(v bool) *bool {
	return &v
}
