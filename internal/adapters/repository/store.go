// Package repository stores formulation job records.
package repository

import (
	"context"

	"github.com/okian/lineup/internal/domain/model"
)

// Store provides read/write access to job records.
type Store interface {
	// Put inserts or replaces the record with rec.ID.
	Put(ctx context.Context, rec model.Record) error

	// Get returns the record for id.
	// Returns ErrNotFound if the id is unknown or was evicted.
	Get(ctx context.Context, id string) (model.Record, error)

	// List returns up to limit records, most recently written first.
	// A limit of 0 returns every record.
	List(ctx context.Context, limit int) ([]model.Record, error)

	// Count returns the number of records held.
	Count(ctx context.Context) int
}
