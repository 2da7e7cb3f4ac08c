package repository

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultCapacity = 10000
)

// LRUStore keeps the most recently written records in memory.
type LRUStore struct {
	capacity int
	onEvict  func(id string)
	records  *lru.Cache[string, model.Record]
}

var _ Store = (*LRUStore)(nil)

// NewLRUStore creates a bounded record store.
func NewLRUStore(opts ...Option) *LRUStore {
	s := &LRUStore{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(s)
	}

	records, err := lru.NewWithEvict(s.capacity, func(id string, _ model.Record) {
		metrics.RecordRecordEvicted()
		if s.onEvict != nil {
			s.onEvict(id)
		}
	})
	if err != nil {
		// only reachable with a non-positive capacity, which WithCapacity rejects
		panic(err)
	}
	s.records = records
	return s
}

// Put implements Store.
func (s *LRUStore) Put(_ context.Context, rec model.Record) error { //nolint:gocritic // hugeParam: records are stored by value
	if rec.ID == "" {
		return ErrInvalidID
	}
	s.records.Add(rec.ID, rec)
	metrics.UpdateRecordsStored(s.records.Len())
	return nil
}

// Get implements Store.
func (s *LRUStore) Get(_ context.Context, id string) (model.Record, error) {
	rec, ok := s.records.Peek(id)
	if !ok {
		return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// List implements Store.
func (s *LRUStore) List(_ context.Context, limit int) ([]model.Record, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	values := s.records.Values()
	n := len(values)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Record, 0, n)
	for i := len(values) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, values[i])
	}
	return out, nil
}

// Count implements Store.
func (s *LRUStore) Count(_ context.Context) int {
	return s.records.Len()
}
