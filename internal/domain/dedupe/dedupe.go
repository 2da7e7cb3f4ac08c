// Package dedupe tracks request ids so a resubmitted formulation maps back
// to the job it already created.
package dedupe

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Default deduper configuration constants.
const (
	defaultMaxSize = 50000
)

// Deduper records request ids to ensure at-most-once job creation.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records jobID for it
	// if not. It returns the job recorded earlier and true when id was
	// already seen.
	SeenAndRecord(ctx context.Context, id, jobID string) (string, bool)

	// Unrecord removes an id, allowing it to be retried. Used when a job was
	// recorded but could not be enqueued.
	Unrecord(ctx context.Context, id string)

	// Lookup returns the job recorded for id.
	Lookup(ctx context.Context, id string) (string, bool)

	Size() int64
}

// inMemoryDeduper keeps the most recently used ids in a bounded LRU cache.
type inMemoryDeduper struct {
	maxSize int
	onEvict func(id string)
	cache   *lru.Cache[string, string]
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	var err error
	if d.onEvict != nil {
		evict := d.onEvict
		d.cache, err = lru.NewWithEvict(d.maxSize, func(id, _ string) { evict(id) })
	} else {
		d.cache, err = lru.New[string, string](d.maxSize)
	}
	if err != nil {
		// only reachable with a non-positive size, which WithMaxSize rejects
		panic(err)
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id, jobID string) (string, bool) {
	prev, seen, _ := d.cache.PeekOrAdd(id, jobID)
	if seen {
		return prev, true
	}
	return jobID, false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.cache.Remove(id)
}

// Lookup implements Deduper.
func (d *inMemoryDeduper) Lookup(_ context.Context, id string) (string, bool) {
	return d.cache.Peek(id)
}

// Size returns the current number of recorded ids.
func (d *inMemoryDeduper) Size() int64 {
	return int64(d.cache.Len())
}
