package dedupe

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of ids kept; the least recently
// used id is evicted first. Non-positive sizes keep the default.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		if maxSize > 0 {
			d.maxSize = maxSize
		}
	}
}

// WithEvictCallback registers fn to run whenever an id leaves the cache.
func WithEvictCallback(fn func(id string)) Option {
	return func(d *inMemoryDeduper) {
		d.onEvict = fn
	}
}
