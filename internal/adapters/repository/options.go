package repository

// Option applies a configuration option to the LRUStore.
type Option func(*LRUStore)

// WithCapacity sets how many records are retained before the least recently
// written one is evicted.
func WithCapacity(capacity int) Option {
	return func(s *LRUStore) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithEvictCallback registers fn to run with the id of every evicted record.
func WithEvictCallback(fn func(id string)) Option {
	return func(s *LRUStore) {
		s.onEvict = fn
	}
}
