package cache

import "errors"

// ErrNoProducer is returned by Get when no producer has been configured.
var ErrNoProducer = errors.New("cache: no producer configured")

// Producer computes a value on demand.
type Producer[T any] func() (T, error)

// Value memoizes the result of a Producer.
//
// The zero value has no producer and caching enabled.
type Value[T any] struct {
	producer Producer[T]
	result   T
	cached   bool
	disabled bool
}

// New returns a Value backed by producer.
func New[T any](producer Producer[T]) *Value[T] {
	return &Value[T]{producer: producer}
}

// Const returns a producer that always yields v.
func Const[T any](v T) Producer[T] {
	return func() (T, error) { return v, nil }
}

// UpdateProducer replaces the producer and drops any stored result.
func (v *Value[T]) UpdateProducer(producer Producer[T]) {
	v.producer = producer
	v.ClearCache()
}

// ClearCache drops the stored result. The producer is kept.
func (v *Value[T]) ClearCache() {
	var zero T
	v.result = zero
	v.cached = false
}

// HasProducer reports whether a value can be produced, regardless of
// whether it has been computed yet.
func (v *Value[T]) HasProducer() bool {
	return v.producer != nil
}

// Cached reports whether a result is currently stored.
func (v *Value[T]) Cached() bool {
	return v.cached
}

// CachingEnabled reports whether results are stored between reads.
func (v *Value[T]) CachingEnabled() bool {
	return !v.disabled
}

// SetCachingEnabled toggles memoization. Disabling forgets the stored
// result; enabling does not retroactively cache earlier reads.
func (v *Value[T]) SetCachingEnabled(enabled bool) {
	v.disabled = !enabled
	if !enabled {
		v.ClearCache()
	}
}

// Get returns the stored result or computes a fresh one. A producer error
// is returned as is and nothing is stored.
func (v *Value[T]) Get() (T, error) {
	if v.producer == nil {
		var zero T
		return zero, ErrNoProducer
	}
	if v.cached {
		return v.result, nil
	}

	result, err := v.producer()
	if err != nil {
		var zero T
		return zero, err
	}
	if !v.disabled {
		v.result = result
		v.cached = true
	}
	return result, nil
}
