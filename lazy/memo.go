// Package lazy defers a computation until its result is first observed.
package lazy

import "sync"

// Memo computes a value on the first call to Get and caches it.
//
// A compute that returns an error commits nothing: the error is returned
// to the caller that triggered it and the next Get runs compute again.
type Memo[V any] struct {
	mu      sync.Mutex
	compute func() (V, error)
	done    bool
	value   V
	runs    int
}

func New[V any](compute func() (V, error)) *Memo[V] {
	return &Memo[V]{compute: compute}
}

func (m *Memo[V]) Get() (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return m.value, nil
	}

	m.runs++
	v, err := m.compute()
	if err != nil {
		var zero V
		return zero, err
	}

	m.value = v
	m.done = true
	m.compute = nil
	return m.value, nil
}

// Done reports whether a value has been committed.
func (m *Memo[V]) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Runs is the number of times compute has been invoked.
func (m *Memo[V]) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}
