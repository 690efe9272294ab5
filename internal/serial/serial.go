// Package serial provides the single serialization point shared by every
// ledger service. Operations run through one Executor never interleave.
package serial

import "sync"

// Executor runs functions one at a time.
type Executor struct {
	mu sync.Mutex
}

// NewExecutor creates an Executor. One instance must be shared by all
// services that read or mutate the same ledger.
func NewExecutor() *Executor {
	return &Executor{}
}

// Do runs fn while holding the ledger lock and returns its error.
func (e *Executor) Do(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}

// Query runs fn under the ledger lock and returns its result.
func Query[T any](e *Executor, fn func() (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	_ = e.Do(func() error {
		result, err = fn()
		return nil
	})
	return result, err
}
