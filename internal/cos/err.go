// Package cos provides small low-level utilities shared across the sthread
// packages: error aggregation, resource-exhaustion wrapping, and id
// generation. It has no dependency on any other sthread package.
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package cos

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/teris-io/shortid"
)

// Errs is a threadsafe error aggregator: goroutines that fan out to join
// several independent operations (executor shutdown's per-worker join) each
// call Add, and the caller inspects Err() once all are done.
type Errs struct {
	mu   sync.Mutex
	errs []error
}

func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

func (e *Errs) Empty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs) == 0
}

// Err returns nil if nothing was ever added, the sole error if exactly one
// was added, or otherwise a new error whose message lists every added
// error's text; the added errors are not wrapped, so errors.Is/As do not
// see them.
func (e *Errs) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.errs) {
	case 0:
		return nil
	case 1:
		return e.errs[0]
	default:
		msgs := make([]string, len(e.errs))
		for i, err := range e.errs {
			msgs[i] = err.Error()
		}
		return fmt.Errorf("%d errors: %v", len(e.errs), msgs)
	}
}

// ErrExhausted is the sentinel cause for capacity refusals that have no
// underlying system error to wrap (e.g. a caller-supplied semaphore already
// at capacity), as opposed to a real syscall/allocation failure.
var ErrExhausted = errors.New("resource exhausted")

// ErrResourceExhausted wraps a resource-exhaustion failure (goroutine spawn
// refusal, allocation failure, capacity semaphore already held) with a
// stack-trace-bearing cause so the caller can log provenance without the
// core itself raising exceptions.
func ErrResourceExhausted(cause error, what string) error {
	return errors.Wrapf(cause, "resource exhausted: %s", what)
}

var sidGen = shortid.MustNew(1, shortid.DefaultABC, 0xbeef)

// GenID returns a short, log-friendly id used to tag channels, workers,
// executors, and fibers for metrics and diagnostics; never used for
// correctness (the zero value is a perfectly valid, unnamed component).
func GenID() string {
	id, err := sidGen.Generate()
	if err != nil {
		// extremely unlikely (entropy exhaustion); fall back to a
		// fixed marker rather than panicking a caller mid-construction.
		return "sid-err"
	}
	return id
}
