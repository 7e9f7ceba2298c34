// Package gls implements the goroutine-local storage that backs
// worker.Self() and fiber.Self(): a thread-local "current worker/fiber"
// with a scope-guarded write/restore around any callback that reassigns
// it. Go has no native per-goroutine storage, and the handler contract
// (a single receive operation taking a Message by reference, no context
// parameter) rules out threading a context explicitly — so this package
// keys a map by the calling goroutine's runtime id, parsed the same way the
// small number of Go "goroutine local storage" libraries do it. It is used
// nowhere outside the worker and fiber packages' self-reference bookkeeping.
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package gls

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	// "goroutine 123 [running]:\n..."
	const prefix = "goroutine "
	b = b[len(prefix):]
	i := bytes.IndexByte(b, ' ')
	id, _ := strconv.ParseUint(string(b[:i]), 10, 64)
	return id
}

// Store is a per-goroutine slot for a single value. Distinct Stores
// (one per "current X" concept) never collide with each other.
type Store struct {
	mu sync.Mutex
	m  map[uint64]any
}

func NewStore() *Store {
	return &Store{m: make(map[uint64]any)}
}

// Get returns the value set for the calling goroutine, if any.
func (s *Store) Get() (any, bool) {
	id := goroutineID()
	s.mu.Lock()
	v, ok := s.m[id]
	s.mu.Unlock()
	return v, ok
}

// Set installs v for the calling goroutine and returns a restore function
// that puts back whatever was there before (or clears the slot if nothing
// was). Callers use this as a scope guard:
//
//	restore := store.Set(self)
//	defer restore()
func (s *Store) Set(v any) (restore func()) {
	id := goroutineID()
	s.mu.Lock()
	prev, had := s.m[id]
	s.m[id] = v
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if had {
			s.m[id] = prev
		} else {
			delete(s.m, id)
		}
		s.mu.Unlock()
	}
}
