// Package task implements sthread's task packet and lazy computation.
// Grounded in original_source/inc/task.hpp (st::task), whose create_function
// overloads for void vs non-void callables become, in Go, a closure
// captured at Schedule/Async call sites rather than a variadic
// argument-forwarding template — Go closures are the idiomatic replacement
// for C++'s perfect-forwarding args… (see DESIGN.md).
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package task

import (
	"sync"

	"github.com/durandaltheta/sthread-sub000/message"
	"github.com/durandaltheta/sthread-sub000/payload"
)

// Packet wraps a zero-argument callable so it can travel as a Message
// payload and be run inline by whichever worker receives it, rather than
// dispatched to the worker's user handler.
type Packet struct {
	run func()
}

// MakePacket wraps fn in a runnable Packet.
func MakePacket(fn func()) Packet { return Packet{run: fn} }

// Run invokes the wrapped callable. Safe to call exactly once per packet;
// the worker receive loop is the only intended caller.
func (p Packet) Run() {
	if p.run != nil {
		p.run()
	}
}

// Message builds a Message whose payload is a task packet wrapping fn,
// addressed with operation id. Workers special-case this payload type in
// their receive loop, running it inline instead of handing it to the
// user handler.
func Message(id int, fn func()) message.Message {
	return message.MakeValue(id, MakePacket(fn))
}

// Extract reports whether m's payload is a task packet and returns it.
func Extract(m message.Message) (Packet, bool) {
	var p Packet
	ok := payload.CopyExtract(m.Payload(), &p)
	return p, ok
}

// Lazy is a memoizing computation: fn runs at most once, on the first call
// to Get; subsequent calls return the cached result without re-running fn.
// channel.Async and channel.Timer do not use it: each spawns one goroutine
// that sends its message once.
type Lazy[T any] struct {
	once sync.Once
	fn   func() T
	val  T
}

// MakeLazy constructs a Lazy wrapping fn. fn is not invoked until Get.
func MakeLazy[T any](fn func() T) *Lazy[T] {
	return &Lazy[T]{fn: fn}
}

// Get evaluates fn on its first call and caches the result thereafter.
func (l *Lazy[T]) Get() T {
	l.once.Do(func() { l.val = l.fn() })
	return l.val
}
