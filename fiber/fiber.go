// Package fiber implements sthread's Fiber: a cooperative, stackless task
// that executes one message at a time on a host worker, never blocking it.
// Grounded in original_source/src/fiber.cpp's tl_self/wakeup/process_message
// trio; a fiber whose host cannot accept the initializer closes its mailbox
// immediately and stays dead (see DESIGN.md for this and the re-arm-before-
// dispatch divergence from the original's literal process_message).
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package fiber

import (
	"sync"

	"github.com/durandaltheta/sthread-sub000/channel"
	"github.com/durandaltheta/sthread-sub000/internal/cos"
	"github.com/durandaltheta/sthread-sub000/internal/gls"
	"github.com/durandaltheta/sthread-sub000/message"
	"github.com/durandaltheta/sthread-sub000/worker"
)

var selfStore = gls.NewStore()

// Fiber borrows its host worker's goroutine one message at a time. The zero
// value is not usable; construct with Make.
type Fiber struct {
	id      string
	host    *worker.Worker
	mailbox *channel.Channel

	mu       sync.Mutex
	alive    bool
	pending  []message.Message
	dispatch func(message.Message)
}

// Make allocates a fiber and schedules, on host, a one-shot initializer
// that constructs newHandler(), installs its receive function, and
// registers the fiber's bridge listener on its mailbox. If host cannot
// accept the initializer (already closed), the mailbox is closed
// immediately and the fiber is left dead.
func Make[H worker.Handler](host *worker.Worker, newHandler func() H) *Fiber {
	f := &Fiber{id: cos.GenID(), host: host, mailbox: channel.Make(), alive: true}

	ok := host.Schedule(func() {
		h := newHandler()
		f.mu.Lock()
		f.dispatch = func(m message.Message) { h.Recv(m) }
		f.mu.Unlock()
		f.mailbox.RegisterListener(&bridge{f: f}, true)
	})
	if !ok {
		f.mu.Lock()
		f.alive = false
		f.mu.Unlock()
		f.mailbox.Close(false)
	}
	return f
}

// Go spawns a fiber hosted on the worker currently executing the caller
// (the free-function convenience grounded in
// original_source/inc/executor.hpp's st::go<OBJECT>(args…)). Returns false
// if the caller is not running on a worker.
func Go[H worker.Handler](newHandler func() H) (*Fiber, bool) {
	host, ok := worker.Self()
	if !ok {
		return nil, false
	}
	return Make(host, newHandler), true
}

// bridge adapts mailbox deliveries into pending-deque pushes plus a
// dispatch one-shot scheduled on the host, the Listener the mailbox
// actually sees.
type bridge struct{ f *Fiber }

func (b *bridge) Alive() bool { return b.f.Alive() }

func (b *bridge) Send(m message.Message) bool {
	f := b.f
	f.mu.Lock()
	if !f.alive {
		f.mu.Unlock()
		return false
	}
	f.pending = append(f.pending, m)
	f.mu.Unlock()

	f.host.Schedule(f.dispatchOnce)
	return true
}

// dispatchOnce runs on the host worker: pop one pending message, re-arm
// itself first if more remain (so it never spins holding the fiber lock
// and other work on the host interleaves fairly), then invoke the handler
// outside the lock.
func (f *Fiber) dispatchOnce() {
	restore := selfStore.Set(f)
	defer restore()

	f.mu.Lock()
	if len(f.pending) == 0 {
		f.mu.Unlock()
		return
	}
	m := f.pending[0]
	f.pending = f.pending[1:]
	rearm := len(f.pending) > 0
	dispatch := f.dispatch
	f.mu.Unlock()

	if rearm {
		f.host.Schedule(f.dispatchOnce)
	}
	if dispatch != nil {
		dispatch(m)
	}
}

// Self returns the Fiber currently dispatching on the calling goroutine, if
// any. Valid from inside a fiber handler's Recv.
func Self() (*Fiber, bool) {
	v, ok := selfStore.Get()
	if !ok {
		return nil, false
	}
	f, ok := v.(*Fiber)
	return f, ok
}

// ID returns the fiber's diagnostic id, used by logs and metrics.
func (f *Fiber) ID() string { return f.id }

// Parent returns the fiber's host worker.
func (f *Fiber) Parent() *worker.Worker { return f.host }

// Pending returns the current depth of the fiber's local dispatch deque.
func (f *Fiber) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Alive reports whether the fiber has not yet been closed.
func (f *Fiber) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

// Mailbox returns the fiber's user-facing channel.
func (f *Fiber) Mailbox() *channel.Channel { return f.mailbox }

// Send enqueues a message on the fiber's mailbox.
func (f *Fiber) Send(m message.Message) bool { return f.mailbox.Send(m) }

// Close is idempotent. Marks the fiber dead, then closes the mailbox with
// soft/hard discipline outside the fiber lock. The bridge listener, on its
// next delivery attempt, observes the fiber dead, returns failure, and the
// mailbox's fan-out algorithm drops it from rotation.
func (f *Fiber) Close(soft bool) {
	f.mu.Lock()
	if !f.alive {
		f.mu.Unlock()
		return
	}
	f.alive = false
	if !soft {
		f.pending = nil
	}
	f.mu.Unlock()

	f.mailbox.Close(soft)
}
