// Package worker implements sthread's Worker: a goroutine bound to a
// channel that constructs a user handler on that goroutine and dispatches
// received messages to it. Grounded in original_source/inc/simple_thread.hpp's
// thread/handler pairing, with thread-local "current worker" lookup
// implemented via internal/gls since Go has no native thread-local storage
// and the handler contract forbids threading an explicit context through
// Recv.
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package worker

import (
	"fmt"
	"sync/atomic"

	"github.com/durandaltheta/sthread-sub000/channel"
	"github.com/durandaltheta/sthread-sub000/internal/cos"
	"github.com/durandaltheta/sthread-sub000/internal/gls"
	"github.com/durandaltheta/sthread-sub000/message"
	"github.com/durandaltheta/sthread-sub000/task"
)

// Handler is the contract a worker's user object must satisfy: a single
// receive operation taking a Message. Handlers are constructed on the
// worker's own goroutine so any goroutine-local state they touch during
// construction is correct.
type Handler interface {
	Recv(m message.Message)
}

var selfStore = gls.NewStore()

// Worker is an OS-thread-equivalent goroutine owning a channel. The zero
// value is not usable; construct with Make.
type Worker struct {
	id         string
	ch         *channel.Channel
	done       chan struct{}
	dispatched uint64
	err        error
}

// Make spawns a goroutine that constructs newHandler() on itself and runs
// the receive loop until the channel closes. newHandler stands in for the
// source's "H(args…)" constructor call: Go closures are the idiomatic
// replacement for forwarding construction arguments through a generic
// function (see DESIGN.md), so callers close over whatever arguments their
// handler constructor needs.
func Make[H Handler](newHandler func() H) *Worker {
	w := &Worker{id: cos.GenID(), ch: channel.Make(), done: make(chan struct{})}
	go func() {
		restore := selfStore.Set(w)
		defer restore()
		defer close(w.done)
		defer func() {
			if r := recover(); r != nil {
				w.err = fmt.Errorf("worker %s: handler panic: %v", w.id, r)
			}
		}()

		h := newHandler()
		for {
			m, ok := w.ch.Recv()
			if !ok {
				return
			}
			atomic.AddUint64(&w.dispatched, 1)
			if pkt, isTask := task.Extract(m); isTask {
				pkt.Run()
				continue
			}
			h.Recv(m)
		}
	}()
	return w
}

// ID returns the worker's diagnostic id, used by logs and metrics.
func (w *Worker) ID() string { return w.id }

// Dispatched returns the total count of messages this worker has pulled
// off its mailbox, task packets and handler messages alike.
func (w *Worker) Dispatched() uint64 { return atomic.LoadUint64(&w.dispatched) }

// Self returns the Worker currently executing the calling goroutine, if
// any. Valid from inside a handler's Recv or a scheduled task packet.
func Self() (*Worker, bool) {
	v, ok := selfStore.Get()
	if !ok {
		return nil, false
	}
	w, ok := v.(*Worker)
	return w, ok
}

// Send enqueues m on the worker's mailbox. Send is also how Worker
// satisfies channel.Listener: registering a Worker as a listener on another
// channel makes delivery to it equivalent to enqueuing onto its own mailbox.
// The executor does not register its workers this way; its front channel's
// single dispatcher listener picks a worker and calls Send on it.
func (w *Worker) Send(m message.Message) bool { return w.ch.Send(m) }

// Alive reports whether the worker's mailbox is still open.
func (w *Worker) Alive() bool { return !w.ch.Closed() }

// Queued returns the worker's current mailbox depth, used by the executor's
// load comparison.
func (w *Worker) Queued() int { return w.ch.Queued() }

// Channel returns the worker's mailbox.
func (w *Worker) Channel() *channel.Channel { return w.ch }

// Schedule posts fn as a task packet, to be invoked inline by the worker's
// receive loop rather than passed to the handler.
func (w *Worker) Schedule(fn func()) bool {
	return w.ch.Send(task.Message(0, fn))
}

// Close shuts the worker down. Idempotent; soft drains the mailbox to the
// handler (and any already-scheduled tasks) before the receive loop exits,
// hard discards it immediately.
func (w *Worker) Close(soft bool) { w.ch.Close(soft) }

// Wait blocks until the worker's receive loop has exited, returning the
// handler panic that ended it, if any, or nil on a clean shutdown.
func (w *Worker) Wait() error {
	<-w.done
	return w.err
}
