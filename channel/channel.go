// Package channel implements sthread's Channel: a multi-producer/
// multi-consumer FIFO mailbox with blocking receive, non-blocking
// try-receive, iteration, soft/hard close, and listener fan-out.
// Grounded in aistore's transport/bundle round-robin stream selection
// for the dispatch-policy shape and in original_source/inc/simple_thread.hpp's
// channel::context, whose single FIFO of weak sender_context listeners
// (into which a blocked recv() also registers a transient, non-requeuing
// listener) is the source of truth for the "unified waiter queue" resolved
// in DESIGN.md: a naive reading suggests blocked-receivers and listeners as
// separate fields, but the fan-out algorithm ("pop the head receiver/listener
// record") only makes sense over one combined FIFO, exactly as the original
// source implements it.
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package channel

import (
	"container/list"
	"sync"
	"time"

	"github.com/durandaltheta/sthread-sub000/internal/cos"
	"github.com/durandaltheta/sthread-sub000/internal/debug"
	"github.com/durandaltheta/sthread-sub000/internal/mono"
	"github.com/durandaltheta/sthread-sub000/internal/nlog"
	"github.com/durandaltheta/sthread-sub000/message"
)

// Listener is the capability interface channels fan out to (design note §9:
// "a capability interface with exactly two methods"). Implementations are
// held as plain, non-owning references — whether a dead Listener's owner
// has gone away is discovered lazily, via a failed Send or a false Alive,
// never via language-level weak pointers (see DESIGN.md).
type Listener interface {
	// Send attempts delivery and reports whether it succeeded. A listener
	// that is no longer alive must return false here rather than panic.
	Send(m message.Message) bool
	// Alive reports whether the listener can still accept messages. Used
	// as a pre-filter; Send's return value remains authoritative.
	Alive() bool
}

type waiter struct {
	l       Listener
	requeue bool
}

// TryResult is the tri-state result of TryRecv.
type TryResult int

const (
	Closed TryResult = iota
	Failure
	Success
)

// Channel is sthread's FIFO mailbox. The zero value is not usable; construct
// with Make. All methods are safe for concurrent use.
type Channel struct {
	id    string
	clock mono.Clock

	mu      sync.Mutex
	queue   list.List // of message.Message
	waiters list.List // of *waiter
	closed  bool
}

// Option configures a Channel at construction time.
type Option func(*Channel)

// WithID overrides the auto-generated diagnostic id (used by metrics/logs).
func WithID(id string) Option { return func(c *Channel) { c.id = id } }

// WithClock injects the timer collaborator, letting a caller substitute a
// fake clock so Timer-driven scenarios don't have to sleep for real.
func WithClock(clk mono.Clock) Option { return func(c *Channel) { c.clock = clk } }

// Make constructs an empty, open Channel.
func Make(opts ...Option) *Channel {
	c := &Channel{id: cos.GenID(), clock: mono.Real}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Channel) ID() string { return c.id }

// Closed reports whether Close has been called.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Queued returns the current count of undelivered messages.
func (c *Channel) Queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Len()
}

// BlockedReceivers returns the current count of blocked recv() callers plus
// registered listeners awaiting a message (this and Queued are never both
// > 0 at a quiescent instant).
func (c *Channel) BlockedReceivers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiters.Len()
}

// Send constructs no Message itself (callers build one via message.Make*)
// and enqueues it, returning false iff the channel is closed.
func (c *Channel) Send(m message.Message) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.queue.PushBack(m)
	c.drainLocked()
	c.mu.Unlock()
	return true
}

// drainLocked runs the fan-out algorithm: pair the head of the message
// queue with the head of the waiter queue until either runs dry. Caller
// must hold c.mu; drainLocked releases it around each delivery attempt
// and always returns with it held.
func (c *Channel) drainLocked() {
	for c.queue.Len() > 0 && c.waiters.Len() > 0 {
		we := c.waiters.Remove(c.waiters.Front()).(*waiter)
		qm := c.queue.Remove(c.queue.Front()).(message.Message)

		c.mu.Unlock()
		delivered := we.l.Send(qm)
		c.mu.Lock()

		if !delivered {
			// dead listener: put the message back at the head, stop
			// draining this round rather than lose it.
			c.queue.PushFront(qm)
			return
		}
		if we.requeue && !c.closed {
			c.waiters.PushBack(we)
		}
	}
}

// Recv blocks until a message is available or the channel reaches a
// terminal closed state (hard-closed, or soft-closed with the queue
// drained).
func (c *Channel) Recv() (message.Message, bool) {
	c.mu.Lock()
	if front := c.queue.Front(); front != nil {
		m := c.queue.Remove(front).(message.Message)
		c.mu.Unlock()
		return m, true
	}
	if c.closed {
		c.mu.Unlock()
		return message.Message{}, false
	}
	rl := newReceiverListener()
	c.waiters.PushBack(&waiter{l: rl, requeue: false})
	c.mu.Unlock()

	return rl.wait()
}

// TryRecv is the non-blocking variant: it never registers a waiter, so a
// channel with no queued messages and no closure in progress simply fails.
func (c *Channel) TryRecv() (message.Message, TryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if front := c.queue.Front(); front != nil {
		m := c.queue.Remove(front).(message.Message)
		return m, Success
	}
	if c.closed {
		return message.Message{}, Closed
	}
	return message.Message{}, Failure
}

// Close is idempotent. Soft close continues draining the queue to
// receivers; hard close discards it immediately.
func (c *Channel) Close(soft bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if !soft {
		if n := c.queue.Len(); n > 0 {
			nlog.Warningf("channel %s: hard close discarding %d queued message(s)", c.id, n)
		}
		c.queue.Init()
	}

	var stragglers []*waiter
	if c.queue.Len() == 0 && c.waiters.Len() > 0 {
		for e := c.waiters.Front(); e != nil; {
			next := e.Next()
			stragglers = append(stragglers, c.waiters.Remove(e).(*waiter))
			e = next
		}
	}
	c.mu.Unlock()

	for _, we := range stragglers {
		if rl, ok := we.l.(*receiverListener); ok {
			rl.wake()
		}
		// persistent listeners (workers, fibers, executors) have nothing
		// blocked on them; they're simply dropped from rotation.
	}
}

// selfOwner is implemented by listeners that directly own the channel they
// could be registered on (currently only worker.Worker, via its Channel()
// accessor). RegisterListener uses it to catch an object registering itself
// as a listener on its own mailbox: drainLocked would hand the message
// straight back to the same Send that re-enqueues it, spinning forever
// instead of returning.
type selfOwner interface {
	Channel() *Channel
}

// RegisterListener adds a weak (non-owning) listener reference that competes
// with other listeners and blocked receivers for incoming messages. requeue
// controls whether the listener is reinserted at the tail after a
// successful delivery (round-robin fan-out) or used once.
func (c *Channel) RegisterListener(l Listener, requeue bool) bool {
	if so, ok := l.(selfOwner); ok {
		debug.Assert(so.Channel() != c, "channel: listener must not register itself on its own channel")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.waiters.PushBack(&waiter{l: l, requeue: requeue})
	c.drainLocked()
	return true
}

// receiverListener adapts a single blocking Recv call into the Listener
// capability interface, the Go translation of the "one condition variable
// per blocked receiver" design note (§9): msgCh is that per-receiver
// wakeup channel, sized 1 so the delivering goroutine's Send never blocks
// (drainLocked calls Send with the channel lock released).
type receiverListener struct {
	mu     sync.Mutex
	done   bool
	msgCh  chan message.Message
}

func newReceiverListener() *receiverListener {
	return &receiverListener{msgCh: make(chan message.Message, 1)}
}

func (r *receiverListener) Alive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.done
}

func (r *receiverListener) Send(m message.Message) bool {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return false
	}
	r.done = true
	r.mu.Unlock()
	r.msgCh <- m
	return true
}

// wake signals a terminal close with no message delivered.
func (r *receiverListener) wake() {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	r.mu.Unlock()
	close(r.msgCh)
}

func (r *receiverListener) wait() (message.Message, bool) {
	m, ok := <-r.msgCh
	return m, ok
}

// Iterator yields a lazy, potentially infinite sequence of messages that
// becomes finite as soon as the channel closes. The Go idiom for this is a
// Scanner-style Next/Message pair rather than C++'s begin/end input-iterator
// comparison, which has no natural Go analogue; see DESIGN.md.
type Iterator struct {
	ch  *Channel
	cur message.Message
}

// Iterate returns a fresh Iterator over c. Iteration is not restartable.
func (c *Channel) Iterate() *Iterator { return &Iterator{ch: c} }

// Next advances the iterator, blocking until a message arrives or the
// channel reaches terminal closure. Once it has returned false the iterator
// has ended, and every further call returns false without blocking.
func (it *Iterator) Next() bool {
	if it.ch == nil {
		return false
	}
	m, ok := it.ch.Recv()
	if !ok {
		it.ch = nil
		return false
	}
	it.cur = m
	return true
}

// Message returns the message produced by the most recent successful Next.
func (it *Iterator) Message() message.Message { return it.cur }

// Async spawns a transient goroutine that runs f, then sends a Message
// carrying id (and no payload) back to ch. Returns false iff ch is already
// closed; a send failure after f completes (ch closed meanwhile) is
// silently dropped, fire-and-forget.
func Async(ch *Channel, id int, f func()) bool {
	if ch.Closed() {
		return false
	}
	go func() {
		f()
		ch.Send(message.Make(id))
	}()
	return true
}

// AsyncValue is Async's value-returning counterpart: f's result becomes the
// response Message's payload.
func AsyncValue[T any](ch *Channel, id int, f func() T) bool {
	if ch.Closed() {
		return false
	}
	go func() {
		v := f()
		ch.Send(message.MakeValue(id, v))
	}()
	return true
}

// Timer spawns a transient goroutine that sleeps for d (via ch's clock
// collaborator) then sends a Message carrying id and no payload.
func Timer(ch *Channel, id int, d time.Duration) bool {
	return Async(ch, id, func() { <-ch.clock.After(d) })
}

// TimerValue is Timer's payload-carrying counterpart.
func TimerValue[T any](ch *Channel, id int, d time.Duration, v T) bool {
	return AsyncValue(ch, id, func() T {
		<-ch.clock.After(d)
		return v
	})
}
