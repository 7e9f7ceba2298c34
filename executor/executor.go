// Package executor implements sthread's Executor: a pool of workers
// sharing a front channel with a load-balanced, round-robin-with-weight
// dispatch policy. The process-wide singleton is grounded in aistore's
// xact/xreg registry (a lazily (re)constructed global gated by one mutex);
// the dispatch policy is grounded in original_source/inc/executor.hpp,
// resolved as an adjacent-pair queue-depth comparison rather than strict
// round robin (see DESIGN.md).
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package executor

import (
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/durandaltheta/sthread-sub000/channel"
	"github.com/durandaltheta/sthread-sub000/internal/cos"
	"github.com/durandaltheta/sthread-sub000/internal/nlog"
	"github.com/durandaltheta/sthread-sub000/internal/sysinfo"
	"github.com/durandaltheta/sthread-sub000/message"
	"github.com/durandaltheta/sthread-sub000/task"
	"github.com/durandaltheta/sthread-sub000/worker"
)

// Executor is a fixed-size pool of workers fed through one front channel.
// The zero value is not usable; construct with Make.
type Executor struct {
	id    string
	front *channel.Channel

	mu      sync.Mutex
	workers []*worker.Worker
	cursor  int

	sem    *semaphore.Weighted
	weight int64
}

// dispatcher is the sole Listener the front channel ever sees; its Send
// implements the weight-biased worker selection, so the channel's own
// generic single-listener fan-out is all that's needed to drive it.
type dispatcher struct {
	e *Executor
}

func (d *dispatcher) Alive() bool { return !d.e.front.Closed() }

func (d *dispatcher) Send(m message.Message) bool {
	w := d.e.pick()
	if w == nil {
		return false
	}
	return w.Send(m)
}

// Make constructs count workers (count < 1 is treated as 1), each running
// newHandler(), and wires them behind one front channel. newHandler plays
// the role of the source's "H(args…)" constructor call; see worker.Make's
// doc for why it's a closure here.
func Make[H worker.Handler](count int, newHandler func() H) *Executor {
	if count < 1 {
		count = 1
	}
	e := &Executor{id: cos.GenID(), front: channel.Make()}
	for i := 0; i < count; i++ {
		e.workers = append(e.workers, worker.Make(newHandler))
	}
	e.front.RegisterListener(&dispatcher{e: e}, true)
	return e
}

// MakeBounded is Make gated by a caller-supplied weighted semaphore: it
// acquires count units before building the pool and releases them on
// Close, so a process can cap the total number of worker goroutines it
// hands out across many executors rather than just within one. It fails
// fast rather than blocking, since an executor's whole purpose is to be
// handed to a caller immediately.
func MakeBounded[H worker.Handler](count int, newHandler func() H, sem *semaphore.Weighted) (*Executor, error) {
	if count < 1 {
		count = 1
	}
	weight := int64(count)
	if !sem.TryAcquire(weight) {
		return nil, cos.ErrResourceExhausted(cos.ErrExhausted, fmt.Sprintf("%d workers", count))
	}
	e := Make(count, newHandler)
	e.sem = sem
	e.weight = weight
	return e, nil
}

// ID returns the executor's diagnostic id, used by logs and metrics.
func (e *Executor) ID() string { return e.id }

// pick selects the worker that receives the next message: compare the
// current rotation candidate's queue depth against the next candidate's,
// take whichever is lower (ties favor the current candidate), then advance
// the cursor by one regardless of which was chosen. Because the cursor
// always advances, every worker cycles through the "current candidate" role
// and therefore cannot be starved indefinitely.
func (e *Executor) pick() *worker.Worker {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.workers)
	if n == 0 {
		return nil
	}
	cur := e.workers[e.cursor%n]
	next := e.workers[(e.cursor+1)%n]
	chosen := cur
	if next.Queued() < cur.Queued() {
		chosen = next
	}
	e.cursor = (e.cursor + 1) % n
	return chosen
}

// Send forwards to the front channel.
func (e *Executor) Send(m message.Message) bool { return e.front.Send(m) }

// Schedule posts fn as a task packet; whichever worker is picked runs it
// inline rather than passing it to its handler.
func (e *Executor) Schedule(fn func()) bool {
	return e.front.Send(task.Message(0, fn))
}

// Closed reports whether Close has been called.
func (e *Executor) Closed() bool { return e.front.Closed() }

// WorkerLoads snapshots each worker's current mailbox depth, in rotation
// order. This is the concrete accessor the weight-comparison dispatch
// policy needs to be implementable and observable; also exposed as a
// gauge in package metrics.
func (e *Executor) WorkerLoads() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	loads := make([]int, len(e.workers))
	for i, w := range e.workers {
		loads[i] = w.Queued()
	}
	return loads
}

// Close shuts the executor down: close the front channel first, then each
// worker, with the same soft/hard discipline, then waits for every worker's
// receive loop to actually exit before returning — joined concurrently
// rather than one at a time, since a soft close can take as long as its
// slowest worker's backlog takes to drain. Each worker's shutdown outcome
// (nil, or the handler panic that ended it) is aggregated via cos.Errs so a
// single misbehaving worker's panic doesn't get lost among the rest, and
// logged since callers commonly don't check Close's return.
func (e *Executor) Close(soft bool) error {
	e.front.Close(soft)
	e.mu.Lock()
	workers := append([]*worker.Worker(nil), e.workers...)
	e.mu.Unlock()

	for _, w := range workers {
		w.Close(soft)
	}

	var (
		errs cos.Errs
		wg   sync.WaitGroup
	)
	wg.Add(len(workers))
	for _, w := range workers {
		w := w
		go func() {
			defer wg.Done()
			errs.Add(w.Wait())
		}()
	}
	wg.Wait()

	if e.sem != nil {
		e.sem.Release(e.weight)
	}

	err := errs.Err()
	if err != nil {
		nlog.Errorf("executor %s: close: %v", e.id, err)
	}
	return err
}

type noopHandler struct{}

func (noopHandler) Recv(message.Message) {}

var (
	instMu sync.Mutex
	inst   *Executor
)

// Instance returns the process-wide default Executor, sized to the
// hardware parallelism hint, lazily (re)constructing it if it has never
// been built or was previously closed.
func Instance() *Executor {
	instMu.Lock()
	defer instMu.Unlock()
	if inst == nil || inst.Closed() {
		inst = Make(sysinfo.NumCPU(), func() noopHandler { return noopHandler{} })
	}
	return inst
}

// Schedule posts fn as a task packet to the default Executor's instance,
// the free-function convenience grounded in original_source/inc/executor.hpp's
// st::schedule(...).
func Schedule(fn func()) bool {
	return Instance().Schedule(fn)
}
