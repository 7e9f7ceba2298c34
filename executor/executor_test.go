package executor_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/durandaltheta/sthread-sub000/executor"
	"github.com/durandaltheta/sthread-sub000/internal/cos"
	"github.com/durandaltheta/sthread-sub000/message"
	"github.com/durandaltheta/sthread-sub000/worker"
)

type noopHandler struct{}

func (noopHandler) Recv(message.Message) {}

func TestExecutorLoadBalanceFairness(t *testing.T) {
	e := executor.Make(2, func() noopHandler { return noopHandler{} })
	defer e.Close(false)

	// let both workers reach their initial blocked receive before any task
	// packet is dispatched, so the pick() trace below is deterministic.
	time.Sleep(20 * time.Millisecond)

	gate := make(chan struct{})
	var mu sync.Mutex
	counts := map[*worker.Worker]int{}
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		e.Schedule(func() {
			defer wg.Done()
			<-gate
			w, ok := worker.Self()
			if !ok {
				t.Error("task packet ran without an owning worker visible via Self()")
				return
			}
			mu.Lock()
			counts[w]++
			mu.Unlock()
		})
	}

	close(gate)
	wg.Wait()

	if len(counts) != 2 {
		t.Fatalf("expected both workers to run at least one task, got %d distinct workers", len(counts))
	}
	for w, c := range counts {
		if c < 3 {
			t.Errorf("worker %p ran only %d of 10 tasks, want >= 3", w, c)
		}
	}
}

func TestScheduleForwardsToSomeWorker(t *testing.T) {
	reply := make(chan int, 1)
	e := executor.Make(3, func() noopHandler { return noopHandler{} })
	defer e.Close(false)

	e.Schedule(func() { reply <- 1 })
	select {
	case <-reply:
	case <-time.After(time.Second):
		t.Fatal("scheduled task never ran")
	}
}

func TestWorkerLoadsReflectsPoolSize(t *testing.T) {
	e := executor.Make(4, func() noopHandler { return noopHandler{} })
	defer e.Close(false)
	if n := len(e.WorkerLoads()); n != 4 {
		t.Fatalf("WorkerLoads length = %d, want 4", n)
	}
}

func TestInstanceIsASingletonUntilClosed(t *testing.T) {
	a := executor.Instance()
	b := executor.Instance()
	if a != b {
		t.Fatal("Instance() should return the same Executor while alive")
	}
	a.Close(false)
	c := executor.Instance()
	if c == a {
		t.Fatal("Instance() should reconstruct after the previous instance closed")
	}
	c.Close(false)
}

func TestMakeBoundedAcquiresAndReleasesCapacity(t *testing.T) {
	sem := semaphore.NewWeighted(2)

	e, err := executor.MakeBounded(2, func() noopHandler { return noopHandler{} }, sem)
	if err != nil {
		t.Fatalf("MakeBounded: %v", err)
	}
	if sem.TryAcquire(1) {
		t.Fatal("semaphore should be fully held while the bounded executor is open")
	}

	e.Close(false)

	if !sem.TryAcquire(2) {
		t.Fatal("semaphore capacity was not released on Close")
	}
	sem.Release(2)
}

func TestMakeBoundedFailsFastWhenExhausted(t *testing.T) {
	sem := semaphore.NewWeighted(1)
	if !sem.TryAcquire(1) {
		t.Fatal("setup: could not pre-acquire semaphore")
	}
	defer sem.Release(1)

	e, err := executor.MakeBounded(1, func() noopHandler { return noopHandler{} }, sem)
	if err == nil {
		e.Close(false)
		t.Fatal("expected MakeBounded to fail when the semaphore has no capacity left")
	}
	if !errors.Is(err, cos.ErrExhausted) {
		t.Fatalf("expected error to wrap cos.ErrExhausted, got: %v", err)
	}
}
