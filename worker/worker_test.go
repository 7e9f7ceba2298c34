package worker_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/durandaltheta/sthread-sub000/channel"
	"github.com/durandaltheta/sthread-sub000/message"
	"github.com/durandaltheta/sthread-sub000/payload"
	"github.com/durandaltheta/sthread-sub000/worker"
)

type echoHandler struct {
	reply *channel.Channel
}

func (h *echoHandler) Recv(m message.Message) {
	switch {
	case payload.Is[int](m.Payload()):
		var n int
		payload.CopyExtract(m.Payload(), &n)
		h.reply.Send(message.MakeValue(m.ID(), n))
	case payload.Is[string](m.Payload()):
		var s string
		payload.CopyExtract(m.Payload(), &s)
		h.reply.Send(message.MakeValue(m.ID(), s))
	}
}

func TestWorkerDispatchesTypedPayloadsInOrder(t *testing.T) {
	r := channel.Make()
	w := worker.Make(func() *echoHandler { return &echoHandler{reply: r} })
	defer w.Close(true)

	w.Send(message.MakeValue(1, 3))
	w.Send(message.MakeValue(2, "hi"))

	m1, ok1 := r.Recv()
	m2, ok2 := r.Recv()
	if !ok1 || !ok2 {
		t.Fatal("expected two replies")
	}
	if m1.ID() != 1 {
		t.Fatalf("first reply id = %d, want 1", m1.ID())
	}
	var n int
	if !payload.CopyExtract(m1.Payload(), &n) || n != 3 {
		t.Fatalf("first reply payload = %v, want 3", n)
	}
	if m2.ID() != 2 {
		t.Fatalf("second reply id = %d, want 2", m2.ID())
	}
	var s string
	if !payload.CopyExtract(m2.Payload(), &s) || s != "hi" {
		t.Fatalf("second reply payload = %q, want hi", s)
	}
}

type selfCheckHandler struct {
	want *worker.Worker
	got  chan bool
}

func (h *selfCheckHandler) Recv(m message.Message) {
	self, ok := worker.Self()
	h.got <- ok && self == h.want
}

func TestSelfIdentifiesOwningWorker(t *testing.T) {
	got := make(chan bool, 1)
	cell := make(chan *worker.Worker, 1)
	w := worker.Make(func() *selfCheckHandler {
		return &selfCheckHandler{want: <-cell, got: got}
	})
	cell <- w
	defer w.Close(true)

	w.Send(message.Make(1))
	select {
	case ok := <-got:
		if !ok {
			t.Fatal("worker.Self() did not identify the owning worker")
		}
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}

type callCountingHandler struct{ calls int32 }

func (h *callCountingHandler) Recv(message.Message) { atomic.AddInt32(&h.calls, 1) }

func TestScheduleRunsInlineNotThroughHandler(t *testing.T) {
	ran := make(chan struct{}, 1)
	h := &callCountingHandler{}
	w := worker.Make(func() *callCountingHandler { return h })
	defer w.Close(true)

	w.Schedule(func() { ran <- struct{}{} })
	select {
	case <-ran:
		if n := atomic.LoadInt32(&h.calls); n != 0 {
			t.Fatalf("handler received %d message(s), want 0: task packets must bypass it", n)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduled task packet never ran")
	}
}

func TestCloseSoftDrainsThenStops(t *testing.T) {
	r := channel.Make()
	w := worker.Make(func() *echoHandler { return &echoHandler{reply: r} })
	w.Send(message.MakeValue(1, 1))
	w.Close(true)
	w.Wait()

	if _, ok := r.Recv(); !ok {
		t.Fatal("soft close should still deliver the queued message")
	}
}
