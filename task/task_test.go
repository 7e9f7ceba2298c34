package task_test

import (
	"testing"

	"github.com/durandaltheta/sthread-sub000/message"
	"github.com/durandaltheta/sthread-sub000/task"
)

func TestPacketRunsWrappedCallable(t *testing.T) {
	ran := false
	p := task.MakePacket(func() { ran = true })
	p.Run()
	if !ran {
		t.Fatal("Run must invoke the wrapped callable")
	}
}

func TestMessageRoundTripsAsPacket(t *testing.T) {
	calls := 0
	m := task.Message(5, func() { calls++ })
	if m.ID() != 5 {
		t.Fatalf("id = %d, want 5", m.ID())
	}
	p, ok := task.Extract(m)
	if !ok {
		t.Fatal("expected message payload to be a task packet")
	}
	p.Run()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestExtractFailsOnNonPacketMessage(t *testing.T) {
	m := message.MakeValue(1, "not a packet")
	if _, ok := task.Extract(m); ok {
		t.Fatal("extract must fail on a non-packet payload")
	}
}

func TestLazyMemoizes(t *testing.T) {
	calls := 0
	l := task.MakeLazy(func() int {
		calls++
		return 42
	})
	if v := l.Get(); v != 42 {
		t.Fatalf("get = %d, want 42", v)
	}
	if v := l.Get(); v != 42 {
		t.Fatalf("second get = %d, want 42", v)
	}
	if calls != 1 {
		t.Fatalf("fn called %d times, want 1", calls)
	}
}
