package payload_test

import (
	"testing"

	"github.com/durandaltheta/sthread-sub000/payload"
)

func TestUnsetIsZeroValue(t *testing.T) {
	var p payload.Payload
	if p.IsSet() {
		t.Fatal("zero-value Payload must be unset")
	}
	if payload.Is[string](p) {
		t.Fatal("unset Payload must not match any type")
	}
}

func TestCopyExtractRoundTrip(t *testing.T) {
	p := payload.Make("hello")
	if !payload.Is[string](p) {
		t.Fatal("expected string type")
	}
	var s string
	if !payload.CopyExtract(p, &s) {
		t.Fatal("copy_extract should succeed on matching type")
	}
	if s != "hello" {
		t.Fatalf("got %q, want %q", s, "hello")
	}
	// copy leaves the payload intact
	if !payload.Is[string](p) {
		t.Fatal("copy_extract must not unset the payload")
	}
}

func TestCopyExtractTypeMismatch(t *testing.T) {
	p := payload.Make(42)
	var s string
	if payload.CopyExtract(p, &s) {
		t.Fatal("copy_extract must fail on type mismatch")
	}
	if s != "" {
		t.Fatal("out parameter must be untouched on failure")
	}
}

func TestMoveExtractUnsetsPayload(t *testing.T) {
	p := payload.Make(7)
	var n int
	if !payload.MoveExtract(&p, &n) {
		t.Fatal("move_extract should succeed on matching type")
	}
	if n != 7 {
		t.Fatalf("got %d, want 7", n)
	}
	if payload.Is[int](p) {
		t.Fatal("successful move_extract must leave payload unset for T")
	}
	if p.IsSet() {
		t.Fatal("successful move_extract must leave payload unset entirely")
	}
}

func TestMoveExtractMismatchLeavesPayloadAlone(t *testing.T) {
	p := payload.Make(3.14)
	var n int
	if payload.MoveExtract(&p, &n) {
		t.Fatal("move_extract must fail on type mismatch")
	}
	if !payload.Is[float64](p) {
		t.Fatal("failed move_extract must not disturb the payload")
	}
}

type point struct{ X, Y int }

func TestDistinctStructTypes(t *testing.T) {
	p := payload.Make(point{1, 2})
	if payload.Is[int](p) {
		t.Fatal("struct payload must not match unrelated type")
	}
	var out point
	if !payload.CopyExtract(p, &out) || out != (point{1, 2}) {
		t.Fatal("struct round trip failed")
	}
}
