// Package payload implements sthread's type-erased, singly-owned message
// payload. It is the Go analogue of the original C++ library's st::data
// (original_source/inc/data.hpp): a std::any-like box that additionally
// exposes copy- and move-extraction with a type check, instead of an
// unchecked cast.
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package payload

import (
	"reflect"
	"sync"

	"github.com/OneOfOne/xxhash"
)

// Payload is a type-erased, singly-owned value. The zero value is unset;
// a set Payload owns exactly one value of the identified type. Payload is
// safe to copy by value; extraction is what mutates it.
type Payload struct {
	token uint64
	value any
}

var tokenCache sync.Map // map[string]uint64

// tokenFor derives a stable, comparable token from a type's name. A hash
// (rather than a bare reflect.Type) keeps Is[T] a single uint64 compare on
// the hot path and gives every unset Payload the same zero token regardless
// of which package last touched tokenCache. The low bit is forced to 1 so
// no real type can collide with the zero-value sentinel.
func tokenFor(t reflect.Type) uint64 {
	name := t.PkgPath() + "." + t.String()
	if v, ok := tokenCache.Load(name); ok {
		return v.(uint64)
	}
	h := xxhash.ChecksumString64(name) | 1
	actual, _ := tokenCache.LoadOrStore(name, h)
	return actual.(uint64)
}

func tokenOf[T any]() uint64 {
	var zero T
	return tokenFor(reflect.TypeOf(&zero).Elem())
}

// Make constructs a Payload holding v, recording T's token at the call
// site — the static type, never the dynamic type of v (so Make[io.Reader]
// and Make[*os.File] are distinguishable even when v is the same *os.File).
func Make[T any](v T) Payload {
	return Payload{token: tokenOf[T](), value: v}
}

// IsSet reports whether the Payload holds any value.
func (p Payload) IsSet() bool { return p.token != 0 }

// Is reports whether the stored value's static type is T.
func Is[T any](p Payload) bool { return p.IsSet() && p.token == tokenOf[T]() }

// CopyExtract copies the stored value into out and returns true iff the
// stored type is T. On mismatch out is left untouched.
func CopyExtract[T any](p Payload, out *T) bool {
	if !Is[T](p) {
		return false
	}
	*out = p.value.(T)
	return true
}

// MoveExtract copies the stored value into out, as CopyExtract, but also
// leaves p unset on success: a successful MoveExtract[T](&p, ...) implies
// !Is[T](p) afterward.
func MoveExtract[T any](p *Payload, out *T) bool {
	if !Is[T](*p) {
		return false
	}
	*out = p.value.(T)
	*p = Payload{}
	return true
}
