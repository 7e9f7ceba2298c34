// Package message implements sthread's Message: the (operation id, Payload)
// pair that channels carry. Grounded in original_source/inc/message.hpp's
// st::message, minus the reference-counted context indirection: concrete
// value types here, not CRTP handles.
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package message

import "github.com/durandaltheta/sthread-sub000/payload"

// Message pairs an operation id with an optional Payload. The zero value is
// the "no message" sentinel: Valid() is false; a Message is considered
// valid iff it was built with one of the Make* constructors. Go expresses
// this as an explicit method rather than an operator overload.
type Message struct {
	id      int
	payload payload.Payload
	valid   bool
}

// Make constructs a Message with no payload.
func Make(id int) Message {
	return Message{id: id, valid: true}
}

// MakePayload constructs a Message carrying an already-built Payload.
func MakePayload(id int, p payload.Payload) Message {
	return Message{id: id, payload: p, valid: true}
}

// MakeValue constructs a Message by wrapping v into a new Payload, the Go
// equivalent of st::message::make(id, T&&).
func MakeValue[T any](id int, v T) Message {
	return MakePayload(id, payload.Make(v))
}

// Valid reports whether this Message was constructed via one of the Make
// functions, as opposed to being a zero-value sentinel.
func (m Message) Valid() bool { return m.valid }

// ID returns the operation id. Meaningless if !Valid().
func (m Message) ID() int { return m.id }

// Payload returns a copy of the message's Payload, which may itself be
// unset.
func (m Message) Payload() payload.Payload { return m.payload }

// PayloadPtr returns a mutable reference to the message's Payload, letting
// callers move-extract its value in place (payload.MoveExtract) rather than
// copy-extract from a snapshot. m must be addressable (a local variable, not
// a temporary) for this to be callable.
func (m *Message) PayloadPtr() *payload.Payload { return &m.payload }
