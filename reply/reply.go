// Package reply implements sthread's Reply: a thin, addressed handle that
// lets a server answer a requester without that requester exposing its own
// channel identity. Grounded in
// original_source/inc/simple_threading_sender.hpp's reply struct.
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package reply

import (
	"github.com/durandaltheta/sthread-sub000/channel"
	"github.com/durandaltheta/sthread-sub000/message"
)

// Reply pairs a Channel with an operation id. It is immutable after
// construction.
type Reply struct {
	ch *channel.Channel
	id int
}

// Make constructs a Reply addressed at id on ch.
func Make(ch *channel.Channel, id int) Reply {
	return Reply{ch: ch, id: id}
}

// Send composes into ch.Send(message.Make(id)): a bare acknowledgement with
// no payload.
func (r Reply) Send() bool {
	return r.ch.Send(message.Make(r.id))
}

// SendValue composes into ch.Send(message.MakeValue(id, v)).
func SendValue[T any](r Reply, v T) bool {
	return r.ch.Send(message.MakeValue(r.id, v))
}

// Channel returns the reply's destination channel.
func (r Reply) Channel() *channel.Channel { return r.ch }

// ID returns the reply's operation id.
func (r Reply) ID() int { return r.id }
