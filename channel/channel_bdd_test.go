package channel_test

import (
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/durandaltheta/sthread-sub000/channel"
	"github.com/durandaltheta/sthread-sub000/message"
	"github.com/durandaltheta/sthread-sub000/payload"
)

var _ = Describe("Channel", func() {
	Describe("TryRecv", func() {
		DescribeTable("reports the right result for each queue/close state",
			func(seed func(ch *channel.Channel), wantResult channel.TryResult) {
				ch := channel.Make()
				seed(ch)
				_, res := ch.TryRecv()
				Expect(res).To(Equal(wantResult))
			},
			Entry("empty and open", func(ch *channel.Channel) {}, channel.Failure),
			Entry("empty and closed", func(ch *channel.Channel) { ch.Close(true) }, channel.Closed),
			Entry("non-empty and open", func(ch *channel.Channel) {
				ch.Send(message.Make(1))
			}, channel.Success),
		)
	})

	Describe("listener fan-out", func() {
		It("delivers a registered listener's own payload type unchanged", func() {
			ch := channel.Make()
			type order struct{ qty int }

			l := &capturingListener{}
			ch.RegisterListener(l, true)
			ch.Send(message.MakeValue(7, order{qty: 3}))

			Eventually(func() int { return len(l.snapshot()) }).Should(Equal(1))
			var got order
			ok := payload.CopyExtract(l.snapshot()[0].Payload(), &got)
			Expect(ok).To(BeTrue())
			Expect(got.qty).To(Equal(3))
		})
	})
})

type capturingListener struct {
	mu  sync.Mutex
	got []message.Message
}

func (l *capturingListener) Send(m message.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, m)
	return true
}

func (l *capturingListener) Alive() bool { return true }

func (l *capturingListener) snapshot() []message.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]message.Message, len(l.got))
	copy(out, l.got)
	return out
}
