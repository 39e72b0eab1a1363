package export

import (
	"context"

	"github.com/hb9tf/burst/collect"
	"github.com/hb9tf/burst/metrics"
	"github.com/hb9tf/burst/search"
	"github.com/hb9tf/burst/store"
)

const defaultSendTriggerAmount = 10

// Server submits triggers to a collection server in batches of
// SendTriggerAmount. The last partial batch is sent once the input closes.
type Server struct {
	Client            *collect.Client
	Identifier        string
	SendTriggerAmount int
	Metrics           *metrics.Metrics
}

func (s *Server) Write(ctx context.Context, triggers <-chan search.Trigger) error {
	sendTriggerAmount := defaultSendTriggerAmount
	if s.SendTriggerAmount > 0 {
		sendTriggerAmount = s.SendTriggerAmount
	}
	cnt := newCounter(s.Client.Server, s.Metrics)
	defer cnt.done()

	var toSend []store.Trigger
	send := func() {
		if err := s.Client.AddTriggers(ctx, toSend); err != nil {
			cnt.fail(len(toSend), err)
		} else {
			cnt.ok(len(toSend))
		}
		toSend = nil
	}
	for t := range triggers {
		toSend = append(toSend, store.NewTrigger(s.Identifier, t))
		if len(toSend) < sendTriggerAmount {
			continue // we haven't collected enough triggers to send yet
		}
		send()
	}
	if len(toSend) > 0 {
		send()
	}
	return nil
}
