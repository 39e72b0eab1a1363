package export

import (
	"context"

	"github.com/hb9tf/burst/metrics"
	"github.com/hb9tf/burst/search"
	"github.com/hb9tf/burst/store"
)

// SQL stores triggers in the triggers table of a store.
type SQL struct {
	Store      *store.Store
	Identifier string
	Metrics    *metrics.Metrics
}

func (s *SQL) Write(ctx context.Context, triggers <-chan search.Trigger) error {
	cnt := newCounter(s.Store.Dialect.Name, s.Metrics)
	defer cnt.done()

	for t := range triggers {
		if err := s.Store.AddTrigger(ctx, store.NewTrigger(s.Identifier, t)); err != nil {
			cnt.fail(1, err)
			continue
		}
		cnt.ok(1)
	}
	return nil
}
