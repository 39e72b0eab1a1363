package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/hb9tf/burst/metrics"
	"github.com/hb9tf/burst/search"
)

// CSV writes one line per trigger. Output goes to stdout unless Writer is set.
type CSV struct {
	Writer     io.Writer
	Identifier string
	Metrics    *metrics.Metrics
}

func (c *CSV) Write(ctx context.Context, triggers <-chan search.Trigger) error {
	out := c.Writer
	if out == nil {
		out = os.Stdout
	}
	cnt := newCounter("csv", c.Metrics)
	defer cnt.done()

	w := csv.NewWriter(out)
	w.Write([]string{
		"ID",
		"Identifier",
		"Time",
		"DMIndex",
		"TimeIndex",
		"SNR",
		"Duration",
	})

	for t := range triggers {
		if err := w.Write([]string{
			t.ID,
			c.Identifier,
			fmt.Sprintf("%f", t.Time()),
			fmt.Sprintf("%d", t.DMIndex),
			fmt.Sprintf("%d", t.TimeIndex),
			fmt.Sprintf("%f", t.SNR),
			fmt.Sprintf("%d", t.Duration),
		}); err != nil {
			cnt.fail(1, err)
			continue
		}

		w.Flush()
		if err := w.Error(); err != nil {
			cnt.fail(1, err)
			continue
		}
		cnt.ok(1)
	}
	return nil
}
