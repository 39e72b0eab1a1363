// Package export hands triggers to their final destination.
package export

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/hb9tf/burst/metrics"
	"github.com/hb9tf/burst/search"
)

const countInfo = 100

type Exporter interface {
	Write(context.Context, <-chan search.Trigger) error
}

// counter tracks per-trigger export results.
type counter struct {
	name    string
	metrics *metrics.Metrics
	counts  map[string]int
}

func newCounter(name string, m *metrics.Metrics) *counter {
	return &counter{
		name:    name,
		metrics: m,
		counts: map[string]int{
			"error":   0,
			"success": 0,
			"total":   0,
		},
	}
}

func (c *counter) fail(n int, err error) {
	c.counts["total"] += n
	c.counts["error"] += n
	for i := 0; i < n; i++ {
		c.metrics.TriggerExported(false)
	}
	glog.Warningf("error exporting %d trigger(s) to %s: %s\n", n, c.name, err)
}

func (c *counter) ok(n int) {
	before := c.counts["total"]
	c.counts["total"] += n
	c.counts["success"] += n
	for i := 0; i < n; i++ {
		c.metrics.TriggerExported(true)
	}
	if before/countInfo != c.counts["total"]/countInfo {
		glog.Infof("Trigger export counts (%s): %+v\n", c.name, c.counts)
	}
}

func (c *counter) done() {
	glog.Infof("Trigger export counts (%s): %+v\n", c.name, c.counts)
}

// Multi copies every trigger to all of its exporters.
type Multi []Exporter

func (m Multi) Write(ctx context.Context, triggers <-chan search.Trigger) error {
	chans := make([]chan search.Trigger, len(m))
	errs := make([]error, len(m))
	var wg sync.WaitGroup
	for i, e := range m {
		chans[i] = make(chan search.Trigger)
		wg.Add(1)
		go func(i int, e Exporter) {
			defer wg.Done()
			errs[i] = e.Write(ctx, chans[i])
			// Keep draining so the other exporters are not blocked.
			for range chans[i] {
			}
		}(i, e)
	}

	for t := range triggers {
		for _, c := range chans {
			c <- t
		}
	}
	for _, c := range chans {
		close(c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
