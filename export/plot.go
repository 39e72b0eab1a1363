package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/hb9tf/burst/metrics"
	"github.com/hb9tf/burst/plot"
	"github.com/hb9tf/burst/search"
)

// Plot renders every trigger into Dir as <ID>.<Format>.
type Plot struct {
	Dir string
	// Format is "png" (default) or "jpeg".
	Format  string
	Options plot.Options
	Metrics *metrics.Metrics
}

func (p *Plot) Write(ctx context.Context, triggers <-chan search.Trigger) error {
	format := p.Format
	if format == "" {
		format = "png"
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("unable to create plot directory: %w", err)
	}
	cnt := newCounter("plot", p.Metrics)
	defer cnt.done()

	for t := range triggers {
		path := filepath.Join(p.Dir, fmt.Sprintf("%s.%s", t.ID, format))
		if err := p.write(t, path, format); err != nil {
			cnt.fail(1, err)
			continue
		}
		glog.V(2).Infof("plotted trigger %s to %s", t, path)
		cnt.ok(1)
	}
	return nil
}

func (p *Plot) write(t search.Trigger, path, format string) error {
	img, err := plot.Render(t, p.Options)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := plot.Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
