package rtlsdr

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/sweep"
)

const (
	SourceName = "rtl_sdr"
	sweepAlias = "rtl_power"
)

type SDR struct{}

func (s SDR) Name() string {
	return SourceName
}

// Validate rejects intervals rtl_power cannot integrate over: it only takes
// whole seconds.
func (s SDR) Validate(opts *sweep.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts.IntegrationInterval < time.Second || opts.IntegrationInterval%time.Second != 0 {
		return fmt.Errorf("%s integrates over whole seconds, got %s", sweepAlias, opts.IntegrationInterval)
	}
	return nil
}

func (s *SDR) Sweep(ctx context.Context, opts *sweep.Options, spectra chan<- datasource.Spectrum) error {
	if err := s.Validate(opts); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, sweepAlias, Args(opts)...)
	return sweep.Run(ctx, cmd, opts, spectra)
}

// Args returns the rtl_power arguments for a sweep.
func Args(opts *sweep.Options) []string {
	return []string{
		"-f", fmt.Sprintf("%d:%d:%d", opts.LowFreq, opts.HighFreq, opts.BinSize),
		"-i", fmt.Sprintf("%ds", int(opts.IntegrationInterval/time.Second)),
		"-", // dumps samples to stdout
	}
}
