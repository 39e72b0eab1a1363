package hackrf

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/sweep"
)

const (
	SourceName = "hackrf"
	sweepAlias = "hackrf_sweep"
)

type SDR struct{}

func (s SDR) Name() string {
	return SourceName
}

func (s SDR) Validate(opts *sweep.Options) error {
	return opts.Validate()
}

// Sweep runs hackrf_sweep, which sweeps as fast as it can, and averages its
// sweeps into one spectrum per integration interval.
func (s *SDR) Sweep(ctx context.Context, opts *sweep.Options, spectra chan<- datasource.Spectrum) error {
	if err := s.Validate(opts); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sweeps := make(chan datasource.Spectrum)
	runErr := make(chan error, 1)
	go func() {
		defer close(sweeps)
		cmd := exec.CommandContext(ctx, sweepAlias, Args(opts)...)
		runErr <- sweep.Run(ctx, cmd, opts, sweeps)
	}()

	err := sweep.Integrate(ctx, sweeps, opts.IntegrationInterval, spectra)
	cancel()
	if rerr := <-runErr; rerr != nil && rerr != context.Canceled {
		return rerr
	}
	return err
}

// Args returns the hackrf_sweep arguments for a sweep. hackrf_sweep tunes in
// MHz steps, so the range is widened to whole MHz.
func Args(opts *sweep.Options) []string {
	low := opts.LowFreq / 1000000
	high := (opts.HighFreq + 999999) / 1000000
	return []string{
		"-f", fmt.Sprintf("%d:%d", low, high),
		"-w", fmt.Sprintf("%d", opts.BinSize),
		"-a", "1", // RX RF amplifier 1=Enable, 0=Disable
		"-l", "16", // RX LNA (IF) gain, 0-40dB, 8dB steps
		"-g", "20", // RX VGA (baseband) gain, 0-62dB, 2dB steps
	}
}
