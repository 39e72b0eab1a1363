// Package sweep turns the CSV output of rtl_power style sweep tools into
// complete power spectra.
package sweep

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang/glog"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/freq"
)

// headerColumns is the number of columns before the per bin dB values.
const headerColumns = 6

var validate = validator.New()

// Sweeper runs a receiver and emits one spectrum per integration interval.
type Sweeper interface {
	Name() string
	// Validate checks opts against what the receiver's tool accepts.
	Validate(opts *Options) error
	Sweep(ctx context.Context, opts *Options, spectra chan<- datasource.Spectrum) error
}

type Options struct {
	// LowFreq is the lower frequency to start the sweeps with in Hz.
	LowFreq int64 `validate:"gt=0"`
	// HighFreq is the upper frequency to end the sweeps with in Hz.
	HighFreq int64 `validate:"gtfield=LowFreq"`

	// BinSize is the FFT bin width (frequency resolution) in Hz.
	BinSize int64 `validate:"gt=0"`

	// IntegrationInterval is the duration during which to collect information
	// per frequency. It is the native sample spacing of the spectra.
	IntegrationInterval time.Duration `validate:"gt=0"`
}

func (o *Options) Validate() error {
	return validate.Struct(o)
}

// Channels returns the channel layout the sweep is assembled into.
func (o *Options) Channels() freq.Channels {
	return freq.Channels{
		N:     int((o.HighFreq - o.LowFreq) / o.BinSize),
		Delta: float64(o.BinSize),
		Ref:   float64(o.LowFreq) + float64(o.BinSize)/2,
	}
}

// Geometry describes spectra of a sweep started at start.
func (o *Options) Geometry(start time.Time) datasource.Geometry {
	mjd, sec := datasource.Epoch(start)
	return datasource.Geometry{
		Channels:  o.Channels(),
		DeltaT:    o.IntegrationInterval.Seconds(),
		MJD:       mjd,
		StartTime: sec,
	}
}

// Row is one line of sweep output: a hop covering [FreqLow, FreqHigh).
type Row struct {
	Time     time.Time
	FreqLow  int64
	FreqHigh int64
	BinWidth float64
	Samples  int64
	DB       []float64
}

func parseInt(num string) (int64, error) {
	return strconv.ParseInt(strings.Split(strings.TrimSpace(num), ".")[0], 10, 64)
}

// ParseRow parses a line such as
//
//	2024-01-02, 10:00:00, 400000000, 401000000, 12500.00, 16, -52.1, -51.9, ...
func ParseRow(line string) (Row, error) {
	cols := strings.Split(line, ",")
	if len(cols) <= headerColumns {
		return Row{}, fmt.Errorf("expected more than %d columns, got %d", headerColumns, len(cols))
	}
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}

	var r Row
	var err error
	if r.Time, err = time.Parse(time.RFC3339Nano, cols[0]+"T"+cols[1]+"Z"); err != nil {
		return Row{}, err
	}
	if r.FreqLow, err = parseInt(cols[2]); err != nil {
		return Row{}, err
	}
	if r.FreqHigh, err = parseInt(cols[3]); err != nil {
		return Row{}, err
	}
	if r.BinWidth, err = strconv.ParseFloat(cols[4], 64); err != nil {
		return Row{}, err
	}
	if r.Samples, err = parseInt(cols[5]); err != nil {
		return Row{}, err
	}
	for _, c := range cols[headerColumns:] {
		db, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return Row{}, err
		}
		r.DB = append(r.DB, db)
	}
	return r, nil
}

// Assembler collects the hops of a sweep into one spectrum on a fixed channel
// grid. A sweep is complete when a hop starts at or below the previous one.
type Assembler struct {
	channels freq.Channels

	current []float32
	hold    []float32
	lastLow int64
	started bool
	dirty   bool
	seq     int64
}

func NewAssembler(channels freq.Channels) *Assembler {
	a := &Assembler{
		channels: channels,
		hold:     make([]float32, channels.N),
	}
	a.reset()
	return a
}

func (a *Assembler) reset() {
	a.current = make([]float32, a.channels.N)
	for i := range a.current {
		a.current[i] = float32(math.NaN())
	}
}

// Add feeds one row. It returns the previous sweep's spectrum when the row
// starts a new sweep.
func (a *Assembler) Add(r Row) (datasource.Spectrum, bool) {
	var out datasource.Spectrum
	done := a.started && r.FreqLow <= a.lastLow
	if done {
		out = a.Flush()
	}
	a.started = true
	a.dirty = true
	a.lastLow = r.FreqLow

	for i, db := range r.DB {
		centre := float64(r.FreqLow) + (float64(i)+0.5)*r.BinWidth
		c := int(math.Round((centre - a.channels.Ref) / a.channels.Delta))
		if c < 0 || c >= a.channels.N {
			continue
		}
		a.current[c] = float32(db)
	}
	return out, done
}

// Pending reports whether rows were added since the last flush.
func (a *Assembler) Pending() bool {
	return a.dirty
}

// Flush returns the spectrum assembled so far. Channels no hop covered hold
// their value from the previous sweep.
func (a *Assembler) Flush() datasource.Spectrum {
	missing := 0
	for i, v := range a.current {
		if math.IsNaN(float64(v)) {
			a.current[i] = a.hold[i]
			missing++
		}
	}
	if missing > 0 {
		glog.V(2).Infof("sweep %d: %d of %d channels not covered", a.seq, missing, len(a.current))
	}

	sp := datasource.Spectrum{Seq: a.seq, Power: a.current}
	a.hold = a.current
	a.seq++
	a.dirty = false
	a.reset()
	return sp
}

// Scan reads sweep output from r until EOF or ctx is done and sends every
// completed spectrum. Lines that fail to parse are logged and skipped.
func Scan(ctx context.Context, r io.Reader, asm *Assembler, spectra chan<- datasource.Spectrum) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		glog.V(3).Info(scanner.Text())
		row, err := ParseRow(scanner.Text())
		if err != nil {
			glog.Warningf("error parsing line: %s\n", err)
			continue
		}
		sp, ok := asm.Add(row)
		if !ok {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case spectra <- sp:
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if !asm.Pending() {
		return nil
	}
	// The tool exited: the sweep in progress is the last one.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case spectra <- asm.Flush():
	}
	return nil
}

// Integrate averages the spectra received from in over every interval and
// sends one spectrum per tick, numbered from 0. A tick without new spectra
// repeats the previous average. It returns once in is closed or ctx is done;
// spectra of an unfinished interval are dropped.
func Integrate(ctx context.Context, in <-chan datasource.Spectrum, interval time.Duration, out chan<- datasource.Spectrum) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	return integrate(ctx, in, ticker.C, out)
}

func integrate(ctx context.Context, in <-chan datasource.Spectrum, ticks <-chan time.Time, out chan<- datasource.Spectrum) error {
	var (
		sum   []float64
		count int
		last  []float32
		seq   int64
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sp, ok := <-in:
			if !ok {
				return nil
			}
			if sum == nil {
				sum = make([]float64, len(sp.Power))
			}
			for i, p := range sp.Power {
				if i < len(sum) {
					sum[i] += float64(p)
				}
			}
			count++
		case <-ticks:
			if count > 0 {
				last = make([]float32, len(sum))
				for i := range sum {
					last[i] = float32(sum[i] / float64(count))
				}
				sum, count = nil, 0
			}
			if last == nil {
				continue
			}
			power := make([]float32, len(last))
			copy(power, last)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- datasource.Spectrum{Seq: seq, Power: power}:
			}
			seq++
		}
	}
}

// Run starts cmd and scans its standard output.
func Run(ctx context.Context, cmd *exec.Cmd, opts *Options, spectra chan<- datasource.Spectrum) error {
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	glog.Infof("Running sweep: %q\n", cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start sweep: %w", err)
	}
	scanErr := Scan(ctx, out, NewAssembler(opts.Channels()), spectra)
	if err := cmd.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("sweep command ended with error: %w", err)
	}
	return scanErr
}
