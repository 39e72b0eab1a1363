// Package sim is a backend producing Gaussian noise with optional dispersed
// bursts. Frequencies are in Hz like everywhere else.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/go-playground/validator/v10"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/freq"
)

const (
	SourceName = "sim"

	// dispersionConstant is the cold plasma dispersion delay constant in
	// s MHz^2 cm^3 / pc.
	dispersionConstant = 4.148808e3
)

var (
	ErrNotAttached = errors.New("backend not attached")

	validate = validator.New()
)

// Burst is a dispersed pulse injected into the simulated data.
type Burst struct {
	// T is the arrival time at the highest frequency in seconds since the start.
	T float64
	// DM is the dispersion measure in pc/cm^3.
	DM float64
	// Amplitude is added to the noise, in units of the noise sigma.
	Amplitude float64
	// Width is the pulse width in seconds.
	Width float64
}

type Options struct {
	Channels  freq.Channels
	DeltaT    float64 `validate:"gt=0"`
	MJD       int
	StartTime float64
	// NBlocks is the number of blocks the backend delivers before it ends.
	NBlocks int `validate:"gt=0"`
	Seed    int64
	// Sigma is the noise standard deviation. Zero means 1.
	Sigma  float64 `validate:"gte=0"`
	Mean   float64
	Bursts []Burst
}

// Backend is a simulated, fixed length stream.
type Backend struct {
	opts Options
	rng  *rand.Rand
	axis freq.Axis
	fref float64

	nblock   int
	noverlap int
	attached bool

	generated int64
	carry     [][]float32
	fetched   int
}

func New(opts Options) (*Backend, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid simulation options: %w", err)
	}
	if opts.Channels.N <= 0 {
		return nil, freq.ErrNoChannels
	}
	if opts.Sigma == 0 {
		opts.Sigma = 1
	}
	axis := freq.Native(opts.Channels)
	fref := math.Max(axis[0], axis[len(axis)-1])
	return &Backend{
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
		axis: axis,
		fref: fref,
	}, nil
}

func (b *Backend) Name() string {
	return SourceName
}

func (b *Backend) Attach(w datasource.Window) error {
	b.nblock, b.noverlap = w.Samples(b.opts.DeltaT)
	b.attached = true
	return nil
}

// BlockSamples returns the native block and overlap sizes in samples.
func (b *Backend) BlockSamples() (int, int) {
	return b.nblock, b.noverlap
}

func (b *Backend) Geometry() datasource.Geometry {
	return datasource.Geometry{
		Channels:  b.opts.Channels,
		DeltaT:    b.opts.DeltaT,
		MJD:       b.opts.MJD,
		StartTime: b.opts.StartTime,
	}
}

func (b *Backend) BlocksRemaining() int {
	return b.opts.NBlocks - b.fetched
}

func (b *Backend) BlocksFetched() int {
	return b.fetched
}

func (b *Backend) NextBlockNative(ctx context.Context) (datasource.Block, error) {
	if err := ctx.Err(); err != nil {
		return datasource.Block{}, err
	}
	if !b.attached {
		return datasource.Block{}, ErrNotAttached
	}
	if b.fetched >= b.opts.NBlocks {
		return datasource.Block{}, datasource.ErrEndOfStream
	}

	start := b.generated
	if len(b.carry) > 0 {
		start -= int64(len(b.carry[0]))
	}
	data := make([][]float32, b.opts.Channels.N)
	for c := range data {
		row := make([]float32, 0, b.nblock)
		if b.carry != nil {
			row = append(row, b.carry[c]...)
		}
		data[c] = row
	}
	for n := len(data[0]); n < b.nblock; n++ {
		t := float64(b.generated) * b.opts.DeltaT
		for c := range data {
			data[c] = append(data[c], b.sample(c, t))
		}
		b.generated++
	}

	b.carry = make([][]float32, len(data))
	for c, row := range data {
		b.carry[c] = append([]float32(nil), row[b.nblock-b.noverlap:]...)
	}
	b.fetched++

	return datasource.Block{
		T0:   float64(start) * b.opts.DeltaT,
		Data: data,
	}, nil
}

func (b *Backend) sample(c int, t float64) float32 {
	v := b.opts.Mean + b.rng.NormFloat64()*b.opts.Sigma
	for _, burst := range b.opts.Bursts {
		arrival := burst.T + Delay(burst.DM, b.axis[c], b.fref)
		if math.Abs(t-arrival) <= math.Max(burst.Width, b.opts.DeltaT)/2 {
			v += burst.Amplitude * b.opts.Sigma
		}
	}
	return float32(v)
}

// Delay is the dispersion delay in seconds of frequency f relative to fref,
// both in Hz.
func Delay(dm, f, fref float64) float64 {
	fm, frefm := f/1e6, fref/1e6
	return dispersionConstant * dm * (1/(fm*fm) - 1/(frefm*frefm))
}
