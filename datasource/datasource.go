// Package datasource turns a native stream of power spectra into overlapping,
// frequency restricted and optionally time decimated blocks.
//
// A Stream wraps a Backend. Backends know how to fetch native blocks from
// somewhere (a simulation, a database of recorded spectra, a live feed); the
// Stream applies the passband and scrunch configuration on top.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/golang/glog"

	"github.com/hb9tf/burst/freq"
	"github.com/hb9tf/burst/scrunch"
)

// Unknown is reported by BlocksRemaining when a backend cannot estimate it.
const Unknown = -1

var (
	// ErrEndOfStream signals that a backend has no further data (for now).
	ErrEndOfStream = errors.New("end of stream")
	// ErrShape is returned when a backend delivers a block that does not match its geometry.
	ErrShape = errors.New("block does not match backend geometry")

	validate = validator.New()
)

// Geometry describes the native sampling of a backend.
type Geometry struct {
	Channels freq.Channels
	// DeltaT is the native sample spacing in seconds.
	DeltaT float64
	// MJD is the integer modified Julian date of the data.
	MJD int
	// StartTime is the start of the data in seconds since UTC midnight of MJD.
	StartTime float64
}

// Block is a piece of frequency/time data indexed [channel][time].
type Block struct {
	// T0 is the time of the first sample in seconds since the backend start time.
	T0 float64
	// DeltaT is the sample spacing of Data in seconds.
	DeltaT float64
	Data   [][]float32
}

// NTime returns the number of time samples in the block.
func (b Block) NTime() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Window carries the block size hints a backend should honour. Both durations
// are lower limits: a backend may return longer or more overlapping blocks.
type Window struct {
	// Block is the target block duration in seconds.
	Block float64
	// Overlap is the target overlap between consecutive blocks in seconds.
	Overlap float64
	// Multiple is a sample count block and overlap sizes should be multiples of.
	Multiple int
}

// Samples converts the window to native sample counts for the given spacing.
// Both counts are rounded up, to Multiple if set, and the step between blocks
// is at least one Multiple.
func (w Window) Samples(deltaT float64) (nblock, noverlap int) {
	m := w.Multiple
	if m < 1 {
		m = 1
	}
	nblock = roundUp(ceil(w.Block/deltaT), m)
	noverlap = roundUp(ceil(w.Overlap/deltaT), m)
	if nblock < m {
		nblock = m
	}
	if nblock-noverlap < m {
		nblock = noverlap + m
	}
	return nblock, noverlap
}

func ceil(x float64) int {
	// Absorb float noise such as 1.0/0.001 == 1000.0000000000001.
	return int(math.Ceil(x - 1e-9))
}

func roundUp(n, m int) int {
	if n <= 0 {
		return 0
	}
	return (n + m - 1) / m * m
}

// Backend is a source of native resolution blocks.
type Backend interface {
	// Attach hands the block size hints to the backend. It is called once,
	// before any block is fetched.
	Attach(w Window) error
	// NextBlockNative returns the next native block or ErrEndOfStream.
	NextBlockNative(ctx context.Context) (Block, error)
	// BlocksRemaining estimates how many blocks are left, or Unknown.
	BlocksRemaining() int
	// BlocksFetched is the number of blocks returned so far.
	BlocksFetched() int
	Geometry() Geometry
}

// Grower is implemented by backends whose data can keep growing after they
// reported ErrEndOfStream, such as live feeds.
type Grower interface {
	Growing() bool
}

// Config is the immutable configuration of a Stream.
type Config struct {
	// Block is the target block duration in seconds.
	Block float64 `validate:"gt=0"`
	// Overlap is the target overlap of consecutive blocks in seconds.
	Overlap float64 `validate:"gte=0,ltfield=Block"`
	// Scrunch is the number of native samples averaged into one. 0 means 1.
	Scrunch int `validate:"gte=1"`
	// Passband restricts the delivered channels. Nil delivers all of them.
	Passband *freq.Passband
}

// Stream applies passband selection and time decimation to the blocks of a
// Backend. A Stream is not safe for concurrent use.
type Stream struct {
	backend Backend
	cfg     Config

	fetched   int
	exhausted bool
	// ended is set once the end was reached while the backend was not growing.
	ended bool
}

// New attaches the backend and returns a Stream. It fails early if the
// configuration is invalid or the passband excludes every channel.
func New(backend Backend, cfg Config) (*Stream, error) {
	if cfg.Scrunch == 0 {
		cfg.Scrunch = 1
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid stream config: %w", err)
	}
	if err := backend.Attach(Window{Block: cfg.Block, Overlap: cfg.Overlap, Multiple: cfg.Scrunch}); err != nil {
		return nil, fmt.Errorf("unable to attach backend: %w", err)
	}
	if _, _, err := freq.Resolve(backend.Geometry().Channels, cfg.Passband); err != nil {
		return nil, err
	}
	return &Stream{
		backend: backend,
		cfg:     cfg,
	}, nil
}

// Backend returns the attached backend.
func (s *Stream) Backend() Backend {
	return s.backend
}

func (s *Stream) growing() bool {
	g, ok := s.backend.(Grower)
	return ok && g.Growing()
}

// NextBlockNative returns the next block at native resolution with all channels.
func (s *Stream) NextBlockNative(ctx context.Context) (Block, error) {
	if s.ended {
		return Block{}, ErrEndOfStream
	}
	// Sampled before the fetch: a feed closing in between has handed over all
	// its data already.
	growing := s.growing()
	b, err := s.backend.NextBlockNative(ctx)
	if errors.Is(err, ErrEndOfStream) {
		if !s.exhausted {
			glog.V(2).Infof("stream exhausted after %d blocks", s.fetched)
		}
		s.exhausted = true
		s.ended = !growing
		return Block{}, err
	}
	if err != nil {
		return Block{}, err
	}
	s.exhausted = false

	geom := s.backend.Geometry()
	if len(b.Data) != geom.Channels.N {
		return Block{}, fmt.Errorf("%w: got %d channels, want %d", ErrShape, len(b.Data), geom.Channels.N)
	}
	b.DeltaT = geom.DeltaT
	s.fetched++
	return b, nil
}

// NextBlock returns the next block restricted to the passband and decimated
// by the scrunch factor. T0 of the returned block refers to the centre of the
// first group of averaged samples.
func (s *Stream) NextBlock(ctx context.Context) (Block, error) {
	b, err := s.NextBlockNative(ctx)
	if err != nil {
		return Block{}, err
	}
	_, r, err := freq.Resolve(s.backend.Geometry().Channels, s.cfg.Passband)
	if err != nil {
		return Block{}, err
	}
	data, t0, err := scrunch.Decimate(b.Data[r.Start:r.End], s.cfg.Scrunch, b.DeltaT, b.T0)
	if err != nil {
		return Block{}, err
	}
	return Block{
		T0:     t0,
		DeltaT: b.DeltaT * float64(s.cfg.Scrunch),
		Data:   data,
	}, nil
}

// BlocksRemaining reports the backend estimate of blocks left, or Unknown.
// Growing backends may report more blocks later than they did before.
func (s *Stream) BlocksRemaining() int {
	if s.ended {
		return 0
	}
	return s.backend.BlocksRemaining()
}

// BlocksFetched is the number of successful NextBlockNative calls.
func (s *Stream) BlocksFetched() int {
	return s.fetched
}

// Exhausted reports whether the last fetch hit the end of the stream.
func (s *Stream) Exhausted() bool {
	return s.exhausted
}

// Ended reports whether the stream is exhausted for good: the end was reached
// while the backend was not growing.
func (s *Stream) Ended() bool {
	return s.ended
}

func (s *Stream) TimeBlock() float64 { return s.cfg.Block }
func (s *Stream) Overlap() float64   { return s.cfg.Overlap }
func (s *Stream) Scrunch() int       { return s.cfg.Scrunch }

// Passband returns the configured passband or nil.
func (s *Stream) Passband() *freq.Passband {
	return s.cfg.Passband
}

// DeltaT is the sample spacing of blocks returned by NextBlock.
func (s *Stream) DeltaT() float64 {
	return s.backend.Geometry().DeltaT * float64(s.cfg.Scrunch)
}

// DeltaF is the channel spacing.
func (s *Stream) DeltaF() float64 {
	return s.backend.Geometry().Channels.Delta
}

// MJD is the integer modified Julian date of the data.
func (s *Stream) MJD() int {
	return s.backend.Geometry().MJD
}

// StartTime is the start of the data in seconds since UTC midnight of MJD.
func (s *Stream) StartTime() float64 {
	return s.backend.Geometry().StartTime
}

// Freq returns the centre frequencies of the delivered channels. It is
// recomputed from the current backend geometry on every call.
func (s *Stream) Freq() (freq.Axis, error) {
	return freq.Selected(s.backend.Geometry().Channels, s.cfg.Passband)
}

// Freq0 is the frequency of the first delivered channel.
func (s *Stream) Freq0() (float64, error) {
	axis, err := s.Freq()
	if err != nil {
		return 0, err
	}
	return axis[0], nil
}

// NFreq is the number of delivered channels.
func (s *Stream) NFreq() (int, error) {
	axis, err := s.Freq()
	if err != nil {
		return 0, err
	}
	return len(axis), nil
}
