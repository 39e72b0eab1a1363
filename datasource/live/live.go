// Package live is a growing backend fed with spectra while it is being read.
package live

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/store"
)

const SourceName = "live"

var (
	ErrNotAttached = errors.New("backend not attached")
	ErrClosed      = errors.New("feed closed")
	// ErrWrongSource is returned for spectra or metadata of another source.
	ErrWrongSource = errors.New("spectra belong to another source")
)

// Feed buffers appended spectra and hands them out as blocks once enough of
// them arrived. It reports ErrEndOfStream whenever less than a block is
// buffered and keeps growing until Close is called.
//
// Unlike the Stream reading it, a Feed is safe for concurrent use: producers
// append from their own goroutines.
type Feed struct {
	Identifier string

	geom datasource.Geometry

	mu       sync.Mutex
	buf      []datasource.Spectrum
	bufStart int64
	nextSeq  int64
	closed   bool

	nblock   int
	noverlap int
	attached bool
	cursor   int64
	fetched  int
}

// New returns a feed for spectra with the given geometry. An empty identifier
// accepts spectra of any source.
func New(identifier string, geom datasource.Geometry) *Feed {
	return &Feed{
		Identifier: identifier,
		geom:       geom,
	}
}

func (f *Feed) Name() string {
	return SourceName
}

func (f *Feed) Attach(w datasource.Window) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nblock, f.noverlap = w.Samples(f.geom.DeltaT)
	f.attached = true
	return nil
}

func (f *Feed) Geometry() datasource.Geometry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.geom
}

func (f *Feed) accepts(identifier string) bool {
	return f.Identifier == "" || f.Identifier == identifier
}

// PutSource checks that the announced channels and sample spacing match the
// feed and takes over the announced start of the data.
func (f *Feed) PutSource(ctx context.Context, src store.Source) error {
	if !f.accepts(src.Identifier) {
		return fmt.Errorf("%w: %q", ErrWrongSource, src.Identifier)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g := src.Geometry
	if g.Channels != f.geom.Channels || g.DeltaT != f.geom.DeltaT {
		return fmt.Errorf("source %q announced %+v every %gs, feed expects %+v every %gs",
			src.Identifier, g.Channels, g.DeltaT, f.geom.Channels, f.geom.DeltaT)
	}
	f.geom.MJD = g.MJD
	f.geom.StartTime = g.StartTime
	return nil
}

// AddSpectra appends spectra in the order given. Sequence numbers are
// reassigned by the feed; a jump in the incoming numbering is only logged.
func (f *Feed) AddSpectra(ctx context.Context, identifier string, spectra []datasource.Spectrum) error {
	if !f.accepts(identifier) {
		return fmt.Errorf("%w: %q", ErrWrongSource, identifier)
	}
	for _, sp := range spectra {
		if len(sp.Power) != f.geom.Channels.N {
			return fmt.Errorf("%w: spectrum %d has %d channels, want %d", datasource.ErrShape, sp.Seq, len(sp.Power), f.geom.Channels.N)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	for _, sp := range spectra {
		if sp.Seq != f.nextSeq {
			glog.V(2).Infof("live feed: incoming spectrum %d stored as %d", sp.Seq, f.nextSeq)
		}
		sp.Seq = f.nextSeq
		f.buf = append(f.buf, sp)
		f.nextSeq++
	}
	return nil
}

// Push appends a single spectrum.
func (f *Feed) Push(power []float32) error {
	return f.AddSpectra(context.Background(), f.Identifier, []datasource.Spectrum{{Seq: f.Len(), Power: power}})
}

// Len is the number of spectra appended so far.
func (f *Feed) Len() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextSeq
}

// Close stops the feed from growing. Buffered full blocks can still be read.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *Feed) Growing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *Feed) BlocksRemaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.attached {
		return datasource.Unknown
	}
	left := f.nextSeq - f.cursor - int64(f.nblock)
	if left < 0 {
		return 0
	}
	return int(left/int64(f.nblock-f.noverlap)) + 1
}

func (f *Feed) BlocksFetched() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetched
}

func (f *Feed) NextBlockNative(ctx context.Context) (datasource.Block, error) {
	if err := ctx.Err(); err != nil {
		return datasource.Block{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.attached {
		return datasource.Block{}, ErrNotAttached
	}
	if f.nextSeq-f.cursor < int64(f.nblock) {
		return datasource.Block{}, datasource.ErrEndOfStream
	}

	off := f.cursor - f.bufStart
	data, err := datasource.Transpose(f.buf[off:off+int64(f.nblock)], f.geom.Channels.N)
	if err != nil {
		return datasource.Block{}, err
	}
	t0 := float64(f.cursor) * f.geom.DeltaT

	// Drop what no later block needs.
	f.cursor += int64(f.nblock - f.noverlap)
	drop := f.cursor - f.bufStart
	f.buf = append([]datasource.Spectrum(nil), f.buf[drop:]...)
	f.bufStart = f.cursor
	f.fetched++

	return datasource.Block{T0: t0, Data: data}, nil
}
