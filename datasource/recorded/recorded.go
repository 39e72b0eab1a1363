// Package recorded replays spectra stored by the collector as a backend.
package recorded

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/store"
)

const SourceName = "recorded"

var (
	ErrNotAttached = errors.New("backend not attached")
	// ErrGap is returned when stored spectra are missing inside a block.
	ErrGap = errors.New("gap in stored spectra")
)

// Backend reads the spectra of one stored source in fixed size, overlapping
// blocks. A trailing partial block is never returned.
type Backend struct {
	store *store.Store
	src   store.Source
	total int64

	nblock   int
	noverlap int
	attached bool

	cursor  int64
	fetched int
}

// New loads the metadata of the source and the number of stored spectra.
func New(ctx context.Context, st *store.Store, identifier string) (*Backend, error) {
	src, err := st.Source(ctx, identifier)
	if err != nil {
		return nil, err
	}
	total, err := st.CountSpectra(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("unable to count spectra of %q: %w", identifier, err)
	}
	glog.V(1).Infof("replaying %d spectra of %s source %q", total, src.Source, identifier)
	return &Backend{
		store: st,
		src:   src,
		total: total,
	}, nil
}

func (b *Backend) Name() string {
	return SourceName
}

func (b *Backend) Attach(w datasource.Window) error {
	b.nblock, b.noverlap = w.Samples(b.src.Geometry.DeltaT)
	b.attached = true
	return nil
}

func (b *Backend) Geometry() datasource.Geometry {
	return b.src.Geometry
}

func (b *Backend) step() int64 {
	return int64(b.nblock - b.noverlap)
}

func (b *Backend) BlocksRemaining() int {
	if !b.attached {
		return datasource.Unknown
	}
	left := b.total - b.cursor - int64(b.nblock)
	if left < 0 {
		return 0
	}
	return int(left/b.step()) + 1
}

func (b *Backend) BlocksFetched() int {
	return b.fetched
}

func (b *Backend) NextBlockNative(ctx context.Context) (datasource.Block, error) {
	if !b.attached {
		return datasource.Block{}, ErrNotAttached
	}
	if b.cursor+int64(b.nblock) > b.total {
		return datasource.Block{}, datasource.ErrEndOfStream
	}

	spectra, err := b.store.Spectra(ctx, b.src.Identifier, b.cursor, b.cursor+int64(b.nblock))
	if err != nil {
		return datasource.Block{}, err
	}
	if len(spectra) != b.nblock {
		return datasource.Block{}, fmt.Errorf("%w: got %d of %d spectra starting at %d", ErrGap, len(spectra), b.nblock, b.cursor)
	}
	data, err := datasource.Transpose(spectra, b.src.Geometry.Channels.N)
	if err != nil {
		return datasource.Block{}, err
	}

	t0 := float64(b.cursor) * b.src.Geometry.DeltaT
	b.cursor += b.step()
	b.fetched++
	return datasource.Block{T0: t0, Data: data}, nil
}
