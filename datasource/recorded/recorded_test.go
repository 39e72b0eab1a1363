package recorded

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/freq"
	"github.com/hb9tf/burst/store"
)

func setup(t *testing.T, nspectra int) *store.Store {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.SQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("store.Open() unexpected error: %s", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.PutSource(ctx, store.Source{
		Identifier: "rec",
		Source:     "sim",
		Geometry: datasource.Geometry{
			Channels: freq.Channels{N: 4, Delta: 1, Ref: 0},
			DeltaT:   0.1,
		},
	}); err != nil {
		t.Fatalf("PutSource() unexpected error: %s", err)
	}
	var spectra []datasource.Spectrum
	for i := 0; i < nspectra; i++ {
		spectra = append(spectra, datasource.Spectrum{
			Seq:   int64(i),
			Power: []float32{float32(i), float32(i), float32(i), float32(i)},
		})
	}
	if err := st.AddSpectra(ctx, "rec", spectra); err != nil {
		t.Fatalf("AddSpectra() unexpected error: %s", err)
	}
	return st
}

func TestReplay(t *testing.T) {
	ctx := context.Background()
	st := setup(t, 25)

	b, err := New(ctx, st, "rec")
	if err != nil {
		t.Fatalf("New() unexpected error: %s", err)
	}
	if got := b.BlocksRemaining(); got != datasource.Unknown {
		t.Errorf("BlocksRemaining() before Attach = %d, want Unknown", got)
	}
	// 10 sample blocks overlapping by 2 start at 0 and 8; one at 16 would need 26 spectra.
	s, err := datasource.New(b, datasource.Config{Block: 1, Overlap: 0.2, Scrunch: 2})
	if err != nil {
		t.Fatalf("datasource.New() unexpected error: %s", err)
	}
	if got := s.BlocksRemaining(); got != 2 {
		t.Errorf("BlocksRemaining() = %d, want 2", got)
	}

	wantStarts := []float32{0, 8}
	for i, start := range wantStarts {
		blk, err := s.NextBlockNative(ctx)
		if err != nil {
			t.Fatalf("NextBlockNative() unexpected error: %s", err)
		}
		if blk.NTime() != 10 || blk.Data[0][0] != start || blk.Data[3][9] != start+9 {
			t.Errorf("block %d = %v", i, blk.Data)
		}
		if want := float64(start) * 0.1; blk.T0 != want {
			t.Errorf("block %d T0 = %g, want %g", i, blk.T0, want)
		}
	}
	if _, err := s.NextBlockNative(ctx); !errors.Is(err, datasource.ErrEndOfStream) {
		t.Errorf("NextBlockNative() error = %v, want %v", err, datasource.ErrEndOfStream)
	}
	if s.BlocksFetched() != 2 || b.BlocksFetched() != 2 {
		t.Errorf("BlocksFetched() = %d / %d, want 2", s.BlocksFetched(), b.BlocksFetched())
	}
}

func TestUnknownSource(t *testing.T) {
	st := setup(t, 0)
	if _, err := New(context.Background(), st, "missing"); !errors.Is(err, store.ErrUnknownSource) {
		t.Errorf("New() error = %v, want %v", err, store.ErrUnknownSource)
	}
}

func TestGap(t *testing.T) {
	ctx := context.Background()
	st := setup(t, 5)
	// Seq 5..9 missing, 10..14 present.
	var late []datasource.Spectrum
	for i := 10; i < 15; i++ {
		late = append(late, datasource.Spectrum{Seq: int64(i), Power: make([]float32, 4)})
	}
	if err := st.AddSpectra(ctx, "rec", late); err != nil {
		t.Fatalf("AddSpectra() unexpected error: %s", err)
	}
	b, err := New(ctx, st, "rec")
	if err != nil {
		t.Fatalf("New() unexpected error: %s", err)
	}
	if err := b.Attach(datasource.Window{Block: 1}); err != nil {
		t.Fatalf("Attach() unexpected error: %s", err)
	}
	if _, err := b.NextBlockNative(ctx); !errors.Is(err, ErrGap) {
		t.Errorf("NextBlockNative() error = %v, want %v", err, ErrGap)
	}
}
