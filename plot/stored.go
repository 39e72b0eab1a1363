package plot

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/freq"
	"github.com/hb9tf/burst/search"
	"github.com/hb9tf/burst/store"
)

// Stored renders the recorded spectra within tside native samples of a
// stored trigger, all channels included. Rows are labelled with frequencies.
func Stored(ctx context.Context, st *store.Store, t store.Trigger, tside int, grid bool) (image.Image, error) {
	if tside <= 0 {
		tside = search.TimeSide
	}
	src, err := st.Source(ctx, t.Identifier)
	if err != nil {
		return nil, err
	}
	g := src.Geometry

	centre := int64(math.Round(t.Time / g.DeltaT))
	from := max(0, centre-int64(tside))
	spectra, err := st.Spectra(ctx, t.Identifier, from, centre+int64(tside))
	if err != nil {
		return nil, fmt.Errorf("unable to load spectra around trigger %s: %w", t.ID, err)
	}
	if len(spectra) == 0 {
		return nil, fmt.Errorf("trigger %s: %w", t.ID, ErrEmptyWindow)
	}
	data, err := datasource.Transpose(spectra, g.Channels.N)
	if err != nil {
		return nil, err
	}

	first := spectra[0].Seq
	trig := search.Trigger{
		ID: t.ID,
		Block: datasource.Block{
			T0:     float64(first) * g.DeltaT,
			DeltaT: g.DeltaT,
			Data:   data,
		},
		DMIndex:   g.Channels.N / 2,
		TimeIndex: int(centre - first),
		SNR:       t.SNR,
		Duration:  t.Duration,
	}
	return Render(trig, Options{
		TimeSide: tside,
		DMSide:   g.Channels.N,
		Grid:     grid,
		Freq:     freq.Native(g.Channels),
	})
}
