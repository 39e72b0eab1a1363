package plot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/freq"
	"github.com/hb9tf/burst/search"
	"github.com/hb9tf/burst/store"
)

func TestColor(t *testing.T) {
	tests := []struct {
		lvl  uint16
		want color.RGBA
	}{
		{lvl: 0, want: color.RGBA{0, 0, 0, 255}},
		{lvl: math.MaxUint16, want: color.RGBA{255, 255, 255, 255}},
		// Half way between black and blue.
		{lvl: math.MaxUint16 / 12, want: color.RGBA{0, 0, 127, 255}},
		// Exactly at green.
		{lvl: math.MaxUint16 / 2, want: color.RGBA{0, 255, 0, 255}},
	}
	for _, tc := range tests {
		got := Color(tc.lvl)
		// Allow for rounding of the level.
		if d := int(got.B) - int(tc.want.B); d < -1 || d > 1 || got.R != tc.want.R || got.A != tc.want.A {
			t.Errorf("Color(%d) = %v, want %v", tc.lvl, got, tc.want)
		}
	}
}

func TestReadableFreq(t *testing.T) {
	tests := []struct {
		hz   float64
		want string
	}{
		{hz: 999, want: "999.00 Hz"},
		{hz: 1000, want: "1.00 kHz"},
		{hz: 1420.4e6, want: "1.42 GHz"},
		{hz: 433.92e6, want: "433.92 MHz"},
	}
	for _, tc := range tests {
		if got := ReadableFreq(tc.hz); got != tc.want {
			t.Errorf("ReadableFreq(%g) = %q, want %q", tc.hz, got, tc.want)
		}
	}
}

func TestHeatmap(t *testing.T) {
	img, err := Heatmap([][]float32{
		{0, 1, 2},
		{2, 2, 2},
	})
	if err != nil {
		t.Fatalf("Heatmap() unexpected error: %s", err)
	}
	if got, want := img.Bounds(), image.Rect(0, 0, 3, 2); got != want {
		t.Errorf("Heatmap() bounds = %v, want %v", got, want)
	}
	if got := img.RGBAAt(0, 0); got != colors[0] {
		t.Errorf("minimum pixel = %v, want %v", got, colors[0])
	}
	if got, want := img.RGBAAt(2, 1), colors[len(colors)-1]; got != want {
		t.Errorf("maximum pixel = %v, want %v", got, want)
	}

	if _, err := Heatmap(nil); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("Heatmap(nil) error = %v, want %v", err, ErrEmptyWindow)
	}
}

func TestRender(t *testing.T) {
	data := make([][]float32, 40)
	for i := range data {
		data[i] = make([]float32, 300)
	}
	data[20][150] = 10
	tr := search.Trigger{
		ID:        "t",
		Block:     datasource.Block{T0: 2, DeltaT: 0.001, Data: data},
		DMIndex:   20,
		TimeIndex: 150,
		SNR:       10,
	}

	tests := []struct {
		name string
		opts Options
		want image.Rectangle
	}{
		{name: "plain", opts: Options{TimeSide: 100, DMSide: 10}, want: image.Rect(0, 0, 200, 20)},
		{name: "clipped defaults", opts: Options{}, want: image.Rect(0, 0, 300, 40)},
		{name: "grid", opts: Options{TimeSide: 100, DMSide: 10, Grid: true}, want: image.Rect(0, 0, 200+gridMarginLeft, 20+gridMarginTop)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := Render(tr, tc.opts)
			if err != nil {
				t.Fatalf("Render() unexpected error: %s", err)
			}
			if got := img.Bounds(); got != tc.want {
				t.Errorf("Render() bounds = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRenderOutsideBlock(t *testing.T) {
	tr := search.Trigger{
		ID:        "t",
		Block:     datasource.Block{DeltaT: 0.001, Data: [][]float32{{1, 2}, {3, 4}}},
		DMIndex:   120,
		TimeIndex: 4050,
	}
	if _, err := Render(tr, Options{Grid: true}); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("Render() error = %v, want %v", err, ErrEmptyWindow)
	}
}

func TestEncode(t *testing.T) {
	img, _ := Heatmap([][]float32{{0, 1}})
	buf := &bytes.Buffer{}
	if err := Encode(buf, img, "png"); err != nil {
		t.Fatalf("Encode(png) unexpected error: %s", err)
	}
	if _, err := png.Decode(buf); err != nil {
		t.Errorf("png.Decode() unexpected error: %s", err)
	}
	if err := Encode(buf, img, "gif"); !errors.Is(err, ErrFormat) {
		t.Errorf("Encode(gif) error = %v, want %v", err, ErrFormat)
	}
}

func TestStored(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.SQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("store.Open() unexpected error: %s", err)
	}
	defer st.Close()

	src := store.Source{
		Identifier: "rx1",
		Source:     "sim",
		Geometry: datasource.Geometry{
			Channels: freq.Channels{N: 4, Delta: 1e6, Ref: 400e6},
			DeltaT:   0.1,
		},
	}
	if err := st.PutSource(ctx, src); err != nil {
		t.Fatalf("PutSource() unexpected error: %s", err)
	}
	var spectra []datasource.Spectrum
	for i := 0; i < 50; i++ {
		spectra = append(spectra, datasource.Spectrum{Seq: int64(i), Power: []float32{0, float32(i), 0, 1}})
	}
	if err := st.AddSpectra(ctx, "rx1", spectra); err != nil {
		t.Fatalf("AddSpectra() unexpected error: %s", err)
	}

	// Centre sample 20, window [10, 30).
	tr := store.Trigger{ID: "t", Identifier: "rx1", Time: 2, SNR: 8}
	img, err := Stored(ctx, st, tr, 10, false)
	if err != nil {
		t.Fatalf("Stored() unexpected error: %s", err)
	}
	if got, want := img.Bounds(), image.Rect(0, 0, 20, 4); got != want {
		t.Errorf("Stored() bounds = %v, want %v", got, want)
	}

	tr.Time = 100
	if _, err := Stored(ctx, st, tr, 10, false); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("Stored() beyond the data error = %v, want %v", err, ErrEmptyWindow)
	}
	tr.Identifier = "nope"
	if _, err := Stored(ctx, st, tr, 10, false); !errors.Is(err, store.ErrUnknownSource) {
		t.Errorf("Stored() of unknown source error = %v, want %v", err, store.ErrUnknownSource)
	}
}
