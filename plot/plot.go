// Package plot renders the data around a trigger as a heatmap image.
package plot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/hb9tf/burst/freq"
	"github.com/hb9tf/burst/search"
)

var (
	ErrEmptyWindow = errors.New("trigger window holds no data")
	ErrFormat      = errors.New("unsupported image format")

	// Colors defining the gradient in the heatmap. The higher the index, the warmer.
	colors = []color.RGBA{
		{0, 0, 0, 255},       // black
		{0, 0, 255, 255},     // blue
		{0, 255, 255, 255},   // cyan
		{0, 255, 0, 255},     // green
		{255, 255, 0, 255},   // yellow
		{255, 0, 0, 255},     // red
		{255, 255, 255, 255}, // white
	}

	gridColor           = color.RGBA{0, 0, 0, 255}       // black
	gridBackgroundColor = color.RGBA{255, 255, 255, 255} // white

	expSuffixLookup = map[int]string{
		0: "Hz",  // 10^0
		1: "kHz", // 10^3
		2: "MHz", // 10^6
		3: "GHz", // 10^9
		4: "THz", // 10^12
	}
)

const (
	gridMarginTop  = 20  // pixels
	gridMarginLeft = 100 // pixels
	gridTickLen    = 10  // pixel
	gridMinStepX   = 100 // pixels
	gridMinStepY   = 20  // pixels
)

// Color maps a level onto the heatmap gradient.
func Color(lvl uint16) color.RGBA {
	pos := float64(lvl) / math.MaxUint16 * float64(len(colors)-1)
	i := int(pos)
	if i >= len(colors)-1 {
		return colors[len(colors)-1]
	}
	fract := pos - float64(i)
	lo, hi := colors[i], colors[i+1]
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*fract))
	}
	return color.RGBA{mix(lo.R, hi.R), mix(lo.G, hi.G), mix(lo.B, hi.B), mix(lo.A, hi.A)}
}

// ReadableFreq formats a frequency in Hz with an SI suffix.
func ReadableFreq(hz float64) string {
	exp := 0
	for f := math.Abs(hz); f >= 1000; f = f / 1000.0 {
		exp += 1
	}
	suffix, ok := expSuffixLookup[exp]
	if !ok {
		return fmt.Sprintf("%.0f Hz", hz)
	}
	return fmt.Sprintf("%.2f %s", hz/math.Pow(1000, float64(exp)), suffix)
}

// Heatmap draws data indexed [row][column] with one pixel per value, row 0 at
// the top. Levels are scaled between the minimum and maximum of data.
func Heatmap(data [][]float32) (*image.RGBA, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, ErrEmptyWindow
	}
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, row := range data {
		for _, v := range row {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	span := hi - lo

	canvas := image.NewRGBA(image.Rect(0, 0, len(data[0]), len(data)))
	for y, row := range data {
		for x, v := range row {
			var lvl uint16
			if span > 0 {
				lvl = uint16(float64(v-lo) / float64(span) * math.MaxUint16)
			}
			canvas.SetRGBA(x, y, Color(lvl))
		}
	}
	return canvas, nil
}

// Axis labels the pixels along one image dimension.
type Axis func(pixel int) string

func drawTick(canvas *image.RGBA, start image.Point, length int, horizontal bool) {
	for i := 0; i <= length; i++ {
		if horizontal {
			canvas.SetRGBA(start.X+i, start.Y, gridColor)
		} else {
			canvas.SetRGBA(start.X, start.Y+i, gridColor)
		}
	}
}

func findGridStepSize(step int, horizontal bool) int {
	gridMinStep := gridMinStepY
	if horizontal {
		gridMinStep = gridMinStepX
	}
	for step > gridMinStep {
		n := step / 2
		if n < gridMinStep {
			return step
		}
		step = n
	}
	return max(step, 1)
}

func drawLabel(canvas *image.RGBA, x, y int, s string) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(gridColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// DrawGrid returns a copy of source enlarged by a margin holding labelled
// ticks along the top (x) and left (y) edges.
func DrawGrid(source *image.RGBA, x, y Axis) *image.RGBA {
	b := source.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx()+gridMarginLeft, b.Dy()+gridMarginTop))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{gridBackgroundColor}, image.Point{}, draw.Src)
	r := canvas.Bounds()
	r.Min.X += gridMarginLeft
	r.Min.Y += gridMarginTop
	draw.Draw(canvas, r, source, b.Min, draw.Src)

	xStep := findGridStepSize(b.Dx(), true)
	for i := 0; i < b.Dx(); i += xStep {
		drawTick(canvas, image.Point{gridMarginLeft + i, gridMarginTop - gridTickLen}, gridTickLen, false)
		drawLabel(canvas, gridMarginLeft+i+5, gridMarginTop-2, x(i))
	}

	yStep := findGridStepSize(b.Dy(), false)
	for i := 0; i < b.Dy(); i += yStep {
		drawTick(canvas, image.Point{gridMarginLeft - gridTickLen, gridMarginTop + i}, gridTickLen, true)
		drawLabel(canvas, 5, gridMarginTop+i+5, y(i))
	}
	return canvas
}

// Options controls how a trigger is rendered.
type Options struct {
	// TimeSide and DMSide size the window around the trigger. Zero means the
	// search package defaults.
	TimeSide int
	DMSide   int
	// Grid adds labelled axes.
	Grid bool
	// Freq labels rows with frequencies when the block rows are channels.
	// Rows are labelled with their index otherwise.
	Freq freq.Axis
}

// Render draws the window around a trigger. Time runs left to right, rows
// top to bottom.
func Render(t search.Trigger, opts Options) (image.Image, error) {
	tside, dside := opts.TimeSide, opts.DMSide
	if tside <= 0 {
		tside = search.TimeSide
	}
	if dside <= 0 {
		dside = search.DMSide
	}
	w := t.Window(tside, dside)
	canvas, err := Heatmap(w.Data)
	if err != nil {
		return nil, fmt.Errorf("trigger %s: %w", t.ID, err)
	}
	if !opts.Grid {
		return canvas, nil
	}

	timeAxis := func(px int) string {
		return fmt.Sprintf("%.3fs", t.Block.T0+float64(w.StartTime+px)*t.Block.DeltaT)
	}
	rowAxis := func(px int) string {
		row := w.StartDM + px
		if row < len(opts.Freq) {
			return ReadableFreq(opts.Freq[row])
		}
		return fmt.Sprintf("%d", row)
	}
	return DrawGrid(canvas, timeAxis, rowAxis), nil
}

// Encode writes img as "png" or "jpeg".
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "jpeg", "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	}
	return fmt.Errorf("%w: %q", ErrFormat, format)
}
