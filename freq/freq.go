// Package freq builds the native frequency axis of a backend and selects the
// channels that fall inside an analysis passband.
package freq

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBand is returned when a passband excludes every channel.
	ErrEmptyBand = errors.New("passband excludes all channels")
	// ErrNoChannels is returned when the native geometry has no channels at all.
	ErrNoChannels = errors.New("no native frequency channels")
)

// Channels describes the native frequency axis of a backend.
type Channels struct {
	// N is the number of native channels.
	N int
	// Delta is the channel spacing. It may be negative for descending bands.
	Delta float64
	// Ref is the centre frequency of channel 0.
	Ref float64
}

// Passband restricts the delivered channels to those strictly between Low and High.
type Passband struct {
	Low  float64
	High float64
}

func (p Passband) String() string {
	return fmt.Sprintf("(%g, %g)", p.Low, p.High)
}

func (p Passband) contains(f float64) bool {
	return f > p.Low && f < p.High
}

// Axis holds channel centre frequencies in channel order.
type Axis []float64

// Slice returns the part of the axis selected by r.
func (a Axis) Slice(r Range) Axis {
	return a[r.Start:r.End]
}

// Range is a half open channel index range [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%d:%d]", r.Start, r.End)
}

// Native builds the full native axis: Ref + i*Delta for i in [0, N).
func Native(c Channels) Axis {
	axis := make(Axis, c.N)
	for i := range axis {
		axis[i] = c.Ref + float64(i)*c.Delta
	}
	return axis
}

// Resolve returns the native axis together with the channel range selected by
// the passband. A nil passband selects every channel.
//
// The range spans from the first to the last channel inside the passband,
// inclusive. Channels lying between two in-band channels are part of the
// range even if they fail the test themselves; downstream consumers rely on
// a contiguous selection.
func Resolve(c Channels, pb *Passband) (Axis, Range, error) {
	if c.N <= 0 {
		return nil, Range{}, ErrNoChannels
	}
	axis := Native(c)
	if pb == nil {
		return axis, Range{Start: 0, End: c.N}, nil
	}

	first, last := -1, -1
	for i, f := range axis {
		if !pb.contains(f) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return nil, Range{}, fmt.Errorf("%w: passband %s, channels %g..%g", ErrEmptyBand, pb, axis[0], axis[len(axis)-1])
	}
	return axis, Range{Start: first, End: last + 1}, nil
}

// Selected is a convenience wrapper returning only the in-band part of the axis.
func Selected(c Channels, pb *Passband) (Axis, error) {
	axis, r, err := Resolve(c, pb)
	if err != nil {
		return nil, err
	}
	return axis.Slice(r), nil
}
