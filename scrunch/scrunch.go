// Package scrunch averages consecutive time samples of a frequency/time block.
package scrunch

import (
	"errors"
	"fmt"
)

var (
	// ErrFactor is returned for decimation factors below 1.
	ErrFactor = errors.New("scrunch factor must be at least 1")
	// ErrRagged is returned when the channels of a block differ in length.
	ErrRagged = errors.New("channels have different numbers of time samples")
)

// IndivisibleError reports a factor that does not divide the number of time samples.
type IndivisibleError struct {
	Factor  int
	Samples int
}

func (e *IndivisibleError) Error() string {
	return fmt.Sprintf("scrunch factor (%d) must divide native time block size (%d)", e.Factor, e.Samples)
}

// Number is any numeric sample representation a backend may deliver.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// Offset is how far the first decimated sample lies after the first native
// sample: the centre of the first group of factor samples.
func Offset(factor int, deltaT float64) float64 {
	if factor <= 1 {
		return 0
	}
	f := float64(factor)
	return deltaT * f * (1 - 1/f) / 2
}

// Decimate averages groups of factor consecutive samples of every channel in
// data, indexed [channel][time]. deltaT is the native sample spacing and t0
// the time of the first native sample; the returned time is that of the first
// decimated sample.
//
// Means are computed in float64 and converted back to T, truncating integer
// types. A factor of 1 returns data unchanged.
func Decimate[T Number](data [][]T, factor int, deltaT, t0 float64) ([][]T, float64, error) {
	if factor < 1 {
		return nil, 0, fmt.Errorf("%w: got %d", ErrFactor, factor)
	}
	if factor == 1 {
		return data, t0, nil
	}

	ntime, err := Samples(data)
	if err != nil {
		return nil, 0, err
	}
	if ntime%factor != 0 {
		return nil, 0, &IndivisibleError{Factor: factor, Samples: ntime}
	}

	nout := ntime / factor
	out := make([][]T, len(data))
	for c, row := range data {
		dst := make([]T, nout)
		for j := range dst {
			var sum float64
			for _, v := range row[j*factor : (j+1)*factor] {
				sum += float64(v)
			}
			dst[j] = T(sum / float64(factor))
		}
		out[c] = dst
	}
	return out, t0 + Offset(factor, deltaT), nil
}

// Samples returns the number of time samples per channel, failing if channels disagree.
func Samples[T any](data [][]T) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	n := len(data[0])
	for c, row := range data[1:] {
		if len(row) != n {
			return 0, fmt.Errorf("%w: channel 0 has %d, channel %d has %d", ErrRagged, n, c+1, len(row))
		}
	}
	return n, nil
}
