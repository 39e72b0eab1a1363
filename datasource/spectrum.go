package datasource

import (
	"fmt"
)

// Spectrum is a single native time sample across all channels, as delivered by
// a receiver or stored by the collector.
type Spectrum struct {
	// Seq is the index of the sample since the start of the data.
	Seq   int64     `json:"seq"`
	Power []float32 `json:"power" binding:"required,min=1"`
}

// Transpose arranges time ordered spectra into a block indexed [channel][time].
func Transpose(spectra []Spectrum, nfreq int) ([][]float32, error) {
	data := make([][]float32, nfreq)
	for c := range data {
		data[c] = make([]float32, len(spectra))
	}
	for t, s := range spectra {
		if len(s.Power) != nfreq {
			return nil, fmt.Errorf("%w: spectrum %d has %d channels, want %d", ErrShape, s.Seq, len(s.Power), nfreq)
		}
		for c, p := range s.Power {
			data[c][t] = p
		}
	}
	return data, nil
}
