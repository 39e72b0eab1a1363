package search

import (
	"math"
	"sort"
)

// Boxcar returns a simple Finder that smooths every row with boxcars of the
// given widths and reports the sample with the highest SNR. Noise statistics
// are estimated per row from the median and the median absolute deviation, so
// a short bright event does not inflate its own noise estimate.
//
// It is a reference detector for running the pipeline end to end, not a
// dispersion search.
func Boxcar(widths ...int) Finder {
	if len(widths) == 0 {
		widths = []int{1, 2, 4, 8, 16}
	}
	return func(data [][]float32) (Candidate, bool) {
		best := Candidate{SNR: math.Inf(-1)}
		found := false
		for r, row := range data {
			med, sigma := robustStats(row)
			if sigma == 0 {
				continue
			}
			for _, w := range widths {
				if w < 1 || w > len(row) {
					continue
				}
				norm := sigma * math.Sqrt(float64(w))
				var sum float64
				for i, v := range row {
					sum += float64(v) - med
					if i >= w {
						sum -= float64(row[i-w]) - med
					}
					if i < w-1 {
						continue
					}
					snr := sum / norm
					if snr > best.SNR {
						best = Candidate{
							SNR:       snr,
							DMIndex:   r,
							TimeIndex: i - w/2,
							Duration:  w,
						}
						found = true
					}
				}
			}
		}
		return best, found
	}
}

// robustStats returns the median and a MAD based standard deviation estimate.
func robustStats(row []float32) (float64, float64) {
	if len(row) == 0 {
		return 0, 0
	}
	vals := make([]float64, len(row))
	for i, v := range row {
		vals[i] = float64(v)
	}
	sort.Float64s(vals)
	med := median(vals)
	for i, v := range vals {
		vals[i] = math.Abs(v - med)
	}
	sort.Float64s(vals)
	return med, 1.4826 * median(vals)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
