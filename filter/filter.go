// Package filter drops triggers that are not worth exporting.
package filter

import (
	"context"

	"github.com/hb9tf/burst/search"
)

type Filterer interface {
	ShouldIgnore(*search.Trigger) bool
}

// Filter copies triggers from input to output unless any filter ignores them.
// It closes output once input is drained.
func Filter(ctx context.Context, input <-chan search.Trigger, output chan<- search.Trigger, filters []Filterer) error {
	defer close(output)
	for t := range input {
		if ignored(&t, filters) {
			continue
		}
		select {
		case output <- t:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func ignored(t *search.Trigger, filters []Filterer) bool {
	for _, f := range filters {
		if f.ShouldIgnore(t) {
			return true
		}
	}
	return false
}

// MinSNR ignores triggers at or below SNR.
type MinSNR struct {
	SNR float64
}

func (f *MinSNR) ShouldIgnore(t *search.Trigger) bool {
	return t.SNR <= f.SNR
}

// DMRange ignores triggers whose DM index lies outside [Low, High].
type DMRange struct {
	Low  int
	High int
}

func (f *DMRange) ShouldIgnore(t *search.Trigger) bool {
	// Check if the trigger is below the range we want to include.
	if t.DMIndex < f.Low {
		return true
	}
	// Check if the trigger is above the range we want to include.
	if t.DMIndex > f.High {
		return true
	}
	return false
}

// Holdoff ignores triggers less than Seconds after the last one it let through.
// Overlapping blocks report the same event twice; this keeps the first.
type Holdoff struct {
	Seconds float64

	seen bool
	last float64
}

func (f *Holdoff) ShouldIgnore(t *search.Trigger) bool {
	now := t.Time()
	if f.seen && now-f.last < f.Seconds {
		return true
	}
	f.seen = true
	f.last = now
	return false
}
