// Package search wraps an event detector and turns its candidates into
// triggers.
package search

import (
	"github.com/hb9tf/burst/datasource"
)

// DefaultThreshold is the signal to noise ratio a candidate has to exceed.
const DefaultThreshold = 5.0

// Candidate is the raw result of a detector.
type Candidate struct {
	SNR       float64
	DMIndex   int
	TimeIndex int
	Duration  int
}

// Finder looks for the strongest event in data indexed [row][time]. It returns
// false if there is no candidate at all.
type Finder func(data [][]float32) (Candidate, bool)

// Basic runs find over the block and returns a trigger if the candidate's SNR
// is strictly above threshold.
func Basic(block datasource.Block, find Finder, threshold float64) []Trigger {
	var triggers []Trigger

	c, ok := find(block.Data)
	if !ok {
		return triggers
	}
	if c.SNR > threshold {
		t := NewTrigger(block, c.DMIndex, c.TimeIndex, c.SNR)
		t.Duration = c.Duration
		triggers = append(triggers, t)
	}
	return triggers
}
