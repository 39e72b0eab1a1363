package search

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hb9tf/burst/datasource"
)

const (
	// TimeSide is the default number of time samples shown either side of a trigger.
	TimeSide = 500
	// DMSide is the default number of DM rows shown either side of a trigger.
	DMSide = 300
)

// Trigger is a scored candidate event located in the block it was found in.
type Trigger struct {
	ID string

	// Block is the data the trigger was found in. Rows are DM trials when the
	// block holds dedispersed data.
	Block     datasource.Block
	DMIndex   int
	TimeIndex int
	// SNR is the signal to noise ratio of the event. Zero means not scored.
	SNR float64
	// Duration is the width of the event in samples.
	Duration int
}

// NewTrigger returns a trigger with a fresh ID.
func NewTrigger(block datasource.Block, dmIndex, timeIndex int, snr float64) Trigger {
	return Trigger{
		ID:        uuid.NewString(),
		Block:     block,
		DMIndex:   dmIndex,
		TimeIndex: timeIndex,
		SNR:       snr,
	}
}

// Centre returns the (DM index, time index) location of the trigger.
func (t Trigger) Centre() (int, int) {
	return t.DMIndex, t.TimeIndex
}

// Time is the time of the centre sample in seconds since the backend start time.
func (t Trigger) Time() float64 {
	return t.Block.T0 + float64(t.TimeIndex)*t.Block.DeltaT
}

func (t Trigger) String() string {
	return fmt.Sprintf("(%g, (%d, %d))", t.SNR, t.DMIndex, t.TimeIndex)
}

// Window is a clipped rectangular view of a trigger's block.
type Window struct {
	StartDM   int
	EndDM     int
	StartTime int
	EndTime   int
	Data      [][]float32
}

// Window returns the part of the block within tside time samples and dside
// rows of the centre, clipped to the block bounds. The end indices are exclusive.
func (t Trigger) Window(tside, dside int) Window {
	nrows := len(t.Block.Data)
	ntime := t.Block.NTime()

	// A centre outside the block yields an empty window.
	w := Window{
		StartDM:   min(nrows, max(0, t.DMIndex-dside)),
		EndDM:     min(nrows, t.DMIndex+dside),
		StartTime: min(ntime, max(0, t.TimeIndex-tside)),
		EndTime:   min(ntime, t.TimeIndex+tside),
	}
	if w.EndDM < w.StartDM {
		w.EndDM = w.StartDM
	}
	if w.EndTime < w.StartTime {
		w.EndTime = w.StartTime
	}
	for _, row := range t.Block.Data[w.StartDM:w.EndDM] {
		w.Data = append(w.Data, row[w.StartTime:w.EndTime])
	}
	return w
}
