package datasource

import (
	"testing"
	"time"
)

func TestEpoch(t *testing.T) {
	ts := time.Date(2023, time.February, 25, 6, 30, 15, 500000000, time.UTC)
	mjd, sec := Epoch(ts)
	if mjd != 60000 {
		t.Errorf("Epoch() MJD = %d, want 60000", mjd)
	}
	if sec != 6*3600+30*60+15.5 {
		t.Errorf("Epoch() seconds = %g, want %g", sec, 6*3600+30*60+15.5)
	}

	g := Geometry{MJD: mjd, StartTime: sec}
	if got, want := g.Time(2.5), ts.Add(2500*time.Millisecond); !got.Equal(want) {
		t.Errorf("Time() = %s, want %s", got, want)
	}
}
