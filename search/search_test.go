package search

import (
	"testing"

	"github.com/hb9tf/burst/datasource"
)

func scripted(c Candidate, ok bool) Finder {
	return func([][]float32) (Candidate, bool) {
		return c, ok
	}
}

func TestBasic(t *testing.T) {
	block := datasource.Block{T0: 2, DeltaT: 0.001, Data: [][]float32{{0}}}
	cand := Candidate{SNR: 7.2, DMIndex: 120, TimeIndex: 4050, Duration: 3}

	tests := []struct {
		desc      string
		find      Finder
		threshold float64
		want      int
	}{
		{"above default threshold", scripted(cand, true), DefaultThreshold, 1},
		{"below threshold", scripted(cand, true), 8, 0},
		{"equal to threshold", scripted(cand, true), 7.2, 0},
		{"no candidate", scripted(Candidate{}, false), DefaultThreshold, 0},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			got := Basic(block, tc.find, tc.threshold)
			if len(got) != tc.want {
				t.Fatalf("Basic() returned %d triggers, want %d", len(got), tc.want)
			}
			if tc.want == 0 {
				return
			}
			trig := got[0]
			if dm, ti := trig.Centre(); dm != 120 || ti != 4050 {
				t.Errorf("Centre() = (%d, %d), want (120, 4050)", dm, ti)
			}
			if trig.SNR != 7.2 || trig.Duration != 3 || trig.ID == "" {
				t.Errorf("Trigger = %+v", trig)
			}
			if got, want := trig.String(), "(7.2, (120, 4050))"; got != want {
				t.Errorf("String() = %q, want %q", got, want)
			}
			if got, want := trig.Time(), block.T0+float64(4050)*block.DeltaT; got != want {
				t.Errorf("Time() = %g, want %g", got, want)
			}
			if w := trig.Window(TimeSide, DMSide); w.StartTime != w.EndTime {
				t.Errorf("Window() of a centre outside the block = [%d:%d], want empty", w.StartTime, w.EndTime)
			}
		})
	}
}

func grid(rows, cols int) [][]float32 {
	data := make([][]float32, rows)
	for r := range data {
		data[r] = make([]float32, cols)
		for c := range data[r] {
			data[r][c] = float32(r*cols + c)
		}
	}
	return data
}

func TestWindow(t *testing.T) {
	block := datasource.Block{Data: grid(10, 20)}

	tests := []struct {
		desc         string
		dm, ti       int
		tside, dside int
		want         Window
	}{
		{
			desc: "inside",
			dm:   5, ti: 10, tside: 3, dside: 2,
			want: Window{StartDM: 3, EndDM: 7, StartTime: 7, EndTime: 13},
		},
		{
			desc: "clipped at the origin",
			dm:   1, ti: 2, tside: 5, dside: 3,
			want: Window{StartDM: 0, EndDM: 4, StartTime: 0, EndTime: 7},
		},
		{
			desc: "clipped at the far edge",
			dm:   9, ti: 19, tside: TimeSide, dside: DMSide,
			want: Window{StartDM: 0, EndDM: 10, StartTime: 0, EndTime: 20},
		},
		{
			desc: "centre beyond the block",
			dm:   120, ti: 4050, tside: TimeSide, dside: DMSide,
			want: Window{StartDM: 0, EndDM: 10, StartTime: 20, EndTime: 20},
		},
		{
			desc: "centre far below the block",
			dm:   -50, ti: -900, tside: 3, dside: 2,
			want: Window{StartDM: 0, EndDM: 0, StartTime: 0, EndTime: 0},
		},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			trig := NewTrigger(block, tc.dm, tc.ti, 6)
			got := trig.Window(tc.tside, tc.dside)
			if got.StartDM != tc.want.StartDM || got.EndDM != tc.want.EndDM || got.StartTime != tc.want.StartTime || got.EndTime != tc.want.EndTime {
				t.Fatalf("Window() = [%d:%d, %d:%d], want [%d:%d, %d:%d]",
					got.StartDM, got.EndDM, got.StartTime, got.EndTime,
					tc.want.StartDM, tc.want.EndDM, tc.want.StartTime, tc.want.EndTime)
			}
			if len(got.Data) != got.EndDM-got.StartDM {
				t.Fatalf("Window() rows = %d, want %d", len(got.Data), got.EndDM-got.StartDM)
			}
			if got.EndTime == got.StartTime || got.EndDM == got.StartDM {
				return
			}
			if first := got.Data[0][0]; first != block.Data[got.StartDM][got.StartTime] {
				t.Errorf("Window() first value = %g, want %g", first, block.Data[got.StartDM][got.StartTime])
			}
		})
	}
}

func TestBoxcar(t *testing.T) {
	data := make([][]float32, 4)
	for r := range data {
		data[r] = make([]float32, 100)
		for i := range data[r] {
			data[r][i] = float32(i % 2)
		}
	}
	data[2][50] = 20

	c, ok := Boxcar()(data)
	if !ok {
		t.Fatal("Boxcar() found no candidate")
	}
	if c.DMIndex != 2 || c.TimeIndex != 50 || c.Duration != 1 {
		t.Errorf("Boxcar() = %+v, want DM 2, time 50, duration 1", c)
	}
	if c.SNR < 20 {
		t.Errorf("Boxcar() SNR = %g, want > 20", c.SNR)
	}
}

func TestBoxcarFlatData(t *testing.T) {
	if _, ok := Boxcar(1, 2)(grid(0, 0)); ok {
		t.Error("Boxcar() found a candidate in empty data")
	}
	flat := [][]float32{make([]float32, 32)}
	if _, ok := Boxcar(1, 2)(flat); ok {
		t.Error("Boxcar() found a candidate in flat data")
	}
}
