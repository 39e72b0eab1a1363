package filter

import (
	"context"
	"testing"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/search"
)

func trigger(t0 float64, dm, ti int, snr float64) search.Trigger {
	return search.Trigger{
		Block:     datasource.Block{T0: t0, DeltaT: 0.5},
		DMIndex:   dm,
		TimeIndex: ti,
		SNR:       snr,
	}
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filterer
		trigger search.Trigger
		want    bool
	}{
		{name: "snr above", filter: &MinSNR{SNR: 6}, trigger: trigger(0, 0, 0, 6.5), want: false},
		{name: "snr equal", filter: &MinSNR{SNR: 6}, trigger: trigger(0, 0, 0, 6), want: true},
		{name: "dm inside", filter: &DMRange{Low: 10, High: 20}, trigger: trigger(0, 10, 0, 9), want: false},
		{name: "dm below", filter: &DMRange{Low: 10, High: 20}, trigger: trigger(0, 9, 0, 9), want: true},
		{name: "dm above", filter: &DMRange{Low: 10, High: 20}, trigger: trigger(0, 21, 0, 9), want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.ShouldIgnore(&tc.trigger); got != tc.want {
				t.Errorf("ShouldIgnore(%s) = %t, want %t", tc.trigger, got, tc.want)
			}
		})
	}
}

func TestHoldoff(t *testing.T) {
	h := &Holdoff{Seconds: 2}
	for i, tc := range []struct {
		trigger search.Trigger
		want    bool
	}{
		{trigger(0, 0, 2, 7), false},  // t=1
		{trigger(1, 0, 2, 7), true},   // t=2
		{trigger(0, 0, 6, 7), false},  // t=3
		{trigger(3, 0, 1, 7), true},   // t=3.5
		{trigger(10, 0, 0, 7), false}, // t=10
	} {
		if got := h.ShouldIgnore(&tc.trigger); got != tc.want {
			t.Errorf("trigger %d at %g: ShouldIgnore() = %t, want %t", i, tc.trigger.Time(), got, tc.want)
		}
	}
}

func TestFilter(t *testing.T) {
	in := make(chan search.Trigger, 4)
	out := make(chan search.Trigger, 4)
	in <- trigger(0, 5, 0, 9)
	in <- trigger(0, 50, 0, 9) // outside DM range
	in <- trigger(0, 5, 0, 4)  // too weak
	in <- trigger(0, 6, 0, 8)
	close(in)

	// The DM filter comes first: a later filter must not undo its decision.
	filters := []Filterer{&DMRange{Low: 0, High: 10}, &MinSNR{SNR: 5}}
	if err := Filter(context.Background(), in, out, filters); err != nil {
		t.Fatalf("Filter() unexpected error: %s", err)
	}
	var got []int
	for tr := range out {
		got = append(got, tr.DMIndex)
	}
	if len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Errorf("Filter() passed DM indices %v, want [5 6]", got)
	}
}
