package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hb9tf/burst/collect"
	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/search"
	"github.com/hb9tf/burst/store"
)

func triggers(n int) <-chan search.Trigger {
	ch := make(chan search.Trigger, n)
	for i := 0; i < n; i++ {
		data := [][]float32{{0, 1, 2, 3}, {3, 2, 1, 0}}
		ch <- search.Trigger{
			ID:        fmt.Sprintf("t%d", i),
			Block:     datasource.Block{T0: float64(i), DeltaT: 0.5, Data: data},
			DMIndex:   1,
			TimeIndex: 2,
			SNR:       6.5,
			Duration:  1,
		}
	}
	close(ch)
	return ch
}

func TestCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	c := &CSV{Writer: buf, Identifier: "rx1"}
	if err := c.Write(context.Background(), triggers(2)); err != nil {
		t.Fatalf("Write() unexpected error: %s", err)
	}
	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %s", err)
	}
	if len(records) != 3 {
		t.Fatalf("Write() produced %d records, want 3", len(records))
	}
	want := []string{"t1", "rx1", "2.000000", "1", "2", "6.500000", "1"}
	for i := range want {
		if records[2][i] != want[i] {
			t.Errorf("record field %d = %q, want %q", i, records[2][i], want[i])
		}
	}
}

func TestSQL(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.SQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("store.Open() unexpected error: %s", err)
	}
	defer st.Close()

	s := &SQL{Store: st, Identifier: "rx1"}
	if err := s.Write(ctx, triggers(3)); err != nil {
		t.Fatalf("Write() unexpected error: %s", err)
	}
	var count int
	if err := st.DB.QueryRow(`SELECT COUNT(*) FROM triggers WHERE Identifier = 'rx1';`).Scan(&count); err != nil {
		t.Fatalf("counting triggers: %s", err)
	}
	if count != 3 {
		t.Errorf("stored %d triggers, want 3", count)
	}
}

type triggerSink struct {
	mu       sync.Mutex
	triggers []store.Trigger
}

func (s *triggerSink) PutSource(ctx context.Context, src store.Source) error { return nil }

func (s *triggerSink) AddSpectra(ctx context.Context, identifier string, spectra []datasource.Spectrum) error {
	return nil
}

func (s *triggerSink) AddTrigger(ctx context.Context, t store.Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, t)
	return nil
}

func TestServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sink := &triggerSink{}
	srv := httptest.NewServer(collect.NewRouter(sink, sink, nil))
	defer srv.Close()

	s := &Server{Client: &collect.Client{Server: srv.URL}, Identifier: "rx1", SendTriggerAmount: 2}
	if err := s.Write(context.Background(), triggers(5)); err != nil {
		t.Fatalf("Write() unexpected error: %s", err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.triggers) != 5 {
		t.Fatalf("server received %d triggers, want 5", len(sink.triggers))
	}
	if got := sink.triggers[4]; got.ID != "t4" || got.Identifier != "rx1" || got.Time != 5 {
		t.Errorf("last trigger = %+v, want ID t4 of rx1 at 5s", got)
	}
}

func TestPlot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	p := &Plot{Dir: dir}
	if err := p.Write(context.Background(), triggers(2)); err != nil {
		t.Fatalf("Write() unexpected error: %s", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() unexpected error: %s", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Write() created %d files, want 2", len(entries))
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".png") {
			t.Errorf("unexpected plot file %s", e.Name())
		}
	}
}

func TestMulti(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	m := Multi{&CSV{Writer: a}, &CSV{Writer: b}}
	if err := m.Write(context.Background(), triggers(4)); err != nil {
		t.Fatalf("Write() unexpected error: %s", err)
	}
	for i, buf := range []*bytes.Buffer{a, b} {
		if n := strings.Count(buf.String(), "\n"); n != 5 {
			t.Errorf("exporter %d wrote %d lines, want 5", i, n)
		}
	}
}
