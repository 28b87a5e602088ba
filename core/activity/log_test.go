package activity

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/evsched/evsched/core/events"
	"github.com/evsched/evsched/internal/eventbus"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

func TestLogNewestFirst(t *testing.T) {
	l := NewLog(nopLogger{})
	l.Append("first", false)
	l.Append("second", false)
	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries got %d", len(entries))
	}
	if entries[0].Text != "second" || entries[1].Text != "first" {
		t.Fatalf("entries not newest-first: %v", entries)
	}
	latest, ok := l.Latest()
	if !ok || latest.Text != "second" {
		t.Fatalf("unexpected latest entry: %v %v", latest, ok)
	}
}

func TestLogReportableEntryPublishes(t *testing.T) {
	bus := eventbus.New()
	ch := bus.Subscribe()
	l := NewLog(nopLogger{}, WithBus(bus))

	l.Append("silent", false)
	l.Append("reported", true)

	select {
	case ev := <-ch:
		ae, ok := ev.(events.ActivityEvent)
		if !ok {
			t.Fatalf("unexpected event type %T", ev)
		}
		if ae.Entry != "reported" {
			t.Fatalf("expected reported entry got %q", ae.Entry)
		}
	case <-time.After(time.Second):
		t.Fatalf("no activity event received")
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event %v", ev)
	default:
	}
}

func TestLogConcurrentAppends(t *testing.T) {
	l := NewLog(nopLogger{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append("entry", false)
		}()
	}
	wg.Wait()
	if got := len(l.Entries()); got != 50 {
		t.Fatalf("expected 50 entries got %d", got)
	}
}

func TestJSONLStoreAppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	recs := []Record{
		{Timestamp: base, Text: "Charge: On: succeeded", Reported: true},
		{Timestamp: base.Add(time.Hour), Text: "HVAC: On: failed, timeout", Reported: true},
		{Timestamp: base.Add(2 * time.Hour), Text: "Unplugged?: succeeded", Reported: false},
	}
	for _, r := range recs {
		if err := store.Append(context.Background(), r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.Query(context.Background(), Query{Contains: "HVAC"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].Text != recs[1].Text {
		t.Fatalf("unexpected result %v", got)
	}

	got, err = store.Query(context.Background(), Query{Start: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records got %d", len(got))
	}
}

func TestLogWritesToStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	l := NewLog(nopLogger{}, WithStore(store))
	l.Append("persisted", true)
	got, err := store.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].Text != "persisted" || !got[0].Reported {
		t.Fatalf("unexpected records %v", got)
	}
}
