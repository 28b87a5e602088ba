package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/evsched/evsched/core/model"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

type fired struct {
	cmd   model.Command
	value float64
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []fired
	ch    chan fired
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{ch: make(chan fired, 16)}
}

func (f *fakeRunner) RunCommand(_ context.Context, cmd model.Command, value float64, _ *model.MessageTarget) {
	f.mu.Lock()
	f.calls = append(f.calls, fired{cmd, value})
	f.mu.Unlock()
	f.ch <- fired{cmd, value}
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// mondayAt returns a Monday at the given wall-clock time.
func mondayAt(hour, min int) time.Time {
	return time.Date(2026, time.August, 24, hour, min, 0, 0, time.UTC)
}

func TestItemValidation(t *testing.T) {
	cases := []struct {
		name string
		item Item
	}{
		{"missing id", Item{At: "07:00", Days: []string{"mon"}, Command: "charge_on"}},
		{"bad command", Item{ID: "a", At: "07:00", Days: []string{"mon"}, Command: "explode"}},
		{"bad time", Item{ID: "a", At: "7am", Days: []string{"mon"}, Command: "charge_on"}},
		{"bad day", Item{ID: "a", At: "07:00", Days: []string{"funday"}, Command: "charge_on"}},
		{"no days", Item{ID: "a", At: "07:00", Command: "charge_on"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.item.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestNewRejectsInvalidItems(t *testing.T) {
	_, err := New([]Item{{ID: "bad", At: "nope", Days: []string{"mon"}, Command: "sleep", Enabled: true}}, newFakeRunner(), nopLogger{})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestFireDueRunsMatchingItem(t *testing.T) {
	r := newFakeRunner()
	s, err := New([]Item{
		{ID: "morning-charge", Days: []string{"mon", "tue"}, At: "07:00", Command: "charge_on", Value: 80, Enabled: true},
		{ID: "other-time", Days: []string{"mon"}, At: "08:30", Command: "hvac_on", Enabled: true},
		{ID: "off-day", Days: []string{"sat"}, At: "07:00", Command: "sleep", Enabled: true},
		{ID: "disabled", Days: []string{"mon"}, At: "07:00", Command: "sleep", Enabled: false},
	}, r, nopLogger{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	s.fireDue(context.Background(), mondayAt(7, 0))

	select {
	case got := <-r.ch:
		if got.cmd != model.CommandChargeOn || got.value != 80 {
			t.Fatalf("unexpected call %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("item never fired")
	}
	time.Sleep(20 * time.Millisecond)
	if n := r.count(); n != 1 {
		t.Fatalf("expected exactly 1 fire got %d", n)
	}
}

func TestFireDueNeverDoublesWithinMinute(t *testing.T) {
	r := newFakeRunner()
	s, err := New([]Item{
		{ID: "nightly-sleep", Days: []string{"mon"}, At: "23:00", Command: "sleep", Enabled: true},
	}, r, nopLogger{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	base := mondayAt(23, 0)
	s.fireDue(context.Background(), base)
	s.fireDue(context.Background(), base.Add(20*time.Second))
	s.fireDue(context.Background(), base.Add(40*time.Second))
	<-r.ch
	time.Sleep(20 * time.Millisecond)
	if n := r.count(); n != 1 {
		t.Fatalf("expected 1 fire within minute got %d", n)
	}

	// Next week's occurrence fires again.
	s.fireDue(context.Background(), base.Add(7*24*time.Hour))
	select {
	case <-r.ch:
	case <-time.After(time.Second):
		t.Fatalf("item never re-fired")
	}
}

func TestRunFiresAndStops(t *testing.T) {
	r := newFakeRunner()
	due := mondayAt(6, 30)
	s, err := New(
		[]Item{{ID: "hvac", Days: []string{"mon"}, At: "06:30", Command: "hvac_on", Value: 72, Enabled: true}},
		r,
		nopLogger{},
		WithInterval(time.Millisecond),
		WithClock(func() time.Time { return due }),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	select {
	case got := <-r.ch:
		if got.cmd != model.CommandHVACOn {
			t.Fatalf("unexpected command %v", got.cmd)
		}
	case <-time.After(time.Second):
		t.Fatalf("scheduler never fired")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("scheduler never stopped")
	}
}
