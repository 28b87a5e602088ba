// Package activity implements the append-only command activity log. Every
// terminal command outcome is recorded here; entries flagged as reportable are
// additionally surfaced on the event bus for external observers.
package activity

import (
	"context"
	"sync"
	"time"

	"github.com/evsched/evsched/core/events"
	"github.com/evsched/evsched/core/logger"
	"github.com/evsched/evsched/internal/eventbus"
)

// Entry is one timestamped activity record.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// Log is the shared append target for all concurrent command invocations.
// Appends are serialized; readers see a consistent newest-first ordering.
// Growth is unbounded; retention is an operational concern outside the engine.
type Log struct {
	mu      sync.Mutex
	entries []Entry

	log   logger.Logger
	bus   eventbus.EventBus
	store Store
	now   func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithBus attaches the event bus used for reportable entries.
func WithBus(bus eventbus.EventBus) Option {
	return func(l *Log) { l.bus = bus }
}

// WithStore attaches a durable store receiving every entry.
func WithStore(store Store) Option {
	return func(l *Log) { l.store = store }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// NewLog creates a Log writing structured records through log.
func NewLog(log logger.Logger, opts ...Option) *Log {
	l := &Log{log: log, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append records an entry. When report is true the entry is also published on
// the event bus as a reportable activity.
func (l *Log) Append(text string, report bool) {
	e := Entry{Timestamp: l.now(), Text: text}
	l.mu.Lock()
	// Newest first.
	l.entries = append([]Entry{e}, l.entries...)
	l.mu.Unlock()

	l.log.Infof("%s", text)
	if l.store != nil {
		if err := l.store.Append(context.Background(), Record{Timestamp: e.Timestamp, Text: e.Text, Reported: report}); err != nil {
			l.log.Errorf("activity store append: %v", err)
		}
	}
	if report && l.bus != nil {
		l.bus.Publish(events.ActivityEvent{Timestamp: e.Timestamp, Entry: text})
	}
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Latest returns the most recent entry, if any.
func (l *Log) Latest() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[0], true
}
