// Package schedule fires vehicle commands at configured times of day. Items
// are declarative: a set of weekdays, a wall-clock time and a command. The
// scheduler ticks, finds due items and runs each one on its own goroutine so a
// slow wake sequence never delays the next item.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/evsched/evsched/core/logger"
	"github.com/evsched/evsched/core/model"
)

// Runner executes one vehicle command. Satisfied by core/engine.Engine.
type Runner interface {
	RunCommand(ctx context.Context, cmd model.Command, value float64, target *model.MessageTarget)
}

// Item is one configured trigger.
type Item struct {
	ID      string   `json:"id"`
	Days    []string `json:"days"`
	At      string   `json:"at"`
	Command string   `json:"command"`
	Value   float64  `json:"value"`
	Enabled bool     `json:"enabled"`
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// Validate checks the item fields without building a scheduler.
func (i Item) Validate() error {
	_, err := i.parse()
	return err
}

func (i Item) parse() (parsedItem, error) {
	var p parsedItem
	if i.ID == "" {
		return p, fmt.Errorf("schedule item has no id")
	}
	p.id = i.ID
	p.value = i.Value
	p.enabled = i.Enabled

	cmd, ok := model.CommandFromString(i.Command)
	if !ok {
		return p, fmt.Errorf("item %s: unknown command %q", i.ID, i.Command)
	}
	p.command = cmd

	at, err := time.Parse("15:04", i.At)
	if err != nil {
		return p, fmt.Errorf("item %s: invalid time %q", i.ID, i.At)
	}
	p.hour, p.minute = at.Hour(), at.Minute()

	if len(i.Days) == 0 {
		return p, fmt.Errorf("item %s: no days", i.ID)
	}
	p.days = make(map[time.Weekday]bool, len(i.Days))
	for _, d := range i.Days {
		wd, ok := weekdays[strings.ToLower(d)]
		if !ok {
			return p, fmt.Errorf("item %s: unknown day %q", i.ID, d)
		}
		p.days[wd] = true
	}
	return p, nil
}

type parsedItem struct {
	id      string
	days    map[time.Weekday]bool
	hour    int
	minute  int
	command model.Command
	value   float64
	enabled bool
}

func (p parsedItem) dueAt(t time.Time) bool {
	return p.enabled && p.days[t.Weekday()] && t.Hour() == p.hour && t.Minute() == p.minute
}

// Scheduler runs configured items against the engine.
type Scheduler struct {
	items  []parsedItem
	runner Runner
	logger logger.Logger

	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	lastFired map[string]time.Time
}

// Option adjusts scheduler behaviour, mainly for tests.
type Option func(*Scheduler)

// WithInterval overrides the tick interval.
func WithInterval(d time.Duration) Option { return func(s *Scheduler) { s.interval = d } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *Scheduler) { s.now = now } }

// New validates all items and builds a scheduler over them.
func New(items []Item, runner Runner, log logger.Logger, opts ...Option) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("schedule: runner is required")
	}
	if log == nil {
		return nil, fmt.Errorf("schedule: logger is required")
	}
	s := &Scheduler{
		runner:    runner,
		logger:    log,
		interval:  20 * time.Second,
		now:       time.Now,
		lastFired: make(map[string]time.Time),
	}
	for _, it := range items {
		p, err := it.parse()
		if err != nil {
			return nil, err
		}
		s.items = append(s.items, p)
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Infof("scheduler started with %d items", len(s.items))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("scheduler stopped")
			return
		case <-ticker.C:
			s.fireDue(ctx, s.now())
		}
	}
}

// fireDue starts every item due at t. An item fires at most once per minute,
// so a tick interval shorter than a minute never doubles a trigger.
func (s *Scheduler) fireDue(ctx context.Context, t time.Time) {
	minute := t.Truncate(time.Minute)
	for _, it := range s.items {
		if !it.dueAt(t) {
			continue
		}
		s.mu.Lock()
		if last, ok := s.lastFired[it.id]; ok && last.Equal(minute) {
			s.mu.Unlock()
			continue
		}
		s.lastFired[it.id] = minute
		s.mu.Unlock()

		it := it
		s.logger.Infof("firing %s (%s)", it.id, it.command)
		go s.runner.RunCommand(ctx, it.command, it.value, nil)
	}
}
