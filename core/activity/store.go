package activity

import (
	"context"
	"time"
)

// Record is the durable form of one activity entry.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Reported  bool      `json:"reported"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start    time.Time
	End      time.Time
	Contains string
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
