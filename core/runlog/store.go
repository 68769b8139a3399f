package runlog

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/tradeflow/core/model"
)

// Record is one persisted year report.
type Record = model.YearReport

// Query filters run log records. Zero values match everything.
type Query struct {
	RunID  string
	Year   int
	Status model.YearStatus
	Start  time.Time
	End    time.Time
}

// Match reports whether r satisfies q.
func (q Query) Match(r Record) bool {
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.Year != 0 && r.Year != q.Year {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if !q.Start.IsZero() && r.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Time.After(q.End) {
		return false
	}
	return true
}

// Store persists year reports and supports querying. Implementations are
// safe for concurrent use.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects the run log backend.
type Config struct {
	// Backend is "jsonl" (default), "sqlite" or "none".
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// Rotation settings apply to the jsonl backend.
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "runlog.db"
		default:
			c.Path = "runlog.jsonl"
		}
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
		return nil
	default:
		return fmt.Errorf("unknown runlog backend %q", c.Backend)
	}
}

// New opens the store described by cfg. The "none" backend returns a
// NopStore.
func New(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "none":
		return NopStore{}, nil
	}
	if cfg.MaxSizeMB > 0 {
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
	return NewJSONLStore(cfg.Path)
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
