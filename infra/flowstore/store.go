// Package flowstore persists generated flow records in a SQL database.
// SQLite (modernc) and Postgres (pgx) share the same schema and statements.
package flowstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"

	"github.com/kilianp07/tradeflow/core/model"
	"github.com/kilianp07/tradeflow/core/query"
)

// ErrNoRun is returned when the store holds no saved run.
var ErrNoRun = errors.New("no run saved")

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Config selects the flow store backend.
type Config struct {
	// Backend is "none" (default), "sqlite" or "postgres".
	Backend string `json:"backend"`
	// DSN is a file path for sqlite and a connection URL for postgres.
	DSN string `json:"dsn"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendNone
	}
	if c.Backend == BackendSQLite && c.DSN == "" {
		c.DSN = "flows.db"
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone, BackendSQLite:
		return nil
	case BackendPostgres:
		if c.DSN == "" {
			return fmt.Errorf("postgres flow store requires a dsn")
		}
		return nil
	default:
		return fmt.Errorf("unknown flow store backend %q", c.Backend)
	}
}

// Enabled reports whether a backend is configured.
func (c Config) Enabled() bool { return c.Backend != "" && c.Backend != BackendNone }

// Store saves and queries flow records grouped by run.
type Store struct {
	db      *sql.DB
	dialect dialect
}

type dialect struct {
	driver   string
	numbered bool
}

var dialects = map[string]dialect{
	BackendSQLite:   {driver: "sqlite"},
	BackendPostgres: {driver: "pgx", numbered: true},
}

// Open connects to the backend described by cfg and ensures the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, ok := dialects[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("flow store backend %q cannot be opened", cfg.Backend)
	}
	openMu.Lock()
	db, err := sqlOpen(d.driver, cfg.DSN)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Backend, err)
	}
	if cfg.Backend == BackendSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Backend, err)
	}
	s := &Store{db: db, dialect: d}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		saved_at BIGINT NOT NULL,
		records INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS flows (
		run_id TEXT NOT NULL,
		exporter TEXT NOT NULL,
		importer TEXT NOT NULL,
		year INTEGER NOT NULL,
		quantity BIGINT NOT NULL,
		PRIMARY KEY (run_id, year, exporter, importer)
	)`,
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for numbered dialects.
func (d dialect) rebind(q string) string {
	if !d.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save stores flows under runID in one transaction. Saving the same run
// again replaces its records.
func (s *Store) Save(ctx context.Context, runID string, flows []model.Flow) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM flows WHERE run_id = ?`), runID); err != nil {
		return fmt.Errorf("clear run: %w", err)
	}
	if _, err = tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM runs WHERE run_id = ?`), runID); err != nil {
		return fmt.Errorf("clear run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
		`INSERT INTO flows (run_id, exporter, importer, year, quantity) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, f := range flows {
		if _, err = stmt.ExecContext(ctx, runID, f.Exporter, f.Importer, f.Year, f.Quantity); err != nil {
			return fmt.Errorf("insert flow %s->%s %d: %w", f.Exporter, f.Importer, f.Year, err)
		}
	}
	if _, err = tx.ExecContext(ctx, s.dialect.rebind(`INSERT INTO runs (run_id, saved_at, records) VALUES (?, ?, ?)`),
		runID, time.Now().UnixNano(), len(flows)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return tx.Commit()
}

// LatestRun returns the id of the most recently saved run.
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT run_id FROM runs ORDER BY saved_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoRun
	}
	return id, err
}

// Query returns the flows of the latest run selected by f.
func (s *Store) Query(ctx context.Context, f query.Filter) ([]model.Flow, error) {
	id, err := s.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	return s.QueryRun(ctx, id, f)
}

// QueryRun returns the flows of runID selected by f, ordered by year,
// exporter and importer.
func (s *Store) QueryRun(ctx context.Context, runID string, f query.Filter) ([]model.Flow, error) {
	q := `SELECT exporter, importer, year, quantity FROM flows WHERE run_id = ?`
	args := []any{runID}
	if f.Year != 0 {
		q += ` AND year = ?`
		args = append(args, f.Year)
	}
	if f.Exporter != "" {
		q += ` AND exporter = ?`
		args = append(args, f.Exporter)
	}
	if f.Importer != "" {
		q += ` AND importer = ?`
		args = append(args, f.Importer)
	}
	q += ` ORDER BY year, exporter, importer`
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query flows: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []model.Flow
	for rows.Next() {
		var r model.Flow
		if err := rows.Scan(&r.Exporter, &r.Importer, &r.Year, &r.Quantity); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
