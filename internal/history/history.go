// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history journals pipeline runs to SQLite or MySQL.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// startedLayout is fixed width so started_at sorts lexically in time order.
const startedLayout = "2006-01-02T15:04:05.000000000Z"

// Record is one pipeline run.
type Record struct {
	RunID    string
	Document string
	URL      string
	State    string
	// Kind is empty for successful runs.
	Kind     string
	Message  string
	FileID   string
	Stages   []string
	Pages    int
	Started  time.Time
	Duration time.Duration
}

// OK reports whether the run reached Done.
func (r Record) OK() bool { return r.Kind == "" }

// Store is a run journal backed by database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the journal database and migrates its schema.
func Open(driver, dsn string) (*Store, error) {
	driver = normalizeDriver(driver)
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s dsn must be provided", driver)
	}

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case "sqlite3":
		db, err = sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// A single connection keeps ":memory:" databases consistent.
		db.SetMaxOpenConns(1)
	case "mysql":
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", driver)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(db, driver); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, driver: driver}, nil
}

// Migrate ensures the runs table exists.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch normalizeDriver(driver) {
	case "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS runs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT NOT NULL UNIQUE,
				document TEXT NOT NULL,
				url TEXT NOT NULL,
				state TEXT NOT NULL,
				kind TEXT NOT NULL DEFAULT '',
				message TEXT NOT NULL DEFAULT '',
				file_id TEXT NOT NULL DEFAULT '',
				stages TEXT NOT NULL DEFAULT '',
				pages INTEGER NOT NULL DEFAULT 0,
				started_at TEXT NOT NULL,
				duration_ms INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS runs (
				id BIGINT PRIMARY KEY AUTO_INCREMENT,
				run_id VARCHAR(64) NOT NULL UNIQUE,
				document VARCHAR(512) NOT NULL,
				url TEXT NOT NULL,
				state VARCHAR(32) NOT NULL,
				kind VARCHAR(32) NOT NULL DEFAULT '',
				message TEXT NOT NULL,
				file_id VARCHAR(255) NOT NULL DEFAULT '',
				stages VARCHAR(255) NOT NULL DEFAULT '',
				pages INT NOT NULL DEFAULT 0,
				started_at VARCHAR(40) NOT NULL,
				duration_ms BIGINT NOT NULL,
				INDEX idx_runs_started_at (started_at)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported history driver: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts r.
func (s *Store) Record(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, document, url, state, kind, message, file_id, stages, pages, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Document, r.URL, r.State, r.Kind, r.Message, r.FileID,
		strings.Join(r.Stages, ","), r.Pages,
		r.Started.UTC().Format(startedLayout), r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.RunID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, document, url, state, kind, message, file_id, stages, pages, started_at, duration_ms
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			stages  string
			started string
			ms      int64
		)
		if err := rows.Scan(&r.RunID, &r.Document, &r.URL, &r.State, &r.Kind, &r.Message,
			&r.FileID, &stages, &r.Pages, &started, &ms); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if stages != "" {
			r.Stages = strings.Split(stages, ",")
		}
		if t, err := time.Parse(startedLayout, started); err == nil {
			r.Started = t
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

func normalizeDriver(driver string) string {
	d := strings.ToLower(strings.TrimSpace(driver))
	if d == "sqlite" {
		return "sqlite3"
	}
	return d
}
