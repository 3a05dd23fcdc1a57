// Package history persists solve runs to SQLite so repeated plan iterations
// can be compared (`optiplan history`). The store is optional; a nil *Store
// is safe to call and does nothing.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"optiplan/internal/solver"
	logx "optiplan/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// ErrDisabled is returned by operations on a nil or closed store.
var ErrDisabled = errors.New("history store disabled")

// Run is one recorded solve.
type Run struct {
	ID       int64
	At       time.Time
	Plan     string
	Feasible bool
	Makespan int
	Leaves   uint64
	Elapsed  time.Duration
	Tasks    int
	Starts   []int
}

type Store struct {
	db  *sql.DB
	log logx.Logger
}

// Open creates (or opens) the history database and applies migrations.
func Open(path string, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &Store{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history migrate: %w", err)
	}
	return st, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append records one solve result.
func (s *Store) Append(ctx context.Context, plan string, res solver.Result) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	var starts any
	if res.Starts != nil {
		b, err := json.Marshal(res.Starts)
		if err != nil {
			return fmt.Errorf("marshal starts: %w", err)
		}
		starts = string(b)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(at, plan, feasible, makespan, leaves, elapsed_ms, tasks, starts)
		 VALUES(?,?,?,?,?,?,?,?)`,
		time.Now().Format(time.RFC3339Nano), plan, res.Feasible, res.Makespan,
		int64(res.Leaves), res.Elapsed.Milliseconds(), len(res.Starts), starts,
	)
	if err != nil {
		return err
	}
	s.log.Debug("run recorded", logx.String("plan", plan), logx.Int("makespan", res.Makespan))
	return nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, plan, feasible, makespan, leaves, elapsed_ms, tasks, starts
		 FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r      Run
			at     string
			leaves int64
			ms     int64
			starts sql.NullString
		)
		if err := rows.Scan(&r.ID, &at, &r.Plan, &r.Feasible, &r.Makespan, &leaves, &ms, &r.Tasks, &starts); err != nil {
			return nil, err
		}
		if ts, perr := time.Parse(time.RFC3339Nano, at); perr == nil {
			r.At = ts
		}
		r.Leaves = uint64(leaves)
		r.Elapsed = time.Duration(ms) * time.Millisecond
		if starts.Valid && starts.String != "" {
			if jerr := json.Unmarshal([]byte(starts.String), &r.Starts); jerr != nil {
				s.log.Warn("bad starts json in history row", logx.Int64("id", r.ID), logx.Err(jerr))
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
