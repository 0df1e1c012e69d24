package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/vk/bayesgrid/internal/runstore"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	network      TEXT NOT NULL,
	mode         TEXT NOT NULL,
	draws        INTEGER NOT NULL,
	workers      INTEGER NOT NULL,
	total_weight REAL NOT NULL,
	degenerate   INTEGER NOT NULL,
	evidence     TEXT NOT NULL,
	marginals    TEXT NOT NULL,
	duration_ns  INTEGER NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at, id);
`

const selectColumns = `SELECT id, network, mode, draws, workers, total_weight, degenerate,
	evidence, marginals, duration_ns, created_at FROM runs`

// Store is a runstore.Store backed by a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

var _ runstore.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases intact and serializes writers.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Run store opened.", "path", path)
	return &Store{db: db, path: path}, nil
}

// Save implements runstore.Store.
func (s *Store) Save(ctx context.Context, run *runstore.Run) error {
	evidence, err := json.Marshal(run.Evidence)
	if err != nil {
		return fmt.Errorf("encoding evidence: %w", err)
	}
	marginals, err := json.Marshal(run.Marginals)
	if err != nil {
		return fmt.Errorf("encoding marginals: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(id, network, mode, draws, workers, total_weight, degenerate, evidence, marginals, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Network, run.Mode, run.Draws, run.Workers, run.TotalWeight, run.Degenerate,
		string(evidence), string(marginals), int64(run.Duration), run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return nil
}

// Get implements runstore.Store.
func (s *Store) Get(ctx context.Context, id string) (*runstore.Run, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, runstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	return run, nil
}

// List implements runstore.Store.
func (s *Store) List(ctx context.Context) ([]*runstore.Run, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*runstore.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close implements runstore.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*runstore.Run, error) {
	var (
		run                 runstore.Run
		evidence, marginals string
		durationNs, created int64
	)
	err := sc.Scan(&run.ID, &run.Network, &run.Mode, &run.Draws, &run.Workers, &run.TotalWeight,
		&run.Degenerate, &evidence, &marginals, &durationNs, &created)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(evidence), &run.Evidence); err != nil {
		return nil, fmt.Errorf("decoding evidence: %w", err)
	}
	if err := json.Unmarshal([]byte(marginals), &run.Marginals); err != nil {
		return nil, fmt.Errorf("decoding marginals: %w", err)
	}
	run.Duration = time.Duration(durationNs)
	run.CreatedAt = time.Unix(0, created).UTC()
	return &run, nil
}
