// Package recorder persists driver cases to a SQLite database. Each run of
// a model gets a row in runs; every evaluation adds a case with one value
// row per variable.
package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	started_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS cases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	iteration INTEGER NOT NULL,
	name TEXT NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS case_values (
	case_id INTEGER NOT NULL REFERENCES cases(id),
	variable TEXT NOT NULL,
	value BLOB NOT NULL,
	PRIMARY KEY (case_id, variable)
);
`

// Run is one recorded run.
type Run struct {
	ID        string
	Name      string
	StartedAt time.Time
}

// SQLite records cases of a single run. It implements om.Recorder.
type SQLite struct {
	sqlDB *sql.DB
	run   Run
}

// Open opens or creates the database at path and starts a new run.
func Open(ctx context.Context, path, runName string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("recorder path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create recorder directory: %w", err)
	}
	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	run := Run{ID: uuid.NewString(), Name: runName, StartedAt: time.Now().UTC()}
	if _, err := sqlDB.ExecContext(ctx,
		`INSERT INTO runs (id, name, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Name, run.StartedAt.UnixMilli(),
	); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("start run: %w", err)
	}
	return &SQLite{sqlDB: sqlDB, run: run}, nil
}

// Run returns the run being recorded.
func (s *SQLite) Run() Run { return s.run }

// RecordIteration implements om.Recorder.
func (s *SQLite) RecordIteration(ctx context.Context, c om.Case) (err error) {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("recorder is closed")
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin case: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO cases (run_id, iteration, name, recorded_at) VALUES (?, ?, ?, ?)`,
		s.run.ID, c.Iteration, c.Name, c.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	caseID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO case_values (case_id, variable, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare values: %w", err)
	}
	defer stmt.Close()

	for _, name := range slices.Sorted(maps.Keys(c.Outputs)) {
		blob, err := msgpack.Marshal(c.Outputs[name])
		if err != nil {
			return fmt.Errorf("encode '%s': %w", name, err)
		}
		if _, err := stmt.ExecContext(ctx, caseID, name, blob); err != nil {
			return fmt.Errorf("insert value '%s': %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit case: %w", err)
	}
	return nil
}

// Cases returns every case of the current run in recording order.
func (s *SQLite) Cases(ctx context.Context) ([]om.Case, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("recorder is closed")
	}
	return readCases(ctx, s.sqlDB, s.run.ID)
}

// Close releases the database.
func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.sqlDB = nil
	return err
}

// ReadRuns lists the runs stored at path, oldest first.
func ReadRuns(ctx context.Context, path string) ([]Run, error) {
	sqlDB, err := openExisting(path)
	if err != nil {
		return nil, err
	}
	defer sqlDB.Close()

	rows, err := sqlDB.QueryContext(ctx, `SELECT id, name, started_at FROM runs ORDER BY started_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &r.Name, &started); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReadCases returns the cases of one run stored at path.
func ReadCases(ctx context.Context, path, runID string) ([]om.Case, error) {
	sqlDB, err := openExisting(path)
	if err != nil {
		return nil, err
	}
	defer sqlDB.Close()
	return readCases(ctx, sqlDB, runID)
}

func openExisting(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("recorder database: %w", err)
	}
	sqlDB, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	return sqlDB, nil
}

func readCases(ctx context.Context, sqlDB *sql.DB, runID string) ([]om.Case, error) {
	rows, err := sqlDB.QueryContext(ctx, `
SELECT c.id, c.iteration, c.name, c.recorded_at, v.variable, v.value
FROM cases c
LEFT JOIN case_values v ON v.case_id = c.id
WHERE c.run_id = ?
ORDER BY c.id, v.variable
`, runID)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	defer rows.Close()

	var out []om.Case
	lastID := int64(-1)
	for rows.Next() {
		var (
			id, recorded int64
			iteration    int
			name         string
			variable     sql.NullString
			blob         []byte
		)
		if err := rows.Scan(&id, &iteration, &name, &recorded, &variable, &blob); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		if id != lastID {
			out = append(out, om.Case{
				Name:      name,
				Iteration: iteration,
				Timestamp: time.UnixMilli(recorded).UTC(),
				Outputs:   make(map[string][]float64),
			})
			lastID = id
		}
		if !variable.Valid {
			continue
		}
		var vals []float64
		if err := msgpack.Unmarshal(blob, &vals); err != nil {
			return nil, fmt.Errorf("decode '%s': %w", variable.String, err)
		}
		out[len(out)-1].Outputs[variable.String] = vals
	}
	return out, rows.Err()
}
