// Package store exports resampled tracks to a SQLite database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"slgp-tracks/internal/stats"
	"slgp-tracks/internal/track"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is an open export database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("store: sqlite driver: %w", err)
	}
	// Not closed: that would close the shared *sql.DB.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migration up failed: %w", err)
	}
	return nil
}

// Version returns the applied schema version.
func (s *Store) Version() (uint, error) {
	var v uint
	err := s.db.QueryRow(`SELECT version FROM schema_migrations LIMIT 1`).Scan(&v)
	return v, err
}

// Run describes one export.
type Run struct {
	ID        uuid.UUID
	Source    string
	Dialect   string
	Version   float32
	Start     float32
	End       float32
	Steps     int
	CreatedAt time.Time
}

// Position is one resampled point of a track.
type Position struct {
	Step     int
	Time     float32
	Position [3]float32
}

// Export resamples every track of set at steps evenly spaced times over
// [run.Start, run.End] and stores them under a new run id, all in one
// transaction. The returned Run carries the assigned id.
func (s *Store) Export(ctx context.Context, run Run, set *track.Set) (Run, error) {
	if run.Steps < 1 {
		return run, fmt.Errorf("store: steps must be positive, got %d", run.Steps)
	}
	run.ID = uuid.New()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return run, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO export_run (run_id, source, dialect, version, start_time, end_time, steps) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Source, run.Dialect, run.Version, run.Start, run.End, run.Steps,
	); err != nil {
		return run, fmt.Errorf("store: insert run: %w", err)
	}

	trackStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO track (run_id, particle_id, samples, first_frame, last_frame, start_time, end_time, path_length, max_speed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return run, err
	}
	defer trackStmt.Close()

	posStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO position (run_id, particle_id, step, t, x, y, z) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return run, err
	}
	defer posStmt.Close()

	times := grid(run.Start, run.End, run.Steps)
	id := run.ID.String()
	for tr := range set.All() {
		ts := stats.ForTrack(tr)
		if _, err := trackStmt.ExecContext(ctx, id, tr.ID, ts.Samples, ts.FirstFrame, ts.LastFrame,
			ts.Start, ts.End, ts.PathLength, ts.MaxSpeed); err != nil {
			return run, fmt.Errorf("store: insert track %d: %w", tr.ID, err)
		}
		for step, t := range times {
			p := tr.At(t)
			if _, err := posStmt.ExecContext(ctx, id, tr.ID, step, t, p[0], p[1], p[2]); err != nil {
				return run, fmt.Errorf("store: insert position %d/%d: %w", tr.ID, step, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return run, fmt.Errorf("store: commit: %w", err)
	}
	return run, nil
}

func grid(start, end float32, n int) []float32 {
	times := make([]float32, n)
	for i := range times {
		if n == 1 {
			times[i] = start
			continue
		}
		times[i] = float32(float64(start) + (float64(end)-float64(start))*float64(i)/float64(n-1))
	}
	return times
}

// Runs lists exports, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source, dialect, version, start_time, end_time, steps, created_at
		 FROM export_run ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r  Run
			id string
		)
		if err := rows.Scan(&id, &r.Source, &r.Dialect, &r.Version, &r.Start, &r.End, &r.Steps, &r.CreatedAt); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("store: run id %q: %w", id, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Positions returns the resampled path of one particle in a run.
func (s *Store) Positions(ctx context.Context, runID uuid.UUID, particle uint32) ([]Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, t, x, y, z FROM position WHERE run_id = ? AND particle_id = ? ORDER BY step`,
		runID.String(), particle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.Step, &p.Time, &p.Position[0], &p.Position[1], &p.Position[2]); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a run and everything exported under it.
func (s *Store) Delete(ctx context.Context, runID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM export_run WHERE run_id = ?`, runID.String())
	return err
}
