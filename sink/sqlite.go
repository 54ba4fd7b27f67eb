package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lucasmaystre/spentfuelgpr/gpr"

	_ "modernc.org/sqlite"
)

// SQLiteSink keeps the history of prediction runs in a SQLite database.
type SQLiteSink struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteSink(path string) *SQLiteSink {
	return &SQLiteSink{path: path}
}

func (s *SQLiteSink) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sink: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			enrichment REAL NOT NULL,
			temperature REAL NOT NULL,
			power_output REAL NOT NULL,
			burnup REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS masses (
			run_id TEXT NOT NULL REFERENCES runs(id),
			isotope TEXT NOT NULL,
			mass REAL NOT NULL,
			PRIMARY KEY (run_id, isotope)
		)`,
		`CREATE TABLE IF NOT EXISTS materials (
			run_id TEXT NOT NULL REFERENCES runs(id),
			nuclide TEXT NOT NULL,
			mass REAL NOT NULL,
			PRIMARY KEY (run_id, nuclide)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteSink) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sink: sqlite sink is not initialized")
	}
	return s.db, nil
}

func (s *SQLiteSink) Write(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id := rec.RunID.String()
	q := rec.Query
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, enrichment, temperature, power_output, burnup)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			enrichment = excluded.enrichment,
			temperature = excluded.temperature,
			power_output = excluded.power_output,
			burnup = excluded.burnup
	`, id, rec.CreatedAt.UTC().Format(time.RFC3339Nano), q.Enrichment, q.Temperature, q.PowerOutput, q.Burnup); err != nil {
		return err
	}
	for iso, mass := range rec.Composition {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO masses (run_id, isotope, mass) VALUES (?, ?, ?)
			ON CONFLICT(run_id, isotope) DO UPDATE SET mass = excluded.mass
		`, id, iso.String(), mass); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM materials WHERE run_id = ?`, id); err != nil {
		return err
	}
	for nuc, mass := range rec.Material {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO materials (run_id, nuclide, mass) VALUES (?, ?, ?)
		`, id, nuc, mass); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get returns the run with the given id.
func (s *SQLiteSink) Get(ctx context.Context, id uuid.UUID) (Record, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Record{}, false, err
	}

	rec := Record{RunID: id}
	var created string
	err = db.QueryRowContext(ctx, `
		SELECT created_at, enrichment, temperature, power_output, burnup FROM runs WHERE id = ?
	`, id.String()).Scan(&created, &rec.Query.Enrichment, &rec.Query.Temperature, &rec.Query.PowerOutput, &rec.Query.Burnup)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Record{}, false, fmt.Errorf("sink: run %s: %w", id, err)
	}

	rec.Composition = make(gpr.Composition, len(gpr.Isotopes))
	if err := s.scanMasses(ctx, db, `SELECT isotope, mass FROM masses WHERE run_id = ?`, id, func(k string, v float64) {
		rec.Composition[gpr.Isotope(k)] = v
	}); err != nil {
		return Record{}, false, err
	}
	if err := s.scanMasses(ctx, db, `SELECT nuclide, mass FROM materials WHERE run_id = ?`, id, func(k string, v float64) {
		if rec.Material == nil {
			rec.Material = make(map[string]float64)
		}
		rec.Material[k] = v
	}); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *SQLiteSink) scanMasses(ctx context.Context, db *sql.DB, query string, id uuid.UUID, fn func(string, float64)) error {
	rows, err := db.QueryContext(ctx, query, id.String())
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var mass float64
		if err := rows.Scan(&key, &mass); err != nil {
			return err
		}
		fn(key, mass)
	}
	return rows.Err()
}

func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
