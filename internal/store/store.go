// Package store handles SQLite persistence of the scenario workspace.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/procap/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// createdAtLayout is fixed width so created_at sorts chronologically as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

const upsertScenarioSQL = `INSERT INTO scenarios (name, mean, std, lsl, usl, target, visible, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		mean = excluded.mean,
		std = excluded.std,
		lsl = excluded.lsl,
		usl = excluded.usl,
		target = excluded.target,
		visible = excluded.visible`

// ErrNotFound is returned when a named scenario does not exist.
var ErrNotFound = errors.New("scenario not found")

// Store wraps SQLite access for scenarios.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scenarios (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			mean REAL NOT NULL,
			std REAL NOT NULL,
			lsl REAL NOT NULL,
			usl REAL NOT NULL,
			target REAL,
			visible INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scenarios_created_at ON scenarios(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveScenario inserts a scenario or replaces the one with the same name.
func (s *Store) SaveScenario(ctx context.Context, sc model.Scenario) (int64, error) {
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now()
	}
	var target any
	if sc.Target != nil {
		target = *sc.Target
	}
	_, err := s.db.ExecContext(ctx, upsertScenarioSQL,
		sc.Name,
		sc.Mean,
		sc.Std,
		sc.LSL,
		sc.USL,
		target,
		boolToInt(sc.Visible),
		formatCreatedAt(sc.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM scenarios WHERE name = ?`, sc.Name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// SaveScenarios stores all scenarios in one transaction.
func (s *Store) SaveScenarios(ctx context.Context, scenarios []model.Scenario) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	stmt, err := tx.PrepareContext(ctx, upsertScenarioSQL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	now := time.Now()
	for _, sc := range scenarios {
		var target any
		if sc.Target != nil {
			target = *sc.Target
		}
		created := sc.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err = stmt.ExecContext(ctx, sc.Name, sc.Mean, sc.Std, sc.LSL, sc.USL, target,
			boolToInt(sc.Visible), formatCreatedAt(created)); err != nil {
			return fmt.Errorf("save %q: %w", sc.Name, err)
		}
	}
	return tx.Commit()
}

// GetScenario returns the scenario with the given name.
func (s *Store) GetScenario(ctx context.Context, name string) (model.Scenario, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, mean, std, lsl, usl, target, visible, created_at
		 FROM scenarios WHERE name = ?`, name)
	sc, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Scenario{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return sc, err
}

// ListScenarios returns all scenarios ordered by creation time.
func (s *Store) ListScenarios(ctx context.Context) ([]model.Scenario, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, mean, std, lsl, usl, target, visible, created_at
		 FROM scenarios
		 ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetVisible toggles whether a scenario is included in overlays.
func (s *Store) SetVisible(ctx context.Context, name string, visible bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE scenarios SET visible = ? WHERE name = ?`, boolToInt(visible), name)
	if err != nil {
		return err
	}
	return requireAffected(res, name)
}

// DeleteScenario removes a scenario by name.
func (s *Store) DeleteScenario(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenarios WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return requireAffected(res, name)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenario(row rowScanner) (model.Scenario, error) {
	var sc model.Scenario
	var target sql.NullFloat64
	var visible int
	var createdAt string
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Mean, &sc.Std, &sc.LSL, &sc.USL, &target, &visible, &createdAt); err != nil {
		return model.Scenario{}, err
	}
	if target.Valid {
		v := target.Float64
		sc.Target = &v
	}
	sc.Visible = visible != 0
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.Scenario{}, err
	}
	sc.CreatedAt = parsed
	return sc, nil
}

func formatCreatedAt(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}

func requireAffected(res sql.Result, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
