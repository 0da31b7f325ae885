// Package persistence stores completed runs in PostgreSQL. History is an
// optional boundary: the pipeline works identically without it, and a save
// failure never fails a run.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/convictionlabs/thesisrun/internal/application"
)

const defaultTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          UUID PRIMARY KEY,
	thesis          TEXT NOT NULL,
	budget          NUMERIC(14,2) NOT NULL,
	recommendations JSONB NOT NULL,
	gaps            JSONB,
	started_at      TIMESTAMPTZ NOT NULL,
	completed_at    TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at DESC);`

// RunsRepo is the PostgreSQL run-history repository.
type RunsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Open connects to the DSN, ensures the schema, and returns a repository.
func Open(dsn string) (*RunsRepo, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect run history: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure runs schema: %w", err)
	}
	return NewRunsRepo(db, defaultTimeout), nil
}

// NewRunsRepo wraps an existing connection.
func NewRunsRepo(db *sqlx.DB, timeout time.Duration) *RunsRepo {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RunsRepo{db: db, timeout: timeout}
}

// SaveRun records one completed run.
func (r *RunsRepo) SaveRun(ctx context.Context, result *application.RunResult) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	recsJSON, err := json.Marshal(result.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	gapsJSON, err := json.Marshal(result.Gaps)
	if err != nil {
		return fmt.Errorf("marshal gaps: %w", err)
	}

	query := `
		INSERT INTO runs (run_id, thesis, budget, recommendations, gaps, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.ExecContext(ctx, query,
		result.RunID, result.Thesis, result.Budget,
		recsJSON, gapsJSON, result.StartedAt, result.CompletedAt); err != nil {
		return fmt.Errorf("insert run %s: %w", result.RunID, err)
	}
	return nil
}

// runRow is the scan target for history queries.
type runRow struct {
	RunID           string    `db:"run_id"`
	Thesis          string    `db:"thesis"`
	Budget          float64   `db:"budget"`
	Recommendations []byte    `db:"recommendations"`
	Gaps            []byte    `db:"gaps"`
	StartedAt       time.Time `db:"started_at"`
	CompletedAt     time.Time `db:"completed_at"`
}

// RecentRuns returns the newest runs, most recent first.
func (r *RunsRepo) RecentRuns(ctx context.Context, limit int) ([]application.RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	var rows []runRow
	query := `
		SELECT run_id, thesis, budget, recommendations, gaps, started_at, completed_at
		FROM runs ORDER BY started_at DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}

	results := make([]application.RunResult, 0, len(rows))
	for _, row := range rows {
		result := application.RunResult{
			RunID:       row.RunID,
			Thesis:      row.Thesis,
			Budget:      row.Budget,
			StartedAt:   row.StartedAt,
			CompletedAt: row.CompletedAt,
		}
		if err := json.Unmarshal(row.Recommendations, &result.Recommendations); err != nil {
			return nil, fmt.Errorf("decode recommendations for %s: %w", row.RunID, err)
		}
		if len(row.Gaps) > 0 {
			if err := json.Unmarshal(row.Gaps, &result.Gaps); err != nil {
				return nil, fmt.Errorf("decode gaps for %s: %w", row.RunID, err)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// Close releases the underlying connection pool.
func (r *RunsRepo) Close() error {
	return r.db.Close()
}
