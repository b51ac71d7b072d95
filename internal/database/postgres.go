package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shortfactory/shortfactory/internal/core/workflow"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) UpsertTopic(ctx context.Context, t TopicRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO topics (id, content, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO NOTHING
	`, t.ID, t.Content)
	if err != nil {
		return fmt.Errorf("upsert topic: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertScript(ctx context.Context, sc ScriptRecord) error {
	raw := sc.RawJSON
	if len(raw) == 0 {
		raw = []byte(`{}`)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scripts (id, topic_id, title, raw_json, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO NOTHING
	`, sc.ID, sc.TopicID, sc.Title, raw)
	if err != nil {
		return fmt.Errorf("upsert script: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertJob(ctx context.Context, j JobRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO video_jobs (id, script_id, status, state, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			script_id     = CASE WHEN EXCLUDED.script_id <> '' THEN EXCLUDED.script_id ELSE video_jobs.script_id END,
			status        = EXCLUDED.status,
			state         = EXCLUDED.state,
			error_message = EXCLUDED.error_message,
			updated_at    = EXCLUDED.updated_at
	`, j.ID, j.ScriptID, string(j.Status), string(j.State), j.ErrorMessage, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*JobRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, script_id, status, state, error_message, created_at, updated_at
		FROM video_jobs WHERE id = $1
	`, id)

	var j JobRecord
	var status, state string
	err := row.Scan(&j.ID, &j.ScriptID, &status, &state, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	j.Status = workflow.Status(status)
	j.State = workflow.State(state)
	return &j, nil
}

func (s *PostgresStore) GetScript(ctx context.Context, id string) (*ScriptRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, topic_id, title, raw_json, created_at
		FROM scripts WHERE id = $1
	`, id)

	var sc ScriptRecord
	err := row.Scan(&sc.ID, &sc.TopicID, &sc.Title, &sc.RawJSON, &sc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get script: %w", err)
	}
	return &sc, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, limit, offset int32, status workflow.Status) ([]JobRecord, error) {
	query := `
		SELECT id, script_id, status, state, error_message, created_at, updated_at
		FROM video_jobs
	`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, string(status), limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		var j JobRecord
		var st, state string
		if err := rows.Scan(&j.ID, &j.ScriptID, &st, &state, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Status = workflow.Status(st)
		j.State = workflow.State(state)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) ListScripts(ctx context.Context, limit, offset int32) ([]ScriptRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, topic_id, title, raw_json, created_at
		FROM scripts ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	defer rows.Close()

	var scripts []ScriptRecord
	for rows.Next() {
		var sc ScriptRecord
		if err := rows.Scan(&sc.ID, &sc.TopicID, &sc.Title, &sc.RawJSON, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan script: %w", err)
		}
		scripts = append(scripts, sc)
	}
	return scripts, rows.Err()
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (StatusCounts, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM video_jobs GROUP BY status`)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	var counts StatusCounts
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return StatusCounts{}, fmt.Errorf("scan count: %w", err)
		}
		counts.Total += n
		switch workflow.Status(status) {
		case workflow.StatusPending:
			counts.Pending = n
		case workflow.StatusProcessing:
			counts.Processing = n
		case workflow.StatusCompleted:
			counts.Completed = n
		case workflow.StatusFailed:
			counts.Failed = n
		}
	}
	return counts, rows.Err()
}
