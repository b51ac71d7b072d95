package database

import (
	"context"
	"errors"
	"time"

	"github.com/shortfactory/shortfactory/internal/core/workflow"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// TopicRecord is a topic row. Its id is derived from the normalized topic
// text, so repeated workflows on the same topic share one row.
type TopicRecord struct {
	ID        string
	Content   string
	CreatedAt time.Time
}

// ScriptRecord is a generated-script row. RawJSON holds the full script
// payload as returned by the AI service.
type ScriptRecord struct {
	ID        string
	TopicID   string
	Title     string
	RawJSON   []byte
	CreatedAt time.Time
}

// JobRecord is the durable view of a workflow job.
type JobRecord struct {
	ID           string
	ScriptID     string
	Status       workflow.Status
	State        workflow.State
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StatusCounts aggregates jobs per external status.
type StatusCounts struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// Store is the upsert-by-id contract the persistence gateway builds on.
// Upserts of topics and scripts are idempotent: a second upsert with the
// same id leaves the existing row untouched. Job upserts refresh status,
// state, script linkage, error message, and updated_at.
type Store interface {
	UpsertTopic(ctx context.Context, t TopicRecord) error
	UpsertScript(ctx context.Context, s ScriptRecord) error
	UpsertJob(ctx context.Context, j JobRecord) error

	GetJob(ctx context.Context, id string) (*JobRecord, error)
	GetScript(ctx context.Context, id string) (*ScriptRecord, error)
	ListJobs(ctx context.Context, limit, offset int32, status workflow.Status) ([]JobRecord, error)
	ListScripts(ctx context.Context, limit, offset int32) ([]ScriptRecord, error)
	CountByStatus(ctx context.Context) (StatusCounts, error)
}
