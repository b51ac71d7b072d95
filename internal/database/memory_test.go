package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shortfactory/shortfactory/internal/core/workflow"
)

func TestUpsertTopicIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := TopicRecord{ID: "topic_space_facts", Content: "Space Facts"}
	if err := store.UpsertTopic(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.UpsertTopic(ctx, TopicRecord{ID: "topic_space_facts", Content: "changed"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	// Existing row wins.
	store.mu.RLock()
	got := store.topics["topic_space_facts"]
	store.mu.RUnlock()
	if got.Content != "Space Facts" {
		t.Errorf("topic content = %q, want original", got.Content)
	}
}

func TestUpsertScriptIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.UpsertScript(ctx, ScriptRecord{ID: "script_1", Title: "Original", RawJSON: []byte(`{"id":"script_1"}`)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.UpsertScript(ctx, ScriptRecord{ID: "script_1", Title: "Changed"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rec, err := store.GetScript(ctx, "script_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Title != "Original" || len(rec.RawJSON) == 0 {
		t.Errorf("script = %+v, want original preserved", rec)
	}
}

func TestUpsertJobRefreshesState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	created := time.Now().Add(-time.Minute)

	if err := store.UpsertJob(ctx, JobRecord{
		ID:        "wf_1",
		Status:    workflow.StatusPending,
		State:     workflow.StateIdle,
		CreatedAt: created,
		UpdatedAt: created,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := store.UpsertJob(ctx, JobRecord{
		ID:        "wf_1",
		ScriptID:  "script_1",
		Status:    workflow.StatusProcessing,
		State:     workflow.StateGeneratingScript,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	rec, err := store.GetJob(ctx, "wf_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.State != workflow.StateGeneratingScript || rec.ScriptID != "script_1" {
		t.Errorf("job = %+v", rec)
	}
	if !rec.CreatedAt.Equal(created) {
		t.Error("created_at not preserved across upserts")
	}

	// Later upserts without a script id keep the existing linkage.
	if err := store.UpsertJob(ctx, JobRecord{
		ID:     "wf_1",
		Status: workflow.StatusProcessing,
		State:  workflow.StateAssemblingVideo,
	}); err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	rec, _ = store.GetJob(ctx, "wf_1")
	if rec.ScriptID != "script_1" {
		t.Errorf("script linkage lost: %q", rec.ScriptID)
	}
}

func TestGetNotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetJob(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJob error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetScript(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetScript error = %v, want ErrNotFound", err)
	}
}

func TestListJobsFilterAndPaginate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	seed := []JobRecord{
		{ID: "wf_1", Status: workflow.StatusCompleted, CreatedAt: base.Add(1 * time.Second)},
		{ID: "wf_2", Status: workflow.StatusFailed, CreatedAt: base.Add(2 * time.Second)},
		{ID: "wf_3", Status: workflow.StatusCompleted, CreatedAt: base.Add(3 * time.Second)},
		{ID: "wf_4", Status: workflow.StatusProcessing, CreatedAt: base.Add(4 * time.Second)},
	}
	for _, j := range seed {
		if err := store.UpsertJob(ctx, j); err != nil {
			t.Fatalf("seed %s: %v", j.ID, err)
		}
	}

	all, err := store.ListJobs(ctx, 10, 0, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].ID != "wf_4" {
		t.Errorf("list = %v, want newest first", ids(all))
	}

	completed, err := store.ListJobs(ctx, 10, 0, workflow.StatusCompleted)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(completed) != 2 || completed[0].ID != "wf_3" {
		t.Errorf("completed = %v", ids(completed))
	}

	page, err := store.ListJobs(ctx, 2, 1, "")
	if err != nil {
		t.Fatalf("paged list: %v", err)
	}
	if len(page) != 2 || page[0].ID != "wf_3" || page[1].ID != "wf_2" {
		t.Errorf("page = %v", ids(page))
	}

	empty, err := store.ListJobs(ctx, 10, 100, "")
	if err != nil {
		t.Fatalf("offset past end: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("offset past end returned %d rows", len(empty))
	}
}

func TestCountByStatus(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seed := []workflow.Status{
		workflow.StatusPending,
		workflow.StatusProcessing,
		workflow.StatusProcessing,
		workflow.StatusCompleted,
		workflow.StatusFailed,
	}
	for i, status := range seed {
		if err := store.UpsertJob(ctx, JobRecord{ID: string(rune('a' + i)), Status: status}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	want := StatusCounts{Total: 5, Pending: 1, Processing: 2, Completed: 1, Failed: 1}
	if counts != want {
		t.Errorf("counts = %+v, want %+v", counts, want)
	}
}

func ids(recs []JobRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
