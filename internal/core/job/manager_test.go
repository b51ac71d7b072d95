package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shortfactory/shortfactory/internal/core/event"
	"github.com/shortfactory/shortfactory/internal/core/workflow"
	"github.com/shortfactory/shortfactory/internal/database"
)

func TestTopicID(t *testing.T) {
	cases := map[string]string{
		"Space Facts":        "topic_space_facts",
		"  Deep   Ocean  ":   "topic_deep_ocean",
		"single":             "topic_single",
		"MIXED Case Words":   "topic_mixed_case_words",
		"":                   "topic_default",
		"   ":                "topic_default",
		"tabs\tand\nbreaks":  "topic_tabs_and_breaks",
	}

	for topic, want := range cases {
		if got := TopicID(topic); got != want {
			t.Errorf("TopicID(%q) = %q, want %q", topic, got, want)
		}
	}
}

func TestRecordPersistsTrioAndEmitsOnce(t *testing.T) {
	store := database.NewMemoryStore()
	bus := event.NewBus()

	var events []event.Event
	bus.Subscribe(event.EventStateChanged, func(_ context.Context, e event.Event) error {
		events = append(events, e)
		return nil
	})

	m := NewManager(store, bus)
	j := workflow.NewJob("Space Facts")
	j.ScriptID = "script_1"

	m.RecordScript(context.Background(), j, []byte(`{"id":"script_1","topic":"Space Facts"}`))

	rec, err := store.GetJob(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if rec.State != workflow.StateIdle || rec.Status != workflow.StatusPending {
		t.Errorf("job record = %+v", rec)
	}
	if rec.ScriptID != "script_1" {
		t.Errorf("script linkage = %q", rec.ScriptID)
	}

	script, err := store.GetScript(context.Background(), "script_1")
	if err != nil {
		t.Fatalf("script not persisted: %v", err)
	}
	if script.TopicID != "topic_space_facts" || len(script.RawJSON) == 0 {
		t.Errorf("script record = %+v", script)
	}

	if len(events) != 1 {
		t.Fatalf("emitted %d events, want 1", len(events))
	}
	change := events[0].Payload.(event.StateChange)
	if change.JobID != j.ID || change.State != workflow.StateIdle || change.Status != workflow.StatusPending {
		t.Errorf("state change = %+v", change)
	}
}

func TestRecordWithoutScriptSkipsScriptRow(t *testing.T) {
	store := database.NewMemoryStore()
	m := NewManager(store, event.NewBus())

	j := workflow.NewJob("Space Facts")
	m.Record(context.Background(), j)

	if _, err := store.GetJob(context.Background(), j.ID); err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if _, err := store.GetScript(context.Background(), ""); !errors.Is(err, database.ErrNotFound) {
		t.Error("unexpected script row for job without script")
	}
}

// failingStore rejects job upserts to exercise the swallow-and-skip path.
type failingStore struct {
	*database.MemoryStore
}

func (s *failingStore) UpsertJob(_ context.Context, _ database.JobRecord) error {
	return errors.New("connection reset")
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	store := &failingStore{MemoryStore: database.NewMemoryStore()}
	bus := event.NewBus()

	emitted := 0
	bus.Subscribe(event.EventStateChanged, func(_ context.Context, _ event.Event) error {
		emitted++
		return nil
	})

	m := NewManager(store, bus)
	j := workflow.NewJob("Space Facts")

	// Must not panic or propagate, and must not emit.
	m.Record(context.Background(), j)

	if emitted != 0 {
		t.Errorf("emitted %d events after failed persist, want 0", emitted)
	}
}

func TestRecordAdvancesUpdatedAt(t *testing.T) {
	store := database.NewMemoryStore()
	m := NewManager(store, event.NewBus())
	ctx := context.Background()

	j := workflow.NewJob("Space Facts")
	m.Record(ctx, j)
	first := j.UpdatedAt

	m.Record(ctx, j)
	if !j.UpdatedAt.After(first) {
		t.Errorf("updatedAt did not advance: %v -> %v", first, j.UpdatedAt)
	}

	// Even when the wall clock has not moved past the previous stamp.
	ahead := time.Now().Add(time.Hour)
	j.UpdatedAt = ahead
	m.Record(ctx, j)
	if !j.UpdatedAt.After(ahead) {
		t.Errorf("updatedAt regressed against a future stamp: %v -> %v", ahead, j.UpdatedAt)
	}
}

func TestRecordFailedJobCarriesErrorMessage(t *testing.T) {
	store := database.NewMemoryStore()
	m := NewManager(store, event.NewBus())

	j := workflow.NewJob("Space Facts")
	j.Fail(errors.New("render crashed"), "")
	m.Record(context.Background(), j)

	rec, err := store.GetJob(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != workflow.StatusFailed || rec.ErrorMessage != "render crashed" {
		t.Errorf("record = %+v", rec)
	}
}
