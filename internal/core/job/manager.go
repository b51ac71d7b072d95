package job

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shortfactory/shortfactory/internal/core/event"
	"github.com/shortfactory/shortfactory/internal/core/workflow"
	"github.com/shortfactory/shortfactory/internal/database"
)

// Manager is the persistence gateway. Every job mutation flows through
// Record, which upserts the topic/script/job trio and emits exactly one
// state-change notification after a successful persist.
type Manager struct {
	store database.Store
	bus   event.Bus
}

func NewManager(store database.Store, bus event.Bus) *Manager {
	return &Manager{store: store, bus: bus}
}

// TopicID derives the synthetic topic row id from the topic text:
// lower-cased, whitespace collapsed to underscores.
func TopicID(topic string) string {
	fields := strings.Fields(strings.ToLower(topic))
	if len(fields) == 0 {
		return "topic_default"
	}
	return "topic_" + strings.Join(fields, "_")
}

// Record persists the job's current state. Persistence failures are logged
// and swallowed so a step never fails because the durable record lagged;
// in that case no notification is emitted and the durable state may fall
// behind the in-memory job until the next persist.
func (m *Manager) Record(ctx context.Context, j *workflow.Job) {
	m.RecordScript(ctx, j, nil)
}

// RecordScript is Record plus the full script payload, archived into the
// scripts table the first time the job carries a script id.
func (m *Manager) RecordScript(ctx context.Context, j *workflow.Job, rawScript []byte) {
	// updatedAt orders a job's transitions, so it must advance on every
	// persist even when the clock is too coarse to tick between two calls.
	now := time.Now()
	if !now.After(j.UpdatedAt) {
		now = j.UpdatedAt.Add(time.Nanosecond)
	}
	j.UpdatedAt = now
	log.Info().Str("job_id", j.ID).Str("state", string(j.State)).Msg("state")

	topicID := TopicID(j.Topic)

	topic := j.Topic
	if topic == "" {
		topic = "Unknown Topic"
	}
	if err := m.store.UpsertTopic(ctx, database.TopicRecord{ID: topicID, Content: topic}); err != nil {
		log.Warn().Err(err).Str("job_id", j.ID).Msg("failed to persist topic")
		return
	}

	if j.ScriptID != "" {
		if err := m.store.UpsertScript(ctx, database.ScriptRecord{
			ID:      j.ScriptID,
			TopicID: topicID,
			Title:   topic,
			RawJSON: rawScript,
		}); err != nil {
			log.Warn().Err(err).Str("job_id", j.ID).Str("script_id", j.ScriptID).Msg("failed to persist script")
			return
		}
	}

	errMsg := ""
	if j.Error != nil {
		errMsg = j.Error.Message
	}
	if err := m.store.UpsertJob(ctx, database.JobRecord{
		ID:           j.ID,
		ScriptID:     j.ScriptID,
		Status:       j.State.Status(),
		State:        j.State,
		ErrorMessage: errMsg,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}); err != nil {
		log.Warn().Err(err).Str("job_id", j.ID).Msg("failed to persist job state")
		return
	}

	m.bus.Publish(ctx, event.Event{
		Type: event.EventStateChanged,
		Payload: event.StateChange{
			JobID:     j.ID,
			Status:    j.State.Status(),
			State:     j.State,
			UpdatedAt: j.UpdatedAt,
		},
	})
}

// GetJob loads the durable view of a job.
func (m *Manager) GetJob(ctx context.Context, jobID string) (*database.JobRecord, error) {
	return m.store.GetJob(ctx, jobID)
}

// GetScript loads an archived script row.
func (m *Manager) GetScript(ctx context.Context, scriptID string) (*database.ScriptRecord, error) {
	return m.store.GetScript(ctx, scriptID)
}
