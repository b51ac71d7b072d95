package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shortfactory/shortfactory/internal/core/objectstore"
	"github.com/shortfactory/shortfactory/internal/core/workflow"
)

// Each step executor advances the job state, persists it before the
// expensive external call, performs the call, and records the resulting
// identifier on the job.

func (s *WorkflowService) generateScriptStep(ctx context.Context, j *workflow.Job) (*workflow.Script, error) {
	if err := j.Transition(workflow.StateGeneratingScript); err != nil {
		return nil, err
	}
	s.jobs.Record(ctx, j)

	topic := j.Topic
	if topic == "" {
		topic = "Unknown"
	}
	script, err := s.scripts.GenerateScript(ctx, topic, s.opts)
	if err != nil {
		return nil, err
	}

	j.ScriptID = script.ID

	key := objectstore.ScriptKey(script.ID)
	if _, err := s.store.UploadJSON(ctx, s.outputBucket, key, script); err != nil {
		return nil, fmt.Errorf("archive script: %w", err)
	}
	log.Info().Str("job_id", j.ID).Str("key", key).Msg("script archived")

	return script, nil
}

func (s *WorkflowService) assembleVideoStep(ctx context.Context, j *workflow.Job, script *workflow.Script) (*workflow.VideoMetadata, error) {
	if err := j.Transition(workflow.StateAssemblingVideo); err != nil {
		return nil, err
	}
	s.jobs.Record(ctx, j)

	meta, err := s.videos.GenerateVideo(ctx, script, s.outputBucket, objectstore.VideoKey(script.ID))
	if err != nil {
		return nil, err
	}

	j.VideoID = meta.ID
	return meta, nil
}

func (s *WorkflowService) finalizeWorkflowStep(ctx context.Context, j *workflow.Job, meta *workflow.VideoMetadata) error {
	if err := j.Transition(workflow.StateCompleted); err != nil {
		return err
	}
	s.jobs.Record(ctx, j)

	rec := workflow.CompletionRecord{
		Timestamp:  time.Now(),
		WorkflowID: j.ID,
		Topic:      j.Topic,
		Status:     workflow.StatusCompleted,
		VideoURL:   meta.OutputURL,
		Duration:   meta.Duration,
		FileSize:   meta.FileSize,
	}

	// Completion logging is fire-and-forget with a bounded retry. It must
	// never fail the workflow or hold up the caller.
	go s.logCompletion(context.WithoutCancel(ctx), rec)

	return nil
}

const completionLogAttempts = 3

func (s *WorkflowService) logCompletion(ctx context.Context, rec workflow.CompletionRecord) {
	var err error
	for attempt := 1; attempt <= completionLogAttempts; attempt++ {
		if err = s.sink.LogData(ctx, rec); err == nil {
			return
		}
		log.Warn().Err(err).
			Str("job_id", rec.WorkflowID).
			Int("attempt", attempt).
			Msg("completion logging failed")
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	log.Warn().Str("job_id", rec.WorkflowID).Msg("completion record dropped")
}

// StepScript runs only the script-generation stage against a brand-new
// job, for the manual dashboard flow. The job is left in
// GENERATING_SCRIPT with its script id persisted.
func (s *WorkflowService) StepScript(ctx context.Context, topic string) (*workflow.Job, *workflow.Script, error) {
	j := workflow.NewJob(topic)
	s.jobs.Record(ctx, j)

	script, err := s.generateScriptStep(ctx, j)
	if err != nil {
		return j, nil, s.fail(ctx, j, err)
	}

	raw, _ := json.Marshal(script)
	s.jobs.RecordScript(ctx, j, raw)

	return j, script, nil
}

// StepVideo runs only the video-assembly stage against a reconstructed
// partial job context, given a job that already has a generated script.
func (s *WorkflowService) StepVideo(ctx context.Context, jobID, scriptID string) (*workflow.Job, *workflow.VideoMetadata, error) {
	j, err := s.reconstructJob(ctx, jobID, scriptID)
	if err != nil {
		return nil, nil, err
	}

	script := s.loadScript(ctx, scriptID, j.Topic)

	meta, err := s.assembleVideoStep(ctx, j, script)
	if err != nil {
		return j, nil, s.fail(ctx, j, err)
	}

	s.jobs.Record(ctx, j)
	return j, meta, nil
}

// StepFinalize runs only the finalization stage against a reconstructed
// partial job context.
func (s *WorkflowService) StepFinalize(ctx context.Context, jobID, videoID string) (*workflow.Job, error) {
	rec, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	if rec.State.Terminal() {
		return nil, fmt.Errorf("job %s already reached %s", jobID, rec.State)
	}

	j := &workflow.Job{
		ID:        rec.ID,
		State:     rec.State,
		Topic:     s.topicForJob(ctx, rec.ScriptID),
		ScriptID:  rec.ScriptID,
		VideoID:   videoID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}

	if err := s.finalizeWorkflowStep(ctx, j, &workflow.VideoMetadata{ID: videoID}); err != nil {
		return j, s.fail(ctx, j, err)
	}
	return j, nil
}

// reconstructJob rebuilds the minimal in-memory job for a stepwise call.
func (s *WorkflowService) reconstructJob(ctx context.Context, jobID, scriptID string) (*workflow.Job, error) {
	rec, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	if rec.State.Terminal() {
		return nil, fmt.Errorf("job %s already reached %s", jobID, rec.State)
	}
	if scriptID == "" {
		scriptID = rec.ScriptID
	}
	if scriptID == "" {
		return nil, fmt.Errorf("job %s has no generated script", jobID)
	}

	return &workflow.Job{
		ID:        rec.ID,
		State:     rec.State,
		Topic:     s.topicForJob(ctx, scriptID),
		ScriptID:  scriptID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// loadScript recovers the archived script payload, degrading to a minimal
// value when the archive row is missing or unreadable.
func (s *WorkflowService) loadScript(ctx context.Context, scriptID, topic string) *workflow.Script {
	rec, err := s.jobs.GetScript(ctx, scriptID)
	if err == nil && len(rec.RawJSON) > 0 {
		var script workflow.Script
		if err := json.Unmarshal(rec.RawJSON, &script); err == nil && script.ID != "" {
			return &script
		}
	}
	return &workflow.Script{ID: scriptID, Topic: topic, Title: topic}
}
