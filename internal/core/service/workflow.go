package service

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shortfactory/shortfactory/internal/core/job"
	"github.com/shortfactory/shortfactory/internal/core/objectstore"
	"github.com/shortfactory/shortfactory/internal/core/workflow"
)

// ScriptGenerator produces a structured script for a topic.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, topic string, opts workflow.ScriptOptions) (*workflow.Script, error)
	Health(ctx context.Context) bool
}

// VideoRenderer renders a script into a video at an output location.
type VideoRenderer interface {
	GenerateVideo(ctx context.Context, script *workflow.Script, outputBucket, outputKey string) (*workflow.VideoMetadata, error)
	Health(ctx context.Context) bool
}

// ObjectStore is the subset of blob operations the pipeline needs.
type ObjectStore interface {
	UploadJSON(ctx context.Context, bucket, key string, v any) (objectstore.Asset, error)
	List(ctx context.Context, bucket, prefix string) ([]objectstore.Asset, error)
}

// CompletionLogger is the best-effort completion sink.
type CompletionLogger interface {
	LogData(ctx context.Context, rec workflow.CompletionRecord) error
}

// WorkflowService runs the video generation pipeline. One instance is
// built at startup and reused across requests; each invocation owns its
// own job, so concurrent workflows never share mutable state.
type WorkflowService struct {
	jobs    *job.Manager
	scripts ScriptGenerator
	videos  VideoRenderer
	store   ObjectStore
	sink    CompletionLogger

	outputBucket  string
	opts          workflow.ScriptOptions
	healthTimeout time.Duration
}

func NewWorkflowService(
	jobs *job.Manager,
	scripts ScriptGenerator,
	videos VideoRenderer,
	store ObjectStore,
	sink CompletionLogger,
	outputBucket string,
	opts workflow.ScriptOptions,
	healthTimeout time.Duration,
) *WorkflowService {
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	return &WorkflowService{
		jobs:          jobs,
		scripts:       scripts,
		videos:        videos,
		store:         store,
		sink:          sink,
		outputBucket:  outputBucket,
		opts:          opts,
		healthTimeout: healthTimeout,
	}
}

// ExecuteWorkflow runs the full pipeline for a topic. On any step failure
// the job is marked FAILED, persisted, and a WorkflowError carrying the
// failing state is returned alongside the failed job.
func (s *WorkflowService) ExecuteWorkflow(ctx context.Context, topic string) (*workflow.Job, error) {
	j := workflow.NewJob(topic)
	log.Info().Str("job_id", j.ID).Str("topic", topic).Msg("starting workflow")
	s.jobs.Record(ctx, j)

	if err := s.runPipeline(ctx, j); err != nil {
		return j, s.fail(ctx, j, err)
	}

	log.Info().Str("job_id", j.ID).Msg("workflow completed")
	return j, nil
}

func (s *WorkflowService) runPipeline(ctx context.Context, j *workflow.Job) error {
	// 1. Generate script
	script, err := s.generateScriptStep(ctx, j)
	if err != nil {
		return err
	}

	// 2. Download assets. The video engine fetches its own assets today,
	// so this stage only records progress for the dashboards.
	if err := j.Transition(workflow.StateDownloadingAssets); err != nil {
		return err
	}
	raw, _ := json.Marshal(script)
	s.jobs.RecordScript(ctx, j, raw)

	// 3. Assemble video
	meta, err := s.assembleVideoStep(ctx, j, script)
	if err != nil {
		return err
	}

	// 4. Finalize
	return s.finalizeWorkflowStep(ctx, j, meta)
}

// fail records the FAILED state and wraps the cause. Persistence problems
// during failure recording are swallowed by the gateway, so reporting the
// failure can itself never fail.
func (s *WorkflowService) fail(ctx context.Context, j *workflow.Job, cause error) error {
	failedAt := j.State
	j.Fail(cause, string(debug.Stack()))
	s.jobs.Record(ctx, j)

	log.Error().Err(cause).Str("job_id", j.ID).Str("state", string(failedAt)).Msg("workflow failed")
	return &workflow.WorkflowError{State: failedAt, Err: cause}
}

// Retry restarts a FAILED workflow from scratch. The new run gets a fresh
// job id; the original job stays FAILED. Concurrent retries of the same
// job id are not serialized and may spawn competing workflows.
func (s *WorkflowService) Retry(ctx context.Context, jobID string) (*workflow.Job, error) {
	rec, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}

	if rec.Status != workflow.StatusFailed {
		return nil, fmt.Errorf("job %s is not retryable: status is %s", jobID, rec.Status)
	}

	topic := s.topicForJob(ctx, rec.ScriptID)
	log.Info().Str("job_id", jobID).Str("topic", topic).Msg("retrying workflow as a new run")

	return s.ExecuteWorkflow(ctx, topic)
}

// topicForJob recovers the original topic through the job's linked script,
// falling back to a placeholder when the linkage is broken.
func (s *WorkflowService) topicForJob(ctx context.Context, scriptID string) string {
	if scriptID == "" {
		return "Unknown Topic"
	}
	rec, err := s.jobs.GetScript(ctx, scriptID)
	if err != nil {
		return "Unknown Topic"
	}

	var payload struct {
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal(rec.RawJSON, &payload); err == nil && payload.Topic != "" {
		return payload.Topic
	}
	if rec.Title != "" {
		return rec.Title
	}
	return "Unknown Topic"
}

// HealthStatus reports the availability of each external collaborator.
type HealthStatus struct {
	AILogic     bool `json:"aiLogic"`
	VideoEngine bool `json:"videoEngine"`
	Storage     bool `json:"storage"`
}

// HealthCheck probes the three collaborators concurrently. Probe failures
// map to false; the check itself never fails.
func (s *WorkflowService) HealthCheck(ctx context.Context) HealthStatus {
	var status HealthStatus
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		status.AILogic = s.scripts.Health(ctx)
	}()
	go func() {
		defer wg.Done()
		status.VideoEngine = s.videos.Health(ctx)
	}()
	go func() {
		defer wg.Done()
		// The HTTP clients bound their own probes; the listing needs the
		// same deadline so a hung storage endpoint cannot stall the check.
		listCtx, cancel := context.WithTimeout(ctx, s.healthTimeout)
		defer cancel()
		_, err := s.store.List(listCtx, s.outputBucket, "")
		status.Storage = err == nil
	}()

	wg.Wait()
	return status
}
