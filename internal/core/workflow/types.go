package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the orchestrator-internal workflow state.
type State string

const (
	StateIdle              State = "IDLE"
	StateGeneratingScript  State = "GENERATING_SCRIPT"
	StateDownloadingInput  State = "DOWNLOADING_INPUT"
	StateDownloadingAssets State = "DOWNLOADING_ASSETS"
	StateAssemblingVideo   State = "ASSEMBLING_VIDEO"
	StateUploadingOutput   State = "UPLOADING_OUTPUT"
	StateCompleted         State = "COMPLETED"
	StateFailed            State = "FAILED"
)

// Status is the externally visible job status. Multiple states collapse
// onto PROCESSING.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// statusByState must stay exhaustive: every defined state maps to exactly
// one status. DOWNLOADING_INPUT and UPLOADING_OUTPUT are reserved and not
// entered by any step today, but they keep their mapping.
var statusByState = map[State]Status{
	StateIdle:              StatusPending,
	StateGeneratingScript:  StatusProcessing,
	StateDownloadingInput:  StatusProcessing,
	StateDownloadingAssets: StatusProcessing,
	StateAssemblingVideo:   StatusProcessing,
	StateUploadingOutput:   StatusProcessing,
	StateCompleted:         StatusCompleted,
	StateFailed:            StatusFailed,
}

// Status returns the external status for the state.
func (s State) Status() Status {
	if st, ok := statusByState[s]; ok {
		return st
	}
	return StatusProcessing
}

// Terminal reports whether no further transitions may be persisted.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// stageOrder fixes the forward pipeline order. Reserved states sit between
// the stages they would occupy.
var stageOrder = map[State]int{
	StateIdle:              0,
	StateGeneratingScript:  1,
	StateDownloadingInput:  2,
	StateDownloadingAssets: 3,
	StateAssemblingVideo:   4,
	StateUploadingOutput:   5,
	StateCompleted:         6,
}

// CanTransition reports whether a job may move from one state to another:
// forward along the stage order only, except that any non-terminal state may
// fail directly.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	fi, ok := stageOrder[from]
	ti, ok2 := stageOrder[to]
	return ok && ok2 && ti > fi
}

// ErrorInfo is the failure snapshot attached to a job.
type ErrorInfo struct {
	Message   string    `json:"message"`
	Stack     string    `json:"stack,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Job is one end-to-end execution producing a video from a topic.
type Job struct {
	ID        string     `json:"id"`
	State     State      `json:"state"`
	Topic     string     `json:"topic"`
	ScriptID  string     `json:"scriptId,omitempty"`
	VideoID   string     `json:"videoId,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewJob allocates a job in IDLE with a fresh id. The id combines a
// millisecond timestamp with a random suffix so concurrent invocations
// cannot collide.
func NewJob(topic string) *Job {
	now := time.Now()
	return &Job{
		ID:        fmt.Sprintf("wf_%d_%s", now.UnixMilli(), uuid.NewString()[:8]),
		State:     StateIdle,
		Topic:     topic,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the job forward. It rejects backward moves and any move
// out of a terminal state.
func (j *Job) Transition(to State) error {
	if !CanTransition(j.State, to) {
		return fmt.Errorf("invalid transition %s -> %s", j.State, to)
	}
	j.State = to
	return nil
}

// Fail marks the job FAILED with an error snapshot. No-op error snapshot
// overwrite is not allowed once terminal.
func (j *Job) Fail(cause error, stack string) {
	if j.State.Terminal() {
		return
	}
	j.State = StateFailed
	j.Error = &ErrorInfo{
		Message:   cause.Error(),
		Stack:     stack,
		Timestamp: time.Now(),
	}
}

// Scene is one visual beat of a generated script.
type Scene struct {
	Index     int     `json:"index"`
	Narration string  `json:"narration"`
	Visual    string  `json:"visual"`
	Duration  float64 `json:"duration"`
}

// Caption is a timed on-screen text fragment.
type Caption struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Script is the structured output of the script-generation step. The
// orchestrator treats it as a value owned by the AI service; it is never
// mutated after creation.
type Script struct {
	ID            string         `json:"id"`
	Topic         string         `json:"topic"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	TotalDuration float64        `json:"total_duration"`
	Scenes        []Scene        `json:"scenes"`
	Captions      []Caption      `json:"captions"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// VideoMetadata is the structured output of the video-assembly step. It is
// a pure value, referenced only via the job's videoId.
type VideoMetadata struct {
	ID        string  `json:"id"`
	OutputURL string  `json:"outputUrl"`
	Duration  float64 `json:"duration"`
	FileSize  int64   `json:"fileSize"`
}

// ScriptOptions are the fixed generation defaults the pipeline uses.
type ScriptOptions struct {
	TargetDuration  int      `json:"targetDuration"`
	TargetPlatforms []string `json:"targetPlatforms"`
	Style           string   `json:"style"`
}

// DefaultScriptOptions returns the pipeline's fixed generation request.
func DefaultScriptOptions() ScriptOptions {
	return ScriptOptions{
		TargetDuration:  60,
		TargetPlatforms: []string{"tiktok", "instagram", "youtube"},
		Style:           "entertaining",
	}
}

// CompletionRecord is the best-effort record written to the logging sink
// when a workflow completes.
type CompletionRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflowId"`
	Topic      string    `json:"topic"`
	Status     Status    `json:"status"`
	VideoURL   string    `json:"videoUrl"`
	Duration   float64   `json:"duration"`
	FileSize   int64     `json:"fileSize"`
}
