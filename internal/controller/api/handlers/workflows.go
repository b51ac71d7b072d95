package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shortfactory/shortfactory/internal/core/service"
	"github.com/shortfactory/shortfactory/internal/core/workflow"
	"github.com/shortfactory/shortfactory/internal/database"
)

type WorkflowsHandler struct {
	svc   *service.WorkflowService
	store database.Store
}

func NewWorkflowsHandler(svc *service.WorkflowService, store database.Store) *WorkflowsHandler {
	return &WorkflowsHandler{svc: svc, store: store}
}

// Shared types

type JobBody struct {
	JobID     string    `json:"jobId" doc:"Workflow job ID"`
	Topic     string    `json:"topic,omitempty" doc:"Topic the video is about"`
	Status    string    `json:"status" doc:"External status (PENDING, PROCESSING, COMPLETED, FAILED)"`
	State     string    `json:"state" doc:"Internal pipeline state"`
	ScriptID  string    `json:"scriptId,omitempty" doc:"Generated script ID"`
	VideoID   string    `json:"videoId,omitempty" doc:"Rendered video ID"`
	Error     string    `json:"error,omitempty" doc:"Failure message"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newJobBody(j *workflow.Job) JobBody {
	body := JobBody{
		JobID:     j.ID,
		Topic:     j.Topic,
		Status:    string(j.State.Status()),
		State:     string(j.State),
		ScriptID:  j.ScriptID,
		VideoID:   j.VideoID,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.Error != nil {
		body.Error = j.Error.Message
	}
	return body
}

func newJobBodyFromRecord(rec *database.JobRecord) JobBody {
	return JobBody{
		JobID:     rec.ID,
		Status:    string(rec.Status),
		State:     string(rec.State),
		ScriptID:  rec.ScriptID,
		Error:     rec.ErrorMessage,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

type JobOutput struct {
	Body JobBody
}

type JobIDInput struct {
	ID string `path:"id" doc:"Workflow job ID"`
}

// Handlers

type ExecuteInput struct {
	Body struct {
		Topic string `json:"topic" minLength:"1" doc:"Topic to generate a video for"`
	}
}

// Execute runs the whole pipeline synchronously. The response carries the
// terminal job either way; a failed run answers 500 with the failing state.
func (h *WorkflowsHandler) Execute(ctx context.Context, input *ExecuteInput) (*JobOutput, error) {
	j, err := h.svc.ExecuteWorkflow(ctx, input.Body.Topic)
	if err != nil {
		var wfErr *workflow.WorkflowError
		if errors.As(err, &wfErr) {
			return nil, huma.Error500InternalServerError(wfErr.Error())
		}
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &JobOutput{Body: newJobBody(j)}, nil
}

type RetryBody struct {
	Message string `json:"message" doc:"Human-readable result"`
	JobID   string `json:"jobId" doc:"ID of the new workflow run"`
}

type RetryOutput struct {
	Body RetryBody
}

func (h *WorkflowsHandler) Retry(ctx context.Context, input *JobIDInput) (*RetryOutput, error) {
	j, err := h.svc.Retry(ctx, input.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, huma.Error404NotFound(err.Error())
		}
		var wfErr *workflow.WorkflowError
		if errors.As(err, &wfErr) {
			return nil, huma.Error500InternalServerError(wfErr.Error())
		}
		return nil, huma.Error409Conflict(err.Error())
	}
	return &RetryOutput{Body: RetryBody{
		Message: "workflow restarted",
		JobID:   j.ID,
	}}, nil
}

func (h *WorkflowsHandler) Get(ctx context.Context, input *JobIDInput) (*JobOutput, error) {
	rec, err := h.store.GetJob(ctx, input.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, huma.Error404NotFound("workflow not found")
		}
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &JobOutput{Body: newJobBodyFromRecord(rec)}, nil
}

type ListWorkflowsInput struct {
	Limit  int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Max results"`
	Offset int    `query:"offset" default:"0" minimum:"0" doc:"Offset"`
	Status string `query:"status" doc:"Filter by status (PENDING, PROCESSING, COMPLETED, FAILED)"`
}

type ListWorkflowsOutput struct {
	Body []JobBody
}

func (h *WorkflowsHandler) List(ctx context.Context, input *ListWorkflowsInput) (*ListWorkflowsOutput, error) {
	recs, err := h.store.ListJobs(ctx, int32(input.Limit), int32(input.Offset), workflow.Status(input.Status))
	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}

	body := make([]JobBody, 0, len(recs))
	for i := range recs {
		body = append(body, newJobBodyFromRecord(&recs[i]))
	}
	return &ListWorkflowsOutput{Body: body}, nil
}

type StatsOutput struct {
	Body database.StatusCounts
}

func (h *WorkflowsHandler) Stats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	counts, err := h.store.CountByStatus(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &StatsOutput{Body: counts}, nil
}

// Stepwise entry points for the manual dashboard flow.

type StepScriptInput struct {
	Body struct {
		Topic string `json:"topic" minLength:"1" doc:"Topic to generate a script for"`
	}
}

type StepScriptBody struct {
	Job    JobBody          `json:"job"`
	Script *workflow.Script `json:"script"`
}

type StepScriptOutput struct {
	Body StepScriptBody
}

func (h *WorkflowsHandler) StepScript(ctx context.Context, input *StepScriptInput) (*StepScriptOutput, error) {
	j, script, err := h.svc.StepScript(ctx, input.Body.Topic)
	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &StepScriptOutput{Body: StepScriptBody{
		Job:    newJobBody(j),
		Script: script,
	}}, nil
}

type StepVideoInput struct {
	ID   string `path:"id" doc:"Workflow job ID"`
	Body struct {
		ScriptID string `json:"scriptId,omitempty" doc:"Script to render (defaults to the job's script)"`
	}
}

type StepVideoBody struct {
	Job   JobBody                 `json:"job"`
	Video *workflow.VideoMetadata `json:"video"`
}

type StepVideoOutput struct {
	Body StepVideoBody
}

func (h *WorkflowsHandler) StepVideo(ctx context.Context, input *StepVideoInput) (*StepVideoOutput, error) {
	j, meta, err := h.svc.StepVideo(ctx, input.ID, input.Body.ScriptID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, huma.Error404NotFound(err.Error())
		}
		if j == nil {
			return nil, huma.Error409Conflict(err.Error())
		}
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &StepVideoOutput{Body: StepVideoBody{
		Job:   newJobBody(j),
		Video: meta,
	}}, nil
}

type StepFinalizeInput struct {
	ID   string `path:"id" doc:"Workflow job ID"`
	Body struct {
		VideoID string `json:"videoId" minLength:"1" doc:"Rendered video ID"`
	}
}

func (h *WorkflowsHandler) StepFinalize(ctx context.Context, input *StepFinalizeInput) (*JobOutput, error) {
	j, err := h.svc.StepFinalize(ctx, input.ID, input.Body.VideoID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, huma.Error404NotFound(err.Error())
		}
		if j == nil {
			return nil, huma.Error409Conflict(err.Error())
		}
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &JobOutput{Body: newJobBody(j)}, nil
}
