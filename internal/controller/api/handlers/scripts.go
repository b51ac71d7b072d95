package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shortfactory/shortfactory/internal/database"
)

type ScriptsHandler struct {
	store database.Store
}

func NewScriptsHandler(store database.Store) *ScriptsHandler {
	return &ScriptsHandler{store: store}
}

type ScriptBody struct {
	ID        string          `json:"id" doc:"Script ID"`
	TopicID   string          `json:"topicId" doc:"Derived topic ID"`
	Title     string          `json:"title" doc:"Script title"`
	Script    json.RawMessage `json:"script,omitempty" doc:"Full script payload as produced by the generator"`
	CreatedAt time.Time       `json:"createdAt"`
}

func newScriptBody(rec *database.ScriptRecord) ScriptBody {
	return ScriptBody{
		ID:        rec.ID,
		TopicID:   rec.TopicID,
		Title:     rec.Title,
		Script:    json.RawMessage(rec.RawJSON),
		CreatedAt: rec.CreatedAt,
	}
}

type ListScriptsInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Max results"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset"`
}

type ListScriptsOutput struct {
	Body []ScriptBody
}

func (h *ScriptsHandler) List(ctx context.Context, input *ListScriptsInput) (*ListScriptsOutput, error) {
	recs, err := h.store.ListScripts(ctx, int32(input.Limit), int32(input.Offset))
	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}

	body := make([]ScriptBody, 0, len(recs))
	for i := range recs {
		body = append(body, newScriptBody(&recs[i]))
	}
	return &ListScriptsOutput{Body: body}, nil
}

type ScriptIDInput struct {
	ID string `path:"id" doc:"Script ID"`
}

type ScriptOutput struct {
	Body ScriptBody
}

func (h *ScriptsHandler) Get(ctx context.Context, input *ScriptIDInput) (*ScriptOutput, error) {
	rec, err := h.store.GetScript(ctx, input.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, huma.Error404NotFound("script not found")
		}
		return nil, huma.Error500InternalServerError(err.Error())
	}
	return &ScriptOutput{Body: newScriptBody(rec)}, nil
}
