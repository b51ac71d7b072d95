package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shortfactory/shortfactory/internal/core/workflow"
)

const aiLogicService = "ai-logic"

// AILogicClient talks to the script-generation service.
type AILogicClient struct {
	baseURL       string
	http          *http.Client
	healthTimeout time.Duration
}

// NewAILogicClient creates a client. Script generation is bounded by
// timeout; health probes use a separate short deadline.
func NewAILogicClient(baseURL string, timeout, healthTimeout time.Duration) *AILogicClient {
	return &AILogicClient{
		baseURL:       baseURL,
		http:          &http.Client{Timeout: timeout},
		healthTimeout: healthTimeout,
	}
}

type generateScriptRequest struct {
	Topic           string   `json:"topic"`
	TargetDuration  int      `json:"targetDuration"`
	TargetPlatforms []string `json:"targetPlatforms"`
	Style           string   `json:"style"`
}

type generateScriptResponse struct {
	Success bool             `json:"success"`
	Script  *workflow.Script `json:"script"`
	Error   string           `json:"error"`
}

// GenerateScript requests a script for the topic. A transport failure and an
// application-level failure surface as distinct error types.
func (c *AILogicClient) GenerateScript(ctx context.Context, topic string, opts workflow.ScriptOptions) (*workflow.Script, error) {
	log.Info().Str("topic", topic).Msg("generating script")

	body, err := json.Marshal(generateScriptRequest{
		Topic:           topic,
		TargetDuration:  opts.TargetDuration,
		TargetPlatforms: opts.TargetPlatforms,
		Style:           opts.Style,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-script", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Service: aiLogicService, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Service: aiLogicService, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{Service: aiLogicService, Message: errorMessage(respBody, resp.Status)}
	}

	var parsed generateScriptResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if !parsed.Success || parsed.Script == nil {
		msg := parsed.Error
		if msg == "" {
			msg = "failed to generate script"
		}
		return nil, &ServiceError{Service: aiLogicService, Message: msg}
	}

	log.Info().Str("script_id", parsed.Script.ID).Str("title", parsed.Script.Title).Msg("script generated")
	return parsed.Script, nil
}

// Health probes the service's /health endpoint with a short timeout. It
// never returns an error; any failure maps to false.
func (c *AILogicClient) Health(ctx context.Context) bool {
	return probeHealth(ctx, c.baseURL+"/health", c.healthTimeout)
}
