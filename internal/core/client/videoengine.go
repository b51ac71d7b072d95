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

const videoEngineService = "video-engine"

// VideoEngineClient talks to the video-rendering service. Rendering is
// expensive, so the call timeout is much larger than the script client's.
type VideoEngineClient struct {
	baseURL       string
	http          *http.Client
	healthTimeout time.Duration
}

func NewVideoEngineClient(baseURL string, timeout, healthTimeout time.Duration) *VideoEngineClient {
	return &VideoEngineClient{
		baseURL:       baseURL,
		http:          &http.Client{Timeout: timeout},
		healthTimeout: healthTimeout,
	}
}

type generateVideoRequest struct {
	Script       *workflow.Script `json:"script"`
	OutputBucket string           `json:"output_bucket"`
	OutputKey    string           `json:"output_key"`
}

type generateVideoResponse struct {
	Success  bool                    `json:"success"`
	Metadata *workflow.VideoMetadata `json:"metadata"`
	Error    string                  `json:"error"`
}

// GenerateVideo renders the script into a video at the given output
// location and returns its metadata.
func (c *VideoEngineClient) GenerateVideo(ctx context.Context, script *workflow.Script, outputBucket, outputKey string) (*workflow.VideoMetadata, error) {
	log.Info().Str("script_id", script.ID).Str("output_key", outputKey).Msg("generating video")

	body, err := json.Marshal(generateVideoRequest{
		Script:       script,
		OutputBucket: outputBucket,
		OutputKey:    outputKey,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-video", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Service: videoEngineService, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Service: videoEngineService, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{Service: videoEngineService, Message: errorMessage(respBody, resp.Status)}
	}

	var parsed generateVideoResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if !parsed.Success || parsed.Metadata == nil {
		msg := parsed.Error
		if msg == "" {
			msg = "failed to generate video"
		}
		return nil, &ServiceError{Service: videoEngineService, Message: msg}
	}

	log.Info().Str("video_id", parsed.Metadata.ID).Str("url", parsed.Metadata.OutputURL).Msg("video generated")
	return parsed.Metadata, nil
}

// Health probes the service's /health endpoint with a short timeout.
func (c *VideoEngineClient) Health(ctx context.Context) bool {
	return probeHealth(ctx, c.baseURL+"/health", c.healthTimeout)
}

// probeHealth is shared by the script and video clients.
func probeHealth(ctx context.Context, url string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// errorMessage extracts a descriptive message from an error response body,
// falling back to the HTTP status line.
func errorMessage(body []byte, status string) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return status
}
