package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shortfactory/shortfactory/internal/core/workflow"
)

// SheetsClient writes completion records to a Google Form backed by a
// spreadsheet. The whole record travels as one JSON-encoded form field.
type SheetsClient struct {
	formURL string
	entryID string
	http    *http.Client
}

func NewSheetsClient(formURL, entryID string) *SheetsClient {
	return &SheetsClient{
		formURL: formURL,
		entryID: entryID,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// LogData submits one completion record. Callers treat the sink as
// best-effort; a returned error is logged, never propagated.
func (c *SheetsClient) LogData(ctx context.Context, rec workflow.CompletionRecord) error {
	if c.formURL == "" {
		return fmt.Errorf("sheets form URL not configured")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	form := url.Values{}
	form.Set(c.entryID, string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.formURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Service: "sheets", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	// Google Forms answers with HTML and assorted 2xx/3xx codes; anything
	// below 400 counts as accepted.
	if resp.StatusCode >= http.StatusBadRequest {
		return &ServiceError{Service: "sheets", Message: resp.Status}
	}

	log.Debug().Str("workflow_id", rec.WorkflowID).Msg("completion record logged")
	return nil
}
