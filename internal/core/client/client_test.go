package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shortfactory/shortfactory/internal/core/workflow"
)

func TestGenerateScript(t *testing.T) {
	var gotReq generateScriptRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-script" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateScriptResponse{
			Success: true,
			Script: &workflow.Script{
				ID:    "script_1",
				Topic: gotReq.Topic,
				Title: "Five Facts About Octopuses",
			},
		})
	}))
	defer srv.Close()

	c := NewAILogicClient(srv.URL, 5*time.Second, time.Second)
	script, err := c.GenerateScript(context.Background(), "Octopuses", workflow.DefaultScriptOptions())
	if err != nil {
		t.Fatalf("GenerateScript: %v", err)
	}

	if script.ID != "script_1" {
		t.Errorf("script id = %s", script.ID)
	}
	if gotReq.Topic != "Octopuses" || gotReq.TargetDuration != 60 || gotReq.Style != "entertaining" {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.TargetPlatforms) != 3 {
		t.Errorf("platforms = %v", gotReq.TargetPlatforms)
	}
}

func TestGenerateScriptServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateScriptResponse{Success: false, Error: "model overloaded"})
	}))
	defer srv.Close()

	c := NewAILogicClient(srv.URL, 5*time.Second, time.Second)
	_, err := c.GenerateScript(context.Background(), "anything", workflow.DefaultScriptOptions())

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, want ServiceError", err)
	}
	if svcErr.Service != "ai-logic" || svcErr.Message != "model overloaded" {
		t.Errorf("service error = %+v", svcErr)
	}
}

func TestGenerateScriptHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail":"upstream model error"}`))
	}))
	defer srv.Close()

	c := NewAILogicClient(srv.URL, 5*time.Second, time.Second)
	_, err := c.GenerateScript(context.Background(), "anything", workflow.DefaultScriptOptions())

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, want ServiceError", err)
	}
	if svcErr.Message != "upstream model error" {
		t.Errorf("message = %q", svcErr.Message)
	}
}

func TestGenerateScriptTransportError(t *testing.T) {
	c := NewAILogicClient("http://127.0.0.1:1", time.Second, time.Second)
	_, err := c.GenerateScript(context.Background(), "anything", workflow.DefaultScriptOptions())

	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("error = %v, want TransportError", err)
	}
	if transport.Service != "ai-logic" {
		t.Errorf("service = %q", transport.Service)
	}
}

func TestGenerateVideo(t *testing.T) {
	var gotReq generateVideoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-video" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateVideoResponse{
			Success: true,
			Metadata: &workflow.VideoMetadata{
				ID:        "video_1",
				OutputURL: "s3://out/videos/script_1.mp4",
				Duration:  58.2,
				FileSize:  1 << 20,
			},
		})
	}))
	defer srv.Close()

	c := NewVideoEngineClient(srv.URL, 5*time.Second, time.Second)
	script := &workflow.Script{ID: "script_1", Title: "Test"}
	meta, err := c.GenerateVideo(context.Background(), script, "out", "videos/script_1.mp4")
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}

	if meta.ID != "video_1" {
		t.Errorf("video id = %s", meta.ID)
	}
	if gotReq.OutputBucket != "out" || gotReq.OutputKey != "videos/script_1.mp4" {
		t.Errorf("output location = %s/%s", gotReq.OutputBucket, gotReq.OutputKey)
	}
	if gotReq.Script == nil || gotReq.Script.ID != "script_1" {
		t.Errorf("script payload = %+v", gotReq.Script)
	}
}

func TestGenerateVideoServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateVideoResponse{Success: false, Error: "render crashed"})
	}))
	defer srv.Close()

	c := NewVideoEngineClient(srv.URL, 5*time.Second, time.Second)
	_, err := c.GenerateVideo(context.Background(), &workflow.Script{ID: "s"}, "out", "k")

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, want ServiceError", err)
	}
	if svcErr.Service != "video-engine" || svcErr.Message != "render crashed" {
		t.Errorf("service error = %+v", svcErr)
	}
}

func TestHealthProbes(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	if !NewAILogicClient(up.URL, time.Second, time.Second).Health(context.Background()) {
		t.Error("healthy ai-logic reported down")
	}
	if NewAILogicClient(down.URL, time.Second, time.Second).Health(context.Background()) {
		t.Error("unhealthy ai-logic reported up")
	}
	if !NewVideoEngineClient(up.URL, time.Second, time.Second).Health(context.Background()) {
		t.Error("healthy video-engine reported down")
	}
	if NewVideoEngineClient("http://127.0.0.1:1", time.Second, time.Second).Health(context.Background()) {
		t.Error("unreachable video-engine reported up")
	}
}

func TestSheetsLogData(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewSheetsClient(srv.URL, "entry.123456")
	rec := workflow.CompletionRecord{
		WorkflowID: "wf_1",
		Topic:      "Octopuses",
		Status:     workflow.StatusCompleted,
		VideoURL:   "s3://out/videos/script_1.mp4",
	}
	if err := c.LogData(context.Background(), rec); err != nil {
		t.Fatalf("LogData: %v", err)
	}

	raw := gotForm.Get("entry.123456")
	if raw == "" {
		t.Fatal("entry field missing")
	}
	var decoded workflow.CompletionRecord
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("entry field is not JSON: %v", err)
	}
	if decoded.WorkflowID != "wf_1" || decoded.Status != workflow.StatusCompleted {
		t.Errorf("decoded record = %+v", decoded)
	}
}

func TestSheetsLogDataRejectedSubmission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewSheetsClient(srv.URL, "entry.1")
	err := c.LogData(context.Background(), workflow.CompletionRecord{WorkflowID: "wf_1"})

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, want ServiceError", err)
	}
}

func TestSheetsLogDataUnconfigured(t *testing.T) {
	c := NewSheetsClient("", "")
	if err := c.LogData(context.Background(), workflow.CompletionRecord{}); err == nil {
		t.Fatal("expected error for unconfigured sink")
	}
}
