package upstream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testConfig(asrURL, nluURL string) Config {
	return Config{
		ASRURL:  asrURL,
		NLUURL:  nluURL,
		SiteID:  "kitchen",
		Timeout: 5 * time.Second,
	}
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		errorMsg string
	}{
		{"missing ASR URL", Config{NLUURL: "http://x", SiteID: "s"}, "ASR URL cannot be empty"},
		{"missing NLU URL", Config{ASRURL: "http://x", SiteID: "s"}, "NLU URL cannot be empty"},
		{"missing site ID", Config{ASRURL: "http://x", NLUURL: "http://y"}, "site ID cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.config)
			if err == nil {
				t.Fatalf("Expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestTranscribe(t *testing.T) {
	var gotSiteID, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		gotSiteID = r.URL.Query().Get("siteId")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "turn on the lamp", "likelihood": 0.9}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	wavData := []byte("RIFF-fake-wav-bytes")
	text, err := client.Transcribe(context.Background(), wavData)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	if text != "turn on the lamp" {
		t.Errorf("Expected transcription text, got %q", text)
	}
	if gotSiteID != "kitchen" {
		t.Errorf("Expected siteId query parameter, got %q", gotSiteID)
	}
	if gotContentType != "audio/wav" {
		t.Errorf("Expected audio/wav content type, got %q", gotContentType)
	}
	if string(gotBody) != string(wavData) {
		t.Errorf("Expected WAV bytes to be posted verbatim")
	}
}

func TestTranscribeEmptyAudio(t *testing.T) {
	client, err := NewClient(testConfig("http://localhost:1", "http://localhost:1"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	_, err = client.Transcribe(context.Background(), nil)
	if err == nil {
		t.Fatalf("Expected error for empty audio")
	}
	if !strings.Contains(err.Error(), "empty audio") {
		t.Errorf("Expected empty audio error, got: %v", err)
	}
}

func TestTranscribeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	_, err = client.Transcribe(context.Background(), []byte("audio"))
	if err == nil {
		t.Fatalf("Expected error for HTTP 500")
	}
	if !strings.Contains(err.Error(), "HTTP error 500") {
		t.Errorf("Expected HTTP error, got: %v", err)
	}
}

func TestTranscribeInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	_, err = client.Transcribe(context.Background(), []byte("audio"))
	if err == nil {
		t.Fatalf("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "failed to parse transcription response") {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

func TestRecognize(t *testing.T) {
	var gotSiteID, gotContentType, gotText string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSiteID = r.URL.Query().Get("siteId")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotText = string(body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"intent": {"name": "ChangeLightState", "confidence": 1.0}}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	intent, err := client.Recognize(context.Background(), "turn on the lamp")
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	if !strings.Contains(string(intent), "ChangeLightState") {
		t.Errorf("Expected raw intent payload, got %q", intent)
	}
	if gotSiteID != "kitchen" {
		t.Errorf("Expected siteId query parameter, got %q", gotSiteID)
	}
	if gotContentType != "text/plain" {
		t.Errorf("Expected text/plain content type, got %q", gotContentType)
	}
	if gotText != "turn on the lamp" {
		t.Errorf("Expected transcription in body, got %q", gotText)
	}
}

func TestRecognizeInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, server.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	_, err = client.Recognize(context.Background(), "hello")
	if err == nil {
		t.Fatalf("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("Expected invalid JSON error, got: %v", err)
	}
}

func TestClientStats(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "hi"}`))
	}))
	defer okServer.Close()

	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer failServer.Close()

	client, err := NewClient(testConfig(okServer.URL, failServer.URL))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	if _, err := client.Transcribe(context.Background(), []byte("audio")); err != nil {
		t.Fatalf("Expected transcribe to succeed: %v", err)
	}
	if _, err := client.Recognize(context.Background(), "hi"); err == nil {
		t.Fatalf("Expected recognize to fail")
	}

	stats := client.GetStats()
	if stats.ASRRequests != 1 || stats.ASRFailures != 0 {
		t.Errorf("Expected 1 ASR request and 0 failures, got %d/%d", stats.ASRRequests, stats.ASRFailures)
	}
	if stats.NLURequests != 1 || stats.NLUFailures != 1 {
		t.Errorf("Expected 1 NLU request and 1 failure, got %d/%d", stats.NLURequests, stats.NLUFailures)
	}
	if stats.LastActivity.IsZero() {
		t.Errorf("Expected last activity to be recorded")
	}
}
