package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client talks to the remote speech-to-text and intent endpoints. One
// recording attempt produces at most one Transcribe call followed by one
// Recognize call; failed attempts are simply not forwarded, there is no
// retry.
type Client struct {
	config     Config
	httpClient *http.Client

	// Statistics
	asrRequests  uint64
	asrFailures  uint64
	nluRequests  uint64
	nluFailures  uint64
	lastActivity time.Time

	mu sync.RWMutex
}

// Config contains upstream client configuration
type Config struct {
	ASRURL  string
	NLUURL  string
	SiteID  string
	Timeout time.Duration
}

// Transcription represents the speech-to-text response payload
type Transcription struct {
	Text       string  `json:"text"`
	Likelihood float64 `json:"likelihood,omitempty"`
	Seconds    float64 `json:"transcribe_seconds,omitempty"`
}

// ClientStats represents upstream client statistics
type ClientStats struct {
	ASRRequests  uint64    `json:"asr_requests"`
	ASRFailures  uint64    `json:"asr_failures"`
	NLURequests  uint64    `json:"nlu_requests"`
	NLUFailures  uint64    `json:"nlu_failures"`
	LastActivity time.Time `json:"last_activity"`
}

// NewClient creates a new upstream HTTP client
func NewClient(config Config) (*Client, error) {
	if config.ASRURL == "" {
		return nil, fmt.Errorf("ASR URL cannot be empty")
	}

	if config.NLUURL == "" {
		return nil, fmt.Errorf("NLU URL cannot be empty")
	}

	if config.SiteID == "" {
		return nil, fmt.Errorf("site ID cannot be empty")
	}

	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// Transcribe posts WAV audio to the speech-to-text endpoint and returns
// the transcribed text
func (c *Client) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	c.recordASRRequest()

	if len(wavData) == 0 {
		c.recordASRFailure()
		return "", fmt.Errorf("cannot transcribe empty audio")
	}

	req, err := c.newRequest(ctx, c.config.ASRURL, bytes.NewReader(wavData))
	if err != nil {
		c.recordASRFailure()
		return "", err
	}
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		c.recordASRFailure()
		return "", fmt.Errorf("speech-to-text request: %w", err)
	}

	var transcription Transcription
	if err := json.Unmarshal(body, &transcription); err != nil {
		c.recordASRFailure()
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}

	return transcription.Text, nil
}

// Recognize posts transcribed text to the intent endpoint and returns
// the raw intent payload, which is opaque to the satellite
func (c *Client) Recognize(ctx context.Context, text string) (json.RawMessage, error) {
	c.recordNLURequest()

	req, err := c.newRequest(ctx, c.config.NLUURL, strings.NewReader(text))
	if err != nil {
		c.recordNLUFailure()
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		c.recordNLUFailure()
		return nil, fmt.Errorf("intent request: %w", err)
	}

	if !json.Valid(body) {
		c.recordNLUFailure()
		return nil, fmt.Errorf("intent endpoint returned invalid JSON")
	}

	return json.RawMessage(body), nil
}

// newRequest builds a POST request with the siteId query parameter
func (c *Client) newRequest(ctx context.Context, endpoint string, body io.Reader) (*http.Request, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %s: %w", endpoint, err)
	}

	q := u.Query()
	q.Set("siteId", c.config.SiteID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	return req, nil
}

// do performs the request and returns the response body on 2xx status
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Statistics methods
func (c *Client) recordASRRequest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asrRequests++
	c.lastActivity = time.Now()
}

func (c *Client) recordASRFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asrFailures++
}

func (c *Client) recordNLURequest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nluRequests++
	c.lastActivity = time.Now()
}

func (c *Client) recordNLUFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nluFailures++
}

// GetStats returns current client statistics
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ClientStats{
		ASRRequests:  c.asrRequests,
		ASRFailures:  c.asrFailures,
		NLURequests:  c.nluRequests,
		NLUFailures:  c.nluFailures,
		LastActivity: c.lastActivity,
	}
}

// Close releases idle connections held by the client
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
