package langgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HealthResponse represents the /ok response.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// HealthCheck checks if the LangGraph server is reachable.
func HealthCheck(ctx context.Context, baseURL string, apiKey string) (*HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/ok", nil)
	if err != nil {
		return nil, fmt.Errorf("creating health request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decoding health response: %w", err)
	}

	return &health, nil
}

// ClientConfig holds configuration for the HTTPClient.
type ClientConfig struct {
	BaseURL string
	APIKey  string

	// AssistantID selects the assistant for streamed runs. It must be set
	// for StreamRun to succeed; an empty value is passed through and the
	// server rejects the run.
	AssistantID string
	ModelName   string
	StreamMode  string

	// HTTPClient overrides the transport. Defaults to a client without an
	// overall timeout so long runs are not cut off.
	HTTPClient *http.Client
}

// HTTPClient talks to a LangGraph server over its REST API.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	assistantID string
	modelName   string
	streamMode  string
	http        *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the server at cfg.BaseURL.
func NewHTTPClient(cfg ClientConfig) *HTTPClient {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				ResponseHeaderTimeout: 60 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		}
	}
	streamMode := cfg.StreamMode
	if streamMode == "" {
		streamMode = "messages"
	}
	if cfg.AssistantID == "" {
		slog.Warn("no assistant id configured; streamed runs will be rejected by the server")
	}

	return &HTTPClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		assistantID: cfg.AssistantID,
		modelName:   cfg.ModelName,
		streamMode:  streamMode,
		http:        hc,
	}
}

func (c *HTTPClient) CreateThread(ctx context.Context) (*Thread, error) {
	slog.Debug("creating thread", "url", c.baseURL)

	var thread Thread
	if err := c.doJSON(ctx, "create thread", "", http.MethodPost, "/threads", struct{}{}, &thread); err != nil {
		return nil, err
	}
	if thread.ThreadID == "" {
		err := &TransportError{Op: "create thread", Err: fmt.Errorf("response has no thread_id")}
		slog.Error("error creating thread", "error", err)
		return nil, err
	}

	slog.Debug("thread created", "thread", thread.ThreadID)
	return &thread, nil
}

func (c *HTTPClient) GetState(ctx context.Context, threadID string) (*ThreadState, error) {
	var state ThreadState
	path := "/threads/" + url.PathEscape(threadID) + "/state"
	if err := c.doJSON(ctx, "get state", threadID, http.MethodGet, path, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *HTTPClient) UpdateState(ctx context.Context, threadID string, update StateUpdate) (json.RawMessage, error) {
	slog.Debug("updating thread state", "thread", threadID, "as_node", update.AsNode)

	if len(update.Values) == 0 {
		update.Values = json.RawMessage("null")
	}

	var confirmed json.RawMessage
	path := "/threads/" + url.PathEscape(threadID) + "/state"
	if err := c.doJSON(ctx, "update state", threadID, http.MethodPost, path, update, &confirmed); err != nil {
		return nil, err
	}
	return confirmed, nil
}

// runRequest is the body of POST /threads/{id}/runs/stream.
type runRequest struct {
	AssistantID string    `json:"assistant_id"`
	Input       RunInput  `json:"input"`
	Config      runConfig `json:"config"`
	StreamMode  string    `json:"stream_mode"`
}

type runConfig struct {
	Configurable map[string]any `json:"configurable"`
}

func (c *HTTPClient) StreamRun(ctx context.Context, threadID string, input RunInput) (*Stream, error) {
	slog.Debug("starting run stream", "thread", threadID, "assistant", c.assistantID, "messages", len(input.Messages))

	if input.Messages == nil {
		input.Messages = []Message{}
	}
	body := runRequest{
		AssistantID: c.assistantID,
		Input:       input,
		Config: runConfig{
			Configurable: map[string]any{"model_name": c.modelName},
		},
		StreamMode: c.streamMode,
	}

	path := "/threads/" + url.PathEscape(threadID) + "/runs/stream"
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, c.fail("stream run", threadID, 0, "", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail("stream run", threadID, 0, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, c.fail("stream run", threadID, resp.StatusCode, string(data), nil)
	}

	return newSSEStream(ctx, threadID, resp.Body), nil
}

func (c *HTTPClient) CreateAssistant(ctx context.Context, graphID string) (*Assistant, error) {
	slog.Debug("creating assistant", "graph", graphID)

	var assistant Assistant
	body := map[string]string{"graph_id": graphID}
	if err := c.doJSON(ctx, "create assistant", "", http.MethodPost, "/assistants", body, &assistant); err != nil {
		return nil, err
	}
	return &assistant, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	return req, nil
}

// doJSON performs a request and decodes a JSON response into out.
func (c *HTTPClient) doJSON(ctx context.Context, op, threadID, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return c.fail(op, threadID, 0, "", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(op, threadID, 0, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(op, threadID, resp.StatusCode, "", fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(op, threadID, resp.StatusCode, string(data), nil)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return c.fail(op, threadID, 0, "", fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// fail logs a transport failure where it happens and returns it.
func (c *HTTPClient) fail(op, threadID string, status int, body string, cause error) error {
	err := &TransportError{Op: op, ThreadID: threadID, StatusCode: status, Body: body, Err: cause}
	slog.Error("langgraph request failed", "op", op, "thread", threadID, "status", status, "error", err)
	return err
}
