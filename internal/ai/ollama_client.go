package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaHost is used when a profile leaves the endpoint empty.
const DefaultOllamaHost = "http://127.0.0.1:11434"

// OllamaClient talks to a local Ollama runtime over /api/chat.
type OllamaClient struct {
	httpClient       *http.Client
	host             string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// NewOllamaClient creates a client for host. A full /api/chat URL is
// accepted and trimmed back to the host.
func NewOllamaClient(host string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *OllamaClient {
	host = strings.TrimSuffix(strings.TrimRight(host, "/"), "/api/chat")
	if host == "" {
		host = DefaultOllamaHost
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 2
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 1 * time.Second
	}
	return &OllamaClient{
		httpClient:       &http.Client{Timeout: httpTimeout},
		host:             host,
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
	}
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func (c *OllamaClient) payload(req GenerateRequest, stream bool) ([]byte, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	oreq := ollamaChatRequest{
		Model:    req.Model,
		Messages: make([]ollamaChatMessage, len(req.Messages)),
		Stream:   stream,
		Options:  map[string]any{},
	}
	for i, m := range req.Messages {
		oreq.Messages[i] = ollamaChatMessage{Role: m.Role, Content: m.Content}
	}
	if req.Temperature >= 0 {
		oreq.Options["temperature"] = req.Temperature
	}
	if req.TopP >= 0 {
		oreq.Options["top_p"] = req.TopP
	}
	if req.MaxTokens > 0 {
		oreq.Options["num_predict"] = req.MaxTokens
	}
	b, err := json.Marshal(oreq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return b, nil
}

func (c *OllamaClient) post(ctx context.Context, payload []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(httpReq)
}

// Generate sends a chat request and maps the reply to GenerateResponse.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	payload, err := c.payload(req, false)
	if err != nil {
		return nil, err
	}
	backoff := c.retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := c.post(ctx, payload)
		if err != nil {
			if isRetryableNetErr(err) && attempt < c.retryMaxAttempts {
				if err := sleepCtx(ctx, withJitter(backoff)); err != nil {
					return nil, err
				}
				backoff *= 2
				continue
			}
			return nil, &UnreachableError{Host: c.host, Err: err}
		}
		out, err := readOllamaResponse(resp)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryableStatus(err) || attempt >= c.retryMaxAttempts {
			break
		}
		sleep := withJitter(backoff)
		if sleep > c.retryMaxDelay {
			sleep = c.retryMaxDelay
		}
		if err := sleepCtx(ctx, sleep); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, lastErr
}

func readOllamaResponse(resp *http.Response) (*GenerateResponse, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyOllamaError(resp)
	}
	var oresp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oresp); err != nil {
		return nil, &MalformedResponseError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return &GenerateResponse{
		Choices: []Choice{{Message: Message{Role: "assistant", Content: oresp.Message.Content}}},
		// Ollama has no request ids; synthesize one for log correlation.
		RequestID: fmt.Sprintf("ollama_%d", time.Now().UnixNano()),
	}, nil
}

// classifyOllamaError maps Ollama's {"error": "..."} bodies. A 404 from
// /api/chat means the model tag is not pulled.
func classifyOllamaError(resp *http.Response) error {
	apiErr := decodeAPIError(resp)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &ModelNotFoundError{APIError: apiErr}
	case resp.StatusCode == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	case resp.StatusCode >= 500:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

// GenerateStream reads Ollama's newline-delimited JSON stream.
func (c *OllamaClient) GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error {
	payload, err := c.payload(req, true)
	if err != nil {
		return err
	}
	resp, err := c.post(ctx, payload)
	if err != nil {
		return &UnreachableError{Host: c.host, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyOllamaError(resp)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var oresp ollamaChatResponse
		if err := dec.Decode(&oresp); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return &MalformedResponseError{Err: fmt.Errorf("decode stream: %w", err)}
		}
		if msg := oresp.Message.Content; msg != "" {
			onDelta(msg)
		}
		if oresp.Done {
			break
		}
	}
	return nil
}
