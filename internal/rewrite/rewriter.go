package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/redraft-cli/internal/ai"
	"github.com/KaramelBytes/redraft-cli/internal/config"
	"github.com/KaramelBytes/redraft-cli/internal/utils"
)

// APIKeyEnv overrides the profile credential when set.
const APIKeyEnv = "REDRAFT_API_KEY"

// ErrEmptyResponse is wrapped in a RemoteError when the model returns no
// content.
var ErrEmptyResponse = errors.New("model returned empty content")

// Rewriter sends a prompt and returns the full rewritten text. onPartial,
// if non-nil, receives chunks in arrival order; their concatenation equals
// the returned text.
type Rewriter interface {
	Rewrite(ctx context.Context, prompt string, onPartial func(string)) (string, error)
}

// RemoteError reports a failed model call for a profile.
type RemoteError struct {
	Profile string
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("model call failed (profile %s): %v", e.Profile, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Options carries transport settings shared by all profiles.
type Options struct {
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Logger      *slog.Logger
}

// OptionsFromConfig reads HTTP and retry settings from cfg, falling back to
// the client defaults for unset values.
func OptionsFromConfig(cfg *config.Global) Options {
	o := Options{
		HTTPTimeout: 60 * time.Second,
		RetryMax:    3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    4 * time.Second,
	}
	if cfg == nil {
		return o
	}
	if cfg.HTTPTimeoutSec > 0 {
		o.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
	}
	if cfg.RetryMaxAttempts > 0 {
		o.RetryMax = cfg.RetryMaxAttempts
	}
	if cfg.RetryBaseDelayMs > 0 {
		o.BaseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
	}
	if cfg.RetryMaxDelayMs > 0 {
		o.MaxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
	}
	return o
}

// RuntimeRewriter adapts an ai.Runtime to Rewriter using one profile.
type RuntimeRewriter struct {
	Runtime ai.Runtime
	Profile config.Profile
	Logger  *slog.Logger
}

// New builds a RuntimeRewriter for profile p.
func New(p config.Profile, opts Options) (*RuntimeRewriter, error) {
	provider := strings.ToLower(strings.TrimSpace(p.Provider))
	if provider == "" {
		provider = ai.ProviderOpenAI
	}
	apiKey := os.Getenv(APIKeyEnv)
	if apiKey == "" {
		apiKey = p.APIKey
	}
	rt, ok := ai.GetRuntime(provider, ai.RuntimeConfig{
		Endpoint:    p.Endpoint,
		APIKey:      apiKey,
		HTTPTimeout: opts.HTTPTimeout,
		RetryMax:    opts.RetryMax,
		BaseDelay:   opts.BaseDelay,
		MaxDelay:    opts.MaxDelay,
	})
	if !ok {
		return nil, fmt.Errorf("provider not supported: %s (try %s)", provider, strings.Join(ai.Providers(), "|"))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RuntimeRewriter{Runtime: rt, Profile: p, Logger: logger}, nil
}

// Request returns the chat request sent for prompt.
func (r *RuntimeRewriter) Request(prompt string) ai.GenerateRequest {
	return ai.GenerateRequest{
		Model:       r.Profile.Model,
		Messages:    []ai.Message{{Role: "user", Name: "user", Content: prompt}},
		MaxTokens:   r.Profile.MaxTokens,
		Temperature: r.Profile.Temperature,
		TopP:        r.Profile.TopP,
		Stream:      r.Profile.Stream,
	}
}

// Rewrite implements Rewriter. Streaming is used when the profile asks for
// it and the runtime supports it. A non-streaming reply is delivered to
// onPartial as a single chunk.
func (r *RuntimeRewriter) Rewrite(ctx context.Context, prompt string, onPartial func(string)) (string, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	req := r.Request(prompt)
	tokens := utils.CountTokens(prompt)
	if !ai.FitsContext(req.Model, tokens, req.MaxTokens) {
		mi, _ := ai.LookupModel(req.Model)
		logger.Warn("prompt may exceed model context", "model", req.Model, "prompt_tokens", tokens, "max_tokens", req.MaxTokens, "context_tokens", mi.ContextTokens)
	}
	logger.Debug("rewrite request", "profile", r.Profile.Name, "model", req.Model, "stream", req.Stream, "prompt_tokens", tokens)

	start := time.Now()
	var (
		out string
		err error
	)
	if sr, ok := r.Runtime.(ai.StreamRuntime); ok && req.Stream {
		var sb strings.Builder
		err = sr.GenerateStream(ctx, req, func(delta string) {
			sb.WriteString(delta)
			if onPartial != nil {
				onPartial(delta)
			}
		})
		out = sb.String()
	} else {
		req.Stream = false
		var resp *ai.GenerateResponse
		resp, err = r.Runtime.Generate(ctx, req)
		if err == nil {
			out = resp.Content()
			if out != "" && onPartial != nil {
				onPartial(out)
			}
			logger.Debug("rewrite response", "request_id", resp.RequestID, "completion_tokens", resp.Usage.CompletionTokens)
		}
	}
	if err != nil {
		logger.Error("rewrite failed", "profile", r.Profile.Name, "error", err)
		return "", &RemoteError{Profile: r.Profile.Name, Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return "", &RemoteError{Profile: r.Profile.Name, Err: ErrEmptyResponse}
	}
	logger.Info("rewrite complete", "profile", r.Profile.Name, "chars", utils.CountChars(out), "elapsed", time.Since(start).Round(time.Millisecond))
	return out, nil
}
