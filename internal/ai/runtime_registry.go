package ai

import (
	"sort"
	"time"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(RuntimeConfig) Runtime

// RuntimeConfig carries the knobs shared by runtimes.
type RuntimeConfig struct {
	// Endpoint is the full chat-completions URL for openai-style providers
	// and the base host for ollama.
	Endpoint string
	APIKey   string

	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// GetRuntime creates a Runtime for the given provider if registered.
// An empty name selects ProviderOpenAI.
func GetRuntime(name string, cfg RuntimeConfig) (Runtime, bool) {
	if name == "" {
		name = ProviderOpenAI
	}
	if f, ok := registry[name]; ok {
		return f(cfg), true
	}
	return nil, false
}

// Providers lists registered provider names.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	RegisterRuntime(ProviderOpenAI, func(c RuntimeConfig) Runtime {
		return NewClient(c.Endpoint, c.APIKey, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay)
	})
	RegisterRuntime(ProviderOllama, func(c RuntimeConfig) Runtime {
		return NewOllamaClient(c.Endpoint, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay)
	})
}
