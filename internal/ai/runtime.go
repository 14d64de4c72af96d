package ai

import "context"

// Runtime is implemented by chat-completion backends.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted in profile configuration.
const (
	// ProviderOpenAI covers any OpenAI-compatible chat-completions endpoint
	// (MiniMax, DeepSeek, Qwen, OpenRouter, vLLM and similar).
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// StreamRuntime is an optional extension that supports streaming output.
// Implementors invoke onDelta with each partial content chunk.
type StreamRuntime interface {
	GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error
}
