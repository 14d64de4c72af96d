package ai

// ModelInfo is the context window of a known model, used to warn before a
// prompt is sent that would not fit.
type ModelInfo struct {
	Name          string
	ContextTokens int
}

var models = map[string]ModelInfo{
	"minimax-text-01":   {Name: "minimax-text-01", ContextTokens: 1000000},
	"abab6.5s-chat":     {Name: "abab6.5s-chat", ContextTokens: 245760},
	"deepseek-chat":     {Name: "deepseek-chat", ContextTokens: 64000},
	"deepseek-reasoner": {Name: "deepseek-reasoner", ContextTokens: 64000},
	"qwen-max":          {Name: "qwen-max", ContextTokens: 32768},
	"qwen-plus":         {Name: "qwen-plus", ContextTokens: 131072},
	"gpt-4o":            {Name: "gpt-4o", ContextTokens: 128000},
	"gpt-4o-mini":       {Name: "gpt-4o-mini", ContextTokens: 128000},
	// Common local (Ollama) tags
	"llama3:latest":       {Name: "llama3:latest", ContextTokens: 8192},
	"qwen2.5:7b-instruct": {Name: "qwen2.5:7b-instruct", ContextTokens: 32768},
	"mistral-nemo:latest": {Name: "mistral-nemo:latest", ContextTokens: 8192},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// FitsContext reports whether prompt plus completion tokens fit the model's
// window. Unknown models always fit.
func FitsContext(model string, promptTokens, maxTokens int) bool {
	mi, ok := LookupModel(model)
	if !ok || mi.ContextTokens <= 0 {
		return true
	}
	return promptTokens+maxTokens <= mi.ContextTokens
}
