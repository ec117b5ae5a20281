package factory

import (
	"fmt"

	"resident-sim-be/pkg/llm"
	"resident-sim-be/pkg/llm/ollama"
	"resident-sim-be/pkg/llm/openaillm"
)

// NewLLMProvider selects the chat backend by configuration. Provider-specific
// code paths never leak into business logic; services only see llm.LLMProvider.
func NewLLMProvider(provider, model, ollamaBaseURL, openAIKey string) (llm.LLMProvider, error) {
	switch provider {
	case "ollama":
		if ollamaBaseURL == "" {
			ollamaBaseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(ollamaBaseURL, model), nil
	case "openai":
		if openAIKey == "" {
			return nil, fmt.Errorf("openai selected: %w", llm.ErrNotConfigured)
		}
		return openaillm.NewOpenAIProvider(openAIKey, model), nil
	case "":
		return nil, llm.ErrNotConfigured
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
