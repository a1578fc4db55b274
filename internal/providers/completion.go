package providers

import (
	"fmt"

	"github.com/pratik-mahalle/dialekt/internal/config"
	"github.com/pratik-mahalle/dialekt/internal/domain/chat"
)

// NewCompletion builds the completion gateway selected by configuration
func NewCompletion(cfg config.CompletionConfig) (chat.CompletionGateway, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAICompletion(OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     cfg.OpenAIModel,
			MaxTokens: cfg.MaxTokens,
		})
	case "gemini":
		return NewGeminiCompletion(GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.GeminiModel,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cfg.Provider)
	}
}
