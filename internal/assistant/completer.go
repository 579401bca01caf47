package assistant

import (
	"context"

	"github.com/homees-app/homees/internal/config"
)

// NewCompleter builds the completer selected by cfg.LLMProvider.
// It returns nil, nil when no provider is configured.
func NewCompleter(ctx context.Context, cfg config.Config) (Completer, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		g, err := NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.ProviderOpenAI:
		o, err := NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIURL, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, nil
	}
}
