package provider

import (
	"fmt"

	"github.com/kiranshivaraju/examforge/internal/ai/gemini"
	"github.com/kiranshivaraju/examforge/internal/config"
	"github.com/kiranshivaraju/examforge/pkg/models"
)

// NewFactory constructs the provider factory selected by config.
// Called once at process startup; providers themselves are built per user key.
func NewFactory(cfg config.AIConfig) (models.AIProviderFactory, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewFactory(cfg.Gemini, cfg.InferenceTimeout), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be gemini", cfg.Provider)
	}
}
