package cataloging

import (
	"fmt"

	"github.com/lehigh-university-libraries/asset-cataloger/internal/config"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/gemini"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/ollama"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/openai"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/providers"
)

// NewProvider builds the vision backend selected by cfg.Provider
func NewProvider(cfg config.Config) (providers.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenRouter, config.ProviderOpenAI:
		return openai.New(cfg.APIKey, cfg.BaseURL, cfg.Timeout()), nil
	case config.ProviderOllama:
		return ollama.New(cfg.BaseURL, cfg.Timeout()), nil
	case config.ProviderGemini:
		return gemini.New(cfg.APIKey, cfg.Timeout()), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedProvider, cfg.Provider)
	}
}
