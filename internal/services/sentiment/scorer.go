package sentiment

import (
	"context"
	"errors"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
)

// ErrMissingCredentials is returned by scorer constructors without an API key.
var ErrMissingCredentials = errors.New("missing scorer credentials")

// Provider names accepted by SentimentConfig.Provider.
const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
	ProviderVader  = "vader"
	ProviderNone   = "none"
)

// NewScorer builds the configured scorer. When the configured LLM provider has no key
// the other one is tried, and with neither the local VADER scorer is used.
// Provider "none" turns scoring off and returns interfaces.ErrScorerUnavailable.
func NewScorer(ctx context.Context, config *common.SentimentConfig, logger arbor.ILogger) (interfaces.SentimentScorer, error) {
	switch config.Provider {
	case ProviderNone:
		return nil, errors.Join(interfaces.ErrScorerUnavailable, errors.New("sentiment provider set to none"))
	case ProviderVader:
		return NewVaderScorer(), nil
	}

	order := []string{ProviderGemini, ProviderClaude}
	if config.Provider == ProviderClaude {
		order = []string{ProviderClaude, ProviderGemini}
	}

	var errs []error
	for _, provider := range order {
		var (
			scorer interfaces.SentimentScorer
			err    error
		)
		switch provider {
		case ProviderGemini:
			var s *GeminiScorer
			if s, err = NewGeminiScorer(ctx, &config.Gemini, logger); err == nil {
				scorer = s
			}
		case ProviderClaude:
			var s *ClaudeScorer
			if s, err = NewClaudeScorer(&config.Claude, logger); err == nil {
				scorer = s
			}
		}

		if err == nil {
			if provider != config.Provider {
				logger.Info().
					Str("configured", config.Provider).
					Str("using", provider).
					Msg("Configured sentiment provider has no credentials, using alternative")
			}
			return scorer, nil
		}
		errs = append(errs, err)
	}

	logger.Info().
		Str("configured", config.Provider).
		Err(errors.Join(errs...)).
		Msg("No LLM sentiment credentials, scoring headlines locally with VADER")
	return NewVaderScorer(), nil
}
