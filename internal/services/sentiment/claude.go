package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
)

// ClaudeScorer scores headlines with an Anthropic Claude model.
type ClaudeScorer struct {
	model    string
	generate GenerateFunc
	logger   arbor.ILogger
}

// NewClaudeScorer creates a Claude-backed scorer.
func NewClaudeScorer(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeScorer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic api key not set", ErrMissingCredentials)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)
	newMessage := client.Messages.New
	model := config.Model

	generate := func(ctx context.Context, system, prompt string) (string, error) {
		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
			System: []anthropic.TextBlockParam{
				{Text: system},
			},
		}

		resp, err := newMessage(ctx, params)
		if err != nil {
			return "", fmt.Errorf("Claude API call failed: %w", err)
		}

		var response strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				response.WriteString(block.Text)
			}
		}
		if response.Len() == 0 {
			return "", errors.New("no response generated from Claude API")
		}
		return response.String(), nil
	}

	return NewClaudeScorerWithFunc(model, generate, logger), nil
}

// NewClaudeScorerWithFunc creates a scorer over an arbitrary generate function.
func NewClaudeScorerWithFunc(model string, generate GenerateFunc, logger arbor.ILogger) *ClaudeScorer {
	return &ClaudeScorer{model: model, generate: generate, logger: logger}
}

func (s *ClaudeScorer) Name() string { return "claude:" + s.model }

// Score returns one compound score per headline.
func (s *ClaudeScorer) Score(ctx context.Context, headlines []string) ([]float64, error) {
	if len(headlines) == 0 {
		return []float64{}, nil
	}

	text, err := s.generate(ctx, scoringInstructions, buildPrompt(headlines))
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("model", s.model).
		Int("headlines", len(headlines)).
		Str("response", truncate(text, 200)).
		Msg("Claude sentiment response")

	return parseScores(text, len(headlines))
}
