package sentiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"google.golang.org/genai"
)

// GenerateFunc sends a prompt to a model and returns its text reply.
type GenerateFunc func(ctx context.Context, system, prompt string) (string, error)

// GeminiScorer scores headlines with a Gemini model using schema-constrained JSON output.
type GeminiScorer struct {
	model    string
	generate GenerateFunc
	logger   arbor.ILogger
}

// NewGeminiScorer creates a Gemini-backed scorer.
func NewGeminiScorer(ctx context.Context, config *common.GeminiConfig, logger arbor.ILogger) (*GeminiScorer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key not set", ErrMissingCredentials)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	model := config.Model
	generate := func(ctx context.Context, system, prompt string) (string, error) {
		genConfig := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr(float32(0)),
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema: &genai.Schema{
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeNumber},
			},
		}

		resp, err := client.Models.GenerateContent(ctx, model,
			[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
			genConfig,
		)
		if err != nil {
			return "", fmt.Errorf("Gemini API call failed: %w", err)
		}
		if resp == nil || len(resp.Candidates) == 0 {
			return "", errors.New("no response from Gemini API")
		}
		return resp.Text(), nil
	}

	return NewGeminiScorerWithFunc(model, generate, logger), nil
}

// NewGeminiScorerWithFunc creates a scorer over an arbitrary generate function.
func NewGeminiScorerWithFunc(model string, generate GenerateFunc, logger arbor.ILogger) *GeminiScorer {
	return &GeminiScorer{model: model, generate: generate, logger: logger}
}

func (s *GeminiScorer) Name() string { return "gemini:" + s.model }

// Score returns one compound score per headline.
func (s *GeminiScorer) Score(ctx context.Context, headlines []string) ([]float64, error) {
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
		Msg("Gemini sentiment response")

	return parseScores(text, len(headlines))
}
