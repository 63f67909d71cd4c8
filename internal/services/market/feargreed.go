package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ternarybob/tickerscope/internal/models"
)

// ErrNoFearGreedData is returned when the index response holds no reading.
var ErrNoFearGreedData = errors.New("fear and greed index returned no data")

// Fetcher fetches a URL body.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error)
}

// FearGreedClient reads the alternative.me Fear & Greed index.
type FearGreedClient struct {
	fetcher Fetcher
	url     string
}

// NewFearGreedClient creates a client for the index endpoint.
func NewFearGreedClient(fetcher Fetcher, url string) *FearGreedClient {
	return &FearGreedClient{fetcher: fetcher, url: url}
}

// fngResponse mirrors the endpoint, which encodes numbers as strings.
type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
		Timestamp      string `json:"timestamp"`
	} `json:"data"`
	Metadata struct {
		Error *string `json:"error"`
	} `json:"metadata"`
}

// Latest returns the most recent reading.
func (c *FearGreedClient) Latest(ctx context.Context) (*models.FearGreedReading, error) {
	body, err := c.fetcher.Get(ctx, c.url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fear and greed index: %w", err)
	}

	var resp fngResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode fear and greed index: %w", err)
	}
	if resp.Metadata.Error != nil && *resp.Metadata.Error != "" {
		return nil, fmt.Errorf("fear and greed index error: %s", *resp.Metadata.Error)
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoFearGreedData
	}

	latest := resp.Data[0]
	value, err := strconv.Atoi(latest.Value)
	if err != nil || value < 0 || value > 100 {
		return nil, fmt.Errorf("invalid fear and greed value %q", latest.Value)
	}

	reading := &models.FearGreedReading{
		Value:          value,
		Classification: latest.Classification,
	}
	if secs, err := strconv.ParseInt(latest.Timestamp, 10, 64); err == nil {
		reading.Timestamp = time.Unix(secs, 0).UTC()
	}
	return reading, nil
}
