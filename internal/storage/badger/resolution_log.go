package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ResolutionLog persists every ownership resolution outcome
type ResolutionLog struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewResolutionLog creates a new ResolutionLog instance
func NewResolutionLog(db *BadgerDB, logger arbor.ILogger) interfaces.ResolutionLog {
	return &ResolutionLog{
		db:     db,
		logger: logger,
	}
}

// Record inserts a resolution record, assigning an ID if it has none
func (s *ResolutionLog) Record(ctx context.Context, record *models.ResolutionRecord) error {
	if record.ID == "" {
		record.ID = common.NewResolutionID()
	}
	if err := s.db.Store().Insert(record.ID, record); err != nil {
		return fmt.Errorf("failed to record resolution: %w", err)
	}
	return nil
}

// List returns the most recent records for a ticker, newest first
func (s *ResolutionLog) List(ctx context.Context, ticker string, limit int) ([]models.ResolutionRecord, error) {
	var records []models.ResolutionRecord
	query := badgerhold.Where("Ticker").Eq(ticker).Index("Ticker").SortBy("ResolvedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list resolutions: %w", err)
	}
	return records, nil
}
