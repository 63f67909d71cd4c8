package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/services/cache"
	"github.com/ternarybob/tickerscope/internal/storage/badger"
)

// Stores bundles the cache and the optional persistent history.
// Manager is nil when Badger is not enabled.
type Stores struct {
	Cache         interfaces.CacheStore
	ResolutionLog interfaces.ResolutionLog
	Manager       *badger.Manager
}

// Close releases the database if one was opened
func (s *Stores) Close() error {
	if s.Manager != nil {
		return s.Manager.Close()
	}
	return nil
}

// NewStores creates the cache store selected by config. The badger cache backend
// requires badger storage; resolution history is only kept when badger is enabled.
func NewStores(logger arbor.ILogger, config *common.Config) (*Stores, error) {
	useBadger := config.Storage.Badger.Enabled || config.Cache.Backend == "badger"
	if !useBadger {
		logger.Debug().Msg("Using in-memory cache, resolution history disabled")
		return &Stores{Cache: cache.NewMemoryStore()}, nil
	}

	manager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	stores := &Stores{
		ResolutionLog: manager.ResolutionLog(),
		Manager:       manager,
	}
	switch config.Cache.Backend {
	case "badger":
		stores.Cache = manager.CacheStore()
	default:
		stores.Cache = cache.NewMemoryStore()
	}
	return stores, nil
}
