package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
)

// Manager owns the Badger connection and the stores built on it
type Manager struct {
	db            *BadgerDB
	cache         interfaces.CacheStore
	resolutionLog interfaces.ResolutionLog
	logger        arbor.ILogger
}

// NewManager opens the database and creates the stores
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:            db,
		cache:         NewCacheStore(db, logger),
		resolutionLog: NewResolutionLog(db, logger),
		logger:        logger,
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// CacheStore returns the persistent cache store
func (m *Manager) CacheStore() interfaces.CacheStore {
	return m.cache
}

// ResolutionLog returns the resolution history store
func (m *Manager) ResolutionLog() interfaces.ResolutionLog {
	return m.resolutionLog
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
