package badger

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/interfaces"
)

// cacheKeyPrefix keeps raw cache entries apart from badgerhold's typed records.
const cacheKeyPrefix = "cache/"

// CacheStore implements interfaces.CacheStore on Badger's native per-entry TTL.
// Badger hides expired entries from readers, so expiry is enforced on read
// and garbage is reclaimed by Badger's own compaction.
type CacheStore struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCacheStore creates a persistent cache store
func NewCacheStore(db *BadgerDB, logger arbor.ILogger) interfaces.CacheStore {
	return &CacheStore{
		db:     db,
		logger: logger,
	}
}

// Get returns the value for key if present and not expired
func (s *CacheStore) Get(key string) ([]byte, bool) {
	var value []byte
	err := s.db.Store().Badger().View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKeyPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, treating as miss")
		}
		return nil, false
	}
	return value, true
}

// Set stores value under key for ttl. A non-positive ttl stores nothing.
func (s *CacheStore) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	err := s.db.Store().Badger().Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(cacheKeyPrefix+key), value).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
