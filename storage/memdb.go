package storage

import (
	"errors"
	"sync"

	"github.com/syndtr/goleveldb/leveldb/comparer"
	lvlerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// --- In-Memory DB (for testing) ---

// MemDB keeps keys sorted in a skiplist so prefix iteration matches the
// ordering of the persistent backends.
type MemDB struct {
	mu sync.RWMutex
	db *memdb.DB
}

func NewMemDB() *MemDB {
	return &MemDB{db: memdb.New(comparer.DefaultComparer, 0)}
}

func (m *MemDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, err := m.db.Get(key)
	if errors.Is(err, lvlerrors.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), value...), nil
}

func (m *MemDB) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db.Contains(key), nil
}

func (m *MemDB) Put(key []byte, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Put(key, value)
}

func (m *MemDB) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(key)
}

func (m *MemDB) deleteLocked(key []byte) error {
	err := m.db.Delete(key)
	if errors.Is(err, lvlerrors.ErrNotFound) {
		return nil
	}
	return err
}

func (m *MemDB) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it := m.db.NewIterator(util.BytesPrefix(prefix))
	defer it.Release()
	for it.Next() {
		key := append([]byte(nil), it.Key()...)
		value := append([]byte(nil), it.Value()...)
		if !fn(key, value) {
			break
		}
	}
	return it.Error()
}

// Write applies the batch while holding the write lock so readers never see a
// partially applied batch.
func (m *MemDB) Write(batch *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return batch.Replay(func(key, value []byte, deleted bool) error {
		if deleted {
			return m.deleteLocked(key)
		}
		return m.db.Put(key, value)
	})
}

// Len returns the number of live keys.
func (m *MemDB) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db.Len()
}

// Close satisfies the Database interface for MemDB.
func (m *MemDB) Close() {
	// Nothing to close for an in-memory database.
}
