package storage

import (
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// BadgerDB stores the ledger in a badger LSM tree. An empty path opens an
// in-memory instance.
type BadgerDB struct {
	db *badger.DB
}

// NewBadgerDB opens (or creates) a badger database at path.
func NewBadgerDB(path string) (*BadgerDB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if strings.TrimSpace(path) == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerDB{db: db}, nil
}

func (bs *BadgerDB) Get(key []byte) ([]byte, error) {
	var value []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (bs *BadgerDB) Has(key []byte) (bool, error) {
	_, err := bs.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (bs *BadgerDB) Put(key []byte, value []byte) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (bs *BadgerDB) Delete(key []byte) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (bs *BadgerDB) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	return bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.KeyCopy(nil), value) {
				return nil
			}
		}
		return nil
	})
}

// Write applies the batch inside one badger read-write transaction.
func (bs *BadgerDB) Write(batch *Batch) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return batch.Replay(func(key, value []byte, deleted bool) error {
			if deleted {
				return txn.Delete(key)
			}
			return txn.Set(key, value)
		})
	})
}

func (bs *BadgerDB) Close() {
	bs.db.Close()
}
