package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"passage/storage"
)

// Store is the key/value surface every engine reads and writes through.
type Store interface {
	Get(key []byte) ([]byte, bool, error)
	Has(key []byte) (bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Iterate(prefix []byte, fn func(key, value []byte) bool) error
}

var errTxClosed = errors.New("state: transaction already closed")

type pendingWrite struct {
	value   []byte
	deleted bool
}

// Tx is a unit of work layered over a database. Reads observe the buffered
// writes; nothing reaches the database until Commit applies the write set as a
// single batch. Discard drops it.
type Tx struct {
	db     storage.Database
	writes map[string]pendingWrite
	closed bool
}

// NewTx opens a unit of work over db.
func NewTx(db storage.Database) *Tx {
	return &Tx{db: db, writes: make(map[string]pendingWrite)}
}

// Get returns the value stored under key, preferring buffered writes.
func (tx *Tx) Get(key []byte) ([]byte, bool, error) {
	if tx.closed {
		return nil, false, errTxClosed
	}
	if pending, ok := tx.writes[string(key)]; ok {
		if pending.deleted {
			return nil, false, nil
		}
		return append([]byte(nil), pending.value...), true, nil
	}
	value, err := tx.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (tx *Tx) Has(key []byte) (bool, error) {
	_, ok, err := tx.Get(key)
	return ok, err
}

func (tx *Tx) Set(key, value []byte) error {
	if tx.closed {
		return errTxClosed
	}
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	tx.writes[string(key)] = pendingWrite{value: append([]byte(nil), value...)}
	return nil
}

func (tx *Tx) Delete(key []byte) error {
	if tx.closed {
		return errTxClosed
	}
	tx.writes[string(key)] = pendingWrite{deleted: true}
	return nil
}

// Iterate visits every live key under prefix in ascending byte order, merging
// the database view with buffered writes. Returning false from fn stops the
// walk.
func (tx *Tx) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	if tx.closed {
		return errTxClosed
	}
	merged := make(map[string][]byte)
	err := tx.db.Iterate(prefix, func(key, value []byte) bool {
		merged[string(key)] = append([]byte(nil), value...)
		return true
	})
	if err != nil {
		return err
	}
	for key, pending := range tx.writes {
		if !bytes.HasPrefix([]byte(key), prefix) {
			continue
		}
		if pending.deleted {
			delete(merged, key)
			continue
		}
		merged[key] = pending.value
	}
	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !fn([]byte(key), append([]byte(nil), merged[key]...)) {
			return nil
		}
	}
	return nil
}

// Pending reports the number of buffered writes.
func (tx *Tx) Pending() int { return len(tx.writes) }

// Commit atomically applies the write set and returns a digest of the change
// set. An empty write set commits nothing and yields the zero hash.
func (tx *Tx) Commit() (common.Hash, error) {
	if tx.closed {
		return common.Hash{}, errTxClosed
	}
	tx.closed = true
	if len(tx.writes) == 0 {
		return common.Hash{}, nil
	}
	keys := make([]string, 0, len(tx.writes))
	for key := range tx.writes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	batch := &storage.Batch{}
	hasher := ethcrypto.NewKeccakState()
	var lenBuf [8]byte
	for _, key := range keys {
		pending := tx.writes[key]
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(key)))
		hasher.Write(lenBuf[:])
		hasher.Write([]byte(key))
		if pending.deleted {
			batch.Delete([]byte(key))
			hasher.Write([]byte{0})
			continue
		}
		batch.Put([]byte(key), pending.value)
		hasher.Write([]byte{1})
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(pending.value)))
		hasher.Write(lenBuf[:])
		hasher.Write(pending.value)
	}
	if err := tx.db.Write(batch); err != nil {
		return common.Hash{}, fmt.Errorf("state: commit: %w", err)
	}
	var digest common.Hash
	hasher.Read(digest[:])
	tx.writes = nil
	return digest, nil
}

// Discard drops every buffered write.
func (tx *Tx) Discard() {
	tx.closed = true
	tx.writes = nil
}
