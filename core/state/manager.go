package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// Manager provides typed accessors over a Store. Records are RLP encoded;
// singleton parameters are opaque JSON blobs under the params/ namespace.
type Manager struct {
	store Store
}

// NewManager creates a state manager operating on the provided store,
// normally a *Tx.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

var (
	paramsPrefix  = []byte("params/")
	counterPrefix = []byte("counter/")
)

// ParamStoreKey returns the storage key of a named parameter blob.
func ParamStoreKey(name string) []byte {
	buf := make([]byte, len(paramsPrefix)+len(name))
	copy(buf, paramsPrefix)
	copy(buf[len(paramsPrefix):], name)
	return buf
}

// CounterKey returns the storage key of a named monotonic counter.
func CounterKey(name string) []byte {
	buf := make([]byte, len(counterPrefix)+len(name))
	copy(buf, counterPrefix)
	copy(buf[len(counterPrefix):], name)
	return buf
}

// Store exposes the underlying key/value surface.
func (m *Manager) Store() Store { return m.store }

// KVPut stores the RLP encoding of value under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.store.Set(key, encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, ok, err := m.store.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("kv: decode %q: %w", key, err)
	}
	return true, nil
}

// KVHas reports whether key holds a value.
func (m *Manager) KVHas(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	return m.store.Has(key)
}

// KVDelete removes key. Deleting an absent key is a no-op.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.store.Delete(key)
}

// KVIterate walks every record under prefix in key order. fn receives the raw
// RLP payload; returning false or an error stops the walk.
func (m *Manager) KVIterate(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	var cbErr error
	err := m.store.Iterate(prefix, func(key, value []byte) bool {
		cont, err := fn(key, value)
		if err != nil {
			cbErr = err
			return false
		}
		return cont
	})
	if err != nil {
		return err
	}
	return cbErr
}

// ParamStoreSet persists a raw parameter blob.
func (m *Manager) ParamStoreSet(name string, value []byte) error {
	if name == "" {
		return fmt.Errorf("params: name must not be empty")
	}
	return m.store.Set(ParamStoreKey(name), value)
}

// ParamStoreGet loads a raw parameter blob.
func (m *Manager) ParamStoreGet(name string) ([]byte, bool, error) {
	if name == "" {
		return nil, false, fmt.Errorf("params: name must not be empty")
	}
	return m.store.Get(ParamStoreKey(name))
}

// Counter returns the current value of a named counter.
func (m *Manager) Counter(name string) (uint64, error) {
	data, ok, err := m.store.Get(CounterKey(name))
	if err != nil || !ok {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("counter %s: malformed value", name)
	}
	return binary.BigEndian.Uint64(data), nil
}

// SetCounter overwrites a named counter.
func (m *Manager) SetCounter(name string, value uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	return m.store.Set(CounterKey(name), buf[:])
}

// IncrementCounter adds one to a named counter and returns the new value.
func (m *Manager) IncrementCounter(name string) (uint64, error) {
	current, err := m.Counter(name)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if next == 0 {
		return 0, fmt.Errorf("counter %s: overflow", name)
	}
	if err := m.SetCounter(name, next); err != nil {
		return 0, err
	}
	return next, nil
}

// BigGet loads a big integer stored as RLP, defaulting to zero.
func (m *Manager) BigGet(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

// BigPut stores a non-negative big integer, deleting the key when it is zero.
func (m *Manager) BigPut(key []byte, value *big.Int) error {
	if value == nil || value.Sign() == 0 {
		return m.KVDelete(key)
	}
	if value.Sign() < 0 {
		return fmt.Errorf("kv: negative value for %q", key)
	}
	return m.KVPut(key, value)
}
