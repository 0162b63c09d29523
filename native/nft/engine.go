package nft

import (
	"encoding/binary"
	"errors"
	"fmt"

	"passage/core/events"
	perrors "passage/core/errors"
	"passage/core/types"
)

// ModuleName identifies the metadata store in events and pause checks.
const ModuleName = "nft"

var errNilState = errors.New("nft engine: state not configured")

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVIterate(prefix []byte, fn func(key, value []byte) (bool, error)) error
}

// Engine owns token records, the owner index and the supply counter.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() uint64
}

// NewEngine creates a metadata store engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc configures the block time source.
func (e *Engine) SetNowFunc(now func() uint64) { e.nowFn = now }

func (e *Engine) now() uint64 {
	if e.nowFn == nil {
		return 0
	}
	return e.nowFn()
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

// SetCollection stores the collection description.
func (e *Engine) SetCollection(info Collection) error {
	if e.state == nil {
		return errNilState
	}
	if err := info.Validate(); err != nil {
		return err
	}
	return e.state.KVPut(collectionKey, &info)
}

// Collection loads the collection description.
func (e *Engine) Collection() (Collection, error) {
	if e.state == nil {
		return Collection{}, errNilState
	}
	var info Collection
	ok, err := e.state.KVGet(collectionKey, &info)
	if err != nil {
		return Collection{}, err
	}
	if !ok {
		return Collection{}, fmt.Errorf("nft: collection not initialised")
	}
	return info, nil
}

// Supply returns the number of tokens minted so far.
func (e *Engine) Supply() (uint64, error) {
	if e.state == nil {
		return 0, errNilState
	}
	var supply uint64
	if _, err := e.state.KVGet(supplyKey, &supply); err != nil {
		return 0, err
	}
	return supply, nil
}

// MintNext creates token supply+1 for owner. The cap check, the counter write
// and the token write share the caller's unit of work, so they commit together
// or not at all. An empty uri falls back to the collection base URI.
func (e *Engine) MintNext(owner types.Address, uri string, attrs []Attribute, maxSupply uint64) (*Token, error) {
	if e.state == nil {
		return nil, errNilState
	}
	if owner.IsZero() {
		return nil, fmt.Errorf("nft: owner required")
	}
	if err := ValidateAttributes(attrs); err != nil {
		return nil, err
	}
	supply, err := e.Supply()
	if err != nil {
		return nil, err
	}
	if supply >= maxSupply {
		return nil, fmt.Errorf("nft: supply %d of %d: %w", supply, maxSupply, perrors.ErrSupplyExhausted)
	}
	info, err := e.Collection()
	if err != nil {
		return nil, err
	}
	id := supply + 1
	if uri == "" {
		uri = info.TokenURI(id)
	}
	token := &Token{
		Collection:   info.Address,
		ID:           id,
		Owner:        owner,
		URI:          uri,
		MetadataHash: MetadataHash(info.Address, id, uri),
		Attributes:   append([]Attribute(nil), attrs...),
		MintedAt:     e.now(),
	}
	if err := e.state.KVPut(supplyKey, id); err != nil {
		return nil, err
	}
	if err := e.putToken(token); err != nil {
		return nil, err
	}
	if err := e.state.KVPut(OwnerIndexKey(owner, id), true); err != nil {
		return nil, err
	}
	e.emit(events.New(EventTypeMinted, map[string]string{
		"tokenId": events.FormatUint(id),
		"owner":   owner.String(),
		"uri":     uri,
		"supply":  events.FormatUint(id),
	}))
	return token.Clone(), nil
}

// Token loads a token by id.
func (e *Engine) Token(id uint64) (*Token, error) {
	if e.state == nil {
		return nil, errNilState
	}
	token := new(Token)
	ok, err := e.state.KVGet(TokenKey(id), token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("nft: token %d: %w", id, perrors.ErrTokenNotFound)
	}
	return token, nil
}

// OwnerOf returns the current holder of id.
func (e *Engine) OwnerOf(id uint64) (types.Address, error) {
	token, err := e.Token(id)
	if err != nil {
		return types.Address{}, err
	}
	return token.Owner, nil
}

// Transfer moves id from from to to. It fails with ErrNotOwner unless from
// holds the token.
func (e *Engine) Transfer(id uint64, from, to types.Address) error {
	token, err := e.Token(id)
	if err != nil {
		return err
	}
	if token.Owner != from {
		return fmt.Errorf("nft: token %d: %w", id, perrors.ErrNotOwner)
	}
	if to.IsZero() {
		return fmt.Errorf("nft: recipient required")
	}
	if from == to {
		return nil
	}
	if err := e.state.KVDelete(OwnerIndexKey(from, id)); err != nil {
		return err
	}
	token.Owner = to
	if err := e.putToken(token); err != nil {
		return err
	}
	if err := e.state.KVPut(OwnerIndexKey(to, id), true); err != nil {
		return err
	}
	e.emit(events.New(EventTypeTransferred, map[string]string{
		"tokenId": events.FormatUint(id),
		"from":    from.String(),
		"to":      to.String(),
	}))
	return nil
}

// SetAttributes replaces the mutable metadata of id. Only the owner may call it.
func (e *Engine) SetAttributes(id uint64, caller types.Address, attrs []Attribute) error {
	if err := ValidateAttributes(attrs); err != nil {
		return err
	}
	token, err := e.Token(id)
	if err != nil {
		return err
	}
	if token.Owner != caller {
		return fmt.Errorf("nft: token %d: %w", id, perrors.ErrNotOwner)
	}
	token.Attributes = append([]Attribute(nil), attrs...)
	if err := e.putToken(token); err != nil {
		return err
	}
	e.emit(events.New(EventTypeAttributesUpdated, map[string]string{
		"tokenId": events.FormatUint(id),
		"count":   events.FormatUint(uint64(len(attrs))),
	}))
	return nil
}

// TokensByOwner lists the ids held by owner in ascending order, starting after
// startAfter.
func (e *Engine) TokensByOwner(owner types.Address, startAfter uint64, limit uint32) ([]uint64, error) {
	if e.state == nil {
		return nil, errNilState
	}
	pageSize := types.PageLimit(limit)
	prefix := ownerIndexPrefix(owner)
	ids := make([]uint64, 0, pageSize)
	err := e.state.KVIterate(prefix, func(key, _ []byte) (bool, error) {
		id := binary.BigEndian.Uint64(key[len(prefix):])
		if id <= startAfter {
			return true, nil
		}
		ids = append(ids, id)
		return len(ids) < pageSize, nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AllTokens lists token records in id order starting after startAfter.
func (e *Engine) AllTokens(startAfter uint64, limit uint32) ([]*Token, error) {
	if e.state == nil {
		return nil, errNilState
	}
	pageSize := types.PageLimit(limit)
	tokens := make([]*Token, 0, pageSize)
	for id := startAfter + 1; len(tokens) < pageSize; id++ {
		token, err := e.Token(id)
		if errors.Is(err, perrors.ErrTokenNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func (e *Engine) putToken(token *Token) error {
	return e.state.KVPut(TokenKey(token.ID), token)
}
