package minter

import (
	"bytes"
	"fmt"

	"passage/core/events"
	perrors "passage/core/errors"
	"passage/core/types"
)

// HasMember reports whether addr is in the stored whitelist set.
func (e *Engine) HasMember(addr types.Address) (bool, error) {
	if e.state == nil {
		return false, errNilState
	}
	return e.state.KVGet(MemberKey(addr), nil)
}

// MemberCount returns the size of the whitelist set.
func (e *Engine) MemberCount() (uint64, error) {
	if e.state == nil {
		return 0, errNilState
	}
	return e.state.Counter(memberCounter)
}

// AddMembers inserts addrs into the whitelist set. Admin only. Duplicates in
// the request or in the set fail the whole call.
func (e *Engine) AddMembers(caller types.Address, addrs []types.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.admin.RequireAdmin(caller); err != nil {
		return err
	}
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	count, err := e.MemberCount()
	if err != nil {
		return err
	}
	seen := make(map[types.Address]struct{}, len(addrs))
	for _, addr := range addrs {
		if addr.IsZero() {
			return fmt.Errorf("%w: member address required", perrors.ErrInvalidConfig)
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("minter: %s: %w", addr, perrors.ErrDuplicateMember)
		}
		seen[addr] = struct{}{}
		exists, err := e.HasMember(addr)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("minter: %s: %w", addr, perrors.ErrDuplicateMember)
		}
	}
	count += uint64(len(addrs))
	if cfg.MemberLimit > 0 && count > uint64(cfg.MemberLimit) {
		return fmt.Errorf("minter: %d members over limit %d: %w", count, cfg.MemberLimit, perrors.ErrMembersExceeded)
	}
	for _, addr := range addrs {
		if err := e.state.KVPut(MemberKey(addr), true); err != nil {
			return err
		}
	}
	if err := e.state.SetCounter(memberCounter, count); err != nil {
		return err
	}
	e.emit(events.New(EventTypeMembersAdded, map[string]string{
		"added": events.FormatUint(uint64(len(addrs))),
		"total": events.FormatUint(count),
	}))
	return nil
}

// RemoveMembers deletes addrs from the whitelist set. Admin only.
func (e *Engine) RemoveMembers(caller types.Address, addrs []types.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.admin.RequireAdmin(caller); err != nil {
		return err
	}
	count, err := e.MemberCount()
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		exists, err := e.HasMember(addr)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("minter: %s: %w", addr, perrors.ErrMemberNotFound)
		}
		if err := e.state.KVDelete(MemberKey(addr)); err != nil {
			return err
		}
		count--
	}
	if err := e.state.SetCounter(memberCounter, count); err != nil {
		return err
	}
	e.emit(events.New(EventTypeMembersRemoved, map[string]string{
		"removed": events.FormatUint(uint64(len(addrs))),
		"total":   events.FormatUint(count),
	}))
	return nil
}

// Members lists whitelist members in address order, starting after startAfter.
func (e *Engine) Members(startAfter types.Address, limit uint32) ([]types.Address, error) {
	if e.state == nil {
		return nil, errNilState
	}
	pageSize := types.PageLimit(limit)
	out := make([]types.Address, 0, pageSize)
	err := e.state.KVIterate(memberPrefix, func(key, _ []byte) (bool, error) {
		raw := key[len(memberPrefix):]
		if !startAfter.IsZero() && bytes.Compare(raw, startAfter[:]) <= 0 {
			return true, nil
		}
		addr, err := types.BytesToAddress(raw)
		if err != nil {
			return false, err
		}
		out = append(out, addr)
		return len(out) < pageSize, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
