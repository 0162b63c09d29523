package minter

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	perrors "passage/core/errors"
	"passage/core/types"
)

// Phase gates who may mint.
type Phase string

const (
	PhaseClosed    Phase = "closed"
	PhaseWhitelist Phase = "whitelist"
	PhasePublic    Phase = "public"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseClosed, PhaseWhitelist, PhasePublic:
		return true
	}
	return false
}

// Config is the singleton mint configuration. Zero StartTime/EndTime leave the
// window open on that side; zero PerAddressLimit and MemberLimit mean unlimited.
type Config struct {
	MaxMintableTokens uint64        `json:"maxMintableTokens" yaml:"max_mintable_tokens"`
	UnitPrice         types.Coin    `json:"unitPrice" yaml:"unit_price"`
	Phase             Phase         `json:"phase" yaml:"phase"`
	WhitelistRoot     common.Hash   `json:"whitelistRoot" yaml:"whitelist_root"`
	PerAddressLimit   uint32        `json:"perAddressLimit" yaml:"per_address_limit"`
	MemberLimit       uint32        `json:"memberLimit" yaml:"member_limit"`
	PaymentRecipient  types.Address `json:"paymentRecipient" yaml:"payment_recipient"`
	StartTime         uint64        `json:"startTime" yaml:"start_time"`
	EndTime           uint64        `json:"endTime" yaml:"end_time"`
}

// Validate checks the config against the current supply.
func (c Config) Validate(supply uint64) error {
	if c.MaxMintableTokens < supply {
		return fmt.Errorf("%w: max mintable tokens %d below minted supply %d", perrors.ErrInvalidConfig, c.MaxMintableTokens, supply)
	}
	if strings.TrimSpace(c.UnitPrice.Denom) == "" {
		return fmt.Errorf("%w: unit price denom required", perrors.ErrInvalidConfig)
	}
	if err := c.UnitPrice.Validate(); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrInvalidConfig, err)
	}
	if !c.Phase.Valid() {
		return fmt.Errorf("%w: unknown phase %q", perrors.ErrInvalidConfig, c.Phase)
	}
	if c.PaymentRecipient.IsZero() {
		return fmt.Errorf("%w: payment recipient required", perrors.ErrInvalidConfig)
	}
	if c.StartTime != 0 && c.EndTime != 0 && c.StartTime >= c.EndTime {
		return fmt.Errorf("%w: start time must precede end time", perrors.ErrInvalidConfig)
	}
	return nil
}

// HasRoot reports whether a merkle root gates the whitelist phase.
func (c Config) HasRoot() bool { return c.WhitelistRoot != (common.Hash{}) }

// InWindow reports whether now falls inside [StartTime, EndTime).
func (c Config) InWindow(now uint64) bool {
	if c.StartTime != 0 && now < c.StartTime {
		return false
	}
	if c.EndTime != 0 && now >= c.EndTime {
		return false
	}
	return true
}
