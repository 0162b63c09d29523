package events

import (
	"math/big"
	"strings"

	"passage/core/types"
)

const (
	// TypeTokenSupply is emitted whenever a fungible denom supply changes.
	TypeTokenSupply = "bank.supply"

	// SupplyReasonMint identifies mint driven supply increases.
	SupplyReasonMint = "mint"
	// SupplyReasonBurn identifies burn driven supply decreases.
	SupplyReasonBurn = "burn"
)

// TokenSupply captures a supply delta for a fungible denom.
type TokenSupply struct {
	Denom  string
	Total  *big.Int
	Delta  *big.Int
	Reason string
}

func (TokenSupply) EventType() string { return TypeTokenSupply }

// Event renders the structured supply change event for downstream consumers.
func (e TokenSupply) Event() *types.Event {
	attrs := map[string]string{}
	denom := types.NormalizeDenom(e.Denom)
	if denom == "" {
		denom = "unknown"
	}
	attrs["denom"] = denom
	attrs["total"] = FormatAmount(e.Total)
	if e.Delta != nil {
		attrs["delta"] = e.Delta.String()
	}
	if reason := strings.TrimSpace(e.Reason); reason != "" {
		attrs["reason"] = reason
	}
	return &types.Event{Type: TypeTokenSupply, Attributes: attrs}
}
