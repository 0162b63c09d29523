package events

import (
	"math/big"

	"passage/core/types"
)

const (
	// TypeTransfer is emitted for every fungible balance movement.
	TypeTransfer = "bank.transfer"
)

type Transfer struct {
	Denom  string
	From   types.Address
	To     types.Address
	Amount *big.Int
	Reason string
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	return New(TypeTransfer, map[string]string{
		"denom":  types.NormalizeDenom(e.Denom),
		"from":   FormatAddress(e.From),
		"to":     FormatAddress(e.To),
		"amount": FormatAmount(e.Amount),
		"reason": e.Reason,
	})
}
