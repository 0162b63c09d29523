package market

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"passage/core/types"
)

// Escrowed returns the total held for bidder across bids and collection bids.
func (e *Engine) Escrowed(bidder types.Address) (*big.Int, error) {
	if e.state == nil {
		return nil, errNilState
	}
	amount := new(big.Int)
	ok, err := e.state.KVGet(EscrowKey(bidder), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// lockFunds moves coin from holder into the escrow account and credits the
// bidder's escrow ledger.
func (e *Engine) lockFunds(bidder, holder types.Address, coin types.Coin) error {
	if err := e.bank.Send(holder, EscrowAccount(), coin, "escrow"); err != nil {
		return err
	}
	held, err := e.Escrowed(bidder)
	if err != nil {
		return err
	}
	held.Add(held, coin.Amount)
	return e.state.KVPut(EscrowKey(bidder), held)
}

// debitEscrow removes amount from the bidder's escrow ledger without moving
// funds. Callers pay the funds out of the escrow account themselves.
func (e *Engine) debitEscrow(bidder types.Address, amount *big.Int) error {
	held, err := e.Escrowed(bidder)
	if err != nil {
		return err
	}
	if held.Cmp(amount) < 0 {
		return fmt.Errorf("market: escrow of %s holds %s, cannot release %s", bidder, held, amount)
	}
	held.Sub(held, amount)
	if held.Sign() == 0 {
		return e.state.KVDelete(EscrowKey(bidder))
	}
	return e.state.KVPut(EscrowKey(bidder), held)
}

// refund releases coin from escrow back to the bidder.
func (e *Engine) refund(bidder types.Address, coin types.Coin) error {
	if err := e.debitEscrow(bidder, coin.Amount); err != nil {
		return err
	}
	return e.bank.Send(EscrowAccount(), bidder, coin, "refund")
}

// EscrowRecord pairs a bidder with its escrow ledger entry.
type EscrowRecord struct {
	Bidder types.Address `json:"bidder"`
	Amount *big.Int      `json:"amount"`
}

// EscrowLedger lists every escrow entry in bidder order.
func (e *Engine) EscrowLedger() ([]EscrowRecord, error) {
	if e.state == nil {
		return nil, errNilState
	}
	var out []EscrowRecord
	err := e.state.KVIterate(escrowPrefix, func(key, value []byte) (bool, error) {
		bidder, err := types.BytesToAddress(key[len(escrowPrefix):])
		if err != nil {
			return false, err
		}
		amount := new(big.Int)
		if err := rlp.DecodeBytes(value, amount); err != nil {
			return false, err
		}
		out = append(out, EscrowRecord{Bidder: bidder, Amount: amount})
		return true, nil
	})
	return out, err
}
