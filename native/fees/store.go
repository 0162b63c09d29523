package fees

import (
	"fmt"

	"passage/core/types"
	"passage/native/params"
)

// LoadSchedule reads the stored fee schedule. A missing record is an empty
// schedule: every sale pays the seller in full.
func LoadSchedule(store *params.Store) (Schedule, error) {
	var schedule Schedule
	if _, err := store.Load(params.ParamsKeyFees, &schedule); err != nil {
		return Schedule{}, err
	}
	return schedule, nil
}

// SaveSchedule validates and stores schedule.
func SaveSchedule(store *params.Store, schedule Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	return store.Save(params.ParamsKeyFees, schedule)
}

// Sender moves funds between accounts.
type Sender interface {
	Send(from, to types.Address, coin types.Coin, reason string) error
}

// Disburse pays every share of split in denom from the holding account and the
// remainder to remainderTo. The first failed transfer aborts the disbursement;
// the caller's unit of work discards the transfers that already ran.
func Disburse(bank Sender, from types.Address, denom string, split Split, remainderTo types.Address, reason string) error {
	for _, payout := range split.Payouts {
		if payout.Amount.Sign() == 0 {
			continue
		}
		coin := types.Coin{Denom: denom, Amount: payout.Amount}
		if err := bank.Send(from, payout.Recipient, coin, reason+"/"+payout.Label); err != nil {
			return fmt.Errorf("fees: pay %s share: %w", payout.Label, err)
		}
	}
	if split.Remainder == nil || split.Remainder.Sign() == 0 {
		return nil
	}
	coin := types.Coin{Denom: denom, Amount: split.Remainder}
	if err := bank.Send(from, remainderTo, coin, reason); err != nil {
		return fmt.Errorf("fees: pay proceeds: %w", err)
	}
	return nil
}
