package fees

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	perrors "passage/core/errors"
	"passage/core/types"
)

// MaxBps is the basis-point denominator: 10000 bp = 100%.
const MaxBps = 10_000

// Well-known share labels.
const (
	LabelMarketplace = "marketplace"
	LabelRoyalty     = "royalty"
)

var bpsDenominator = uint256.NewInt(MaxBps)

// Share routes a basis-point slice of every sale to a recipient.
type Share struct {
	Recipient types.Address `json:"recipient" yaml:"recipient"`
	Bps       uint32        `json:"bps" yaml:"bps"`
	Label     string        `json:"label,omitempty" yaml:"label,omitempty"`
}

// Schedule lists the shares deducted from a sale before the seller is paid.
type Schedule struct {
	Shares []Share `json:"shares" yaml:"shares"`
}

// TotalBps sums every share.
func (s Schedule) TotalBps() uint64 {
	var total uint64
	for _, share := range s.Shares {
		total += uint64(share.Bps)
	}
	return total
}

// Validate enforces a sum of shares of at most 10000 bp and a recipient on
// every share.
func (s Schedule) Validate() error {
	for i, share := range s.Shares {
		if share.Recipient.IsZero() {
			return fmt.Errorf("%w: fee share %d has no recipient", perrors.ErrInvalidConfig, i)
		}
		if share.Bps > MaxBps {
			return fmt.Errorf("%w: fee share %d exceeds %d bp", perrors.ErrInvalidConfig, i, MaxBps)
		}
	}
	if total := s.TotalBps(); total > MaxBps {
		return fmt.Errorf("%w: fee shares sum to %d bp", perrors.ErrInvalidConfig, total)
	}
	return nil
}

// Payout is one computed disbursement.
type Payout struct {
	Recipient types.Address
	Label     string
	Amount    *big.Int
}

// Split is the result of applying a schedule to a sale amount. The sum of
// every payout plus Remainder always equals the sale amount.
type Split struct {
	Payouts   []Payout
	Remainder *big.Int
}

// Total returns the sum of payouts and remainder.
func (s Split) Total() *big.Int {
	total := new(big.Int)
	for _, payout := range s.Payouts {
		total.Add(total, payout.Amount)
	}
	if s.Remainder != nil {
		total.Add(total, s.Remainder)
	}
	return total
}

// Share returns the amount paid to the share labelled label.
func (s Split) Share(label string) *big.Int {
	total := new(big.Int)
	for _, payout := range s.Payouts {
		if strings.EqualFold(payout.Label, label) {
			total.Add(total, payout.Amount)
		}
	}
	return total
}

// Split computes floor(amount*bps/10000) for every share and assigns the
// remainder to the seller so rounding never pays out more than amount.
func (s Schedule) Split(amount *big.Int) (Split, error) {
	if amount == nil || amount.Sign() < 0 {
		return Split{}, fmt.Errorf("fees: amount must be non-negative")
	}
	if err := s.Validate(); err != nil {
		return Split{}, err
	}
	gross, overflow := uint256.FromBig(amount)
	if overflow {
		return Split{}, fmt.Errorf("fees: amount %s overflows 256 bits", amount)
	}
	remainder := new(uint256.Int).Set(gross)
	result := Split{Payouts: make([]Payout, 0, len(s.Shares))}
	for _, share := range s.Shares {
		part, overflow := new(uint256.Int).MulDivOverflow(gross, uint256.NewInt(uint64(share.Bps)), bpsDenominator)
		if overflow {
			return Split{}, fmt.Errorf("fees: share %s overflows", share.Label)
		}
		if part.Gt(remainder) {
			return Split{}, fmt.Errorf("fees: shares exceed sale amount")
		}
		remainder.Sub(remainder, part)
		result.Payouts = append(result.Payouts, Payout{
			Recipient: share.Recipient,
			Label:     share.Label,
			Amount:    part.ToBig(),
		})
	}
	result.Remainder = remainder.ToBig()
	return result, nil
}
