package errors

import stderrors "errors"

// Every rejected entry point surfaces one of these kinds. Engines wrap them with
// context via fmt.Errorf("...: %w", err); callers match with errors.Is.
var (
	ErrUnauthorized        = stderrors.New("unauthorized")
	ErrNotOwner            = stderrors.New("caller does not own the token")
	ErrNotSeller           = stderrors.New("caller is not the seller")
	ErrSupplyExhausted     = stderrors.New("mintable supply exhausted")
	ErrPhaseClosed         = stderrors.New("mint phase closed for caller")
	ErrInsufficientPayment = stderrors.New("insufficient payment")
	ErrAlreadyListed       = stderrors.New("token already listed")
	ErrNoActiveAsk         = stderrors.New("no active ask")
	ErrNoActiveBid         = stderrors.New("no active bid")
	ErrDuplicateBid        = stderrors.New("bid already exists")
	ErrExpired             = stderrors.New("expired")
	ErrPriceMismatch       = stderrors.New("price mismatch")
	ErrNotEligible         = stderrors.New("buyer not eligible")
	ErrInvalidConfig       = stderrors.New("invalid config")
	ErrContractPaused      = stderrors.New("contract paused")
	ErrZeroAmount          = stderrors.New("amount must be positive")

	ErrPerAddressLimit  = stderrors.New("per address mint limit reached")
	ErrPriceTooLow      = stderrors.New("price below marketplace minimum")
	ErrInvalidExpiry    = stderrors.New("expiration outside allowed range")
	ErrDuplicateMember  = stderrors.New("member already whitelisted")
	ErrMemberNotFound   = stderrors.New("member not found")
	ErrMembersExceeded  = stderrors.New("whitelist member limit exceeded")
	ErrTokenNotFound    = stderrors.New("token not found")
	ErrTransferRejected = stderrors.New("transfer rejected")
	ErrInsufficientFund = stderrors.New("insufficient balance")
	ErrUnknownMessage   = stderrors.New("unknown message")
	ErrVersionDowngrade = stderrors.New("contract version downgrade")
	ErrNoActiveAuction  = stderrors.New("no active auction")
	ErrReserveMet       = stderrors.New("reserve price met, highest bid must be accepted")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrUnauthorized, "Unauthorized"},
	{ErrNotOwner, "NotOwner"},
	{ErrNotSeller, "NotSeller"},
	{ErrSupplyExhausted, "SupplyExhausted"},
	{ErrPhaseClosed, "PhaseClosed"},
	{ErrInsufficientPayment, "InsufficientPayment"},
	{ErrAlreadyListed, "AlreadyListed"},
	{ErrNoActiveAsk, "NoActiveAsk"},
	{ErrNoActiveBid, "NoActiveBid"},
	{ErrDuplicateBid, "DuplicateBid"},
	{ErrExpired, "Expired"},
	{ErrPriceMismatch, "PriceMismatch"},
	{ErrNotEligible, "NotEligible"},
	{ErrInvalidConfig, "InvalidConfig"},
	{ErrContractPaused, "ContractPaused"},
	{ErrZeroAmount, "ZeroAmount"},
	{ErrPerAddressLimit, "PerAddressLimitReached"},
	{ErrPriceTooLow, "PriceTooLow"},
	{ErrInvalidExpiry, "InvalidExpiry"},
	{ErrDuplicateMember, "DuplicateMember"},
	{ErrMemberNotFound, "MemberNotFound"},
	{ErrMembersExceeded, "MembersExceeded"},
	{ErrTokenNotFound, "TokenNotFound"},
	{ErrTransferRejected, "TransferRejected"},
	{ErrInsufficientFund, "InsufficientFunds"},
	{ErrUnknownMessage, "UnknownMessage"},
	{ErrVersionDowngrade, "VersionDowngrade"},
	{ErrNoActiveAuction, "NoActiveAuction"},
	{ErrReserveMet, "ReservePriceMet"},
}

// KindInternal is reported for errors that are not contract error kinds, such
// as storage or encoding failures.
const KindInternal = "Internal"

// Kind returns the stable name of the contract error wrapped by err. A nil
// error yields the empty string.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range kinds {
		if stderrors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindInternal
}
