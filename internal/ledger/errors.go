package ledger

import "errors"

// The ledger's whole error contract: every operation either succeeds or
// reports one of these (store failures propagate wrapped, unretried).
var (
	ErrNotFound          = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidDiscount   = errors.New("invalid discount")
	ErrPaymentRequired   = errors.New("payment required")
)
