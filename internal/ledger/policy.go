package ledger

// TransitionPolicy decides when a cash-token payment moves the booking
// forward. The optimistic policy applies the transition as soon as the
// token is minted, so the payer can use the space while the operator
// confirms the cash payment later. ConfirmFirst holds the booking until
// validation; ValidateCashToken derives the transition from the token's
// type and the booking's current status either way, so both policies
// converge there.
type TransitionPolicy interface {
	ApplyOnMint() bool
}

type OptimisticPolicy struct{}

func (OptimisticPolicy) ApplyOnMint() bool { return true }

type ConfirmFirstPolicy struct{}

func (ConfirmFirstPolicy) ApplyOnMint() bool { return false }
