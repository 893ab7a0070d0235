package models

// Identity is the acting user, passed explicitly into every ledger
// operation. The ledger never reads ambient auth state.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}
