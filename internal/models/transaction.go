package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PaymentMethod is the single tagged representation of how a payer settles
// a booking. Dispatch on it happens inside the ledger, nowhere else.
type PaymentMethod string

const (
	MethodGateway   PaymentMethod = "gateway"
	MethodCashToken PaymentMethod = "cashtoken"
)

type TransactionStatus string

const (
	TxPending TransactionStatus = "pending"
	TxSuccess TransactionStatus = "success"
	TxFailed  TransactionStatus = "failed"
)

type Transaction struct {
	bun.BaseModel `bun:"table:transactions"`

	TransactionID string            `bun:"transaction_id,pk" json:"transaction_id"`
	UserID        string            `bun:"user_id" json:"user_id"`
	BookingID     string            `bun:"booking_id" json:"booking_id"`
	WorkspaceID   string            `bun:"workspace_id" json:"workspace_id"`
	Amount        float64           `bun:"amount" json:"amount"`
	Method        PaymentMethod     `bun:"method" json:"method"`
	Status        TransactionStatus `bun:"status" json:"status"`
	Reference     string            `bun:"reference,nullzero" json:"reference,omitempty"`
	CreatedAt     time.Time         `bun:"created_at" json:"created_at"`
}
