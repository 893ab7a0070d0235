package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CashTokenStatus string

const (
	TokenPending   CashTokenStatus = "pending"
	TokenValidated CashTokenStatus = "validated"
	TokenRejected  CashTokenStatus = "rejected"
)

type CashTokenType string

const (
	// TokenNormal covers the check-in payment, TokenOvertime the
	// overtime fee collected at check-out.
	TokenNormal   CashTokenType = "normal"
	TokenOvertime CashTokenType = "overtime"
)

type CashToken struct {
	bun.BaseModel `bun:"table:cash_tokens"`

	Token       string          `bun:"token,pk" json:"token"`
	BookingID   string          `bun:"booking_id" json:"booking_id"`
	UserID      string          `bun:"user_id" json:"user_id"`
	WorkspaceID string          `bun:"workspace_id" json:"workspace_id"`
	Amount      float64         `bun:"amount" json:"amount"`
	Status      CashTokenStatus `bun:"status" json:"status"`
	Type        CashTokenType   `bun:"type" json:"type"`
	CreatedAt   time.Time       `bun:"created_at" json:"created_at"`
}

type CashTokenResponse struct {
	Token     string        `json:"token"`
	BookingID string        `json:"booking_id"`
	Amount    float64       `json:"amount"`
	Type      CashTokenType `json:"type"`
	QRCode    string        `json:"qr_code,omitempty"`
	Reused    bool          `json:"reused"`
}
