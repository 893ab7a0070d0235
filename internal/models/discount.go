package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Discount struct {
	bun.BaseModel `bun:"table:discounts"`

	Code       string    `bun:"code,pk" json:"code"`
	Percentage float64   `bun:"percentage" json:"percentage"`
	UsageLimit int       `bun:"usage_limit" json:"usage_limit"`
	Expiry     time.Time `bun:"expiry" json:"expiry"`
	CreatedAt  time.Time `bun:"created_at" json:"created_at"`
}
