package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingInProgress BookingStatus = "inprogress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID    string        `bun:"booking_id,pk" json:"booking_id"`
	UserID       string        `bun:"user_id" json:"user_id"`
	ServiceID    string        `bun:"service_id" json:"service_id"`
	WorkspaceID  string        `bun:"workspace_id" json:"workspace_id"`
	Date         string        `bun:"date" json:"date"`
	StartTime    time.Time     `bun:"start_time" json:"start_time"`
	Duration     int           `bun:"duration" json:"duration"`
	DurationUnit string        `bun:"duration_unit" json:"duration_unit"`
	NumSeats     int           `bun:"num_seats" json:"num_seats"`
	TotalPrice   float64       `bun:"total_price" json:"total_price"`
	DiscountCode string        `bun:"discount_code,nullzero" json:"discount_code,omitempty"`
	Status       BookingStatus `bun:"status" json:"status"`
	Paused       bool          `bun:"paused" json:"paused"`
	PausedAt     time.Time     `bun:"paused_at,nullzero" json:"paused_at,omitempty"`
	CreatedAt    time.Time     `bun:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

type BookingRequest struct {
	UserID       string  `json:"user_id"`
	ServiceID    string  `json:"service_id"`
	WorkspaceID  string  `json:"workspace_id"`
	Date         string  `json:"date"`
	StartTime    string  `json:"start_time"`
	Duration     int     `json:"duration"`
	DurationUnit string  `json:"duration_unit"`
	NumSeats     int     `json:"num_seats"`
	TotalPrice   float64 `json:"total_price"`
	DiscountCode string  `json:"discount_code,omitempty"`
}
