package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ws-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- BOOKINGS ----------------

func (d *DB) GetBooking(id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("booking_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBooking writes the lifecycle fields the ledger owns. Scheduling
// fields set at creation time (service, workspace, seats, price) are not
// touched here.
func (d *DB) UpdateBooking(booking models.Booking) error {
	_, err := d.Bun.NewUpdate().
		Model(&booking).
		Column("status", "paused", "paused_at", "start_time", "updated_at").
		Where("booking_id = ?", booking.BookingID).
		Exec(context.Background())
	return err
}

func (d *DB) CreateBooking(booking models.Booking) error {
	_, err := d.Bun.NewInsert().Model(&booking).Exec(context.Background())
	return err
}

// GetBookingsByUser returns a user's bookings, newest first.
func (d *DB) GetBookingsByUser(userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ---------------- TRANSACTIONS ----------------

func (d *DB) CreateTransaction(tx models.Transaction) error {
	_, err := d.Bun.NewInsert().Model(&tx).Exec(context.Background())
	return err
}

// SetTransactionStatus flips the booking's pending transactions for the
// given method to their terminal status. Transactions are never deleted.
func (d *DB) SetTransactionStatus(bookingID string, method models.PaymentMethod, status models.TransactionStatus) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Transaction)(nil)).
		Set("status = ?", status).
		Where("booking_id = ?", bookingID).
		Where("method = ?", method).
		Where("status = ?", models.TxPending).
		Exec(context.Background())
	return err
}

func (d *DB) GetTransactionsByBooking(bookingID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := d.Bun.NewSelect().
		Model(&txs).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// ---------------- CASH TOKENS ----------------

func (d *DB) GetCashToken(token string) (*models.CashToken, error) {
	var tok models.CashToken
	err := d.Bun.NewSelect().
		Model(&tok).
		Where("token = ?", token).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// GetPendingCashToken returns the booking's open voucher, if any. At most
// one pending token per booking should exist; the mint path reuses it.
func (d *DB) GetPendingCashToken(bookingID string) (*models.CashToken, error) {
	var tok models.CashToken
	err := d.Bun.NewSelect().
		Model(&tok).
		Where("booking_id = ?", bookingID).
		Where("status = ?", models.TokenPending).
		Order("created_at DESC").
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

func (d *DB) CreateCashToken(token models.CashToken) error {
	_, err := d.Bun.NewInsert().Model(&token).Exec(context.Background())
	return err
}

func (d *DB) SetCashTokenStatus(token string, status models.CashTokenStatus) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.CashToken)(nil)).
		Set("status = ?", status).
		Where("token = ?", token).
		Exec(context.Background())
	return err
}

// GetPendingCashTokensByWorkspace feeds the operator's validation queue.
func (d *DB) GetPendingCashTokensByWorkspace(workspaceID string) ([]models.CashToken, error) {
	var toks []models.CashToken
	err := d.Bun.NewSelect().
		Model(&toks).
		Where("workspace_id = ?", workspaceID).
		Where("status = ?", models.TokenPending).
		Order("created_at ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return toks, nil
}

// ---------------- DISCOUNTS ----------------

func (d *DB) GetDiscount(code string) (*models.Discount, error) {
	var disc models.Discount
	err := d.Bun.NewSelect().
		Model(&disc).
		Where("code = ?", code).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &disc, nil
}

// RedeemDiscount decrements the code's remaining uses by exactly one, as
// a single conditional update. The rows-affected check is what makes the
// decrement atomic on both Postgres and SQLite.
func (d *DB) RedeemDiscount(code string, now time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Discount)(nil)).
		Set("usage_limit = usage_limit - 1").
		Where("code = ?", code).
		Where("usage_limit > 0").
		Where("expiry > ?", now).
		Exec(context.Background())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
