package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ws-booking/internal/ledger/db"
	"ws-booking/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bundb := bun.NewDB(sqldb, sqlitedialect.New())
	db.Migrate(bundb)

	t.Cleanup(func() { bundb.Close() })
	return &db.DB{Bun: bundb}
}

func seedBooking(t *testing.T, store *db.DB) models.Booking {
	t.Helper()
	booking := models.Booking{
		BookingID:    uuid.NewString(),
		UserID:       "user1",
		ServiceID:    "svc1",
		WorkspaceID:  "ws1",
		Date:         "2026-03-10",
		StartTime:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Duration:     2,
		DurationUnit: "hour",
		NumSeats:     1,
		TotalPrice:   1000,
		Status:       models.BookingPending,
		CreatedAt:    time.Now(),
	}
	if err := store.CreateBooking(booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return booking
}

func TestGetBookingNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetBooking("missing")

	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdateBookingLifecycleFields(t *testing.T) {
	store := setupTestDB(t)
	booking := seedBooking(t, store)

	booking.Status = models.BookingInProgress
	booking.Paused = true
	booking.PausedAt = booking.StartTime.Add(30 * time.Minute)
	booking.UpdatedAt = time.Now()
	assert.NoError(t, store.UpdateBooking(booking))

	got, err := store.GetBooking(booking.BookingID)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingInProgress, got.Status)
	assert.True(t, got.Paused)
	assert.Equal(t, booking.PausedAt.Unix(), got.PausedAt.Unix())
	// Creation-time fields stay as seeded.
	assert.Equal(t, float64(1000), got.TotalPrice)
}

func TestSetTransactionStatusOnlyTouchesPending(t *testing.T) {
	store := setupTestDB(t)
	booking := seedBooking(t, store)

	settled := models.Transaction{
		TransactionID: uuid.NewString(),
		BookingID:     booking.BookingID,
		WorkspaceID:   booking.WorkspaceID,
		Amount:        1000,
		Method:        models.MethodGateway,
		Status:        models.TxSuccess,
		CreatedAt:     time.Now(),
	}
	open := models.Transaction{
		TransactionID: uuid.NewString(),
		BookingID:     booking.BookingID,
		WorkspaceID:   booking.WorkspaceID,
		Amount:        1000,
		Method:        models.MethodCashToken,
		Status:        models.TxPending,
		CreatedAt:     time.Now(),
	}
	assert.NoError(t, store.CreateTransaction(settled))
	assert.NoError(t, store.CreateTransaction(open))

	assert.NoError(t, store.SetTransactionStatus(booking.BookingID, models.MethodCashToken, models.TxSuccess))

	txs, err := store.GetTransactionsByBooking(booking.BookingID)
	assert.NoError(t, err)
	assert.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, models.TxSuccess, tx.Status)
	}
}

func TestGetPendingCashToken(t *testing.T) {
	store := setupTestDB(t)
	booking := seedBooking(t, store)

	tok, err := store.GetPendingCashToken(booking.BookingID)
	assert.NoError(t, err)
	assert.Nil(t, tok)

	minted := models.CashToken{
		Token:       "ABCD2345",
		BookingID:   booking.BookingID,
		UserID:      booking.UserID,
		WorkspaceID: booking.WorkspaceID,
		Amount:      1000,
		Status:      models.TokenPending,
		Type:        models.TokenNormal,
		CreatedAt:   time.Now(),
	}
	assert.NoError(t, store.CreateCashToken(minted))

	tok, err = store.GetPendingCashToken(booking.BookingID)
	assert.NoError(t, err)
	assert.NotNil(t, tok)
	assert.Equal(t, "ABCD2345", tok.Token)

	// Once validated the booking has no open voucher anymore.
	assert.NoError(t, store.SetCashTokenStatus("ABCD2345", models.TokenValidated))
	tok, err = store.GetPendingCashToken(booking.BookingID)
	assert.NoError(t, err)
	assert.Nil(t, tok)
}

func TestGetPendingCashTokensByWorkspace(t *testing.T) {
	store := setupTestDB(t)
	booking := seedBooking(t, store)

	for i, code := range []string{"TOKEN2A", "TOKEN3B"} {
		tok := models.CashToken{
			Token:       code,
			BookingID:   booking.BookingID,
			WorkspaceID: booking.WorkspaceID,
			Amount:      500,
			Status:      models.TokenPending,
			Type:        models.TokenNormal,
			CreatedAt:   time.Now().Add(time.Duration(i) * time.Second),
		}
		assert.NoError(t, store.CreateCashToken(tok))
	}

	queue, err := store.GetPendingCashTokensByWorkspace(booking.WorkspaceID)
	assert.NoError(t, err)
	assert.Len(t, queue, 2)
	// Oldest first so the operator works the queue in order.
	assert.Equal(t, "TOKEN2A", queue[0].Token)

	other, err := store.GetPendingCashTokensByWorkspace("ws-other")
	assert.NoError(t, err)
	assert.Empty(t, other)
}

func TestRedeemDiscountDecrementsOnce(t *testing.T) {
	store := setupTestDB(t)
	now := time.Now()

	disc := models.Discount{
		Code:       "SAVE10",
		Percentage: 10,
		UsageLimit: 2,
		Expiry:     now.Add(24 * time.Hour),
		CreatedAt:  now,
	}
	_, err := store.Bun.NewInsert().Model(&disc).Exec(context.Background())
	assert.NoError(t, err)

	ok, err := store.RedeemDiscount("SAVE10", now)
	assert.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.RedeemDiscount("SAVE10", now)
	assert.NoError(t, err)
	assert.True(t, ok)

	// Third redemption finds usage_limit at zero and must not go negative.
	ok, err = store.RedeemDiscount("SAVE10", now)
	assert.NoError(t, err)
	assert.False(t, ok)

	got, err := store.GetDiscount("SAVE10")
	assert.NoError(t, err)
	assert.Equal(t, 0, got.UsageLimit)
}

func TestRedeemExpiredDiscount(t *testing.T) {
	store := setupTestDB(t)
	now := time.Now()

	disc := models.Discount{
		Code:       "OLD10",
		Percentage: 10,
		UsageLimit: 5,
		Expiry:     now.Add(-time.Hour),
		CreatedAt:  now,
	}
	_, err := store.Bun.NewInsert().Model(&disc).Exec(context.Background())
	assert.NoError(t, err)

	ok, err := store.RedeemDiscount("OLD10", now)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedeemUnknownDiscount(t *testing.T) {
	store := setupTestDB(t)

	ok, err := store.RedeemDiscount("NOPE", time.Now())
	assert.NoError(t, err)
	assert.False(t, ok)
}
