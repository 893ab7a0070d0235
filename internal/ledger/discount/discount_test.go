package discount_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ws-booking/internal/ledger"
	"ws-booking/internal/ledger/discount"
	"ws-booking/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetDiscount(code string) (*models.Discount, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Discount), args.Error(1)
}

func (m *MockStore) RedeemDiscount(code string, now time.Time) (bool, error) {
	args := m.Called(code, now)
	return args.Bool(0), args.Error(1)
}

func validDiscount() *models.Discount {
	return &models.Discount{
		Code:       "SAVE10",
		Percentage: 10,
		UsageLimit: 3,
		Expiry:     time.Now().Add(24 * time.Hour),
	}
}

func TestCheckValidCode(t *testing.T) {
	store := new(MockStore)
	svc := discount.NewService(store)

	store.On("GetDiscount", "SAVE10").Return(validDiscount(), nil)

	disc, err := svc.Check("SAVE10")

	assert.NoError(t, err)
	assert.Equal(t, float64(10), disc.Percentage)
	store.AssertNotCalled(t, "RedeemDiscount", mock.Anything, mock.Anything)
}

func TestCheckUnknownCode(t *testing.T) {
	store := new(MockStore)
	svc := discount.NewService(store)

	store.On("GetDiscount", "NOPE").Return(nil, nil)

	_, err := svc.Check("NOPE")

	assert.ErrorIs(t, err, ledger.ErrInvalidDiscount)
}

func TestCheckExhaustedCode(t *testing.T) {
	store := new(MockStore)
	svc := discount.NewService(store)

	disc := validDiscount()
	disc.UsageLimit = 0
	store.On("GetDiscount", "SAVE10").Return(disc, nil)

	_, err := svc.Check("SAVE10")

	assert.ErrorIs(t, err, ledger.ErrInvalidDiscount)
}

func TestCheckExpiredCode(t *testing.T) {
	store := new(MockStore)
	svc := discount.NewService(store)

	disc := validDiscount()
	disc.Expiry = time.Now().Add(-time.Minute)
	store.On("GetDiscount", "SAVE10").Return(disc, nil)

	_, err := svc.Check("SAVE10")

	assert.ErrorIs(t, err, ledger.ErrInvalidDiscount)
}

func TestRedeemConsumesOneUse(t *testing.T) {
	store := new(MockStore)
	svc := discount.NewService(store)

	store.On("GetDiscount", "SAVE10").Return(validDiscount(), nil)
	store.On("RedeemDiscount", "SAVE10", mock.Anything).Return(true, nil)

	disc, err := svc.Redeem("SAVE10")

	assert.NoError(t, err)
	assert.Equal(t, 2, disc.UsageLimit)
	store.AssertExpectations(t)
}

func TestRedeemLostRace(t *testing.T) {
	store := new(MockStore)
	svc := discount.NewService(store)

	// Check passes but another redemption takes the last use before the
	// decrement lands.
	store.On("GetDiscount", "SAVE10").Return(validDiscount(), nil)
	store.On("RedeemDiscount", "SAVE10", mock.Anything).Return(false, nil)

	_, err := svc.Redeem("SAVE10")

	assert.ErrorIs(t, err, ledger.ErrInvalidDiscount)
}
