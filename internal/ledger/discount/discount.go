package discount

import (
	"fmt"
	"time"

	"ws-booking/internal/ledger"
	"ws-booking/internal/logger"
	"ws-booking/internal/models"
)

type Store interface {
	GetDiscount(code string) (*models.Discount, error)
	RedeemDiscount(code string, now time.Time) (bool, error)
}

// Service validates and redeems discount codes at booking-creation time.
// Redemption is a conditional single-row update in the store, so two
// racing redemptions of a code's last use cannot both succeed.
type Service struct {
	store  Store
	logger *logger.Logger
	now    func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store:  store,
		logger: logger.NewLogger(),
		now:    time.Now,
	}
}

// Check validates a code without consuming a use.
func (s *Service) Check(code string) (*models.Discount, error) {
	disc, err := s.store.GetDiscount(code)
	if err != nil {
		return nil, fmt.Errorf("look up discount %s: %w", code, err)
	}
	if disc == nil {
		return nil, fmt.Errorf("discount %s not found: %w", code, ledger.ErrInvalidDiscount)
	}
	if disc.UsageLimit <= 0 {
		return nil, fmt.Errorf("discount %s exhausted: %w", code, ledger.ErrInvalidDiscount)
	}
	if !disc.Expiry.After(s.now()) {
		return nil, fmt.Errorf("discount %s expired: %w", code, ledger.ErrInvalidDiscount)
	}
	return disc, nil
}

// Redeem consumes one use of the code and returns the discount. The
// validation and the decrement are separate reads of the same conditions;
// the decrement's own predicate is authoritative.
func (s *Service) Redeem(code string) (*models.Discount, error) {
	disc, err := s.Check(code)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.RedeemDiscount(code, s.now())
	if err != nil {
		return nil, fmt.Errorf("redeem discount %s: %w", code, err)
	}
	if !ok {
		return nil, fmt.Errorf("discount %s no longer redeemable: %w", code, ledger.ErrInvalidDiscount)
	}

	disc.UsageLimit--
	s.logger.Info("DISCOUNT", fmt.Sprintf("redeemed %s, %d uses left", code, disc.UsageLimit))
	return disc, nil
}
