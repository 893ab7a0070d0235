package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ws-booking/internal/logger"
	"ws-booking/internal/models"
	"ws-booking/internal/overtime"
	"ws-booking/internal/utils"
)

type DBLayer interface {
	GetBooking(id string) (*models.Booking, error)
	UpdateBooking(booking models.Booking) error
	CreateTransaction(tx models.Transaction) error
	SetTransactionStatus(bookingID string, method models.PaymentMethod, status models.TransactionStatus) error
	GetCashToken(token string) (*models.CashToken, error)
	GetPendingCashToken(bookingID string) (*models.CashToken, error)
	CreateCashToken(token models.CashToken) error
	SetCashTokenStatus(token string, status models.CashTokenStatus) error
}

// MintLock guards the read-then-mint sequence for cash tokens. Losing the
// lock degrades to the documented best-effort behavior rather than
// failing the check-in.
type MintLock interface {
	Acquire(bookingID string) (bool, error)
	Release(bookingID string) error
}

type KafkaPublisher interface {
	PublishBookingEvent(eventType string, booking models.Booking) error
	PublishCashTokenEvent(eventType string, token models.CashToken) error
}

// Emitter pushes live updates to subscribed viewers (payer and operator
// UIs); it is the service-side half of the store's subscribe capability.
type Emitter interface {
	EmitBookingUpdate(booking models.Booking)
}

// GatewayVerifier re-checks a gateway reference server-side. Nil means
// the client-side callback result is trusted as-is.
type GatewayVerifier interface {
	VerifyReference(reference string, amount float64) error
}

// Payment is the caller's resolved payment choice for a check-in or
// check-out. For the gateway method the reference comes from a successful
// client-side gateway callback; a gateway cancellation never reaches the
// ledger (see RecordGatewayFailure).
type Payment struct {
	Method    models.PaymentMethod `json:"method"`
	Reference string               `json:"reference,omitempty"`
}

// Result is what a check-in or check-out hands back to the caller: the
// booking after the transition, plus the cash token when that method was
// chosen.
type Result struct {
	Booking   *models.Booking           `json:"booking"`
	CashToken *models.CashTokenResponse `json:"cash_token,omitempty"`
	Charge    float64                   `json:"charge,omitempty"`
}

type Service struct {
	DB      DBLayer
	Lock    MintLock
	Kafka   KafkaPublisher
	Events  Emitter
	Gateway GatewayVerifier
	Policy  TransitionPolicy

	logger *logger.Logger
	now    func() time.Time
}

func NewService(db DBLayer, lock MintLock, kafka KafkaPublisher, events Emitter, gateway GatewayVerifier, policy TransitionPolicy) *Service {
	if policy == nil {
		policy = OptimisticPolicy{}
	}
	return &Service{
		DB:      db,
		Lock:    lock,
		Kafka:   kafka,
		Events:  events,
		Gateway: gateway,
		Policy:  policy,
		logger:  logger.NewLogger(),
		now:     time.Now,
	}
}

func (s *Service) booking(id string) (*models.Booking, error) {
	b, err := s.DB.GetBooking(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}
	if b == nil {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return b, nil
}

func (s *Service) saveBooking(b *models.Booking) error {
	b.UpdatedAt = s.now()
	if err := s.DB.UpdateBooking(*b); err != nil {
		return fmt.Errorf("update booking %s: %w", b.BookingID, err)
	}
	if s.Events != nil {
		s.Events.EmitBookingUpdate(*b)
	}
	return nil
}

func (s *Service) publish(eventType string, b models.Booking) {
	if s.Kafka == nil {
		return
	}
	if err := s.Kafka.PublishBookingEvent(eventType, b); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("publish %s for booking %s: %v", eventType, b.BookingID, err))
	}
}

// GetBooking returns the booking as stored, for viewers that do not hold
// a live subscription.
func (s *Service) GetBooking(id string) (*models.Booking, error) {
	return s.booking(id)
}

// Clock derives the booking's current phase and countdown. Pure local
// computation: the UI calls this (or recomputes client-side) every second
// while the booking is displayed in progress.
func (s *Service) Clock(id string) (*models.Booking, overtime.Snapshot, error) {
	b, err := s.booking(id)
	if err != nil {
		return nil, overtime.Snapshot{}, err
	}
	snap := overtime.At(b.StartTime, b.Duration, b.DurationUnit, b.Paused, b.PausedAt, s.now())
	return b, snap, nil
}

// CheckIn moves a pending booking into progress, gated on payment of the
// full reservation price. Free bookings transition without a payment
// record.
func (s *Service) CheckIn(id string, ident models.Identity, pay Payment) (*Result, error) {
	b, err := s.booking(id)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingPending {
		return nil, fmt.Errorf("check-in on %s booking: %w", b.Status, ErrInvalidTransition)
	}

	if b.TotalPrice <= 0 {
		if err := s.transition(b, models.BookingInProgress); err != nil {
			return nil, err
		}
		s.publish(EventCheckedIn, *b)
		return &Result{Booking: b}, nil
	}

	switch pay.Method {
	case models.MethodGateway:
		if err := s.settleGateway(b, ident, b.TotalPrice, pay.Reference); err != nil {
			return nil, err
		}
		if err := s.transition(b, models.BookingInProgress); err != nil {
			return nil, err
		}
		s.publish(EventCheckedIn, *b)
		return &Result{Booking: b}, nil

	case models.MethodCashToken:
		tok, err := s.mintCashToken(b, ident, b.TotalPrice, models.TokenNormal)
		if err != nil {
			return nil, err
		}
		if s.Policy.ApplyOnMint() {
			if err := s.transition(b, models.BookingInProgress); err != nil {
				return nil, err
			}
			s.publish(EventCheckedIn, *b)
		}
		return &Result{Booking: b, CashToken: tok}, nil

	default:
		return nil, fmt.Errorf("check-in of %s for %.2f: %w", id, b.TotalPrice, ErrPaymentRequired)
	}
}

// Pause freezes the booking's clock. Only a running, unpaused booking can
// be paused.
func (s *Service) Pause(id string) (*models.Booking, error) {
	b, err := s.booking(id)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingInProgress || b.Paused {
		return nil, fmt.Errorf("pause on %s booking (paused=%t): %w", b.Status, b.Paused, ErrInvalidTransition)
	}

	b.Paused = true
	b.PausedAt = s.now()
	if err := s.saveBooking(b); err != nil {
		return nil, err
	}
	s.publish(EventPaused, *b)
	return b, nil
}

// Resume unfreezes the clock and shifts the start time forward by the
// elapsed pause, so remaining active and grace time survive the pause.
func (s *Service) Resume(id string) (*models.Booking, error) {
	b, err := s.booking(id)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingInProgress || !b.Paused {
		return nil, fmt.Errorf("resume on %s booking (paused=%t): %w", b.Status, b.Paused, ErrInvalidTransition)
	}

	b.StartTime = b.StartTime.Add(s.now().Sub(b.PausedAt))
	b.Paused = false
	b.PausedAt = time.Time{}
	if err := s.saveBooking(b); err != nil {
		return nil, err
	}
	s.publish(EventResumed, *b)
	return b, nil
}

// CheckOut completes an in-progress booking. The overtime charge is
// derived from the clock at the moment of check-out; a non-zero charge is
// gated on payment the same way check-in is. fallbackUnitPrice supplies
// the per-unit overtime rate for free bookings.
func (s *Service) CheckOut(id string, ident models.Identity, pay Payment, fallbackUnitPrice float64) (*Result, error) {
	b, err := s.booking(id)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingInProgress {
		return nil, fmt.Errorf("check-out on %s booking: %w", b.Status, ErrInvalidTransition)
	}

	snap := overtime.At(b.StartTime, b.Duration, b.DurationUnit, b.Paused, b.PausedAt, s.now())
	charge := overtime.Charge(b.TotalPrice, b.Duration, b.DurationUnit, snap.SecondsOvertime, fallbackUnitPrice)

	if charge <= 0 {
		if err := s.transition(b, models.BookingCompleted); err != nil {
			return nil, err
		}
		s.publish(EventCheckedOut, *b)
		return &Result{Booking: b}, nil
	}

	switch pay.Method {
	case models.MethodGateway:
		if err := s.settleGateway(b, ident, charge, pay.Reference); err != nil {
			return nil, err
		}
		if err := s.transition(b, models.BookingCompleted); err != nil {
			return nil, err
		}
		s.publish(EventCheckedOut, *b)
		return &Result{Booking: b, Charge: charge}, nil

	case models.MethodCashToken:
		tok, err := s.mintCashToken(b, ident, charge, models.TokenOvertime)
		if err != nil {
			return nil, err
		}
		if s.Policy.ApplyOnMint() {
			if err := s.transition(b, models.BookingCompleted); err != nil {
				return nil, err
			}
			s.publish(EventCheckedOut, *b)
		}
		return &Result{Booking: b, CashToken: tok, Charge: charge}, nil

	default:
		return nil, fmt.Errorf("check-out of %s owing %.2f overtime: %w", id, charge, ErrPaymentRequired)
	}
}

// Cancel is only legal while the booking is still pending. Cancellation
// is a status transition, never a delete.
func (s *Service) Cancel(id string) (*models.Booking, error) {
	b, err := s.booking(id)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingPending {
		return nil, fmt.Errorf("cancel on %s booking: %w", b.Status, ErrInvalidTransition)
	}

	if err := s.transition(b, models.BookingCancelled); err != nil {
		return nil, err
	}
	s.publish(EventCancelled, *b)
	return b, nil
}

// RecordGatewayFailure is the gateway-cancellation path: the caller never
// reaches CheckIn/CheckOut without a reference, so the failed attempt is
// recorded here and the booking stays untouched.
func (s *Service) RecordGatewayFailure(bookingID string, ident models.Identity, amount float64) error {
	b, err := s.booking(bookingID)
	if err != nil {
		return err
	}

	tx := models.Transaction{
		TransactionID: utils.GenerateTransactionID(),
		UserID:        ident.UserID,
		BookingID:     b.BookingID,
		WorkspaceID:   b.WorkspaceID,
		Amount:        amount,
		Method:        models.MethodGateway,
		Status:        models.TxFailed,
		CreatedAt:     s.now(),
	}
	if err := s.DB.CreateTransaction(tx); err != nil {
		return fmt.Errorf("record failed gateway transaction for %s: %w", bookingID, err)
	}
	s.logger.Info("LEDGER", fmt.Sprintf("recorded failed gateway attempt for booking %s (%.2f)", bookingID, amount))
	return nil
}

// transition writes the new status. The two store writes around a
// transition (booking status + transaction record) are separate calls
// with no atomic guarantee; a reconciliation pass would live behind
// DBLayer, not here.
func (s *Service) transition(b *models.Booking, next models.BookingStatus) error {
	b.Status = next
	if next != models.BookingInProgress {
		b.Paused = false
		b.PausedAt = time.Time{}
	}
	return s.saveBooking(b)
}

// settleGateway records the confirmed gateway payment. The reference is
// required: its absence means the caller skipped the gateway callback.
func (s *Service) settleGateway(b *models.Booking, ident models.Identity, amount float64, reference string) error {
	if reference == "" {
		return fmt.Errorf("gateway payment for %s without reference: %w", b.BookingID, ErrPaymentRequired)
	}
	if s.Gateway != nil {
		if err := s.Gateway.VerifyReference(reference, amount); err != nil {
			return fmt.Errorf("verify gateway reference %s: %w", reference, err)
		}
	}

	tx := models.Transaction{
		TransactionID: utils.GenerateTransactionID(),
		UserID:        ident.UserID,
		BookingID:     b.BookingID,
		WorkspaceID:   b.WorkspaceID,
		Amount:        amount,
		Method:        models.MethodGateway,
		Status:        models.TxSuccess,
		Reference:     reference,
		CreatedAt:     s.now(),
	}
	if err := s.DB.CreateTransaction(tx); err != nil {
		return fmt.Errorf("record gateway transaction for %s: %w", b.BookingID, err)
	}
	return nil
}
