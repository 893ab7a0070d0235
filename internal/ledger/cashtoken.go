package ledger

import (
	"errors"
	"fmt"

	"ws-booking/internal/ledger/tokenqr"
	"ws-booking/internal/models"
	"ws-booking/internal/utils"
)

// mintCashToken reuses the booking's existing pending token if one exists
// (re-opening the payment dialog must not mint a second voucher) and only
// otherwise mints a new token plus its pending transaction. The whole
// read-then-mint sequence runs under the redis mint lock; if the lock is
// lost the guard degrades to best effort.
func (s *Service) mintCashToken(b *models.Booking, ident models.Identity, amount float64, tokenType models.CashTokenType) (*models.CashTokenResponse, error) {
	if s.Lock != nil {
		ok, err := s.Lock.Acquire(b.BookingID)
		if err != nil {
			s.logger.Warn("LEDGER", fmt.Sprintf("mint lock for booking %s unavailable: %v", b.BookingID, err))
		} else if ok {
			defer func() {
				if err := s.Lock.Release(b.BookingID); err != nil {
					s.logger.Warn("LEDGER", fmt.Sprintf("release mint lock for booking %s: %v", b.BookingID, err))
				}
			}()
		} else {
			s.logger.Warn("LEDGER", fmt.Sprintf("mint lock for booking %s held elsewhere, proceeding best-effort", b.BookingID))
		}
	}

	existing, err := s.DB.GetPendingCashToken(b.BookingID)
	if err != nil {
		return nil, fmt.Errorf("look up pending cash token for %s: %w", b.BookingID, err)
	}
	if existing != nil {
		return s.tokenResponse(existing, true), nil
	}

	token := models.CashToken{
		Token:       utils.GenerateTokenCode(),
		BookingID:   b.BookingID,
		UserID:      ident.UserID,
		WorkspaceID: b.WorkspaceID,
		Amount:      amount,
		Status:      models.TokenPending,
		Type:        tokenType,
		CreatedAt:   s.now(),
	}
	if err := s.DB.CreateCashToken(token); err != nil {
		return nil, fmt.Errorf("mint cash token for %s: %w", b.BookingID, err)
	}

	tx := models.Transaction{
		TransactionID: utils.GenerateTransactionID(),
		UserID:        ident.UserID,
		BookingID:     b.BookingID,
		WorkspaceID:   b.WorkspaceID,
		Amount:        amount,
		Method:        models.MethodCashToken,
		Status:        models.TxPending,
		CreatedAt:     s.now(),
	}
	if err := s.DB.CreateTransaction(tx); err != nil {
		return nil, fmt.Errorf("record cash-token transaction for %s: %w", b.BookingID, err)
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishCashTokenEvent(EventTokenMinted, token); err != nil {
			s.logger.Error("KAFKA", fmt.Sprintf("publish %s for token %s: %v", EventTokenMinted, token.Token, err))
		}
	}
	return s.tokenResponse(&token, false), nil
}

func (s *Service) tokenResponse(token *models.CashToken, reused bool) *models.CashTokenResponse {
	qr, err := tokenqr.Generate(token.Token)
	if err != nil {
		s.logger.Warn("LEDGER", fmt.Sprintf("render QR for token %s: %v", token.Token, err))
	}
	return &models.CashTokenResponse{
		Token:     token.Token,
		BookingID: token.BookingID,
		Amount:    token.Amount,
		Type:      token.Type,
		QRCode:    qr,
		Reused:    reused,
	}
}

func (s *Service) cashToken(code string) (*models.CashToken, error) {
	tok, err := s.DB.GetCashToken(code)
	if err != nil {
		return nil, fmt.Errorf("load cash token %s: %w", code, err)
	}
	if tok == nil {
		return nil, fmt.Errorf("cash token %s: %w", code, ErrNotFound)
	}
	return tok, nil
}

// ValidateCashToken is the operator's confirmation of a cash payment.
// The next booking status is derived from the token's type together with
// the booking's status at validation time, never from anything the client
// supplied: a normal token starts a still-pending booking, an overtime
// token completes an in-progress one. A normal token validated after the
// booking already started (optimistic transition on mint) settles the
// payment without moving the booking again.
func (s *Service) ValidateCashToken(code string) (*models.Booking, error) {
	tok, err := s.cashToken(code)
	if err != nil {
		return nil, err
	}
	if tok.Status != models.TokenPending {
		return nil, fmt.Errorf("validate %s cash token: %w", tok.Status, ErrInvalidTransition)
	}
	b, err := s.booking(tok.BookingID)
	if err != nil {
		return nil, err
	}

	if err := s.DB.SetCashTokenStatus(tok.Token, models.TokenValidated); err != nil {
		return nil, fmt.Errorf("validate cash token %s: %w", tok.Token, err)
	}
	if err := s.DB.SetTransactionStatus(tok.BookingID, models.MethodCashToken, models.TxSuccess); err != nil {
		return nil, fmt.Errorf("settle cash-token transaction for %s: %w", tok.BookingID, err)
	}

	switch {
	case tok.Type == models.TokenNormal && b.Status == models.BookingPending:
		if err := s.transition(b, models.BookingInProgress); err != nil {
			return nil, err
		}
		s.publish(EventCheckedIn, *b)
	case tok.Type == models.TokenOvertime && b.Status == models.BookingInProgress:
		if err := s.transition(b, models.BookingCompleted); err != nil {
			return nil, err
		}
		s.publish(EventCheckedOut, *b)
	}

	tok.Status = models.TokenValidated
	if s.Kafka != nil {
		if err := s.Kafka.PublishCashTokenEvent(EventTokenValidated, *tok); err != nil {
			s.logger.Error("KAFKA", fmt.Sprintf("publish %s for token %s: %v", EventTokenValidated, tok.Token, err))
		}
	}
	return b, nil
}

// RejectCashToken flips the transaction to failed. The booking is only
// reverted to cancelled while it is still pending: a rejected overtime
// token leaves an in-progress booking in progress so the payer can retry
// another method.
func (s *Service) RejectCashToken(code string) (*models.Booking, error) {
	tok, err := s.cashToken(code)
	if err != nil {
		return nil, err
	}
	if tok.Status != models.TokenPending {
		return nil, fmt.Errorf("reject %s cash token: %w", tok.Status, ErrInvalidTransition)
	}
	b, err := s.booking(tok.BookingID)
	if err != nil {
		return nil, err
	}

	if err := s.DB.SetCashTokenStatus(tok.Token, models.TokenRejected); err != nil {
		return nil, fmt.Errorf("reject cash token %s: %w", tok.Token, err)
	}
	if err := s.DB.SetTransactionStatus(tok.BookingID, models.MethodCashToken, models.TxFailed); err != nil {
		return nil, fmt.Errorf("fail cash-token transaction for %s: %w", tok.BookingID, err)
	}

	if b.Status == models.BookingPending {
		if err := s.transition(b, models.BookingCancelled); err != nil {
			return nil, err
		}
		s.publish(EventCancelled, *b)
	}

	tok.Status = models.TokenRejected
	if s.Kafka != nil {
		if err := s.Kafka.PublishCashTokenEvent(EventTokenRejected, *tok); err != nil {
			s.logger.Error("KAFKA", fmt.Sprintf("publish %s for token %s: %v", EventTokenRejected, tok.Token, err))
		}
	}
	return b, nil
}

// IsTerminal reports whether err is one of the ledger's own conditions
// (as opposed to a propagated store failure).
func IsTerminal(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidDiscount) ||
		errors.Is(err, ErrPaymentRequired)
}
