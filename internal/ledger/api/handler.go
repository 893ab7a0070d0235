package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ws-booking/internal/auth"
	"ws-booking/internal/ledger"
	"ws-booking/internal/ledger/discount"
	"ws-booking/internal/logger"
	"ws-booking/internal/models"
	"ws-booking/internal/overtime"
	"ws-booking/internal/reporting/storage"
	"ws-booking/internal/utils"
)

type TokenQueue interface {
	GetPendingCashTokensByWorkspace(workspaceID string) ([]models.CashToken, error)
}

type Handler struct {
	Ledger    *ledger.Service
	Discounts *discount.Service
	Reporting storage.Store
	Queue     TokenQueue
	Logger    *logger.Logger
}

func NewHandler(ledgerSvc *ledger.Service, discounts *discount.Service, reporting storage.Store, queue TokenQueue) *Handler {
	return &Handler{
		Ledger:    ledgerSvc,
		Discounts: discounts,
		Reporting: reporting,
		Queue:     queue,
		Logger:    logger.NewLogger(),
	}
}

// statusFor maps the ledger's error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidDiscount):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrPaymentRequired):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	_ = json.NewEncoder(w).Encode(utils.ErrorResponse(message, err.Error()))
}

func (h *Handler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) identity(r *http.Request) models.Identity {
	ident, _ := auth.IdentityFromContext(r.Context())
	return ident
}

// ---------------- BOOKING LIFECYCLE ----------------

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	booking, err := h.Ledger.GetBooking(bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBooking %s: %v", bookingID, err))
		h.fail(w, "Booking not found", err)
		return
	}
	h.respond(w, http.StatusOK, booking)
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("CheckIn: bookingId=%s", bookingID))

	var pay ledger.Payment
	if err := json.NewDecoder(r.Body).Decode(&pay); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Ledger.CheckIn(bookingID, h.identity(r), pay)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckIn %s: %v", bookingID, err))
		h.fail(w, "Check-in failed", err)
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("Checked in", result))
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("Pause: bookingId=%s", bookingID))

	booking, err := h.Ledger.Pause(bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Pause %s: %v", bookingID, err))
		h.fail(w, "Pause failed", err)
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("Paused", booking))
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("Resume: bookingId=%s", bookingID))

	booking, err := h.Ledger.Resume(bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Resume %s: %v", bookingID, err))
		h.fail(w, "Resume failed", err)
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("Resumed", booking))
}

type checkOutRequest struct {
	ledger.Payment
	FallbackUnitPrice float64 `json:"fallback_unit_price,omitempty"`
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("CheckOut: bookingId=%s", bookingID))

	var req checkOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Ledger.CheckOut(bookingID, h.identity(r), req.Payment, req.FallbackUnitPrice)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckOut %s: %v", bookingID, err))
		h.fail(w, "Check-out failed", err)
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("Checked out", result))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("Cancel: bookingId=%s", bookingID))

	booking, err := h.Ledger.Cancel(bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Cancel %s: %v", bookingID, err))
		h.fail(w, "Cancel failed", err)
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("Cancelled", booking))
}

type gatewayFailureRequest struct {
	Amount float64 `json:"amount"`
}

// GatewayFailure records a cancelled gateway attempt without touching the
// booking. The gateway widget's cancel callback lands here, never on
// check-in or check-out.
func (h *Handler) GatewayFailure(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	var req gatewayFailureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Ledger.RecordGatewayFailure(bookingID, h.identity(r), req.Amount); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GatewayFailure %s: %v", bookingID, err))
		h.fail(w, "Failed to record gateway failure", err)
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("Recorded", nil))
}

// ---------------- CLOCK ----------------

type clockResponse struct {
	BookingID string            `json:"booking_id"`
	Paused    bool              `json:"paused"`
	Clock     overtime.Snapshot `json:"clock"`
	Charge    float64           `json:"charge"`
}

// Clock returns the live phase snapshot and the charge a check-out at
// this instant would incur. The UI polls it or recomputes locally each
// second.
func (h *Handler) Clock(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	fallback, _ := strconv.ParseFloat(r.URL.Query().Get("fallback_unit_price"), 64)

	booking, snap, err := h.Ledger.Clock(bookingID)
	if err != nil {
		h.fail(w, "Booking not found", err)
		return
	}

	charge := overtime.Charge(booking.TotalPrice, booking.Duration, booking.DurationUnit, snap.SecondsOvertime, fallback)
	h.respond(w, http.StatusOK, clockResponse{
		BookingID: booking.BookingID,
		Paused:    booking.Paused,
		Clock:     snap,
		Charge:    charge,
	})
}

// ---------------- CASH TOKENS ----------------

func (h *Handler) ValidateCashToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	h.Logger.Info("API", fmt.Sprintf("ValidateCashToken: token=%s", token))

	booking, err := h.Ledger.ValidateCashToken(token)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ValidateCashToken %s: %v", token, err))
		h.fail(w, "Validation failed", err)
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("Token validated", booking))
}

func (h *Handler) RejectCashToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	h.Logger.Info("API", fmt.Sprintf("RejectCashToken: token=%s", token))

	booking, err := h.Ledger.RejectCashToken(token)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RejectCashToken %s: %v", token, err))
		h.fail(w, "Rejection failed", err)
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("Token rejected", booking))
}

// PendingCashTokens feeds the operator's validation queue.
func (h *Handler) PendingCashTokens(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceId")

	tokens, err := h.Queue.GetPendingCashTokensByWorkspace(workspaceID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PendingCashTokens %s: %v", workspaceID, err))
		http.Error(w, "Could not load pending tokens: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if tokens == nil {
		tokens = []models.CashToken{}
	}
	h.respond(w, http.StatusOK, tokens)
}

// ---------------- DISCOUNTS ----------------

func (h *Handler) CheckDiscount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	disc, err := h.Discounts.Check(code)
	if err != nil {
		h.fail(w, "Discount not valid", err)
		return
	}
	h.respond(w, http.StatusOK, disc)
}

func (h *Handler) RedeemDiscount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	h.Logger.Info("API", fmt.Sprintf("RedeemDiscount: code=%s", code))

	disc, err := h.Discounts.Redeem(code)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RedeemDiscount %s: %v", code, err))
		h.fail(w, "Discount not redeemable", err)
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("Discount redeemed", disc))
}

// ---------------- REPORTING ----------------

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceId")

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	txs, err := h.Reporting.ListTransactions(workspaceID, limit, offset)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTransactions %s: %v", workspaceID, err))
		http.Error(w, "Could not list transactions: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}
	h.respond(w, http.StatusOK, txs)
}

func (h *Handler) BookingTransactions(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	txs, err := h.Reporting.GetTransactionsByBooking(bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("BookingTransactions %s: %v", bookingID, err))
		http.Error(w, "Could not load transactions: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}
	h.respond(w, http.StatusOK, txs)
}

func (h *Handler) WorkspaceRevenue(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceId")

	total, err := h.Reporting.WorkspaceRevenue(workspaceID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("WorkspaceRevenue %s: %v", workspaceID, err))
		http.Error(w, "Could not compute revenue: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.respond(w, http.StatusOK, map[string]float64{"revenue": total})
}
