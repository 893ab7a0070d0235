package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ws-booking/internal/models"
	"ws-booking/internal/sse"
)

// SSEHandler streams booking updates to live viewers. This is how
// concurrent viewers of the same booking stay consistent: each subscribes
// independently, nothing coordinates them server-side.
type SSEHandler struct {
	Emitter *sse.BookingEventEmitter
}

func NewSSEHandler(emitter *sse.BookingEventEmitter) *SSEHandler {
	return &SSEHandler{Emitter: emitter}
}

func (h *SSEHandler) StreamBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.stream(w, r, h.Emitter.SubscribeToBooking(r.Context(), bookingID))
}

func (h *SSEHandler) StreamWorkspace(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceId")
	h.stream(w, r, h.Emitter.SubscribeToWorkspace(r.Context(), workspaceID))
}

func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, updates chan models.Booking) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case booking, open := <-updates:
			if !open {
				return
			}
			payload, err := json.Marshal(booking)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: booking_update\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
