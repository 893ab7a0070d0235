package sse

import (
	"context"
	"sync"

	"ws-booking/internal/models"
)

// BookingEventEmitter fans booking updates out to live viewers. The
// payer's UI subscribes to its booking, the operator's portal to its
// workspace; each viewer gets every transition independently, which is
// the only cross-viewer consistency the system promises.
type BookingEventEmitter struct {
	bookingClients     map[string][]chan models.Booking
	bookingClientMutex sync.RWMutex

	workspaceClients     map[string][]chan models.Booking
	workspaceClientMutex sync.RWMutex
}

func NewBookingEventEmitter() *BookingEventEmitter {
	return &BookingEventEmitter{
		bookingClients:   make(map[string][]chan models.Booking),
		workspaceClients: make(map[string][]chan models.Booking),
	}
}

// SubscribeToBooking adds a client watching one booking's transitions.
func (e *BookingEventEmitter) SubscribeToBooking(ctx context.Context, bookingID string) chan models.Booking {
	clientChan := make(chan models.Booking, 10)

	e.bookingClientMutex.Lock()
	e.bookingClients[bookingID] = append(e.bookingClients[bookingID], clientChan)
	e.bookingClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeBookingClient(bookingID, clientChan)
	}()

	return clientChan
}

// SubscribeToWorkspace adds a client watching every booking in a
// workspace (the operator's validation queue view).
func (e *BookingEventEmitter) SubscribeToWorkspace(ctx context.Context, workspaceID string) chan models.Booking {
	clientChan := make(chan models.Booking, 10)

	e.workspaceClientMutex.Lock()
	e.workspaceClients[workspaceID] = append(e.workspaceClients[workspaceID], clientChan)
	e.workspaceClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeWorkspaceClient(workspaceID, clientChan)
	}()

	return clientChan
}

// EmitBookingUpdate broadcasts a booking's new state to all subscribers.
func (e *BookingEventEmitter) EmitBookingUpdate(booking models.Booking) {
	e.bookingClientMutex.RLock()
	bookingSubs := e.bookingClients[booking.BookingID]
	e.bookingClientMutex.RUnlock()

	for _, clientChan := range bookingSubs {
		// Non-blocking send so a slow client cannot stall the ledger
		select {
		case clientChan <- booking:
		default:
		}
	}

	e.workspaceClientMutex.RLock()
	workspaceSubs := e.workspaceClients[booking.WorkspaceID]
	e.workspaceClientMutex.RUnlock()

	for _, clientChan := range workspaceSubs {
		select {
		case clientChan <- booking:
		default:
		}
	}
}

func (e *BookingEventEmitter) removeBookingClient(bookingID string, clientChan chan models.Booking) {
	e.bookingClientMutex.Lock()
	defer e.bookingClientMutex.Unlock()

	clients := e.bookingClients[bookingID]
	for i, c := range clients {
		if c == clientChan {
			e.bookingClients[bookingID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}
	if len(e.bookingClients[bookingID]) == 0 {
		delete(e.bookingClients, bookingID)
	}
}

func (e *BookingEventEmitter) removeWorkspaceClient(workspaceID string, clientChan chan models.Booking) {
	e.workspaceClientMutex.Lock()
	defer e.workspaceClientMutex.Unlock()

	clients := e.workspaceClients[workspaceID]
	for i, c := range clients {
		if c == clientChan {
			e.workspaceClients[workspaceID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}
	if len(e.workspaceClients[workspaceID]) == 0 {
		delete(e.workspaceClients, workspaceID)
	}
}
