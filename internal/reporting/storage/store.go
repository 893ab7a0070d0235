package storage

import (
	"ws-booking/internal/models"
)

// Store is the operator portal's read model over payment activity. It is
// deliberately separate from the ledger's own store: reporting reads must
// not grow write paths.
type Store interface {
	ListTransactions(workspaceID string, limit, offset int) ([]*models.Transaction, error)
	GetTransactionsByBooking(bookingID string) ([]*models.Transaction, error)
	WorkspaceRevenue(workspaceID string) (float64, error)

	Close() error
	HealthCheck() error
}
