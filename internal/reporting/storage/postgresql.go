package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"ws-booking/internal/config"
	"ws-booking/internal/logger"
	"ws-booking/internal/models"
)

type PostgreSQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgreSQLStoreWithDB wraps an existing connection, so the reporting
// store can share the ledger's pool.
func NewPostgreSQLStoreWithDB(db *sql.DB, log *logger.Logger) *PostgreSQLStore {
	return &PostgreSQLStore{db: db, log: log}
}

func NewPostgreSQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*PostgreSQLStore, error) {
	log.LogDatabase("CONNECT", "postgresql", fmt.Sprintf("Connecting to PostgreSQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open PostgreSQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping PostgreSQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.LogDatabase("SUCCESS", "postgresql", "Reporting store connected")
	return &PostgreSQLStore{db: db, log: log}, nil
}

// ListTransactions pages through a workspace's payment attempts, newest
// first, for the operator's transactions screen.
func (s *PostgreSQLStore) ListTransactions(workspaceID string, limit, offset int) ([]*models.Transaction, error) {
	query := `
    SELECT transaction_id, user_id, booking_id, workspace_id, amount, method, status, COALESCE(reference, ''), created_at
    FROM transactions
    WHERE workspace_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(query, workspaceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetTransactionsByBooking backs the payer-facing receipt view.
func (s *PostgreSQLStore) GetTransactionsByBooking(bookingID string) ([]*models.Transaction, error) {
	query := `
    SELECT transaction_id, user_id, booking_id, workspace_id, amount, method, status, COALESCE(reference, ''), created_at
    FROM transactions
    WHERE booking_id = $1
    ORDER BY created_at ASC`

	rows, err := s.db.Query(query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for booking: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// WorkspaceRevenue sums the workspace's settled payments.
func (s *PostgreSQLStore) WorkspaceRevenue(workspaceID string) (float64, error) {
	query := `
    SELECT COALESCE(SUM(amount), 0)
    FROM transactions
    WHERE workspace_id = $1 AND status = 'success'`

	var total float64
	if err := s.db.QueryRow(query, workspaceID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum workspace revenue: %w", err)
	}
	return total, nil
}

func scanTransactions(rows *sql.Rows) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	for rows.Next() {
		tx := &models.Transaction{}
		err := rows.Scan(&tx.TransactionID, &tx.UserID, &tx.BookingID, &tx.WorkspaceID,
			&tx.Amount, &tx.Method, &tx.Status, &tx.Reference, &tx.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *PostgreSQLStore) Close() error {
	return s.db.Close()
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}
