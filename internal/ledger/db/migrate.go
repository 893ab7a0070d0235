package db

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"ws-booking/internal/models"
)

// Migrate creates the ledger's tables directly through bun. Deployments
// with a migrations directory use the golang-migrate runner instead; this
// path covers local runs and tests.
func Migrate(db *bun.DB) {
	ctx := context.Background()

	for _, model := range []interface{}{
		(*models.Booking)(nil),
		(*models.Transaction)(nil),
		(*models.CashToken)(nil),
		(*models.Discount)(nil),
	} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			log.Fatalf("create table failed: %v", err)
		}
	}

	log.Println("ledger tables ready")
}
