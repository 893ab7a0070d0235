package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ws-booking/internal/auth"
	"ws-booking/internal/config"
	"ws-booking/internal/database/migrations"
	wskafka "ws-booking/internal/kafka"
	"ws-booking/internal/ledger"
	"ws-booking/internal/ledger/api"
	"ws-booking/internal/ledger/db"
	"ws-booking/internal/ledger/discount"
	"ws-booking/internal/ledger/gateway"
	ledgerredis "ws-booking/internal/ledger/redis"
	"ws-booking/internal/logger"
	"ws-booking/internal/reporting/storage"
	"ws-booking/internal/sse"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	// --- PostgreSQL Setup ---
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	// Versioned migrations when a migrations dir is present, direct
	// bun table creation otherwise (local runs).
	opts := migrations.DefaultOptions()
	if _, err := os.Stat(opts.MigrationsDir); err == nil {
		if err := migrations.NewRunner(bunDB, opts).RunMigrations(); err != nil {
			log.Fatalf("Migrations failed: %v", err)
		}
	} else {
		db.Migrate(bunDB)
	}

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// --- Kafka Setup ---
	var producer ledger.KafkaPublisher
	if cfg.Kafka.Enabled {
		if err := wskafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}); err != nil {
			log.Printf("Could not ensure Kafka topics: %v", err)
		}
		producer = wskafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	// --- Initialize Dependencies ---
	dbLayer := &db.DB{Bun: bunDB}
	mintLock := ledgerredis.NewRedis(redisClient)
	emitter := sse.NewBookingEventEmitter()

	var verifier ledger.GatewayVerifier
	if cfg.Gateway.SecretKey != "" {
		verifier = gateway.NewVerifier(&http.Client{Timeout: 10 * time.Second}, cfg.Gateway)
	}

	log.Println("Initializing Booking Ledger...")
	ledgerSvc := ledger.NewService(dbLayer, mintLock, producer, emitter, verifier, ledger.OptimisticPolicy{})
	discountSvc := discount.NewService(dbLayer)
	reporting := storage.NewPostgreSQLStoreWithDB(sqldb, logger.NewLogger())

	handler := api.NewHandler(ledgerSvc, discountSvc, reporting, dbLayer)
	sseHandler := api.NewSSEHandler(emitter)

	// --- Setup Router ---
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/api/v1/bookings/{bookingId}", handler.GetBooking)
		r.Get("/api/v1/bookings/{bookingId}/clock", handler.Clock)
		r.Get("/api/v1/bookings/{bookingId}/transactions", handler.BookingTransactions)
		r.Post("/api/v1/bookings/{bookingId}/check-in", handler.CheckIn)
		r.Post("/api/v1/bookings/{bookingId}/pause", handler.Pause)
		r.Post("/api/v1/bookings/{bookingId}/resume", handler.Resume)
		r.Post("/api/v1/bookings/{bookingId}/check-out", handler.CheckOut)
		r.Post("/api/v1/bookings/{bookingId}/gateway-failure", handler.GatewayFailure)
		r.Delete("/api/v1/bookings/{bookingId}", handler.Cancel)

		r.Post("/api/v1/cash-tokens/{token}/validate", handler.ValidateCashToken)
		r.Post("/api/v1/cash-tokens/{token}/reject", handler.RejectCashToken)
		r.Get("/api/v1/workspaces/{workspaceId}/cash-tokens", handler.PendingCashTokens)

		r.Get("/api/v1/discounts/{code}", handler.CheckDiscount)
		r.Post("/api/v1/discounts/{code}/redeem", handler.RedeemDiscount)

		r.Get("/api/v1/workspaces/{workspaceId}/transactions", handler.ListTransactions)
		r.Get("/api/v1/workspaces/{workspaceId}/revenue", handler.WorkspaceRevenue)
	})

	// SSE streams authenticate via query token in the browser, so they
	// sit outside the header middleware.
	r.Get("/api/v1/bookings/{bookingId}/events", sseHandler.StreamBooking)
	r.Get("/api/v1/workspaces/{workspaceId}/events", sseHandler.StreamWorkspace)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Booking Service running on %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if p, ok := producer.(*wskafka.Producer); ok && p != nil {
		_ = p.Close()
	}

	log.Println("Server exited gracefully")
}
