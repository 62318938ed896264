package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eddiefio/guestify-checkout/internal/accounts"
	"github.com/eddiefio/guestify-checkout/internal/checkout"
	"github.com/eddiefio/guestify-checkout/internal/config"
	"github.com/eddiefio/guestify-checkout/internal/httpx"
	"github.com/eddiefio/guestify-checkout/internal/inventory"
	kafkax "github.com/eddiefio/guestify-checkout/internal/kafka"
	"github.com/eddiefio/guestify-checkout/internal/order"
	"github.com/eddiefio/guestify-checkout/internal/postgres"
	"github.com/eddiefio/guestify-checkout/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.PostgresDSN, logger); err != nil {
			logger.Fatalf("db migrate: %v", err)
		}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, order.TopicOrderCreated, 1024)
	prod.Start(ctx)

	// Repos & services
	invRepo := &inventory.Repo{DB: db}
	orderRepo := &order.Repo{DB: db}
	svc := &checkout.Service{
		DB:        db,
		Inventory: invRepo,
		Orders:    orderRepo,
		Logger:    logger,
	}

	router := httpx.NewRouter()
	h := &httpx.Handler{
		Checkout:      svc,
		Orders:        orderRepo,
		Inventory:     invRepo,
		Accounts:      &accounts.Store{Redis: rdb},
		Redis:         rdb,
		Producer:      prod,
		Service:       cfg.ServiceName,
		Logger:        logger,
		RetryAttempts: cfg.RetryAttempts,
	}
	h.Register(router)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	prod.Close() // stop accepting -> flush & close writer
	cancel()
	prod.WaitClosed()
}
