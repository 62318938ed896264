package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eddiefio/guestify-checkout/internal/config"
	kafkax "github.com/eddiefio/guestify-checkout/internal/kafka"
	"github.com/eddiefio/guestify-checkout/internal/order"
	"github.com/eddiefio/guestify-checkout/internal/payments"
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
		logger.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer for order.finalized
	prod := kafkax.NewProducer(cfg.KafkaBrokers, order.TopicOrderFinalized, 1024)
	prod.Start(ctx)

	svc := &payments.Service{
		Orders:      &order.Repo{DB: db},
		Redis:       rdb,
		Producer:    prod,
		ServiceName: cfg.ServiceName + "-payments",
		Logger:      logger,
	}

	group := getenv("PAYMENTS_GROUP", "payments-svc")
	workers := mustAtoi(os.Getenv("PAYMENTS_WORKERS"), "4")

	topics := []string{order.TopicPaymentCaptured, order.TopicPaymentFailed}
	for _, topic := range topics {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers)
		go func(topic string) {
			logger.Printf("payments consumer started: group=%s topic=%s workers=%d", group, topic, workers)
			if err := cons.Start(ctx, svc.HandlePaymentEvent); err != nil {
				logger.Printf("consumer exit topic=%s: %v", topic, err)
				cancel()
			}
		}(topic)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Println("shutting down consumers...")
	case <-ctx.Done():
	}
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
