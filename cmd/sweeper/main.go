package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/verkstad/shop-orders/internal/config"
	"github.com/verkstad/shop-orders/internal/inventory"
	kafkax "github.com/verkstad/shop-orders/internal/kafka"
	"github.com/verkstad/shop-orders/internal/observability"
	"github.com/verkstad/shop-orders/internal/postgres"
	"github.com/verkstad/shop-orders/internal/shop"
)

// Periodically expires overdue stock reservations so their quantities stop
// counting against availability.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := observability.NewLogger(cfg.ServiceName + "-sweeper")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	ledger := inventory.NewLedger(db, cfg.ReservationTTL)

	prod := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicStockExpired, 64)
	prod.Start()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down sweeper")
		cancel()
	}()

	logger.Info("sweeper started", zap.Duration("interval", cfg.SweepInterval))
	run(ctx, ledger, prod, cfg.ServiceName, logger, cfg)

	prod.Close()
	prod.WaitClosed()
}

func run(ctx context.Context, ledger *inventory.Ledger, prod *kafkax.Producer, serviceName string, logger *zap.Logger, cfg config.Config) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := ledger.CleanupExpired(ctx)
			if err != nil {
				logger.Error("cleanup sweep failed", zap.Error(err))
				continue
			}
			if n == 0 {
				continue
			}
			logger.Info("expired reservations swept", zap.Int64("count", n))

			now := ledger.Clock().UTC()
			ev := shop.Envelope{
				EventID:      uuid.NewString(),
				EventType:    shop.EventStockExpired,
				EventVersion: 1,
				OccurredAt:   now,
				Producer:     serviceName + "-sweeper",
				Payload:      kafkax.MustMarshal(shop.StockExpiredPayload{Count: n, SweptAt: now}),
			}
			prod.Publish([]byte("sweep"), kafkax.MustMarshal(ev),
				kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventStockExpired)},
				kafkago.Header{Key: "x-event-version", Value: []byte("1")},
			)
		}
	}
}
