package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/verkstad/shop-orders/internal/config"
	kafkax "github.com/verkstad/shop-orders/internal/kafka"
	"github.com/verkstad/shop-orders/internal/notifier"
	"github.com/verkstad/shop-orders/internal/observability"
	"github.com/verkstad/shop-orders/internal/redisx"
	"github.com/verkstad/shop-orders/internal/shop"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := observability.NewLogger(cfg.ServiceName + "-notifier")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{
		Redis:  rdb,
		Sender: &notifier.LogSender{Logger: logger},
		Logger: logger,
	}

	group := getenv("NOTIFIER_GROUP", "notifier-svc")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "4")

	paid := kafkax.NewConsumer(cfg.KafkaBrokers, group, shop.TopicOrderPaid, workers, logger)
	failed := kafkax.NewConsumer(cfg.KafkaBrokers, group, shop.TopicOrderPaymentFailed, workers, logger)

	go func() {
		logger.Info("notifier consumer started", zap.String("topic", shop.TopicOrderPaid))
		if err := paid.Start(ctx, svc.HandleOrderPaid); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()
	go func() {
		logger.Info("notifier consumer started", zap.String("topic", shop.TopicOrderPaymentFailed))
		if err := failed.Start(ctx, svc.HandlePaymentFailed); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Info("shutting down notifier")
	case <-ctx.Done():
	}
	cancel()
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
