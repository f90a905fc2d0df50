package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/verkstad/shop-orders/internal/checkout"
	"github.com/verkstad/shop-orders/internal/config"
	"github.com/verkstad/shop-orders/internal/httpx"
	"github.com/verkstad/shop-orders/internal/inventory"
	kafkax "github.com/verkstad/shop-orders/internal/kafka"
	"github.com/verkstad/shop-orders/internal/observability"
	"github.com/verkstad/shop-orders/internal/payment"
	"github.com/verkstad/shop-orders/internal/postgres"
	"github.com/verkstad/shop-orders/internal/redisx"
	"github.com/verkstad/shop-orders/internal/shop"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := observability.NewLogger(cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderCreated, 1024)
	pCreated.Start()
	pPaid := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderPaid, 1024)
	pPaid.Start()
	pFailed := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderPaymentFailed, 1024)
	pFailed.Start()

	// Store, ledger, gateway
	products := &shop.ProductRepo{DB: db}
	orders := &shop.OrderRepo{DB: db}
	numbers := shop.NewNumberGenerator(db)
	ledger := inventory.NewLedger(db, cfg.ReservationTTL)
	gateway := payment.NewSwishClient(cfg.SwishBaseURL, cfg.SwishPayeeAlias, cfg.SwishCallbackURL)

	checkoutSvc := &checkout.Service{
		Products:       products,
		Orders:         orders,
		Ledger:         ledger,
		Numbers:        numbers,
		Gateway:        gateway,
		ProducerOrder:  pCreated,
		ProducerFailed: pFailed,
		Redis:          rdb,
		Logger:         logger,
		ServiceName:    cfg.ServiceName,
	}
	callbackSvc := &payment.CallbackService{
		Orders:         orders,
		Ledger:         ledger,
		ProducerPaid:   pPaid,
		ProducerFailed: pFailed,
		Redis:          rdb,
		Logger:         logger,
		ServiceName:    cfg.ServiceName,
	}

	router := httpx.NewRouter(logger)
	oh := &httpx.OrdersHandler{Checkout: checkoutSvc, Orders: orders, Redis: rdb, Logger: logger}
	oh.Register(router)
	ph := &httpx.PaymentsHandler{Callbacks: callbackSvc, Logger: logger}
	ph.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	pCreated.Close()
	pPaid.Close()
	pFailed.Close()
	cancel()
	pCreated.WaitClosed()
	pPaid.WaitClosed()
	pFailed.WaitClosed()
}
