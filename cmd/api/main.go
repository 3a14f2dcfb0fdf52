package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tardieats/payments-relay/internal/checkout"
	"github.com/tardieats/payments-relay/internal/config"
	"github.com/tardieats/payments-relay/internal/gateway"
	"github.com/tardieats/payments-relay/internal/httpx"
	kafkax "github.com/tardieats/payments-relay/internal/kafka"
	"github.com/tardieats/payments-relay/internal/metrics"
	"github.com/tardieats/payments-relay/internal/payments"
	"github.com/tardieats/payments-relay/internal/postgres"
	"github.com/tardieats/payments-relay/internal/reconcile"
	"github.com/tardieats/payments-relay/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.GatewaySecret == "" {
		log.Fatal("GATEWAY_SECRET is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Register()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("db schema: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pRecorded := kafkax.NewProducer(cfg.KafkaBrokers, payments.TopicCheckoutRecorded, 1024)
	pRecorded.Start()
	pReconciled := kafkax.NewProducer(cfg.KafkaBrokers, payments.TopicPaymentReconciled, 1024)
	pReconciled.Start()

	// Gateway client & services
	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecret)
	store := &payments.Store{DB: db}
	checkoutSvc := &checkout.Service{
		Gateway:     gw,
		Store:       store,
		Redis:       rdb,
		Producer:    pRecorded,
		ServiceName: cfg.ServiceName,
	}
	reconcileSvc := &reconcile.Service{
		Store:       store,
		Redis:       rdb,
		Producer:    pReconciled,
		ServiceName: cfg.ServiceName,
	}

	// HTTP boundary
	router := httpx.NewRouter()
	ph := &httpx.PaymentsHandler{
		Gateway:    gw,
		Checkout:   checkoutSvc,
		Reconciler: reconcileSvc,
		Orders:     store,
		Redis:      rdb,
	}
	ph.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	pRecorded.Close()
	pReconciled.Close()
	pRecorded.WaitClosed()
	pReconciled.WaitClosed()
}
