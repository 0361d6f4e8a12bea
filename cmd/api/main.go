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

	"github.com/artstall/marketplace/internal/cart"
	"github.com/artstall/marketplace/internal/catalog"
	"github.com/artstall/marketplace/internal/checkout"
	"github.com/artstall/marketplace/internal/config"
	"github.com/artstall/marketplace/internal/events"
	"github.com/artstall/marketplace/internal/httpx"
	"github.com/artstall/marketplace/internal/inventory"
	kafkax "github.com/artstall/marketplace/internal/kafka"
	"github.com/artstall/marketplace/internal/orders"
	"github.com/artstall/marketplace/internal/payment"
	"github.com/artstall/marketplace/internal/postgres"
	"github.com/artstall/marketplace/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := postgres.Migrate(cfg.PostgresDSN, cfg.MigrationsDir); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// One producer per topic.
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicOrderCreated, 1024, log)
	pCaptured := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicPaymentCaptured, 1024, log)
	pSoldOut := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicListingSoldOut, 1024, log)
	pAnomaly := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicInventoryAnomaly, 1024, log)
	producers := []*kafkax.Producer{pCreated, pCaptured, pSoldOut, pAnomaly}
	for _, p := range producers {
		p.Start(ctx)
	}

	catalogRepo := &catalog.Repo{DB: db}
	cartRepo := &cart.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}

	cartSvc := &cart.Service{Store: cartRepo, Catalog: catalogRepo}
	checkoutSvc := &checkout.Service{
		Carts:    cartRepo,
		Catalog:  catalogRepo,
		Orders:   orderRepo,
		Gateway:  payment.NewRestGateway(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret),
		Producer: pCreated,
		Redis:    rdb,
		Service:  cfg.ServiceName,
		Log:      log,
	}
	reconciler := &inventory.Reconciler{
		Catalog:         catalogRepo,
		SoldOutProducer: pSoldOut,
		AnomalyProducer: pAnomaly,
		Service:         cfg.ServiceName,
		Log:             log,
	}
	verifier := &payment.Verifier{
		Secret:   cfg.GatewayKeySecret,
		Orders:   orderRepo,
		Settler:  reconciler,
		Redis:    rdb,
		Producer: pCaptured,
		Service:  cfg.ServiceName,
		Log:      log,
	}

	router := httpx.NewRouter()
	(&httpx.CartHandler{Svc: cartSvc}).Register(router)
	(&httpx.CheckoutHandler{Svc: checkoutSvc}).Register(router)
	(&httpx.PaymentHandler{Verifier: verifier}).Register(router)
	(&httpx.OrdersHandler{Store: orderRepo, Redis: rdb}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shutdownCtx)
	for _, p := range producers {
		p.Close()
	}
	cancel()
	for _, p := range producers {
		p.WaitClosed()
	}
}
