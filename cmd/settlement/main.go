package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/artstall/marketplace/internal/config"
	"github.com/artstall/marketplace/internal/events"
	kafkax "github.com/artstall/marketplace/internal/kafka"
	"github.com/artstall/marketplace/internal/postgres"
	"github.com/artstall/marketplace/internal/redisx"
	"github.com/artstall/marketplace/internal/settlement"
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

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	worker := &settlement.Worker{
		Store:   &settlement.Repo{DB: db},
		Redis:   rdb,
		Service: cfg.ServiceName + "-settlement",
		Log:     log,
	}

	group := getenv("SETTLEMENT_GROUP", "settlement-svc")
	workers := mustAtoi(os.Getenv("SETTLEMENT_WORKERS"), 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, events.TopicInventoryAnomaly, workers, log)

	go func() {
		log.Info("settlement consumer started",
			zap.String("group", group),
			zap.String("topic", events.TopicInventoryAnomaly),
			zap.Int("workers", workers))
		if err := cons.Start(ctx, worker.HandleAnomaly); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer")
	cancel()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
