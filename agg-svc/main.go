package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	httpapi "foodcourt/agg-svc/internal/api/http"
	"foodcourt/agg-svc/internal/service"
	"foodcourt/agg-svc/internal/storage"
	"foodcourt/config"
)

func main() {
	settings := config.Load(".env")
	logger := config.NewLogger(settings.LogLevel)
	if settings.KafkaBroker == "" {
		logger.Fatal("KAFKA_BROKER is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.MustInitRedis(settings, logger)
	defer rdb.Close()

	reader := config.NewKafkaReader(settings)
	defer reader.Close()

	store := storage.NewStore(rdb)
	consumer := service.NewConsumer(reader, store, logger)
	handler := httpapi.NewHandler(service.NewAnalyticsService(store), logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Start(ctx)
	}()

	if err := httpapi.StartServer(ctx, settings.AggHTTPAddr, httpapi.NewRouter(handler), logger); err != nil {
		logger.WithError(err).Error("analytics server stopped")
		stop()
	}
	wg.Wait()
}
