package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mealkitshop/order-core/internal/domain"
	"github.com/mealkitshop/order-core/internal/messaging"
	"github.com/mealkitshop/order-core/internal/telemetry"
	"github.com/mealkitshop/order-core/internal/worker"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "worker", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	ordersServiceURL := os.Getenv("ORDERS_SERVICE_URL")
	if ordersServiceURL == "" {
		logger.Error("ORDERS_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	emailServiceURL := os.Getenv("EMAIL_SERVICE_URL")
	if emailServiceURL == "" {
		logger.Error("EMAIL_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	brokers := strings.Split(kafkaBrokers, ",")

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	handler := worker.NewNotificationHandler(ordersServiceURL, emailServiceURL, httpClient, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	consumers := []struct {
		topic   string
		handler func(ctx context.Context, payload []byte) error
	}{
		{domain.TopicOrderCreated, handler.HandleOrderCreated},
		{domain.TopicOrderCanceled, handler.HandleOrderCanceled},
		{domain.TopicRefundRequested, handler.HandleRefundRequested},
	}

	logger.Info("starting notification worker", "brokers", brokers)

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		consumer := messaging.NewConsumer(brokers, c.topic, "notification-worker")
		defer func() { _ = consumer.Close() }()

		handle := c.handler
		g.Go(func() error {
			return consumer.Consume(gctx, handle)
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() == context.Canceled {
			logger.Info("consumers stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
