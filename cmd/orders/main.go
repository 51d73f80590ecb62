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

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mealkitshop/order-core/internal/domain"
	"github.com/mealkitshop/order-core/internal/messaging"
	"github.com/mealkitshop/order-core/internal/orders"
	"github.com/mealkitshop/order-core/internal/postgres"
	"github.com/mealkitshop/order-core/internal/pricing"
	"github.com/mealkitshop/order-core/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "orders", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("orders", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgres.WithSearchPath(postgresURL, "shop"))
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var pubs orders.Publishers
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")

		created := messaging.NewProducer(brokers, domain.TopicOrderCreated)
		canceled := messaging.NewProducer(brokers, domain.TopicOrderCanceled)
		refundRequested := messaging.NewProducer(brokers, domain.TopicRefundRequested)
		defer func() {
			_ = created.Close()
			_ = canceled.Close()
			_ = refundRequested.Close()
		}()

		pubs = orders.Publishers{
			OrderCreated:    created,
			OrderCanceled:   canceled,
			RefundRequested: refundRequested,
		}
	}

	service := orders.NewService(db, pricing.DefaultConfig(), pubs, logger)
	handler := orders.NewHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(handler.HandleCreate))
	mux.HandleFunc("POST /orders/preview", telemetry.WithHTTPRoute(handler.HandlePreview))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(handler.HandleList))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(handler.HandleGet))
	mux.HandleFunc("POST /orders/{id}/confirm-payment", telemetry.WithHTTPRoute(handler.HandleConfirmPayment))
	mux.HandleFunc("POST /orders/{id}/cancel", telemetry.WithHTTPRoute(handler.HandleCancel))
	mux.HandleFunc("POST /orders/{id}/refund", telemetry.WithHTTPRoute(handler.HandleRequestRefund))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(handler.HandleUpdateStatus))
	mux.HandleFunc("GET /refunds", telemetry.WithHTTPRoute(handler.HandleListRefunds))
	mux.Handle("GET /metrics", metricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "orders",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting orders service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
