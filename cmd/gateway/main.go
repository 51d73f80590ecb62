package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mealkitshop/order-core/internal/gateway"
	"github.com/mealkitshop/order-core/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	ordersServiceURL := os.Getenv("ORDERS_SERVICE_URL")
	if ordersServiceURL == "" {
		logger.Error("ORDERS_SERVICE_URL is required")
		os.Exit(1)
	}

	stockServiceURL := os.Getenv("STOCK_SERVICE_URL")
	if stockServiceURL == "" {
		logger.Error("STOCK_SERVICE_URL is required")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	ordersProxy := gateway.NewServiceProxy(ordersServiceURL, httpClient)
	stockProxy := gateway.NewServiceProxy(stockServiceURL, httpClient)
	handler := gateway.NewHandler(ordersProxy, stockProxy, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /shop/orders", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("POST /shop/orders/preview", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /shop/orders", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /shop/orders/{id}", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("POST /shop/orders/{id}/confirm-payment", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("POST /shop/orders/{id}/cancel", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("POST /shop/orders/{id}/refund", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("PATCH /shop/orders/{id}/status", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /shop/refunds", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /shop/stock", telemetry.WithHTTPRoute(handler.HandleStock))
	mux.HandleFunc("GET /shop/stock/{itemId}", telemetry.WithHTTPRoute(handler.HandleStock))
	mux.HandleFunc("POST /shop/stock/{itemId}/restock", telemetry.WithHTTPRoute(handler.HandleStock))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "gateway",
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
		logger.Info("starting gateway service", "port", port)
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
