package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_HandleOrders(t *testing.T) {
	t.Run("strips /shop prefix and proxies GET /orders", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/orders" {
				t.Errorf("expected /orders, got %s", r.URL.Path)
			}
			if r.URL.RawQuery != "member_id=m-1" {
				t.Errorf("expected member_id query to be forwarded, got %q", r.URL.RawQuery)
			}
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`[{"id":"1"}]`))
		}))
		defer ordersServer.Close()

		handler := NewHandler(
			NewServiceProxy(ordersServer.URL, ordersServer.Client()),
			NewServiceProxy("http://unused", http.DefaultClient),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodGet, "/shop/orders?member_id=m-1", nil)
		rec := httptest.NewRecorder()

		handler.HandleOrders(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("expected application/json, got %s", rec.Header().Get("Content-Type"))
		}
		if rec.Body.String() != `[{"id":"1"}]` {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("proxies POST /orders with body", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"member_id":"m-1"}` {
				t.Errorf("unexpected body: %s", body)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"new-id"}`))
		}))
		defer ordersServer.Close()

		handler := NewHandler(
			NewServiceProxy(ordersServer.URL, ordersServer.Client()),
			NewServiceProxy("http://unused", http.DefaultClient),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodPost, "/shop/orders", strings.NewReader(`{"member_id":"m-1"}`))
		rec := httptest.NewRecorder()

		handler.HandleOrders(rec, req)

		if rec.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when orders service unavailable", func(t *testing.T) {
		handler := NewHandler(
			NewServiceProxy("http://localhost:99999", &http.Client{}),
			NewServiceProxy("http://unused", http.DefaultClient),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodGet, "/shop/orders", nil)
		rec := httptest.NewRecorder()

		handler.HandleOrders(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "service unavailable" {
			t.Errorf("expected 'service unavailable', got %s", resp["error"])
		}
	})
}

func TestHandler_HandleStock(t *testing.T) {
	t.Run("strips /shop prefix and forwards to stock service", func(t *testing.T) {
		stockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/stock/item-123" {
				t.Errorf("expected /stock/item-123, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"item_id":"item-123","stock":10}`))
		}))
		defer stockServer.Close()

		handler := NewHandler(
			NewServiceProxy("http://unused", http.DefaultClient),
			NewServiceProxy(stockServer.URL, stockServer.Client()),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodGet, "/shop/stock/item-123", nil)
		rec := httptest.NewRecorder()

		handler.HandleStock(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("preserves downstream error status", func(t *testing.T) {
		stockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"item not found"}`))
		}))
		defer stockServer.Close()

		handler := NewHandler(
			NewServiceProxy("http://unused", http.DefaultClient),
			NewServiceProxy(stockServer.URL, stockServer.Client()),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodGet, "/shop/stock/unknown", nil)
		rec := httptest.NewRecorder()

		handler.HandleStock(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when stock service unavailable", func(t *testing.T) {
		handler := NewHandler(
			NewServiceProxy("http://unused", http.DefaultClient),
			NewServiceProxy("http://localhost:99999", &http.Client{}),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodGet, "/shop/stock/item-123", nil)
		rec := httptest.NewRecorder()

		handler.HandleStock(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}
	})
}
