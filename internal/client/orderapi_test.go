//go:build !integration

package client_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"laundry-settlement/internal/client"
	"laundry-settlement/internal/domain/model"
)

// orderBackend fakes the order endpoint with real idempotency-key handling:
// the first request for a key creates an order, repeats return the same id.
type orderBackend struct {
	mu     sync.Mutex
	orders map[string]string // idempotency key -> order id
	hits   int
}

func newOrderBackend() *orderBackend {
	return &orderBackend{orders: map[string]string{}}
}

func (b *orderBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" {
			http.Error(w, "missing idempotency key", http.StatusBadRequest)
			return
		}
		var d model.DraftOrder
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			http.Error(w, "bad draft", http.StatusBadRequest)
			return
		}

		b.mu.Lock()
		b.hits++
		id, ok := b.orders[key]
		if !ok {
			id = fmt.Sprintf("order-%d", len(b.orders)+1)
			b.orders[key] = id
		}
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"order_id": id})
	}
}

func TestHTTPOrderAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("should create an order and return its id", func(t *testing.T) {
		backend := newOrderBackend()
		srv := httptest.NewServer(backend.handler())
		defer srv.Close()

		api := client.NewHTTPOrderAPI(srv.URL)
		d := &model.DraftOrder{OrderNumber: "LND-1", TotalCents: 2900}
		id, err := api.CreateOrder(ctx, "LND-1", d)
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
		if id != "order-1" {
			t.Errorf("order id = %q", id)
		}
	})

	t.Run("should yield the same order for a retried idempotency key", func(t *testing.T) {
		backend := newOrderBackend()
		srv := httptest.NewServer(backend.handler())
		defer srv.Close()

		api := client.NewHTTPOrderAPI(srv.URL)
		d := &model.DraftOrder{OrderNumber: "LND-1"}

		first, err := api.CreateOrder(ctx, "LND-1", d)
		if err != nil {
			t.Fatalf("first submit: %v", err)
		}
		second, err := api.CreateOrder(ctx, "LND-1", d)
		if err != nil {
			t.Fatalf("second submit: %v", err)
		}
		if first != second {
			t.Errorf("retry created a new order: %q vs %q", first, second)
		}
		if len(backend.orders) != 1 {
			t.Errorf("backend holds %d orders, want 1", len(backend.orders))
		}
	})

	t.Run("should surface non-2xx responses as errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "validation failed", http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		api := client.NewHTTPOrderAPI(srv.URL)
		if _, err := api.CreateOrder(ctx, "LND-1", &model.DraftOrder{OrderNumber: "LND-1"}); err == nil {
			t.Error("expected an error for a 422 response")
		}
	})

	t.Run("should fail the probe against an unreachable backend", func(t *testing.T) {
		probe := client.HealthProbe("http://127.0.0.1:1")
		if probe(ctx) {
			t.Error("probe reported an unreachable backend as online")
		}

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				w.WriteHeader(http.StatusOK)
				return
			}
			http.NotFound(w, r)
		}))
		defer srv.Close()
		if !client.HealthProbe(srv.URL)(ctx) {
			t.Error("probe reported a healthy backend as offline")
		}
	})
}
