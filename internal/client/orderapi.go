package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/adapter"
)

var _ adapter.OrderAPI = (*HTTPOrderAPI)(nil)

// HTTPOrderAPI submits drafts to the backend order endpoint. The idempotency
// key travels in the Idempotency-Key header; the backend maps repeated keys to
// the original order.
type HTTPOrderAPI struct {
	baseURL string
	client  *http.Client
}

func NewHTTPOrderAPI(baseURL string) *HTTPOrderAPI {
	return &HTTPOrderAPI{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
}

func (a *HTTPOrderAPI) CreateOrder(ctx context.Context, idempotencyKey string, draft *model.DraftOrder) (string, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: order endpoint returned %d: %s", domain.ErrOperationFailed, resp.StatusCode, raw)
	}

	var out createOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: malformed order response: %v", domain.ErrOperationFailed, err)
	}
	return out.OrderID, nil
}

// HealthProbe returns a ProbeFunc hitting the backend health endpoint,
// suitable for the connectivity monitor.
func HealthProbe(baseURL string) ProbeFunc {
	c := &http.Client{Timeout: 3 * time.Second}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
		if err != nil {
			return false
		}
		resp, err := c.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}
}
