package web

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"laundry-settlement/internal/infra/logging"
	"laundry-settlement/internal/infra/metrics"
)

// maxWebhookBody caps the request body; processor events are small and an
// oversized payload is hostile.
const maxWebhookBody = 256 * 1024

// handleWebhook is the single entry point for processor notifications:
// verify -> dispatch -> acknowledge. Signature failures are the only 4xx;
// business-level problems (unknown records, duplicates, unhandled types) are
// acknowledged with 200 so the processor does not redeliver events we have
// already decided about. Storage failures return 500 to request redelivery.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		metrics.IncWebhookEvent("unknown", "rejected")
		return
	}

	sig := r.Header.Get("Stripe-Signature")
	ev, err := s.verifier.Verify(body, sig)
	if err != nil {
		s.log.Warn().Err(err).Msg("webhook signature verification failed")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		metrics.IncWebhookEvent("unknown", "rejected")
		return
	}

	ctx := logging.WithEventID(r.Context(), ev.ID)
	if err := s.dispatch.Dispatch(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("event_id", ev.ID).Str("type", string(ev.Type)).
			Msg("event dispatch failed")
		http.Error(w, "failed to process event", http.StatusInternalServerError)
		return
	}

	metrics.ObserveWebhookLatency(string(ev.Type), float64(time.Since(start).Milliseconds()))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
}
