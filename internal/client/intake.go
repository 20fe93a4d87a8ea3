package client

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"laundry-settlement/internal/domain/model"
)

// NewDraftIntakeHandler exposes the autosave path to the POS app over
// loopback HTTP. A PUT schedules a debounced save and returns immediately;
// persistence happens after the quiet period, so the response only
// acknowledges receipt.
func NewDraftIntakeHandler(deb *AutoSaveDebouncer, logger *zerolog.Logger) http.Handler {
	l := logger.With().Str("component", "draft_intake").Logger()

	r := chi.NewRouter()
	r.Put("/drafts/{orderNumber}", func(w http.ResponseWriter, req *http.Request) {
		var d model.DraftOrder
		if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20)).Decode(&d); err != nil {
			l.Warn().Err(err).Msg("malformed draft payload")
			http.Error(w, "malformed draft", http.StatusBadRequest)
			return
		}
		d.OrderNumber = chi.URLParam(req, "orderNumber")
		deb.Save(&d)
		w.WriteHeader(http.StatusAccepted)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return r
}
