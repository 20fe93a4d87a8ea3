package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"laundry-settlement/internal/domain/ports/adapter"
	"laundry-settlement/internal/usecase"
)

// Server exposes the webhook endpoint plus health and metrics. It is the only
// inbound HTTP surface of this subsystem; everything else is invoked
// library-style by the surrounding application.
type Server struct {
	verifier adapter.EventVerifier
	dispatch usecase.DispatchUseCase
	log      *zerolog.Logger
	srv      *http.Server
}

func NewServer(port int, verifier adapter.EventVerifier, dispatch usecase.DispatchUseCase, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "WebhookServer").Logger()
	s := &Server{
		verifier: verifier,
		dispatch: dispatch,
		log:      &l,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/webhooks/stripe", s.handleWebhook)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("webhook server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
