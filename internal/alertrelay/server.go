package alertrelay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"vidnorm/internal/config"
	"vidnorm/internal/logging"
	"vidnorm/internal/metrics"
	"vidnorm/internal/notifications"
)

const maxPayloadBytes = 1 << 20

// NewRouter wires the relay endpoints.
func NewRouter(relay *Relay, reg *prometheus.Registry, m *metrics.Relay) *mux.Router {
	r := mux.NewRouter()
	if m != nil {
		r.Use(metricsMiddleware(m, DefaultSkipPaths()))
	}
	r.HandleFunc("/webhook", webhookHandler(relay)).Methods(http.MethodPost)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	if reg != nil {
		r.Handle("/metrics", metrics.Handler(reg)).Methods(http.MethodGet)
	}
	return r
}

func webhookHandler(relay *Relay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload Payload
		decoder := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes))
		if err := decoder.Decode(&payload); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		relay.Handle(r.Context(), payload)
		writeOK(w)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w)
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

// Server is the relay HTTP server.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer assembles the relay from configuration.
func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.Relay.TimeoutSeconds) * time.Second
	reg := metrics.NewRegistry()
	m := metrics.NewRelay(reg)
	relay := New(
		NewOllamaClient(cfg.Relay.OllamaURL, cfg.Relay.OllamaModel, timeout),
		notifications.NewNtfyClient(cfg.Relay.NtfyURL, timeout),
		m,
		logger,
	)
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Relay.Bind,
			Handler:           NewRouter(relay, reg, m),
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logging.NewComponentLogger(logger, "alertrelay"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("alert relay listening", logging.String("bind", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve %s: %w", s.srv.Addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down alert relay")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
