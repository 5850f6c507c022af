package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"coinpulse/internal/logging"
	"coinpulse/internal/provider"
	"coinpulse/internal/quote"
)

const (
	indexPath      = "/static/index.html"
	fetchFailedMsg = "Failed to fetch coin data"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Location", indexPath)
	w.WriteHeader(http.StatusFound)
}

// handleCrypto performs exactly one upstream fetch per request. Failure
// causes are logged but never exposed to the client.
func (s *Server) handleCrypto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	snap, err := s.provider.Fetch(ctx, s.cfg.Assets)
	if err != nil {
		fields := []zap.Field{
			zap.String("outcome", provider.Outcome(err)),
			zap.Error(err),
		}
		var decodeErr *provider.DecodeError
		if errors.As(err, &decodeErr) {
			fields = append(fields, zap.ByteString("body", decodeErr.Body))
		}
		logging.FromContext(r.Context()).Error("failed to fetch coin data", fields...)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, fetchFailedMsg)
		return
	}

	writeJSON(w, http.StatusOK, quote.Format(snap))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
