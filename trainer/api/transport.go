// Package api exposes the run's status surface over HTTP: health, state
// machine status, epoch history and prometheus metrics.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ordanini/vigat/trainer"
)

const (
	defHistoryLimit = 10
	maxHistoryLimit = 100
)

func MakeHandler(svc trainer.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	mux.Get("/health", otelhttp.NewHandler(healthHandler(instanceID), "health").ServeHTTP)
	mux.Get("/status", otelhttp.NewHandler(statusHandler(svc, logger), "status").ServeHTTP)
	mux.Get("/history", otelhttp.NewHandler(historyHandler(svc, logger), "history").ServeHTTP)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func healthHandler(instanceID string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		encodeResponse(w, http.StatusOK, map[string]string{
			"status":      "ok",
			"instance_id": instanceID,
		})
	}
}

func statusHandler(svc trainer.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.Status(r.Context())
		if err != nil {
			encodeError(w, logger, err)

			return
		}
		encodeResponse(w, http.StatusOK, status)
	}
}

func historyHandler(svc trainer.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset := parseUint(r.URL.Query().Get("offset"), 0)
		limit := parseUint(r.URL.Query().Get("limit"), defHistoryLimit)
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		records, total, err := svc.History(r.Context(), offset, limit)
		if err != nil {
			encodeError(w, logger, err)

			return
		}
		encodeResponse(w, http.StatusOK, map[string]any{
			"offset":  offset,
			"limit":   limit,
			"total":   total,
			"history": records,
		})
	}
}

func encodeResponse(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func encodeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Warn("Request failed", slog.Any("error", err))
	encodeResponse(w, http.StatusInternalServerError, map[string]string{
		"error": err.Error(),
	})
}

func parseUint(s string, def uint64) uint64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return def
	}

	return v
}
