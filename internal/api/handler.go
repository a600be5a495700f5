// Package api serves stored measurements over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"github.com/m4reQ/skyva/internal/repository"
)

const (
	DefaultLimit = 10
	MaxLimit     = 1000
)

// Store is the read side of the repository.
type Store interface {
	Latest(ctx context.Context) (repository.Stored, error)
	List(ctx context.Context, skip, limit int) ([]repository.Stored, error)
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes mounts the read endpoints on r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/measurement", h.handleLatest).Methods(http.MethodGet)
	r.HandleFunc("/measurements", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
}

// NewRouter returns the complete API handler with CORS applied.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// handleLatest: GET /measurement
func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	stored, err := h.store.Latest(r.Context())
	if errors.Is(err, repository.ErrNotFound) {
		respondWithError(w, h.logger, APIError{StatusCode: http.StatusNotFound, Message: "no measurements recorded yet"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load latest measurement", "error", err)
		respondWithError(w, h.logger, APIError{StatusCode: http.StatusInternalServerError, Message: "failed to load measurement"})
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, NewMeasurementDTO(stored))
}

// handleList: GET /measurements?skip=0&limit=10
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	skip, err := intParam(query.Get("skip"), 0, "skip")
	if err != nil {
		respondWithError(w, h.logger, APIError{StatusCode: http.StatusBadRequest, Message: err.Error()})
		return
	}
	limit, err := intParam(query.Get("limit"), DefaultLimit, "limit")
	if err != nil {
		respondWithError(w, h.logger, APIError{StatusCode: http.StatusBadRequest, Message: err.Error()})
		return
	}
	if limit > MaxLimit {
		respondWithError(w, h.logger, APIError{
			StatusCode: http.StatusBadRequest,
			Message:    fmt.Sprintf("limit must not exceed %d", MaxLimit),
		})
		return
	}

	rows, err := h.store.List(r.Context(), skip, limit)
	if err != nil {
		h.logger.Error("Failed to list measurements", "skip", skip, "limit", limit, "error", err)
		respondWithError(w, h.logger, APIError{StatusCode: http.StatusInternalServerError, Message: "failed to load measurements"})
		return
	}

	page := MeasurementPage{
		First:        skip,
		Count:        len(rows),
		Measurements: make([]MeasurementDTO, 0, len(rows)),
	}
	for _, row := range rows {
		page.Measurements = append(page.Measurements, NewMeasurementDTO(row))
	}

	respondWithJSON(w, h.logger, http.StatusOK, page)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func intParam(raw string, fallback int, name string) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
