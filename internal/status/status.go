package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"wedding-guestsync/internal/models"
	"wedding-guestsync/internal/store"
	"wedding-guestsync/internal/syncqueue"
)

// StatusSource reports the current network assessment
type StatusSource interface {
	Status() models.NetworkStatus
}

// DrainReporter exposes the queue's most recent drain outcomes
type DrainReporter interface {
	LastDrainResults() map[string]syncqueue.DrainResult
}

// Response is the JSON body served by GET /status
type Response struct {
	Network    models.NetworkStatus             `json:"network"`
	Pending    map[string]int                   `json:"pending"`
	LastDrains map[string]syncqueue.DrainResult `json:"lastDrains"`
}

// Handler serves the read-only local status API
type Handler struct {
	net    StatusSource
	st     *store.Store
	drains DrainReporter
	log    zerolog.Logger
}

// NewHandler creates the status handler
func NewHandler(net StatusSource, st *store.Store, drains DrainReporter, logger zerolog.Logger) *Handler {
	return &Handler{
		net:    net,
		st:     st,
		drains: drains,
		log:    logger.With().Str("component", "status").Logger(),
	}
}

// Router builds the chi router for the local status listener
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.handleHealth)
	r.Get("/status", h.handleStatus)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pending := make(map[string]int)
	for _, collection := range []string{
		store.CollectionRSVPs,
		store.CollectionPhotos,
		store.DeadLetterCollection(store.CollectionRSVPs),
		store.DeadLetterCollection(store.CollectionPhotos),
	} {
		n, err := h.st.Count(ctx, collection)
		if err != nil {
			h.log.Error().Err(err).Str("collection", collection).Msg("counting pending items failed")
			http.Error(w, "store unavailable", http.StatusInternalServerError)
			return
		}
		pending[collection] = n
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Response{
		Network:    h.net.Status(),
		Pending:    pending,
		LastDrains: h.drains.LastDrainResults(),
	}); err != nil {
		h.log.Error().Err(err).Msg("encoding status response failed")
	}
}
