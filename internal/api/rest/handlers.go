package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/statline/internal/cache"
	"github.com/fortuna/statline/internal/series"
	"github.com/fortuna/statline/internal/store"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	playerStore series.PlayerStore
	oddsStore   series.OddsStore
	cache       *cache.RedisCache // optional
	log         *logrus.Entry
}

// NewHandler creates a new handler
func NewHandler(playerStore series.PlayerStore, oddsStore series.OddsStore, redisCache *cache.RedisCache, log *logrus.Entry) *Handler {
	return &Handler{
		playerStore: playerStore,
		oddsStore:   oddsStore,
		cache:       redisCache,
		log:         log,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "statline",
	})
}

// GetPlayerSeries returns a player's pivoted time series, cache first.
func (h *Handler) GetPlayerSeries(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]
	ctx := r.Context()

	if h.cache != nil {
		if s, found, err := h.cache.GetSeries(ctx, player); err != nil {
			h.log.WithError(err).Warnf("Cache read failed for %s", player)
		} else if found {
			respondJSON(w, http.StatusOK, s)
			return
		}
	}

	s, err := h.playerStore.Load(ctx, player)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Player series not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load player series", err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetSeries(ctx, player, s); err != nil {
			h.log.WithError(err).Warnf("Cache write failed for %s", player)
		}
	}

	respondJSON(w, http.StatusOK, s)
}

// GetPlayerOdds returns a player's reconciled odds rows, cache first.
func (h *Handler) GetPlayerOdds(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]
	ctx := r.Context()

	if h.cache != nil {
		if rows, found, err := h.cache.GetOdds(ctx, player); err != nil {
			h.log.WithError(err).Warnf("Cache read failed for %s", player)
		} else if found {
			respondJSON(w, http.StatusOK, rows)
			return
		}
	}

	rows, err := h.oddsStore.Load(ctx, player)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Player odds not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load player odds", err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetOdds(ctx, player, rows); err != nil {
			h.log.WithError(err).Warnf("Cache write failed for %s", player)
		}
	}

	respondJSON(w, http.StatusOK, rows)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
