package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/keyduel/keyduel-backend/internal/rank"
	"github.com/keyduel/keyduel-backend/internal/store"
)

// CreatePlayer registers a username, or returns the existing record so a
// returning player keeps their ladder position.
func CreatePlayer(ps store.PlayerStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		existing, err := ps.FindByUsername(r.Context(), body.Username)
		if err == nil {
			writeJSON(w, http.StatusOK, existing)
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("player lookup failed", zap.Error(err))
			http.Error(w, "store unavailable", http.StatusInternalServerError)
			return
		}

		p := store.Player{
			Username: body.Username,
			Rank:     rank.DefaultRank,
			RankName: rank.TierName(rank.DefaultRank),
		}
		if err := ps.Insert(r.Context(), p); err != nil {
			log.Error("player insert failed", zap.Error(err))
			http.Error(w, "store unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func GetPlayer(ps store.PlayerStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")

		p, err := ps.FindByUsername(r.Context(), username)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "player not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error("player lookup failed", zap.Error(err))
			http.Error(w, "store unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// Leaderboard returns the top ten players by rank.
func Leaderboard(ps store.PlayerStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := ps.Leaderboard(r.Context(), 10)
		if err != nil {
			log.Error("leaderboard query failed", zap.Error(err))
			http.Error(w, "store unavailable", http.StatusInternalServerError)
			return
		}
		if players == nil {
			players = []store.Player{}
		}
		writeJSON(w, http.StatusOK, players)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
