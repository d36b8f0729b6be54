package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/keyduel/keyduel-backend/internal/hub"
	"github.com/keyduel/keyduel-backend/internal/store"
	"github.com/keyduel/keyduel-backend/internal/ws"
)

// SetupRoutes builds the router *with* the hub and store injected.
func SetupRoutes(h *hub.Hub, ps store.PlayerStore, corsOrigin string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(cors(corsOrigin))

	r.Route("/api", func(r chi.Router) {
		r.Post("/player", CreatePlayer(ps, log))
		r.Get("/player/{username}", GetPlayer(ps, log))
		r.Get("/leaderboard", Leaderboard(ps, log))
		r.Get("/healthz", Healthz)
		r.Get("/ws/{username}", ws.Handler(h, log))
	})
	return r
}

func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
