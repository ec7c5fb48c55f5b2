package http

import (
	"net/http"
	"time"

	"github.com/dov-vai/PuzzApi/internal/transport/ws"
	"github.com/dov-vai/PuzzApi/pkg/httputil"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(auth *AuthHandler, game *GameHandler, wsServer *ws.Server, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(httputil.MiddlewareRequestID)
	r.Use(httputil.MiddlewareLogging)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// WS endpoint — без таймаута, соединение живёт долго
	r.Get("/ws", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(chimw.Timeout(30 * time.Second))

		pr.Post("/register", auth.Register)
		pr.Post("/login", auth.Login)
		pr.Get("/refresh-token", auth.Refresh)
		pr.Post("/logout", auth.Logout)

		pr.Get("/public-rooms", game.PublicRooms)
		pr.Post("/host-game", game.HostGame)
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
