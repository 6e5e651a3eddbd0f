package http

import (
	"net/http"
	"time"

	httpmw "github.com/hearthchat/chat-service/internal/transport/http/middleware"
	"github.com/hearthchat/chat-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, auth httpmw.Authenticator, wsServer *ws.Server, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(httpmw.MiddlewareLogging)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", httpmw.HeaderSecretKey},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// WS endpoint; the participant announces itself with user:join after
	// the upgrade, so no header auth here
	r.Get("/ws", wsServer.HandleWS)

	// secret key gate
	r.Post("/users/lookup", h.LookupUser)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(auth))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Get("/messages", h.ListMessages)
		pr.Post("/messages", h.PostMessage)
		pr.Patch("/profile", h.UpdateProfile)
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
