package api

import (
	"net/http"

	"github.com/dgnsrekt/netchat_agent/internal/control"
	"github.com/dgnsrekt/netchat_agent/internal/relay"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewAgentServer mounts the capture agent's surfaces: the control-protocol
// WebSocket, the live capture feed, and a health probe. No huma layer here;
// the control surface is message RPC, not REST.
func NewAgentServer(ctrl *control.Handler, broker *relay.Broker) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/control", control.WSHandler(ctrl))
	router.Get("/events", relay.SSEHandler(broker))
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return router
}
