package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/corkboard/internal/api"
	apiMiddleware "github.com/phrazzld/corkboard/internal/api/middleware"
)

// setupRouter registers the health check, the websocket gateway and the
// authenticated collaboration endpoints.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	realtimeHandler := api.NewRealtimeHandler(app.registry, app.coordinator, app.config.Realtime, app.logger)
	collabHandler := api.NewCollabHandler(app.coordinator, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.verifier)

	r.Get("/ws", realtimeHandler.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/boards/{boardID}/presence", collabHandler.GetPresence)
		r.Get("/cards/{cardID}/lock", collabHandler.GetLock)
		r.Post("/mutations", collabHandler.AnnounceMutation)
		r.Post("/boards/{boardID}/automation/trigger", collabHandler.TriggerAutomation)
	})

	r.Get("/health", app.health)

	return r
}

// health reports OK, or 503 when the shared broadcast fabric is unreachable.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusOK, "OK"
	if app.bus != nil {
		if err := app.bus.Ping(r.Context()); err != nil {
			app.logger.Warn("health check: redis unreachable", "error", err)
			status, body = http.StatusServiceUnavailable, "redis unavailable"
		}
	}
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		app.logger.Error("Failed to write health check response", "error", err)
	}
}
