package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/cityhunt/internal/images"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, rdb *redis.Client, imgs images.Store, imageDir string) {
	broker := NewBroker()
	events := NewEvents(broker, rdb, logger)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("CityHunt API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, store, rdb))

	r.Post("/api/login", handleLogin(store))
	r.Post("/api/logout", handleLogout(store))
	r.Get("/api/events", handleEvents(store, broker))

	r.Route("/api", func(r chi.Router) {
		r.Get("/hunts/assigned", handleListAssignedHunts(store))
		r.Get("/hunts/{huntID}", handleGetHunt(store))
		r.Get("/hunts/{huntID}/progress", handleProgress(store))
		r.Post("/hunts/{huntID}/winner", handleDeclareWinner(store, events))

		r.Post("/clues/{clueID}/submissions", handleCreateSubmission(store, events))
		r.Get("/teams/{teamID}/clues/{clueID}/submissions", handleListSubmissions(store))
		r.Post("/teams/{teamID}/clues/{clueID}/forward-to-admin", handleForwardToAdmin(store, events))

		r.Post("/submissions/{id}/leader-approve", handleLeaderApprove(store, events))
		r.Post("/submissions/{id}/leader-reject", handleLeaderReject(store, events))
		r.Post("/submissions/{id}/admin-approve", handleAdminApprove(store, events))
		r.Post("/submissions/{id}/admin-reject", handleAdminReject(store, events))

		r.Post("/images", handleUploadImage(store, imgs))

		r.Post("/admin/hunts/{huntID}/status", handleUpdateHuntStatus(store))
	})

	if imageDir != "" {
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(imageDir))))
	}
}
