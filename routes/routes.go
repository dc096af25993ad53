package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Temirlan00/league-system/handlers"
	"github.com/Temirlan00/league-system/middleware"
	"github.com/Temirlan00/league-system/models"
)

func SetupRoutes(
	router *chi.Mux,
	authenticator *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	disputeHandler *handlers.DisputeHandler,
	matchHandler *handlers.MatchHandler,
	cancellationHandler *handlers.CancellationHandler,
	penaltyHandler *handlers.PenaltyHandler,
	dashboardHandler *handlers.DashboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())

	// Публичные маршруты
	router.Post("/api/auth/login", authHandler.LoginHandler)

	// Live-лента для админов лиги
	router.Get("/ws/admin/{leagueID}", webSocketHandler.ServeWs)

	// Админские маршруты: JWT + роль admin
	router.Route("/api/admin", func(r chi.Router) {
		r.Use(authenticator.Authenticate)
		r.Use(middleware.RequireRole(models.RoleAdmin))

		r.Route("/disputes", func(r chi.Router) {
			r.Get("/", disputeHandler.ListHandler)
			r.Get("/{disputeID}", disputeHandler.GetByIDHandler)
			r.Post("/{disputeID}/resolve", disputeHandler.ResolveHandler)
			r.Post("/{disputeID}/notes", disputeHandler.AddNoteHandler)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", matchHandler.ListHandler)
			r.Get("/{matchID}", matchHandler.GetByIDHandler)
			r.Put("/{matchID}/result", matchHandler.EditResultHandler)
			r.Post("/{matchID}/void", matchHandler.VoidHandler)
			r.Get("/{matchID}/audit", matchHandler.AuditHandler)
			r.Post("/{matchID}/disputes", disputeHandler.OpenHandler)
			r.Post("/{matchID}/cancellations", cancellationHandler.FlagHandler)
		})

		r.Route("/cancellations", func(r chi.Router) {
			r.Get("/pending", cancellationHandler.ListPendingHandler)
			r.Post("/{cancellationID}/review", cancellationHandler.ReviewHandler)
		})

		r.Route("/penalties", func(r chi.Router) {
			r.Post("/", penaltyHandler.ApplyHandler)
			r.Post("/apply", penaltyHandler.ApplyHandler)
			r.Post("/evidence", penaltyHandler.UploadEvidenceHandler)
			r.Get("/player/{userID}", penaltyHandler.PlayerHistoryHandler)
		})

		r.Get("/players/{userID}/penalties", penaltyHandler.PlayerHistoryHandler)
		r.Get("/dashboard/stats", dashboardHandler.StatsHandler)
	})
}
