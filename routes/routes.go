package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // алиас, чтобы не путать с нашими middleware
	"github.com/go-chi/cors"

	"github.com/Dosada05/beach-tennis-system/handlers"
)

type Handlers struct {
	Ratings   *handlers.RatingHandler
	Brackets  *handlers.BracketHandler
	Matches   *handlers.MatchHandler
	Schedules *handlers.ScheduleHandler
	Standings *handlers.StandingsHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// websocket не должен попадать под таймаут
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(60 * time.Second))

		r.Post("/ratings/recompute", h.Ratings.RecomputeRatings)
		r.Post("/round-robin/schedule", h.Schedules.PreviewRoundRobinSchedule)

		r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
			r.Post("/ratings", h.Ratings.ComputeTournamentRatings)
			r.Post("/ratings/stages", h.Ratings.ComputeStageRatings)
			r.Get("/ratings/dynamics", h.Ratings.ListDynamics)

			r.Post("/knockout", h.Brackets.GenerateKnockoutBracket)

			r.Get("/king/schedule", h.Schedules.GetKingSchedule)
			r.Post("/king/schedule", h.Schedules.PersistKingMatches)
			r.Post("/round-robin", h.Schedules.GenerateRoundRobinMatches)

			r.Get("/matches", h.Matches.ListMatches)
			r.Get("/groups/{group}/ranking", h.Standings.RankGroup)
			r.Get("/groups/{group}/king-ranking", h.Standings.KingGroupRanking)
			r.Post("/placements", h.Standings.RecomputePlacements)
		})

		r.Route("/brackets/{bracketID}", func(r chi.Router) {
			r.Get("/", h.Brackets.GetBracket)
			r.Post("/seed", h.Brackets.SeedBracket)
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", h.Matches.GetMatch)
			r.Put("/result", h.Matches.RecordResult)
			r.Post("/advance", h.Brackets.AdvanceWinner)
			r.Post("/reset", h.Brackets.ResetMatch)
		})
	})
}
