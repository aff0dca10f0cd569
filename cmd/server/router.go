package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tkdojang/dojang-api/internal/api"
	apimiddleware "github.com/tkdojang/dojang-api/internal/api/middleware"
	"github.com/tkdojang/dojang-api/internal/api/shared"
)

// setupRouter builds the full route table. Content and auth endpoints are
// public; everything owned by a user sits behind the JWT middleware.
func (app *application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore, app.jwtService, app.passwordVerifier, &app.config.Auth)
	contentHandler := api.NewContentHandler(app.catalog)
	profileHandler := api.NewProfileHandler(app.profileService)
	sessionHandler := api.NewSessionHandler(app.studyService)
	reviewHandler := api.NewReviewHandler(app.reviewService)
	importHandler := api.NewImportHandler(app.importService)
	feedbackHandler := api.NewFeedbackHandler(app.feedbackService)

	r.Get("/health", app.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// The catalogue is the same for every learner, so content listing
		// needs no account.
		r.Get("/belts", contentHandler.ListBelts)
		r.Get("/content/terminology", contentHandler.ListTerminology)
		r.Get("/content/patterns", contentHandler.ListPatterns)
		r.Get("/content/stepsparring", contentHandler.ListStepSparring)

		r.Group(func(r chi.Router) {
			r.Use(app.authMiddleware.Authenticate)

			r.Route("/profiles", func(r chi.Router) {
				r.Post("/", profileHandler.CreateProfile)
				r.Get("/", profileHandler.ListProfiles)

				r.Route("/{profileID}", func(r chi.Router) {
					r.Get("/", profileHandler.GetProfile)
					r.Patch("/", profileHandler.UpdateProfile)
					r.Delete("/", profileHandler.DeleteProfile)
					r.Post("/promote", profileHandler.PromoteProfile)
					r.Get("/stats", profileHandler.GetProfileStats)
					r.Get("/export", profileHandler.ExportProfile)

					r.Post("/sessions", sessionHandler.StartSession)
					r.Get("/sessions", sessionHandler.ListSessions)
					r.Post("/sessions/{sessionID}/complete", sessionHandler.CompleteSession)

					r.Post("/reviews", reviewHandler.SubmitReview)
					r.Post("/reviews/postpone", reviewHandler.PostponeReview)
					r.Get("/progress", reviewHandler.ListProgress)
				})
			})

			r.Post("/imports", importHandler.CreateImport)
			r.Get("/imports/{importID}", importHandler.GetImport)

			r.Route("/feedback", func(r chi.Router) {
				r.Post("/", feedbackHandler.CreatePost)
				r.Get("/", feedbackHandler.ListPosts)
				r.Get("/{postID}", feedbackHandler.GetPost)
				r.Put("/{postID}/vote", feedbackHandler.CastVote)
				r.Delete("/{postID}/vote", feedbackHandler.RetractVote)
			})
		})
	})

	return r
}

// handleHealth reports liveness plus database reachability. A failed ping
// returns 503 so orchestrators stop routing traffic here.
func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := app.db.PingContext(r.Context()); err != nil {
		app.logger.Error("health check failed to reach database", "error", err)
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
