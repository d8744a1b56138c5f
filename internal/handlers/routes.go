package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/formcoach/formcoach/internal/middleware"
	"github.com/formcoach/formcoach/internal/scheduler"
	"github.com/go-chi/chi/v5"
)

// Routes builds the full API router. The returned cleanup stops the rate
// limiters and must be called on shutdown.
func Routes(db *sql.DB, sessions *scs.SessionManager, sched *scheduler.Scheduler) (http.Handler, func()) {
	auth := &Auth{DB: db, Sessions: sessions}
	profile := &Profile{DB: db}
	analyses := &Analyses{DB: db}
	weeklyPlan := &WeeklyPlan{DB: db}
	checkins := &Checkins{DB: db}
	notifications := &Notifications{DB: db}
	settings := &Settings{DB: db, Scheduler: sched}
	health := &Health{DB: db}

	// Login and registration share a limiter keyed by client IP. The AI
	// endpoints get their own: each request can hold an upstream call open
	// for up to two minutes.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	aiLimiter := middleware.NewRateLimiter(10, time.Minute)

	requireAuth := func(next http.Handler) http.Handler {
		return middleware.RequireAuth(sessions, db, next)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS)

	r.Get("/health", health.Check)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.Check)

		r.Group(func(r chi.Router) {
			r.Use(loginLimiter.Limit)
			r.Use(sessions.LoadAndSave)
			r.Post("/auth/register", auth.Register)
			r.Post("/auth/login", auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/auth/logout", auth.Logout)
			r.Get("/auth/tokens", auth.ListTokens)
			r.Delete("/auth/tokens/{id}", auth.DeleteToken)

			r.Get("/profile", profile.Get)
			r.Put("/profile", profile.Update)

			r.Post("/analyses", analyses.Create)
			r.Get("/analyses", analyses.List)
			r.Get("/analyses/{id}", analyses.Get)

			r.Group(func(r chi.Router) {
				r.Use(aiLimiter.Limit)
				r.Post("/analyses/{id}/analyze", analyses.Analyze)
				r.Post("/weekly-plan", weeklyPlan.Generate)
			})

			r.Post("/checkins", checkins.Create)
			r.Get("/checkins", checkins.List)
			r.Get("/checkins/today", checkins.Today)
			r.Post("/checkins/{id}/share", checkins.Share)

			r.Get("/notifications", notifications.List)
			r.Get("/notifications/unread-count", notifications.UnreadCount)
			r.Post("/notifications/{id}/read", notifications.MarkRead)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/settings", settings.List)
				r.Put("/settings", settings.Update)
				r.Post("/settings/ai/test", settings.TestAI)
				r.Post("/settings/notify/test", settings.TestNotify)
				r.Get("/maintenance", settings.MaintenanceStatus)
			})
		})
	})

	stop := func() {
		loginLimiter.Stop()
		aiLimiter.Stop()
	}
	return r, stop
}
