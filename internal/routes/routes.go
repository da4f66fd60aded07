package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/livingeulogy/eulogy-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Post("/api/auth/forgot-password", handlers.ForgotPassword)
	r.Post("/api/auth/reset-password", handlers.ResetPassword)
	r.Get("/api/auth/me", handlers.GetMe)

	// Eulogy routes
	r.Post("/api/eulogies", handlers.CreateEulogy)
	r.Get("/api/eulogies/mine", handlers.GetMyEulogies)
	r.Get("/api/eulogies/for-me", handlers.GetEulogiesForMe)
	r.Delete("/api/eulogies/{id}", handlers.DeleteEulogy)
	r.Get("/api/eulogies/view/{token}", handlers.ViewEulogyByToken)

	// Public feed
	r.Get("/api/feed", handlers.GetFeed)

	// Likes
	r.Post("/api/eulogies/{id}/like", handlers.LikeEulogy)
	r.Delete("/api/eulogies/{id}/like", handlers.UnlikeEulogy)

	// Profile
	r.Get("/api/profile", handlers.GetProfile)
	r.Post("/api/profile/avatar", handlers.UploadAvatar)

	// Share links: crawlers get OG meta HTML, browsers get redirected to the SPA
	r.Get("/view/{token}", handlers.SharePage)
}
