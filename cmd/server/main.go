package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/go-chi/chi/v5"
	"github.com/livingeulogy/eulogy-backend/internal/config"
	"github.com/livingeulogy/eulogy-backend/internal/database"
	"github.com/livingeulogy/eulogy-backend/internal/handlers"
	"github.com/livingeulogy/eulogy-backend/internal/middleware"
	"github.com/livingeulogy/eulogy-backend/internal/routes"
	"github.com/livingeulogy/eulogy-backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB (email delivery log). Non-fatal: email just won't be logged.
	log.Printf("Connecting to MongoDB...")
	if err := database.ConnectMongo(cfg.MongoURI); err != nil {
		log.Printf("⚠️  WARNING: failed to connect to MongoDB: %v", err)
		log.Println("   Email delivery logging will not be available")
	} else {
		defer database.DisconnectMongo()
	}

	// Initialize Cloudinary (avatar uploads)
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		if err := handlers.InitCloudinaryService(cfg); err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("Avatar uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Avatar uploads will not be available")
	}

	// Wire domain services into the handlers
	handlers.InitEulogyHandlers(cfg)
	handlers.InitShareViews(cfg.FrontendURL)
	handlers.InitFeedService(services.NewFeedService(services.NewPostgresFeedStore(database.PostgresDB)))
	if cfg.ResendAPIKey == "" {
		log.Println("⚠️  WARNING: RESEND_API_KEY not set. Eulogy notification emails will not be sent.")
	}

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: security headers plus in-process rate limiting
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Setup routes
	routes.SetupRoutes(r)

	// Log registered routes for debugging
	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  POST /api/auth/signup")
	log.Println("  POST /api/auth/signin")
	log.Println("  POST /api/auth/signout")
	log.Println("  POST /api/auth/forgot-password")
	log.Println("  POST /api/auth/reset-password")
	log.Println("  GET  /api/auth/me")
	log.Println("  POST /api/eulogies")
	log.Println("  GET  /api/eulogies/mine")
	log.Println("  GET  /api/eulogies/for-me")
	log.Println("  DELETE /api/eulogies/{id}")
	log.Println("  GET  /api/eulogies/view/{token}")
	log.Println("  GET  /api/feed")
	log.Println("  POST /api/eulogies/{id}/like")
	log.Println("  DELETE /api/eulogies/{id}/like")
	log.Println("  GET  /api/profile")
	log.Println("  POST /api/profile/avatar")
	log.Println("  GET  /view/{token}")

	log.Printf("🚀 Living Eulogy backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
