package config

import (
	"os"
	"strings"
)

type Config struct {
	PostgresURI         string
	RedisURI            string
	MongoURI            string
	Port                string
	Environment         string   // ENV: production, development, etc.
	PublicBaseURL       string   // Canonical origin for share links (e.g. https://livingeulogy.io)
	FrontendURL         string   // SPA origin non-crawler /view requests are redirected to
	AllowedOrigins      []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	ResendAPIKey        string
	ResendEndpoint      string
	EmailFrom           string
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	frontendURL := getEnv("FRONTEND_URL", "http://localhost:3000")

	// CORS: allow multiple origins so the production frontend works alongside local dev
	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{frontendURL, getEnv("FRONTEND_URL_2", ""), getEnv("PUBLIC_BASE_URL", "")} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		PostgresURI:         getEnv("POSTGRES_URI", "postgres://localhost:5432/livingeulogy?sslmode=disable"),
		RedisURI:            getEnv("REDIS_URI", "redis://localhost:6379/0"),
		MongoURI:            getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/livingeulogy")),
		Port:                getEnv("PORT", "8080"),
		Environment:         env,
		PublicBaseURL:       strings.TrimRight(getEnv("PUBLIC_BASE_URL", "https://livingeulogy.io"), "/"),
		FrontendURL:         strings.TrimRight(frontendURL, "/"),
		AllowedOrigins:      allowedOrigins,
		ResendAPIKey:        getEnv("RESEND_API_KEY", ""),
		ResendEndpoint:      getEnv("RESEND_ENDPOINT", "https://api.resend.com/emails"),
		EmailFrom:           getEnv("EMAIL_FROM", "Living Eulogy <hello@livingeulogy.io>"),
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
