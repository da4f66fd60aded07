package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/livingeulogy/eulogy-backend/pkg/clientip"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

type limiterTable struct {
	mu         sync.Mutex
	entries    map[string]*limiterEntry
	newLimiter func() *rate.Limiter
	cleanupRun bool
}

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

func (t *limiterTable) get(ip string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startCleanupOnce()
	e, ok := t.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: t.newLimiter(), lastUse: time.Now()}
		t.entries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func (t *limiterTable) startCleanupOnce() {
	if t.cleanupRun {
		return
	}
	t.cleanupRun = true
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			t.mu.Lock()
			now := time.Now()
			for ip, e := range t.entries {
				if now.Sub(e.lastUse) > limiterTTL {
					delete(t.entries, ip)
				}
			}
			t.mu.Unlock()
		}
	}()
}

var globalLimiters = &limiterTable{
	entries:    make(map[string]*limiterEntry),
	newLimiter: func() *rate.Limiter { return rate.NewLimiter(rate.Limit(5), 20) },
}

// GlobalRateLimit limits each IP to 5 req/s, burst 20. Returns 429 when exceeded.
func GlobalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.RealClientIP(r)
		if !globalLimiters.get(ip).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many requests. Please slow down."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

var loginLimiters = &limiterTable{
	entries:    make(map[string]*limiterEntry),
	newLimiter: func() *rate.Limiter { return rate.NewLimiter(rate.Every(5*time.Second), 2) },
}

var loginPaths = map[string]bool{
	"/api/auth/signin":          true,
	"/api/auth/signup":          true,
	"/api/auth/forgot-password": true,
	"/api/auth/reset-password":  true,
}

// LoginRateLimit applies a stricter limit to auth routes only. Use after GlobalRateLimit.
func LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !loginPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientip.RealClientIP(r)
		if !loginLimiters.get(ip).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many attempts. Please try again later."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns the production middleware chain: security
// headers, then the global limiter, then the login limiter.
func ProductionSecurity() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		GlobalRateLimit,
		LoginRateLimit,
	}
}
