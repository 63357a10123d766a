package httpapi

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/dancab13/sqlalchemy-challenge/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(cfg, mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// NewHandler wraps mux in the middleware chain: request logging, panic
// recovery, then rate limiting when cfg.RateLimitRPS is positive.
func NewHandler(cfg config.Config, mux *http.ServeMux) http.Handler {
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	return requestLogger(recoverer(rateLimiter(limiter, mux)))
}
