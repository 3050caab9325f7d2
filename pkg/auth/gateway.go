// Package auth is the request gateway: CORS, IP whitelisting and per-client
// rate limiting. User authentication itself lives outside this service; the
// userId parameters on the API are trusted references into the external
// directory.
package auth

import (
	"net"
	"net/http"
	"strings"

	"chatsync/pkg/logger"
	"chatsync/pkg/utils"
)

// SecConfig carries gateway settings derived from the effective config.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	IPWhitelist    []string
}

// GatewayMiddleware wraps a handler with CORS handling, IP whitelisting and
// per-client-IP rate limiting.
func GatewayMiddleware(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// log request (redacts sensitive headers)
			logger.LogRequest(r)

			// cors preflight
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			// ip whitelist
			if len(cfg.IPWhitelist) > 0 {
				ip := clientIP(r)
				if !ipWhitelisted(ip, cfg.IPWhitelist) {
					utils.JSONError(w, http.StatusForbidden, "forbidden")
					logger.Warn("request_blocked", "reason", "ip_not_whitelisted", "ip", ip, "path", r.URL.Path)
					return
				}
			}

			// allow unthrottled health checks for probes
			if (r.URL.Path == "/healthz" || r.URL.Path == "/readyz") && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			// rate limiting keyed by client ip
			if cfg.RPS > 0 && !limiters.Allow(clientIP(r)) {
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				logger.Warn("rate_limited", "ip", clientIP(r), "path", r.URL.Path)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func ipWhitelisted(ip string, list []string) bool {
	for _, w := range list {
		if ip == w {
			return true
		}
	}
	return false
}
