package mw

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/arcade/internal/logger"
	"github.com/MrSnakeDoc/arcade/internal/utils"
)

// reject answers with the same JSON error body the handlers use.
func reject(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func passthrough(next http.Handler) http.Handler { return next }

// AllowOnlyCIDRS admits clients whose IP falls in one of the allowed
// prefixes or addresses. An empty list admits everyone.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return passthrough
	}
	log.Debug("client ip restriction enabled",
		logger.Int("rules", len(allowed)),
		logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("client ip rejected",
					logger.String("remote_ip", ip),
					logger.String("path", r.URL.Path))
				reject(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EnforceHost admits requests whose Host header matches one of the allowed
// hosts. Patterns may be exact ("arcade.example.com") or a wildcard
// ("*.example.com"). An empty list admits everyone.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		return passthrough
	}
	log.Debug("host restriction enabled", logger.Int("hosts", len(allowedHosts)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := utils.ParseHostNoPort(r.Host)
			for _, pattern := range allowedHosts {
				if matchHost(host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Warn("host rejected",
				logger.String("host", host),
				logger.String("path", r.URL.Path))
			reject(w, http.StatusForbidden, "forbidden")
		})
	}
}

// AdminOnly gates operator endpoints (readiness, infra, reload) behind both
// the client IP and the host restrictions.
func AdminOnly(cidrs, hosts []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	byIP := AllowOnlyCIDRS(cidrs, trustProxy, log)
	byHost := EnforceHost(hosts, log)
	return func(next http.Handler) http.Handler {
		return byIP(byHost(next))
	}
}

// matchHost ignores ports and case on both sides.
// "*.example.com" matches any subdomain but not the apex.
func matchHost(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(utils.ParseHostNoPort(pattern))

	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(host, suffix)
	}
	return host == pattern
}
