package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/foodcart-backend/api/responses"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

// RateLimiterStore counts hits per scope inside a fixed window.
type RateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy caps requests per session and per client IP inside a fixed window.
type RateLimitPolicy struct {
	Name   string
	Limit  int64
	Window time.Duration
}

func (p RateLimitPolicy) enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

func (p RateLimitPolicy) name() string {
	if n := strings.ToLower(strings.TrimSpace(p.Name)); n != "" {
		return n
	}
	return "default"
}

// RateLimit throttles cart mutations. A nil store disables it, which is the
// case when redis is not configured.
func RateLimit(policy RateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scopes := [][2]string{
				{"session", SessionIDFromContext(ctx)},
				{"ip", clientIP(r)},
			}
			for _, sc := range scopes {
				kind, value := sc[0], sc[1]
				if value == "" {
					continue
				}
				scope := policy.name() + ":" + kind + ":" + value
				allowed, count, err := store.FixedWindowAllow(ctx, scope, policy.Limit, policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":         policy.name(),
							"scope":          kind,
							"attempts":       count,
							"limit":          policy.Limit,
							"window_seconds": int(policy.Window.Seconds()),
						}), "rate_limit.blocked")
					}
					w.Header().Set("Retry-After", retryAfter(policy.Window))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many cart updates, slow down"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(window time.Duration) string {
	secs := int(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP keys the per-ip scope on the connection address. Forwarding headers
// are only honored when the router runs chi's RealIP in front of this.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
