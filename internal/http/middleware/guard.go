// Package middleware adapts guard decisions to HTTP. It extracts the caller
// identity, resolves the tier, runs the guard pipeline, and translates denied
// decisions into 403/429 responses carrying retry timing.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shortsforge/ShortsForgeGuard/internal/guard"
	"github.com/shortsforge/ShortsForgeGuard/internal/identity"
	"github.com/shortsforge/ShortsForgeGuard/internal/limits"
)

// IdentityKey is the gin context key carrying the authenticated user ID.
const IdentityKey = "guardIdentity"

// KeyFunc extracts the guard identity from a request.
type KeyFunc func(c *gin.Context) string

// DefaultKeyFunc prefers the authenticated user ID from the gin context and
// falls back to the client IP for anonymous callers.
func DefaultKeyFunc(trustXFF bool) KeyFunc {
	return func(c *gin.Context) string {
		if raw, ok := c.Get(IdentityKey); ok {
			if id, okStr := raw.(string); okStr && strings.TrimSpace(id) != "" {
				return strings.TrimSpace(id)
			}
		}
		if trustXFF {
			if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if ip := strings.TrimSpace(parts[0]); ip != "" {
					return ip
				}
			}
		}
		host, _, errSplit := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
		if errSplit == nil && host != "" {
			return host
		}
		if c.Request.RemoteAddr != "" {
			return c.Request.RemoteAddr
		}
		return "unknown"
	}
}

// Options configures the guard middleware.
type Options struct {
	Guard    *guard.Guard
	Resolver identity.Resolver
	Category limits.Category
	// CategoryFn overrides Category per request when set.
	CategoryFn func(c *gin.Context) limits.Category
	KeyFn      KeyFunc
	TrustXFF   bool
}

// CategoryFromPath derives the rate category from the request path prefix.
func CategoryFromPath(path string) limits.Category {
	switch {
	case strings.HasPrefix(path, "/v0/upload"):
		return limits.CategoryUpload
	case strings.HasPrefix(path, "/v0/download"):
		return limits.CategoryDownload
	case strings.HasPrefix(path, "/v0/webhook"):
		return limits.CategoryWebhook
	case strings.HasPrefix(path, "/v0/jobs"):
		return limits.CategoryURLProcessing
	default:
		return limits.CategoryGeneral
	}
}

// Guard returns a gin middleware enforcing the guard pipeline for one request
// category.
func Guard(opts Options) gin.HandlerFunc {
	if opts.Category == "" {
		opts.Category = limits.CategoryGeneral
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.TrustXFF)
	}

	return func(c *gin.Context) {
		identityKey := opts.KeyFn(c)

		tier := limits.TierFree
		if opts.Resolver != nil {
			tier = opts.Resolver.Resolve(c.Request.Context(), identityKey)
		}

		category := opts.Category
		if opts.CategoryFn != nil {
			category = opts.CategoryFn(c)
		}

		decision := opts.Guard.CheckRequest(c.Request.Context(), identityKey, tier, category)
		if decision.Allowed() {
			c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			c.Next()
			return
		}

		Reject(c, decision)
	}
}

// Reject writes the denied decision as an HTTP response and aborts the chain.
func Reject(c *gin.Context, decision guard.Decision) {
	retryAfter := int(decision.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))

	switch decision.Outcome {
	case guard.OutcomeTemporarilyBlocked:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":       "temporarily blocked",
			"retry_after": retryAfter,
		})
	case guard.OutcomeConcurrencyExhausted:
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many jobs in flight",
			"retry_after": retryAfter,
		})
	default:
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", "0")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"retry_after": retryAfter,
			"reset_at":    decision.Reset.UTC().Format(time.RFC3339),
		})
	}
}
