package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/qkart/api/responses"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/logger"
)

const (
	msgTooManyAttempts = "Too many attempts. Try again later."
	// auth bodies are tiny; anything bigger is rejected later by the decoder.
	maxPeekBody = 64 << 10
)

// RateLimiterStore counts attempts inside an expiring window.
type RateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy caps attempts per client IP and per username inside a
// fixed window. A zero limit disables that dimension.
type AuthRateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int
	usernameLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, usernameLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, usernameLimit: usernameLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.usernameLimit > 0)
}

// bucket is one counter checked for a request.
type bucket struct {
	dimension string
	subject   string
	limit     int
}

func (p AuthRateLimitPolicy) key(b bucket) string {
	return "rl:" + b.dimension + ":" + p.name + ":" + b.subject
}

// AuthRateLimit throttles login and registration. The IP bucket is charged
// first so a flood of distinct usernames from one client is still capped.
// Usernames are hashed before they reach the store or the logs.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var buckets []bucket
			if ip := clientIP(r); policy.ipLimit > 0 && ip != "" {
				buckets = append(buckets, bucket{dimension: "ip", subject: ip, limit: policy.ipLimit})
			}
			if policy.usernameLimit > 0 {
				username, err := peekUsername(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Request body could not be read"))
					return
				}
				if username != "" {
					buckets = append(buckets, bucket{dimension: "username", subject: hashValue(username), limit: policy.usernameLimit})
				}
			}

			for _, b := range buckets {
				count, err := store.IncrWithTTL(ctx, policy.key(b), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(b.limit) {
					rejectAttempt(ctx, logg, w, policy, b, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectAttempt(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, b bucket, count int64) {
	if logg != nil {
		subjectField := "ip"
		if b.dimension == "username" {
			subjectField = "username_hash"
		}
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"scope":          b.dimension,
			"policy":         policy.name,
			subjectField:     b.subject,
			"attempts":       count,
			"limit":          b.limit,
			"window_seconds": int(policy.window.Seconds()),
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, msgTooManyAttempts))
}

// peekUsername reads the JSON body's username and restores the body for the
// handler.
func peekUsername(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		Username string `json:"username"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return "", nil
	}
	return normalizeUsername(payload.Username), nil
}

// clientIP trusts the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address. The API is expected to sit behind a single proxy.
func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		first, _, _ := strings.Cut(header, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func normalizeUsername(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
