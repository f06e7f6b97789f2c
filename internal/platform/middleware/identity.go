package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mssola/useragent"

	"hirelog/pkg/requestcontext"
)

// RequireIdentity validates the session bearer token issued by the
// surrounding application and injects the actor display name, network
// origin, and a client description into the request context. The activity
// log stores the display name verbatim, never a user-table key.
func RequireIdentity(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w, "bearer token required")
				return
			}

			actor, err := actorFromToken(token, signingKey)
			if err != nil {
				logger.WarnContext(ctx, "identity token rejected",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w, "invalid token")
				return
			}

			ctx = requestcontext.WithActor(ctx, actor)
			ctx = requestcontext.WithOrigin(ctx, clientIP(r))
			ctx = requestcontext.WithClientDesc(ctx, describeClient(r.UserAgent()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromToken(token, signingKey string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(signingKey), nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", fmt.Errorf("token invalid")
	}

	// Display name claim, falling back to the subject.
	if name, ok := claims["name"].(string); ok && strings.TrimSpace(name) != "" {
		return name, nil
	}
	if sub, ok := claims["sub"].(string); ok && strings.TrimSpace(sub) != "" {
		return sub, nil
	}
	return "", fmt.Errorf("token carries no usable identity claim")
}

// clientIP is best-effort: the first X-Forwarded-For hop when present,
// otherwise the peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// describeClient renders a User-Agent as "Chrome 120 on Linux" for log
// details; empty when the header is absent or unparseable.
func describeClient(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return ""
	}
	desc := name
	if version != "" {
		if major, _, ok := strings.Cut(version, "."); ok {
			version = major
		}
		desc += " " + version
	}
	if os := ua.OS(); os != "" {
		desc += " on " + os
	}
	return desc
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
