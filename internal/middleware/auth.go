// Package middleware holds the HTTP middleware of the query API: request
// IDs, authentication resolving the caller's project, and rate limiting.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sqlscope/internal/apikey"
)

type projectKey struct{}

// WithProjectID stores the authenticated project ID in the context.
func WithProjectID(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, projectKey{}, projectID)
}

// ProjectIDFromContext returns the authenticated project ID.
func ProjectIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(projectKey{}).(string)
	return id, ok && id != ""
}

// APIKeyLookup resolves the SHA-256 hex hash of an API key to its project.
type APIKeyLookup interface {
	LookupProjectByKeyHash(ctx context.Context, keyHash string) (string, error)
}

// ProjectClaims are the JWT claims the API accepts.
type ProjectClaims struct {
	ProjectID string `json:"project_id"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for projectID. A zero ttl issues a token
// without expiry.
func IssueToken(secret []byte, projectID string, ttl time.Duration) (string, error) {
	if projectID == "" {
		return "", errors.New("project id is required")
	}
	now := time.Now()
	claims := ProjectClaims{
		ProjectID: projectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  projectID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates an HS256 token and returns its project ID.
func ParseToken(secret []byte, token string) (string, error) {
	var claims ProjectClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.ProjectID == "" {
		return "", errors.New("token has no project_id claim")
	}
	return claims.ProjectID, nil
}

// Auth resolves the caller's project from a Bearer JWT, then from an
// X-API-Key header. Requests with neither get 401. keys may be nil to
// disable API keys.
func Auth(jwtSecret []byte, keys APIKeyLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				if project, err := ParseToken(jwtSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
					next.ServeHTTP(w, r.WithContext(WithProjectID(r.Context(), project)))
					return
				}
			}

			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" && keys != nil {
				project, err := keys.LookupProjectByKeyHash(r.Context(), apikey.Hash(apiKey))
				if err == nil && project != "" {
					next.ServeHTTP(w, r.WithContext(WithProjectID(r.Context(), project)))
					return
				}
			}

			writeError(w, http.StatusUnauthorized, "unauthorized: provide a valid Bearer token or API key")
		})
	}
}
