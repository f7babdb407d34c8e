package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlscope/internal/apikey"
)

var testSecret = []byte("test-secret")

type stubKeys map[string]string // hash -> project

func (s stubKeys) LookupProjectByKeyHash(_ context.Context, hash string) (string, error) {
	project, ok := s[hash]
	if !ok {
		return "", errors.New("api key not found")
	}
	return project, nil
}

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAuth(t *testing.T) {
	valid, err := IssueToken(testSecret, "p-jwt", time.Hour)
	require.NoError(t, err)
	expired := signed(t, jwt.SigningMethodHS256, testSecret, ProjectClaims{
		ProjectID:        "p-jwt",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	noProject := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "someone"})
	wrongSecret := signed(t, jwt.SigningMethodHS256, []byte("other"), ProjectClaims{ProjectID: "p-jwt"})
	hs512 := signed(t, jwt.SigningMethodHS512, testSecret, ProjectClaims{ProjectID: "p-jwt"})

	keys := stubKeys{apikey.Hash("sqs_good"): "p-key"}

	tests := []struct {
		name        string
		bearer      string
		apiKey      string
		wantStatus  int
		wantProject string
	}{
		{"valid_jwt", valid, "", http.StatusOK, "p-jwt"},
		{"expired_jwt", expired, "", http.StatusUnauthorized, ""},
		{"missing_project_claim", noProject, "", http.StatusUnauthorized, ""},
		{"wrong_secret", wrongSecret, "", http.StatusUnauthorized, ""},
		{"other_algorithm", hs512, "", http.StatusUnauthorized, ""},
		{"valid_api_key", "", "sqs_good", http.StatusOK, "p-key"},
		{"unknown_api_key", "", "sqs_bad", http.StatusUnauthorized, ""},
		{"bearer_wins", valid, "sqs_good", http.StatusOK, "p-jwt"},
		{"bad_bearer_falls_back_to_key", "garbage", "sqs_good", http.StatusOK, "p-key"},
		{"no_credentials", "", "", http.StatusUnauthorized, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var project string
			handler := Auth(testSecret, keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				project, _ = ProjectIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/v1/query", nil)
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}
			if tc.apiKey != "" {
				req.Header.Set("X-API-Key", tc.apiKey)
			}
			rec := serve(handler, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantProject, project)
			if tc.wantStatus == http.StatusUnauthorized {
				var body map[string]any
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, false, body["success"])
				assert.Contains(t, body["error"], "unauthorized")
			}
		})
	}
}

func TestAuth_NilKeyLookup(t *testing.T) {
	handler := Auth(testSecret, nil)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-API-Key", "sqs_good")
	assert.Equal(t, http.StatusUnauthorized, serve(handler, req).Code)
}

func TestIssueAndParseToken(t *testing.T) {
	tok, err := IssueToken(testSecret, "123", 0)
	require.NoError(t, err)

	project, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "123", project)

	_, err = IssueToken(testSecret, "", time.Hour)
	assert.Error(t, err)
}

func TestProjectIDFromContext(t *testing.T) {
	_, ok := ProjectIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = ProjectIDFromContext(WithProjectID(context.Background(), ""))
	assert.False(t, ok)

	id, ok := ProjectIDFromContext(WithProjectID(context.Background(), "p"))
	assert.True(t, ok)
	assert.Equal(t, "p", id)
}
