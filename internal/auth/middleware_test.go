package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "elogbook.test"}

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":    "resident-42",
		"iss":    testConfig.Issuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": []string{ScopeActivitiesWrite},
	}
}

func TestParseExtractsSubjectAndScopes(t *testing.T) {
	claims, err := Parse(signToken(t, validClaims(), testConfig.Secret), testConfig)
	require.NoError(t, err)
	require.Equal(t, "resident-42", claims.Subject)
	require.True(t, claims.HasScope(ScopeActivitiesWrite))
	require.True(t, claims.Allows(ScopeActivitiesRead))
	require.False(t, claims.HasScope(ScopeActivitiesRead))
}

func TestParseRejectsBadTokens(t *testing.T) {
	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "someone-else"

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noSubject := validClaims()
	delete(noSubject, "sub")

	cases := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: signToken(t, validClaims(), "other-secret")},
		{name: "wrong issuer", token: signToken(t, wrongIssuer, testConfig.Secret)},
		{name: "expired", token: signToken(t, expired, testConfig.Secret)},
		{name: "no subject", token: signToken(t, noSubject, testConfig.Secret)},
		{name: "garbage", token: "not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.token, testConfig)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestReadScopeDoesNotImplyWrite(t *testing.T) {
	claims := &Claims{Scopes: map[string]struct{}{ScopeActivitiesRead: {}}}
	require.True(t, claims.Allows(ScopeActivitiesRead))
	require.False(t, claims.Allows(ScopeActivitiesWrite))
}

func TestMiddleware(t *testing.T) {
	var seen *Claims
	handler := NewMiddleware(testConfig, nil).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activities", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "missing bearer token")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/activities", nil)
	req.Header.Set("Authorization", "Basic abc")
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/activities", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(), testConfig.Secret))
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, "resident-42", seen.Subject)

	seen = nil
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Nil(t, seen)
}
