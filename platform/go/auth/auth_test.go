package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func unsignedToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	body := base64.RawURLEncoding.EncodeToString(payload)
	return header + "." + body + "."
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, found := ExtractBearerToken(r)
	require.False(t, found)

	r.Header.Set("Authorization", "bearer abc.def.ghi")
	token, found := ExtractBearerToken(r)
	require.True(t, found)
	require.Equal(t, "abc.def.ghi", token)
}

func TestDefaultCredentialExtractor(t *testing.T) {
	t.Parallel()

	_, err := DefaultCredentialExtractor(nil)
	require.Error(t, err)

	_, err = DefaultCredentialExtractor(map[string]interface{}{"email": "x@y.z"})
	require.Error(t, err)

	creds, err := DefaultCredentialExtractor(map[string]interface{}{
		"sub":            "user-1",
		"email":          "x@y.z",
		"email_verified": true,
		"name":           "Maria",
	})
	require.NoError(t, err)
	require.Equal(t, "user-1", creds.ID)
	require.Equal(t, "x@y.z", creds.Email)
	require.True(t, creds.EmailVerified)
	require.NotNil(t, creds.Name)
	require.Equal(t, "Maria", *creds.Name)
}

func TestJWTMiddlewareStoresCredentials(t *testing.T) {
	t.Parallel()

	var got *UserCredentials
	handler := JWT(UnsignedTokenVerifier(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+unsignedToken(t, map[string]interface{}{"sub": "user-7", "email": "a@b.c"}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	require.Equal(t, "user-7", got.ID)
}

func TestJWTMiddlewarePassesThroughWithoutToken(t *testing.T) {
	t.Parallel()

	handler := JWT(UnsignedTokenVerifier(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := UserFromContext(r.Context())
		require.False(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireUser(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	RequireUser(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(r.Context(), ctxKey{}, &UserCredentials{ID: "user-1"})
	w = httptest.NewRecorder()
	RequireUser(next).ServeHTTP(w, r.WithContext(ctx))
	require.Equal(t, http.StatusOK, w.Code)
}
