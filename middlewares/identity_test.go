package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bxsite/middlewares"
)

var secret = []byte("test-secret")

func identityOf(t *testing.T, mw func(http.Handler) http.Handler, authorization string) middlewares.Identity {
	t.Helper()

	var got middlewares.Identity
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = middlewares.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/sites", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return got
}

func TestAuthIdentity(t *testing.T) {
	t.Parallel()

	valid, err := middlewares.SignToken(secret, "acct-1", time.Hour)
	require.NoError(t, err)
	expired, err := middlewares.SignToken(secret, "acct-1", -time.Hour)
	require.NoError(t, err)
	foreign, err := middlewares.SignToken([]byte("other"), "acct-1", time.Hour)
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "acct-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		dev    bool
		want   middlewares.Identity
	}{
		{name: "valid token", header: "Bearer " + valid, want: middlewares.Identity{AccountID: "acct-1"}},
		{name: "scheme is case insensitive", header: "bearer " + valid, want: middlewares.Identity{AccountID: "acct-1"}},
		{name: "missing header", want: middlewares.Identity{}},
		{name: "basic auth ignored", header: "Basic Zm9vOmJhcg==", want: middlewares.Identity{}},
		{name: "expired", header: "Bearer " + expired, want: middlewares.Identity{}},
		{name: "wrong secret", header: "Bearer " + foreign, want: middlewares.Identity{}},
		{name: "no subject", header: "Bearer " + noSub, want: middlewares.Identity{}},
		{name: "none algorithm", header: "Bearer " + noneAlg, want: middlewares.Identity{}},
		{name: "dev bypass for anonymous", dev: true, want: middlewares.Identity{AccountID: "dev", Bypass: true}},
		{name: "dev bypass keeps real identity", header: "Bearer " + valid, dev: true, want: middlewares.Identity{AccountID: "acct-1"}},
		{name: "dev bypass not granted for bad token", header: "Bearer " + foreign, dev: true, want: middlewares.Identity{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw := middlewares.AuthIdentity(secret, middlewares.WithDevBypass(tt.dev))
			assert.Equal(t, tt.want, identityOf(t, mw, tt.header))
		})
	}
}

func TestAuthIdentity_Issuer(t *testing.T) {
	t.Parallel()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "acct-2",
		Issuer:    "https://auth.bxsite.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)

	ok := middlewares.AuthIdentity(secret, middlewares.WithIdentityIssuer("https://auth.bxsite.com"))
	assert.Equal(t, "acct-2", identityOf(t, ok, "Bearer "+token).AccountID)

	wrong := middlewares.AuthIdentity(secret, middlewares.WithIdentityIssuer("https://elsewhere"))
	assert.Empty(t, identityOf(t, wrong, "Bearer "+token).AccountID)
}

func TestAccountExtractor(t *testing.T) {
	t.Parallel()

	_, ok := middlewares.AccountExtractor()(context.Background())
	assert.False(t, ok)

	ctx := middlewares.WithIdentity(context.Background(), middlewares.Identity{AccountID: "acct-3"})
	attr, ok := middlewares.AccountExtractor()(ctx)
	require.True(t, ok)
	assert.Equal(t, "account_id", attr.Key)
	assert.Equal(t, "acct-3", attr.Value.String())
}
