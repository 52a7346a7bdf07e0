package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fracto-health/fracto/libs/auth"
	"github.com/fracto-health/fracto/libs/httpx"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testDoctorID is a well-formed id for request fixtures that must get past
// the id checks at the handler boundary.
const testDoctorID = "0b4f8a2c-9d1e-4f6a-8c3b-2e7d5a1f9c04"

// authedRequest wraps h in the same RequireAuth middleware the routes use,
// so claims reach the handler the way they do in production.
func authedRequest(t *testing.T, h http.HandlerFunc, secret, role string, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	return authedAs(t, h, secret, "user-1", role, r)
}

// authedAs signs a token for an arbitrary subject.
func authedAs(t *testing.T, h http.HandlerFunc, secret, sub, role string, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:      sub,
		Username: "alice",
		Role:     role,
		Iat:      now.Unix(),
		Exp:      now.Add(time.Hour).Unix(),
	}, secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	r.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	httpx.Chain(h, httpx.RequireAuth(secret)).ServeHTTP(rec, r)
	return rec
}
