package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"wakil.app/internal/auth"
)

func newAuthedAPI(t *testing.T) (*API, *auth.TokenManager) {
	t.Helper()
	tokens, err := auth.NewTokenManager("wakil-api", "test-secret")
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return &API{tokens: tokens}, tokens
}

func TestWithAuthRejectsMissingToken(t *testing.T) {
	api, _ := newAuthedAPI(t)
	handler := api.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/credits/balance", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate header")
	}
}

func TestWithAuthRejectsGarbageToken(t *testing.T) {
	api, _ := newAuthedAPI(t)
	handler := api.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/credits/balance", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestWithAuthThreadsUserIntoContext(t *testing.T) {
	api, tokens := newAuthedAPI(t)
	token, _, err := tokens.Generate("user-7")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var gotID string
	handler := api.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/credits/balance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotID != "user-7" {
		t.Fatalf("expected user-7 in context, got %q", gotID)
	}
}

func TestWithAuthSkipsPublicPaths(t *testing.T) {
	api, _ := newAuthedAPI(t)
	handler := api.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/v1/info", "/v1/users/signup", "/v1/users/login"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected public path %s to pass, got %d", path, rr.Code)
		}
	}
}

func TestExtractBearerToken(t *testing.T) {
	if _, err := extractBearerToken(""); err == nil {
		t.Fatal("expected error for empty header")
	}
	if _, err := extractBearerToken("Basic abc"); err == nil {
		t.Fatal("expected error for wrong scheme")
	}
	if _, err := extractBearerToken("Bearer "); err == nil {
		t.Fatal("expected error for empty token")
	}
	token, err := extractBearerToken("bearer secret-token")
	if err != nil || token != "secret-token" {
		t.Fatalf("case-insensitive scheme failed: %q, %v", token, err)
	}
}
