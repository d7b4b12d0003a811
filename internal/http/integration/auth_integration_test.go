package integration__test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/geocoder89/qrhub/internal/config"
	"github.com/geocoder89/qrhub/internal/domain/user"
	apphttp "github.com/geocoder89/qrhub/internal/http"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		Port:                0,
		DBURL:               "",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
	}
}

// setupTestRouter opens a pool against TEST_DB_DSN and mounts the full
// router. Skipped when no database is configured.
func setupTestRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping integration test")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	ensureSchema(t, pool)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	router := apphttp.NewRouter(logger, pool, testConfig(), nil)

	return router, pool
}

func ensureSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS profiles (
			user_id      TEXT PRIMARY KEY REFERENCES users(id),
			full_name    TEXT NOT NULL DEFAULT '',
			company_name TEXT,
			phone        TEXT,
			updated_at   TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS qr_codes (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL DEFAULT '',
			url         TEXT NOT NULL,
			type        TEXT NOT NULL DEFAULT 'url',
			category    TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			clicks      BIGINT NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE profiles, users, qr_codes
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// helpers

type authResponse struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// function that runs a request with an optional bearer token

func doRequest(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func TestAuthIntegration_Signup_Signin_Session_Signout(t *testing.T) {
	router, pool := setupTestRouter(t)
	resetDB(t, pool)

	defer resetDB(t, pool)

	// sign up

	signupBody := `{"email":"sam@example.com","password":"password123","full_name":"Sam Doe"}`

	w := doRequest(router, http.MethodPost, "/auth/signup", signupBody, "")

	if w.Code != http.StatusCreated {
		t.Fatalf("signup got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	var signedUp authResponse

	mustReadJSON(t, w, &signedUp)

	if strings.TrimSpace(signedUp.Token) == "" {
		t.Fatalf("signup expected token, got empty")
	}

	if signedUp.User.Role != user.RoleUser {
		t.Fatalf("signup role got %q, want user", signedUp.User.Role)
	}

	// signing up again with the same email must fail

	w2 := doRequest(router, http.MethodPost, "/auth/signup", signupBody, "")

	if w2.Code != http.StatusBadRequest {
		t.Fatalf("duplicate signup got status %d, want %d, body=%s", w2.Code, http.StatusBadRequest, w2.Body.String())
	}

	var dupErr apiErrorResponse
	mustReadJSON(t, w2, &dupErr)

	if dupErr.Error.Code != "email_taken" {
		t.Fatalf("duplicate signup expected email_taken, got %s", dupErr.Error.Code)
	}

	// sign in

	w3 := doRequest(router, http.MethodPost, "/auth/signin", `{"email":"sam@example.com","password":"password123"}`, "")

	if w3.Code != http.StatusOK {
		t.Fatalf("signin got status %d, want %d, body=%s", w3.Code, http.StatusOK, w3.Body.String())
	}

	var signedIn authResponse
	mustReadJSON(t, w3, &signedIn)

	// session with the fresh token

	w4 := doRequest(router, http.MethodGet, "/auth/session", "", signedIn.Token)

	if w4.Code != http.StatusOK {
		t.Fatalf("session got status %d, want %d, body=%s", w4.Code, http.StatusOK, w4.Body.String())
	}

	var session struct {
		User user.User `json:"user"`
	}
	mustReadJSON(t, w4, &session)

	if session.User.Email != "sam@example.com" {
		t.Fatalf("session email got %q, want sam@example.com", session.User.Email)
	}

	// session without a token

	w5 := doRequest(router, http.MethodGet, "/auth/session", "", "")

	if w5.Code != http.StatusUnauthorized {
		t.Fatalf("session(no token) got status %d, want %d, body=%s", w5.Code, http.StatusUnauthorized, w5.Body.String())
	}

	// sign out

	w6 := doRequest(router, http.MethodPost, "/auth/signout", "", signedIn.Token)

	if w6.Code != http.StatusOK {
		t.Fatalf("signout got status %d, want %d, body=%s", w6.Code, http.StatusOK, w6.Body.String())
	}
}

func TestAuthIntegration_Signin_InvalidCredentials(t *testing.T) {
	router, pool := setupTestRouter(t)
	resetDB(t, pool)
	defer resetDB(t, pool)

	// no user created
	body := `{"email":"nope@example.com","password":"wrongpassword"}`
	w := doRequest(router, http.MethodPost, "/auth/signin", body, "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("signin(invalid creds) got status %d, want %d, body=%s", w.Code, http.StatusUnauthorized, w.Body.String())
	}

	var e apiErrorResponse
	mustReadJSON(t, w, &e)

	if e.Error.Code != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials, got %s", e.Error.Code)
	}
}
