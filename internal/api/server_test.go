package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/bookshareapp/bookshare-server/internal/auth"
	"github.com/bookshareapp/bookshare-server/internal/media/images"
	"github.com/bookshareapp/bookshare-server/internal/search"
	"github.com/bookshareapp/bookshare-server/internal/service"
	"github.com/bookshareapp/bookshare-server/internal/store/sessions"
	"github.com/bookshareapp/bookshare-server/internal/store/sqlite"
	"github.com/bookshareapp/bookshare-server/internal/validation"
)

const testTokenKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(dir, "catalog.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	sessionStore, err := sessions.Open(filepath.Join(dir, "sessions"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { sessionStore.Close() })

	idx, err := search.NewIndex(search.Options{DataPath: dir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	storage, err := images.NewStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	processor := images.NewProcessor(storage, logger)

	tokens, err := auth.NewTokenService(testTokenKey, 15*time.Minute, 720*time.Hour)
	require.NoError(t, err)

	validator := validation.New()

	services := &Services{
		Auth:     service.NewAuthService(st, sessionStore, tokens, validator, logger),
		Book:     service.NewBookService(st, idx, processor, validator, logger),
		Lending:  service.NewLendingService(st, logger),
		Feedback: service.NewFeedbackService(st, validator, logger),
	}

	router := chi.NewRouter()
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("BookShare API Test", "1.0.0")
	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:    st,
		services: services,
		storage:  &StorageServices{Covers: storage},
		router:   router,
		api:      api,
		logger:   logger,
	}
	s.setupRoutes()

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, api),
	}
}

// registerAndLogin creates a user through the API and returns its access token.
func (ts *testServer) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":      email,
		"password":   "password123",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "register failed: %s", resp.Body.String())

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.Code, "login failed: %s", resp.Body.String())

	var body AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)

	return body.AccessToken
}

// createBook registers a book through the API and returns its ID.
func (ts *testServer) createBook(t *testing.T, token, title string, shareable bool) int64 {
	t.Helper()

	resp := ts.api.Post("/api/v1/books", map[string]any{
		"title":       title,
		"author_name": "Test Author",
		"shareable":   shareable,
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code, "create book failed: %s", resp.Body.String())

	var body BookResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotZero(t, body.ID)

	return body.ID
}

// decodeError extracts the APIError body from a response.
func decodeError(t *testing.T, body []byte) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(body, &apiErr))
	return apiErr
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "healthy", body.Status)
	require.Equal(t, "healthy", body.Components["database"].Status)
	require.Equal(t, "healthy", body.Components["search"].Status)
}
