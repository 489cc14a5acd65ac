package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"campus-market/internal/middleware"
	"campus-market/internal/model"
	"campus-market/internal/service"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *memUserStore) RecordLogin(_ context.Context, _ string, _ time.Time) error { return nil }

type memTokenStore struct {
	mu     sync.Mutex
	hashes map[string]map[string]struct{}
}

func (s *memTokenStore) Record(_ context.Context, rec model.RefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hashes[rec.UserID] == nil {
		s.hashes[rec.UserID] = map[string]struct{}{}
	}
	s.hashes[rec.UserID][rec.TokenHash] = struct{}{}
	return nil
}

func (s *memTokenStore) Consume(_ context.Context, userID string, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[userID][tokenHash]; !ok {
		return false, nil
	}
	delete(s.hashes[userID], tokenHash)
	return true, nil
}

func (s *memTokenStore) Revoke(_ context.Context, userID string, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes[userID], tokenHash)
	return nil
}

func (s *memTokenStore) RevokeAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes, userID)
	return nil
}

func newAuthTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	tokenService := service.NewTokenService("handler-test-access", "handler-test-refresh", 15*time.Minute, 168*time.Hour)
	authService := service.NewAuthService(
		&memUserStore{users: map[string]model.User{}},
		&memTokenStore{hashes: map[string]map[string]struct{}{}},
		tokenService,
	)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	h := NewAuthHandler(authService, CookieSettings{TTL: 168 * time.Hour})

	r := chi.NewRouter()
	r.Route("/api/v1/auth", func(auth chi.Router) {
		auth.Post("/register", h.Register)
		auth.Post("/login", h.Login)
		auth.Post("/refresh", h.Refresh)
		auth.With(authMiddleware.RequireAuth).Post("/logout", h.Logout)
		auth.With(authMiddleware.RequireAuth).Get("/me", h.Me)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) model.APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var out model.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func dataField(t *testing.T, out model.APIResponse, key string) any {
	t.Helper()
	data, ok := out.Data.(map[string]any)
	require.True(t, ok)
	return data[key]
}

func registerUser(t *testing.T, srv *httptest.Server) (model.APIResponse, *http.Response) {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/v1/auth/register", model.RegisterRequest{
		Name:     "Ravi Kumar",
		Email:    "ravi@campus.edu",
		Password: "s3cret-pass",
		Phone:    "9876501234",
	})
	return decodeResponse(t, resp), resp
}

func refreshCookieFrom(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	return nil
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newAuthTestServer(t)

	out, resp := registerUser(t, srv)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, out.Success)
	require.NotEmpty(t, dataField(t, out, "access_token"))

	user, ok := dataField(t, out, "user").(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ravi@campus.edu", user["email"])
	require.Equal(t, model.RoleStudent, user["role"])
	require.NotContains(t, user, "password")
	require.NotContains(t, user, "password_hash")

	cookie := refreshCookieFrom(resp)
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, "/api/v1/auth", cookie.Path)
	require.NotEmpty(t, cookie.Value)
}

func TestRegisterRejectsInvalidBody(t *testing.T) {
	srv := newAuthTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/auth/register", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	out := decodeResponse(t, resp)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, out.Success)
	require.Equal(t, "BAD_REQUEST", out.Error.Code)
}

func TestLoginEndpoint(t *testing.T) {
	srv := newAuthTestServer(t)
	registerUser(t, srv)

	resp := postJSON(t, srv.URL+"/api/v1/auth/login", model.LoginRequest{
		Email:    "ravi@campus.edu",
		Password: "s3cret-pass",
	})
	out := decodeResponse(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, out.Success)
	require.NotEmpty(t, dataField(t, out, "access_token"))
	require.NotNil(t, refreshCookieFrom(resp))

	bad := postJSON(t, srv.URL+"/api/v1/auth/login", model.LoginRequest{
		Email:    "ravi@campus.edu",
		Password: "wrong-pass",
	})
	badOut := decodeResponse(t, bad)
	require.Equal(t, http.StatusUnauthorized, bad.StatusCode)
	require.Equal(t, "UNAUTHORIZED", badOut.Error.Code)
}

func TestRefreshEndpointRotatesViaCookie(t *testing.T) {
	srv := newAuthTestServer(t)
	_, registerResp := registerUser(t, srv)
	cookie := refreshCookieFrom(registerResp)
	require.NotNil(t, cookie)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/auth/refresh", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	out := decodeResponse(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, out.Success)

	rotated := refreshCookieFrom(resp)
	require.NotNil(t, rotated)
	require.NotEqual(t, cookie.Value, rotated.Value)

	// Replaying the consumed cookie is reuse: 401 and the cookie is cleared.
	replay, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/auth/refresh", nil)
	require.NoError(t, err)
	replay.AddCookie(cookie)

	replayResp, err := http.DefaultClient.Do(replay)
	require.NoError(t, err)
	replayOut := decodeResponse(t, replayResp)
	require.Equal(t, http.StatusUnauthorized, replayResp.StatusCode)
	require.Equal(t, "UNAUTHORIZED", replayOut.Error.Code)

	cleared := refreshCookieFrom(replayResp)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
}

func TestRefreshEndpointAcceptsBodyFallback(t *testing.T) {
	srv := newAuthTestServer(t)
	out, _ := registerUser(t, srv)
	refreshToken, _ := dataField(t, out, "refresh_token").(string)
	require.NotEmpty(t, refreshToken)

	resp := postJSON(t, srv.URL+"/api/v1/auth/refresh", model.RefreshRequest{RefreshToken: refreshToken})
	rotated := decodeResponse(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, rotated.Success)
}

func TestRefreshEndpointRequiresAToken(t *testing.T) {
	srv := newAuthTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/auth/refresh", map[string]string{})
	out := decodeResponse(t, resp)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "BAD_REQUEST", out.Error.Code)
}

func TestMeEndpoint(t *testing.T) {
	srv := newAuthTestServer(t)
	out, _ := registerUser(t, srv)
	accessToken, _ := dataField(t, out, "access_token").(string)
	require.NotEmpty(t, accessToken)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	meOut := decodeResponse(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ravi@campus.edu", dataField(t, meOut, "email"))

	// No token at all.
	bare, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/auth/me", nil)
	require.NoError(t, err)
	bareResp, err := http.DefaultClient.Do(bare)
	require.NoError(t, err)
	bareResp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, bareResp.StatusCode)
}

func TestLogoutEndpointClearsSession(t *testing.T) {
	srv := newAuthTestServer(t)
	out, registerResp := registerUser(t, srv)
	accessToken, _ := dataField(t, out, "access_token").(string)
	cookie := refreshCookieFrom(registerResp)
	require.NotNil(t, cookie)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/auth/logout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	logoutOut := decodeResponse(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, logoutOut.Success)

	cleared := refreshCookieFrom(resp)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)

	// The revoked refresh token is dead.
	replay, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/auth/refresh", nil)
	require.NoError(t, err)
	replay.AddCookie(cookie)
	replayResp, err := http.DefaultClient.Do(replay)
	require.NoError(t, err)
	replayResp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, replayResp.StatusCode)
}
