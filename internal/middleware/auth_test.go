package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"campus-market/internal/model"
)

type stubResolver struct {
	identities map[string]model.AuthUser
}

func (s *stubResolver) ResolveIdentity(_ context.Context, accessToken string) (model.AuthUser, error) {
	identity, ok := s.identities[accessToken]
	if !ok {
		return model.AuthUser{}, model.ErrUnauthorized
	}
	return identity, nil
}

func newTestAuthMiddleware() *AuthMiddleware {
	return NewAuthMiddleware(&stubResolver{identities: map[string]model.AuthUser{
		"student-token": {ID: "u1", Email: "s@campus.edu", Role: model.RoleStudent},
		"admin-token":   {ID: "u2", Email: "a@campus.edu", Role: model.RoleAdmin},
	}})
}

func identityEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-User-ID", identity.ID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	m.RequireAuth(identityEcho(t)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsNonBearerScheme(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	m.RequireAuth(identityEcho(t)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsUnknownToken(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer expired-or-forged")

	m.RequireAuth(identityEcho(t)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer student-token")

	m.RequireAuth(identityEcho(t)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Header().Get("X-User-ID"))
}

func TestRequireRolesForbidsInsufficientRole(t *testing.T) {
	m := newTestAuthMiddleware()
	protected := m.RequireAuth(m.RequireRoles(model.RoleAdmin)(identityEcho(t)))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer student-token")
	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u2", rec.Header().Get("X-User-ID"))
}

func TestRequireRolesWithoutAuthIsUnauthorized(t *testing.T) {
	m := newTestAuthMiddleware()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)

	m.RequireRoles(model.RoleAdmin)(identityEcho(t)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
