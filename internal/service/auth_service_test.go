package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"campus-market/internal/model"
	"campus-market/pkg/apierror"
)

type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[string]model.User{}}
}

func (s *memoryUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memoryUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memoryUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *memoryUserStore) RecordLogin(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.LoginCount++
	u.LastLoginAt = &at
	s.users[userID] = u
	return nil
}

func (s *memoryUserStore) setActive(userID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	u.IsActive = active
	s.users[userID] = u
}

type memoryTokenStore struct {
	mu     sync.Mutex
	hashes map[string]map[string]struct{}
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{hashes: map[string]map[string]struct{}{}}
}

func (s *memoryTokenStore) Record(_ context.Context, rec model.RefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hashes[rec.UserID] == nil {
		s.hashes[rec.UserID] = map[string]struct{}{}
	}
	s.hashes[rec.UserID][rec.TokenHash] = struct{}{}
	return nil
}

func (s *memoryTokenStore) Consume(_ context.Context, userID string, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[userID][tokenHash]; !ok {
		return false, nil
	}
	delete(s.hashes[userID], tokenHash)
	return true, nil
}

func (s *memoryTokenStore) Revoke(_ context.Context, userID string, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes[userID], tokenHash)
	return nil
}

func (s *memoryTokenStore) RevokeAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes, userID)
	return nil
}

func (s *memoryTokenStore) count(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hashes[userID])
}

func newTestAuthService() (*AuthService, *memoryUserStore, *memoryTokenStore) {
	users := newMemoryUserStore()
	tokens := newMemoryTokenStore()
	return NewAuthService(users, tokens, testTokenService()), users, tokens
}

func registerTestUser(t *testing.T, svc *AuthService) model.TokenPair {
	t.Helper()
	pair, err := svc.Register(context.Background(), model.RegisterRequest{
		Name:     "Asha Rao",
		Email:    "Asha.Rao@campus.edu",
		Password: "s3cret-pass",
		Phone:    "9876543210",
		Branch:   "CSE",
	}, model.ClientInfo{UserAgent: "go-test", IP: "127.0.0.1"})
	require.NoError(t, err)
	return pair
}

func TestRegisterIssuesSanitizedPair(t *testing.T) {
	svc, _, tokens := newTestAuthService()

	pair := registerTestUser(t, svc)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)

	require.Equal(t, "asha.rao@campus.edu", pair.User.Email)
	require.Equal(t, model.RoleStudent, pair.User.Role)

	// The stored session is the hash of the refresh token, never the raw value.
	consumed, err := tokens.Consume(context.Background(), pair.User.ID, HashToken(pair.RefreshToken))
	require.NoError(t, err)
	require.True(t, consumed)
}

func TestRegisterRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestAuthService()
	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Name:     "Someone Else",
		Email:    "ASHA.RAO@CAMPUS.EDU",
		Password: "another-pass",
		Phone:    "9123456780",
	}, model.ClientInfo{})
	require.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Name:     "",
		Email:    "not-an-email",
		Password: "tiny",
		Phone:    "",
	}, model.ClientInfo{})

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	for _, field := range []string{"name", "email", "password", "phone"} {
		require.True(t, strings.Contains(apiErr.Details, field), "expected %q in details %q", field, apiErr.Details)
	}
}

func TestLoginReturnsUniformErrorForAllFailureModes(t *testing.T) {
	svc, users, _ := newTestAuthService()
	pair := registerTestUser(t, svc)

	// Unknown email.
	_, err := svc.Login(context.Background(), "nobody@campus.edu", "whatever", model.ClientInfo{})
	require.ErrorIs(t, err, model.ErrInvalidCredentials)

	// Wrong password.
	_, err = svc.Login(context.Background(), "asha.rao@campus.edu", "wrong-pass", model.ClientInfo{})
	require.ErrorIs(t, err, model.ErrInvalidCredentials)

	// Deactivated account, even with correct credentials.
	users.setActive(pair.User.ID, false)
	_, err = svc.Login(context.Background(), "asha.rao@campus.edu", "s3cret-pass", model.ClientInfo{})
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestLoginSucceedsWithCorrectCredentials(t *testing.T) {
	svc, _, tokens := newTestAuthService()
	registered := registerTestUser(t, svc)

	pair, err := svc.Login(context.Background(), "  Asha.Rao@Campus.edu ", "s3cret-pass", model.ClientInfo{IP: "10.0.0.2"})
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, pair.User.ID)
	require.NotEmpty(t, pair.AccessToken)

	// One session from registration, one from login.
	require.Equal(t, 2, tokens.count(pair.User.ID))
}

func TestRefreshRotatesTheToken(t *testing.T) {
	svc, _, tokens := newTestAuthService()
	pair := registerTestUser(t, svc)

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken, model.ClientInfo{})
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	require.NotEmpty(t, rotated.AccessToken)

	// Still exactly one live session: the old hash was consumed, the new one recorded.
	require.Equal(t, 1, tokens.count(pair.User.ID))
}

func TestRefreshReuseRevokesEverySession(t *testing.T) {
	svc, _, tokens := newTestAuthService()
	pair := registerTestUser(t, svc)

	// A second live session for the same user.
	second, err := svc.Login(context.Background(), "asha.rao@campus.edu", "s3cret-pass", model.ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, 2, tokens.count(pair.User.ID))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken, model.ClientInfo{})
	require.NoError(t, err)

	// Replaying the consumed token must nuke every session, including the
	// untouched second one and the freshly rotated one.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken, model.ClientInfo{})
	require.ErrorIs(t, err, model.ErrTokenReuse)
	require.Equal(t, 0, tokens.count(pair.User.ID))

	_, err = svc.Refresh(context.Background(), second.RefreshToken, model.ClientInfo{})
	require.ErrorIs(t, err, model.ErrTokenReuse)
}

func TestRefreshRejectsGarbageAndForgedTokens(t *testing.T) {
	svc, _, _ := newTestAuthService()
	pair := registerTestUser(t, svc)

	_, err := svc.Refresh(context.Background(), "definitely-not-a-jwt", model.ClientInfo{})
	require.ErrorIs(t, err, model.ErrInvalidToken)

	// An access token is not accepted on the refresh path.
	_, err = svc.Refresh(context.Background(), pair.AccessToken, model.ClientInfo{})
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	svc, users, _ := newTestAuthService()
	pair := registerTestUser(t, svc)

	users.setActive(pair.User.ID, false)
	_, err := svc.Refresh(context.Background(), pair.RefreshToken, model.ClientInfo{})
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestConcurrentRefreshHasExactlyOneWinner(t *testing.T) {
	svc, _, _ := newTestAuthService()
	pair := registerTestUser(t, svc)

	const attempts = 16
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background(), pair.RefreshToken, model.ClientInfo{})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, reuses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, model.ErrTokenReuse)
			reuses++
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, attempts-1, reuses)
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, tokens := newTestAuthService()
	pair := registerTestUser(t, svc)

	require.NoError(t, svc.Logout(context.Background(), pair.User.ID, pair.RefreshToken))
	require.Equal(t, 0, tokens.count(pair.User.ID))

	// Revoking again, or with nothing, is a no-op.
	require.NoError(t, svc.Logout(context.Background(), pair.User.ID, pair.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), pair.User.ID, ""))

	// The revoked token no longer refreshes; that now reads as reuse.
	_, err := svc.Refresh(context.Background(), pair.RefreshToken, model.ClientInfo{})
	require.ErrorIs(t, err, model.ErrTokenReuse)
}

func TestResolveIdentity(t *testing.T) {
	svc, users, _ := newTestAuthService()
	pair := registerTestUser(t, svc)

	identity, err := svc.ResolveIdentity(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, pair.User.ID, identity.ID)
	require.Equal(t, "asha.rao@campus.edu", identity.Email)

	_, err = svc.ResolveIdentity(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, model.ErrUnauthorized)

	users.setActive(pair.User.ID, false)
	_, err = svc.ResolveIdentity(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, model.ErrUnauthorized)
}
