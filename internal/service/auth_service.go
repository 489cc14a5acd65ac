package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus-market/internal/model"
	"campus-market/pkg/apierror"
)

// UserStore is the slice of the user repository the auth subsystem needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	RecordLogin(ctx context.Context, userID string, at time.Time) error
}

// TokenStore holds the hashed shadows of issued refresh tokens. Consume
// must be atomic: of N concurrent calls with the same hash, exactly one
// may observe true.
type TokenStore interface {
	Record(ctx context.Context, rec model.RefreshTokenRecord) error
	Consume(ctx context.Context, userID string, tokenHash string) (bool, error)
	Revoke(ctx context.Context, userID string, tokenHash string) error
	RevokeAll(ctx context.Context, userID string) error
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 6

type AuthService struct {
	users  UserStore
	tokens TokenStore
	signer *TokenService
}

func NewAuthService(users UserStore, tokens TokenStore, signer *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens, signer: signer}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, client model.ClientInfo) (model.TokenPair, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Branch = strings.TrimSpace(req.Branch)

	if fields := validateRegistration(req); len(fields) > 0 {
		return model.TokenPair{}, apierror.New("VALIDATION_ERROR", "invalid registration input",
			strings.Join(fields, ", "), http.StatusBadRequest)
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return model.TokenPair{}, model.ErrEmailTaken
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return model.TokenPair{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Branch:       req.Branch,
		Role:         model.RoleStudent,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index backstops the lookup above under concurrent registration.
	if err := s.users.Create(ctx, user); err != nil {
		return model.TokenPair{}, err
	}

	return s.issuePair(ctx, user, client)
}

func (s *AuthService) Login(ctx context.Context, email string, password string, client model.ClientInfo) (model.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Same response as a wrong password; no account enumeration.
			return model.TokenPair{}, model.ErrInvalidCredentials
		}
		return model.TokenPair{}, err
	}

	if !user.IsActive || !VerifyPassword(password, user.PasswordHash) {
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	s.recordLoginAsync(user.ID)

	return s.issuePair(ctx, user, client)
}

// Refresh rotates a refresh token: verify, consume the stored hash, issue
// a new pair. A cryptographically valid token absent from the store means
// it was already used or revoked, so every session for that user is
// revoked before failing.
func (s *AuthService) Refresh(ctx context.Context, rawToken string, client model.ClientInfo) (model.TokenPair, error) {
	claims, err := s.signer.VerifyRefresh(rawToken)
	if err != nil {
		return model.TokenPair{}, model.ErrInvalidToken
	}

	consumed, err := s.tokens.Consume(ctx, claims.UserID, HashToken(rawToken))
	if err != nil {
		return model.TokenPair{}, err
	}
	if !consumed {
		if revokeErr := s.tokens.RevokeAll(ctx, claims.UserID); revokeErr != nil {
			slog.Error("failed to revoke sessions after reuse signal", "user_id", claims.UserID, "error", revokeErr)
		}
		slog.Warn("refresh token reuse detected; all sessions revoked", "user_id", claims.UserID)
		return model.TokenPair{}, model.ErrTokenReuse
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, model.ErrInvalidToken
		}
		return model.TokenPair{}, err
	}
	if !user.IsActive {
		return model.TokenPair{}, model.ErrInvalidToken
	}

	return s.issuePair(ctx, user, client)
}

// Logout revokes the presented refresh token. Unknown tokens are ignored;
// logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, userID string, rawToken string) error {
	if strings.TrimSpace(rawToken) == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, userID, HashToken(rawToken))
}

// ResolveIdentity turns a bearer access token into a sanitized identity.
// The user must still exist and be active.
func (s *AuthService) ResolveIdentity(ctx context.Context, accessToken string) (model.AuthUser, error) {
	claims, err := s.signer.VerifyAccess(accessToken)
	if err != nil {
		return model.AuthUser{}, model.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return model.AuthUser{}, model.ErrUnauthorized
	}
	if !user.IsActive {
		return model.AuthUser{}, model.ErrUnauthorized
	}

	return user.Sanitized(), nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.AuthUser{}, err
	}
	return user.Sanitized(), nil
}

func (s *AuthService) issuePair(ctx context.Context, user model.User, client model.ClientInfo) (model.TokenPair, error) {
	accessToken, err := s.signer.SignAccess(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.signer.SignRefresh(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	now := time.Now().UTC()
	err = s.tokens.Record(ctx, model.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: HashToken(refreshToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.signer.RefreshTTL()),
		UserAgent: client.UserAgent,
		IP:        client.IP,
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.signer.AccessTTL().Seconds()),
		User:         user.Sanitized(),
	}, nil
}

// recordLoginAsync updates login counters without blocking the response.
func (s *AuthService) recordLoginAsync(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.users.RecordLogin(ctx, userID, time.Now().UTC()); err != nil {
			slog.Warn("failed to record login", "user_id", userID, "error", err)
		}
	}()
}

func validateRegistration(req model.RegisterRequest) []string {
	var fields []string
	if req.Name == "" || len(req.Name) > 50 {
		fields = append(fields, "name")
	}
	if !emailPattern.MatchString(req.Email) {
		fields = append(fields, "email")
	}
	if len(req.Password) < minPasswordLength {
		fields = append(fields, "password")
	}
	if req.Phone == "" {
		fields = append(fields, "phone")
	}
	return fields
}
