package model

import "time"

const (
	RoleStudent = "Student"
	RoleAdmin   = "Admin"
)

func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleAdmin
}

type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Phone        string     `json:"phone"`
	Branch       string     `json:"branch,omitempty"`
	Role         string     `json:"role"`
	IsVerified   bool       `json:"is_verified"`
	IsActive     bool       `json:"is_active"`
	LoginCount   int        `json:"login_count"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AuthUser is the sanitized view of a user returned by the API and
// attached to request contexts. It never carries the password hash.
type AuthUser struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

func (u User) Sanitized() AuthUser {
	return AuthUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Branch:     u.Branch,
		Role:       u.Role,
		IsVerified: u.IsVerified,
	}
}

type AuthClaims struct {
	UserID  string `json:"sub"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Type    string `json:"typ"`
	TokenID string `json:"jti"`
}

type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	User         AuthUser `json:"user"`
}

// RefreshTokenRecord is the server-side shadow of one issued refresh
// token. Only the SHA-256 hash of the raw token is ever stored.
type RefreshTokenRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	IP        string    `json:"ip,omitempty"`
}

// ClientInfo carries request metadata recorded alongside refresh tokens
// for session auditing.
type ClientInfo struct {
	UserAgent string
	IP        string
}
