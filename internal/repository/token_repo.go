package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"campus-market/internal/model"
)

// TokenRepository persists the hashed shadows of issued refresh tokens.
// Raw tokens never reach this layer.
type TokenRepository struct {
	pool       *pgxpool.Pool
	sessionCap int
}

func NewTokenRepository(pool *pgxpool.Pool, sessionCap int) *TokenRepository {
	if sessionCap <= 0 {
		sessionCap = 10
	}
	return &TokenRepository{pool: pool, sessionCap: sessionCap}
}

func (r *TokenRepository) Record(ctx context.Context, rec model.RefreshTokenRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, created_at, expires_at, user_agent, ip)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID, rec.TokenHash, rec.CreatedAt, rec.ExpiresAt, rec.UserAgent, rec.IP)
	if err != nil {
		return fmt.Errorf("record refresh token: %w", err)
	}

	// Bounded session list per user: evict the oldest rows beyond the cap.
	_, err = r.pool.Exec(ctx,
		`DELETE FROM refresh_tokens
		 WHERE user_id = $1
		   AND id NOT IN (
		       SELECT id FROM refresh_tokens
		       WHERE user_id = $1
		       ORDER BY created_at DESC, id DESC
		       LIMIT $2
		   )`, rec.UserID, r.sessionCap)
	if err != nil {
		return fmt.Errorf("evict old refresh tokens: %w", err)
	}
	return nil
}

// Consume removes the matching unexpired record and reports whether this
// call removed it. The single conditional DELETE makes rotation atomic:
// two concurrent refreshes with the same token cannot both see true.
func (r *TokenRepository) Consume(ctx context.Context, userID string, tokenHash string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM refresh_tokens
		 WHERE user_id = $1 AND token_hash = $2 AND expires_at > now()`,
		userID, tokenHash)
	if err != nil {
		return false, fmt.Errorf("consume refresh token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TokenRepository) Revoke(ctx context.Context, userID string, tokenHash string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1 AND token_hash = $2`,
		userID, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) RevokeAll(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return nil
}

func (r *TokenRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("clean expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
