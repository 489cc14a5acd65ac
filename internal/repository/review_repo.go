package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-market/internal/model"
)

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func (r *ReviewRepository) Create(ctx context.Context, review model.Review) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO reviews (id, reviewer_id, target_type, target_id, rating, title, content, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		review.ID, review.ReviewerID, review.TargetType, review.TargetID, review.Rating,
		review.Title, review.Content, review.Status, review.CreatedAt, review.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id string) (model.Review, error) {
	var review model.Review
	err := r.pool.QueryRow(ctx,
		`SELECT id, reviewer_id, target_type, target_id, rating, title, content, status, created_at, updated_at
		 FROM reviews WHERE id = $1`, id).
		Scan(&review.ID, &review.ReviewerID, &review.TargetType, &review.TargetID,
			&review.Rating, &review.Title, &review.Content, &review.Status,
			&review.CreatedAt, &review.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Review{}, model.ErrReviewNotFound
	}
	if err != nil {
		return model.Review{}, fmt.Errorf("find review: %w", err)
	}
	return review, nil
}

func (r *ReviewRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE reviews SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update review status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReviewNotFound
	}
	return nil
}

// ListForTarget returns only approved reviews; moderation state is not public.
func (r *ReviewRepository) ListForTarget(ctx context.Context, targetType string, targetID string) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, reviewer_id, target_type, target_id, rating, title, content, status, created_at, updated_at
		 FROM reviews
		 WHERE target_type = $1 AND target_id = $2 AND status = 'approved'
		 ORDER BY created_at DESC`, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]model.Review, 0)
	for rows.Next() {
		var review model.Review
		if err := rows.Scan(&review.ID, &review.ReviewerID, &review.TargetType, &review.TargetID,
			&review.Rating, &review.Title, &review.Content, &review.Status,
			&review.CreatedAt, &review.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
