package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-market/internal/model"
)

type WishlistRepository struct {
	pool *pgxpool.Pool
}

func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

func (r *WishlistRepository) Add(ctx context.Context, userID string, itemID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wishlist_items (user_id, item_id) VALUES ($1, $2)`, userID, itemID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return nil
}

func (r *WishlistRepository) Remove(ctx context.Context, userID string, itemID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

func (r *WishlistRepository) ListForUser(ctx context.Context, userID string) ([]model.WishlistEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`, w.added_at
		FROM wishlist_items w
		JOIN items i ON i.id = w.item_id
		WHERE w.user_id = $1
		ORDER BY w.added_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	entries := make([]model.WishlistEntry, 0)
	for rows.Next() {
		var e model.WishlistEntry
		if err := rows.Scan(&e.Item.ID, &e.Item.SellerID, &e.Item.Title, &e.Item.Description,
			&e.Item.Price, &e.Item.Condition, &e.Item.Status, &e.Item.Location,
			&e.Item.Negotiable, &e.Item.Views, &e.Item.CreatedAt, &e.Item.UpdatedAt,
			&e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
