package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"campus-market/internal/model"
)

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) Upsert(ctx context.Context, userID string, itemID string, quantity int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cart_items (user_id, item_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, item_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		userID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, userID string, itemID string, quantity int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND item_id = $2`,
		userID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("update cart quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) Remove(ctx context.Context, userID string, itemID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) ListForUser(ctx context.Context, userID string) ([]model.CartEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`, c.quantity, c.added_at
		FROM cart_items c
		JOIN items i ON i.id = c.item_id
		WHERE c.user_id = $1
		ORDER BY c.added_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	entries := make([]model.CartEntry, 0)
	for rows.Next() {
		var e model.CartEntry
		if err := rows.Scan(&e.Item.ID, &e.Item.SellerID, &e.Item.Title, &e.Item.Description,
			&e.Item.Price, &e.Item.Condition, &e.Item.Status, &e.Item.Location,
			&e.Item.Negotiable, &e.Item.Views, &e.Item.CreatedAt, &e.Item.UpdatedAt,
			&e.Quantity, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
