package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-market/internal/model"
)

type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

const itemColumns = `i.id, i.seller_id, i.title, i.description, i.price, i.condition,
	i.status, i.location, i.negotiable, i.views, i.created_at, i.updated_at`

var itemSortColumns = map[string]string{
	"price":       "i.price ASC",
	"-price":      "i.price DESC",
	"created_at":  "i.created_at ASC",
	"-created_at": "i.created_at DESC",
	"views":       "i.views ASC",
	"-views":      "i.views DESC",
}

func (r *ItemRepository) Create(ctx context.Context, item model.Item) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create item: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO items (id, seller_id, title, description, price, condition, status,
		                    location, negotiable, views, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		item.ID, item.SellerID, item.Title, item.Description, item.Price, item.Condition,
		item.Status, item.Location, item.Negotiable, item.Views, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}

	if err := replaceItemCategories(ctx, tx, item.ID, item.Categories); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create item: %w", err)
	}
	return nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (model.Item, error) {
	var item model.Item
	err := r.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items i WHERE i.id = $1`, id).
		Scan(&item.ID, &item.SellerID, &item.Title, &item.Description, &item.Price,
			&item.Condition, &item.Status, &item.Location, &item.Negotiable, &item.Views,
			&item.CreatedAt, &item.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Item{}, model.ErrItemNotFound
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("find item by id: %w", err)
	}

	item.Categories, err = r.categoriesFor(ctx, id)
	if err != nil {
		return model.Item{}, err
	}
	return item, nil
}

// IncrementViews is best-effort; listing views are not a consistency concern.
func (r *ItemRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE items SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment item views: %w", err)
	}
	return nil
}

func (r *ItemRepository) Update(ctx context.Context, item model.Item) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update item: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE items SET title = $2, description = $3, price = $4, condition = $5,
		       location = $6, negotiable = $7, updated_at = $8
		 WHERE id = $1`,
		item.ID, item.Title, item.Description, item.Price, item.Condition,
		item.Location, item.Negotiable, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}

	if item.Categories != nil {
		if err := replaceItemCategories(ctx, tx, item.ID, item.Categories); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update item: %w", err)
	}
	return nil
}

func (r *ItemRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE items SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) List(ctx context.Context, f model.ItemFilters) ([]model.Item, int, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		where = append(where,
			`i.id IN (SELECT item_id FROM item_categories WHERE category_id = `+arg(f.Category)+`)`)
	}
	if f.MinPrice != nil {
		where = append(where, `i.price >= `+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, `i.price <= `+arg(*f.MaxPrice))
	}
	if f.Condition != "" {
		where = append(where, `i.condition = `+arg(f.Condition))
	}
	if f.Status != "" {
		where = append(where, `i.status = `+arg(f.Status))
	}
	if f.Negotiable != nil {
		where = append(where, `i.negotiable = `+arg(*f.Negotiable))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, `(i.title ILIKE `+p+` OR i.description ILIKE `+p+`)`)
	}

	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM items i WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	order, ok := itemSortColumns[f.Sort]
	if !ok {
		order = "i.created_at DESC"
	}

	query := `SELECT ` + itemColumns + ` FROM items i WHERE ` + clause +
		` ORDER BY ` + order +
		` LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg((f.Page-1)*f.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.SellerID, &item.Title, &item.Description,
			&item.Price, &item.Condition, &item.Status, &item.Location, &item.Negotiable,
			&item.Views, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range items {
		items[i].Categories, err = r.categoriesFor(ctx, items[i].ID)
		if err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (r *ItemRepository) categoriesFor(ctx context.Context, itemID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category_id FROM item_categories WHERE item_id = $1`, itemID)
	if err != nil {
		return nil, fmt.Errorf("item categories: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item category: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func replaceItemCategories(ctx context.Context, tx pgx.Tx, itemID string, categoryIDs []string) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM item_categories WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("clear item categories: %w", err)
	}
	for _, categoryID := range categoryIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO item_categories (item_id, category_id) VALUES ($1, $2)`,
			itemID, categoryID); err != nil {
			return fmt.Errorf("link item category: %w", err)
		}
	}
	return nil
}
