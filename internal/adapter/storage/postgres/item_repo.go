package postgres

import (
	"context"
	"errors"
	"fmt"

	"yieldback-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// ItemRepo implements ports.ItemRepository. Item IDs come from the table's
// sequence, starting at 1; rows are never deleted.
type ItemRepo struct {
	pool Pool
}

// NewItemRepo creates a new ItemRepo.
func NewItemRepo(pool Pool) *ItemRepo {
	return &ItemRepo{pool: pool}
}

// Create inserts a new item within a transaction and returns its assigned id.
func (r *ItemRepo) Create(ctx context.Context, tx pgx.Tx, item *domain.Item) (int64, error) {
	query := `INSERT INTO items (merchant_id, name, description, price, required_yield_claim, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	var id int64
	err := tx.QueryRow(ctx, query,
		item.MerchantID, item.Name, item.Description, item.Price,
		item.RequiredYieldClaim, item.Active, item.CreatedAt, item.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

// GetByID fetches an item without locking.
func (r *ItemRepo) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	query := `SELECT id, merchant_id, name, description, price, required_yield_claim, active, created_at, updated_at
		FROM items WHERE id = $1`

	i := &domain.Item{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&i.ID, &i.MerchantID, &i.Name, &i.Description, &i.Price,
		&i.RequiredYieldClaim, &i.Active, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item by id: %w", err)
	}
	return i, nil
}

// GetByIDForUpdate fetches an item with pessimistic locking.
// This MUST be called within a transaction.
func (r *ItemRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Item, error) {
	query := `SELECT id, merchant_id, name, description, price, required_yield_claim, active, created_at, updated_at
		FROM items WHERE id = $1 FOR UPDATE`

	i := &domain.Item{}
	err := tx.QueryRow(ctx, query, id).Scan(
		&i.ID, &i.MerchantID, &i.Name, &i.Description, &i.Price,
		&i.RequiredYieldClaim, &i.Active, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item for update: %w", err)
	}
	return i, nil
}

// Update writes an item within a transaction.
func (r *ItemRepo) Update(ctx context.Context, tx pgx.Tx, item *domain.Item) error {
	query := `UPDATE items
		SET name = $1, description = $2, price = $3, required_yield_claim = $4, active = $5, updated_at = NOW()
		WHERE id = $6`

	tag, err := tx.Exec(ctx, query,
		item.Name, item.Description, item.Price, item.RequiredYieldClaim, item.Active, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item not found: %d", item.ID)
	}
	return nil
}

// Count returns the number of listed items, delisted included.
func (r *ItemRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}
