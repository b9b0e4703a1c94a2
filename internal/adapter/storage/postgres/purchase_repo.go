package postgres

import (
	"context"
	"errors"
	"fmt"

	"yieldback-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PurchaseRepo implements ports.PurchaseRepository.
type PurchaseRepo struct {
	pool Pool
}

// NewPurchaseRepo creates a new PurchaseRepo.
func NewPurchaseRepo(pool Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

// Create inserts a new purchase within a transaction and returns its assigned id.
func (r *PurchaseRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Purchase) (int64, error) {
	query := `INSERT INTO purchases (buyer, merchant_id, item_id, price, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	var id int64
	err := tx.QueryRow(ctx, query,
		p.Buyer, p.MerchantID, p.ItemID, p.Price, p.Paid, p.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert purchase: %w", err)
	}
	return id, nil
}

// GetByID fetches a purchase record.
func (r *PurchaseRepo) GetByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	query := `SELECT id, buyer, merchant_id, item_id, price, paid, created_at
		FROM purchases WHERE id = $1`

	p := &domain.Purchase{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Buyer, &p.MerchantID, &p.ItemID, &p.Price, &p.Paid, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase by id: %w", err)
	}
	return p, nil
}

// MarkPaidByMerchant flips a merchant's unpaid purchases to paid within a
// transaction and returns how many rows changed. Legacy deferred settlement.
func (r *PurchaseRepo) MarkPaidByMerchant(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID) (int64, error) {
	query := `UPDATE purchases SET paid = TRUE WHERE merchant_id = $1 AND paid = FALSE`

	tag, err := tx.Exec(ctx, query, merchantID)
	if err != nil {
		return 0, fmt.Errorf("mark purchases paid: %w", err)
	}
	return tag.RowsAffected(), nil
}
