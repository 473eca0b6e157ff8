package database

import (
	"context"
	"database/sql"

	"github.com/uslugar/lead-exchange/internal/entity"
)

type PurchaseRepository struct {
	DB *sql.DB
}

func NewPurchaseRepository(db *sql.DB) *PurchaseRepository {
	return &PurchaseRepository{DB: db}
}

func (r *PurchaseRepository) FindByLeadID(ctx context.Context, leadID string) (*entity.LeadPurchase, error) {
	query := `
		SELECT id, lead_id, provider_id, credits_spent, lead_price, status, created_at
		FROM lead_purchases
		WHERE lead_id = $1
	`

	var p entity.LeadPurchase
	err := r.DB.QueryRowContext(ctx, query, leadID).Scan(
		&p.ID,
		&p.LeadID,
		&p.ProviderID,
		&p.CreditsSpent,
		&p.LeadPrice,
		&p.Status,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
