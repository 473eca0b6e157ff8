package database

import (
	"context"
	"database/sql"

	"github.com/uslugar/lead-exchange/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `
		SELECT
			id,
			owner_id,
			category_id,
			title,
			city,
			latitude,
			longitude,
			budget_min,
			budget_max,
			urgency,
			quality_score,
			lead_price,
			lead_status,
			assigned_provider_id,
			created_at,
			updated_at
		FROM leads
		WHERE id = $1
	`

	var lead entity.Lead
	var lat, lng sql.NullFloat64
	var assigned sql.NullString

	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&lead.ID,
		&lead.OwnerID,
		&lead.CategoryID,
		&lead.Title,
		&lead.City,
		&lat,
		&lng,
		&lead.BudgetMin,
		&lead.BudgetMax,
		&lead.Urgency,
		&lead.QualityScore,
		&lead.LeadPrice,
		&lead.LeadStatus,
		&assigned,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if lat.Valid {
		lead.Latitude = &lat.Float64
	}
	if lng.Valid {
		lead.Longitude = &lng.Float64
	}
	if assigned.Valid {
		lead.AssignedProviderID = &assigned.String
	}

	return &lead, nil
}
