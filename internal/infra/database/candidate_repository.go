package database

import (
	"context"
	"database/sql"

	"github.com/uslugar/lead-exchange/internal/entity"
)

// CandidateRepository is the read-only window onto providers, categories
// and licenses. It pre-filters on category membership and availability;
// geo, license validity and self-assignment are the ranking engine's job.
type CandidateRepository struct {
	DB *sql.DB
}

func NewCandidateRepository(db *sql.DB) *CandidateRepository {
	return &CandidateRepository{DB: db}
}

func (r *CandidateRepository) FindEligible(ctx context.Context, lead *entity.Lead) ([]entity.Candidate, error) {
	query := `
		SELECT
			p.id,
			u.id,
			COALESCE(u.tax_id, ''),
			u.email,
			u.city,
			u.latitude,
			u.longitude,
			p.service_radius_km,
			p.is_available,
			p.is_director,
			p.rating_avg,
			p.rating_count,
			p.avg_response_time_minutes,
			p.conversion_rate
		FROM provider_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.is_available = true
		  AND EXISTS (
			SELECT 1 FROM provider_categories pc
			WHERE pc.provider_id = p.id AND pc.category_id = $1
		  )
	`

	rows, err := r.DB.QueryContext(ctx, query, lead.CategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type profileRow struct {
		profileID string
		candidate entity.Candidate
	}
	var profiles []profileRow

	for rows.Next() {
		var p profileRow
		var lat, lng sql.NullFloat64

		err := rows.Scan(
			&p.profileID,
			&p.candidate.ProviderID,
			&p.candidate.TaxID,
			&p.candidate.Email,
			&p.candidate.City,
			&lat,
			&lng,
			&p.candidate.ServiceRadiusKm,
			&p.candidate.IsAvailable,
			&p.candidate.IsDirector,
			&p.candidate.Rating,
			&p.candidate.RatingCount,
			&p.candidate.AvgResponseTimeMinutes,
			&p.candidate.ConversionRate,
		)
		if err != nil {
			return nil, err
		}
		if lat.Valid {
			p.candidate.Latitude = &lat.Float64
		}
		if lng.Valid {
			p.candidate.Longitude = &lng.Float64
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	candidates := make([]entity.Candidate, 0, len(profiles))
	for _, p := range profiles {
		if err := r.loadCategories(ctx, p.profileID, &p.candidate); err != nil {
			return nil, err
		}
		if err := r.loadLicenses(ctx, p.profileID, &p.candidate); err != nil {
			return nil, err
		}
		if p.candidate.IsDirector {
			if err := r.loadTeamCategories(ctx, p.profileID, &p.candidate); err != nil {
				return nil, err
			}
		}
		candidates = append(candidates, p.candidate)
	}

	return candidates, nil
}

func (r *CandidateRepository) loadCategories(ctx context.Context, profileID string, c *entity.Candidate) error {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT category_id FROM provider_categories WHERE provider_id = $1`, profileID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		c.CategoryIDs = append(c.CategoryIDs, id)
	}
	return rows.Err()
}

func (r *CandidateRepository) loadLicenses(ctx context.Context, profileID string, c *entity.Candidate) error {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT license_type, is_verified, expires_at FROM licenses WHERE provider_id = $1`, profileID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l entity.License
		var expires sql.NullTime
		if err := rows.Scan(&l.Type, &l.IsVerified, &expires); err != nil {
			return err
		}
		if expires.Valid {
			l.ExpiresAt = &expires.Time
		}
		c.Licenses = append(c.Licenses, l)
	}
	return rows.Err()
}

// loadTeamCategories collects the declared categories of the director's
// available team members, used for the team-affiliated scoring variant.
func (r *CandidateRepository) loadTeamCategories(ctx context.Context, profileID string, c *entity.Candidate) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT pc.category_id
		FROM provider_profiles tm
		JOIN provider_categories pc ON pc.provider_id = tm.id
		WHERE tm.company_id = $1
		  AND tm.is_director = false
		  AND tm.is_available = true
	`, profileID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		c.TeamCategoryIDs = append(c.TeamCategoryIDs, id)
	}
	return rows.Err()
}

func (r *CandidateRepository) FindCategory(ctx context.Context, id string) (*entity.Category, error) {
	query := `SELECT id, name, requires_license, COALESCE(license_type, '') FROM categories WHERE id = $1`

	var cat entity.Category
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&cat.ID,
		&cat.Name,
		&cat.RequiresLicense,
		&cat.LicenseType,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *CandidateRepository) FindOwnerIdentity(ctx context.Context, userID string) (*entity.OwnerIdentity, error) {
	query := `SELECT id, COALESCE(tax_id, ''), email FROM users WHERE id = $1`

	var owner entity.OwnerIdentity
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&owner.UserID,
		&owner.TaxID,
		&owner.Email,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &owner, nil
}
