package entity

import (
	"context"
	"time"
)

// License held by a provider. Only verified, unexpired licenses count for
// categories that require one.
type License struct {
	Type       string     `json:"type"`
	IsVerified bool       `json:"is_verified"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func (l License) ValidAt(now time.Time) bool {
	if !l.IsVerified {
		return false
	}
	return l.ExpiresAt == nil || l.ExpiresAt.After(now)
}

// Candidate is a read-only snapshot of a provider taken at ranking time.
// It is never persisted by this service.
type Candidate struct {
	ProviderID             string    `json:"provider_id"` // the provider's user id
	TaxID                  string    `json:"tax_id,omitempty"`
	Email                  string    `json:"email"`
	City                   string    `json:"city"`
	Latitude               *float64  `json:"latitude,omitempty"`
	Longitude              *float64  `json:"longitude,omitempty"`
	ServiceRadiusKm        float64   `json:"service_radius_km"`
	CategoryIDs            []string  `json:"category_ids"`
	IsAvailable            bool      `json:"is_available"`
	Licenses               []License `json:"licenses"`
	Rating                 float64   `json:"rating"` // 0-5
	RatingCount            int       `json:"rating_count"`
	AvgResponseTimeMinutes int       `json:"avg_response_time_minutes"`
	ConversionRate         float64   `json:"conversion_rate"` // 0-100
	IsDirector             bool      `json:"is_director"`
	TeamCategoryIDs        []string  `json:"team_category_ids,omitempty"`
}

func (c Candidate) HasCategory(categoryID string) bool {
	for _, id := range c.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

type Category struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	RequiresLicense bool   `json:"requires_license"`
	LicenseType     string `json:"license_type,omitempty"`
}

// OwnerIdentity carries the lead owner's identifying fields used for
// self-assignment exclusion: a client must not buy its own lead through
// a provider profile sharing the same user, tax id or email.
type OwnerIdentity struct {
	UserID string `json:"user_id"`
	TaxID  string `json:"tax_id,omitempty"`
	Email  string `json:"email"`
}

type CandidateRepositoryInterface interface {
	FindEligible(ctx context.Context, lead *Lead) ([]Candidate, error)
	FindCategory(ctx context.Context, id string) (*Category, error)
	FindOwnerIdentity(ctx context.Context, userID string) (*OwnerIdentity, error)
}
