package entity

import (
	"context"
	"time"
)

type LeadStatus string

const (
	LeadAvailable LeadStatus = "AVAILABLE"
	LeadAssigned  LeadStatus = "ASSIGNED"
	LeadExpired   LeadStatus = "EXPIRED"
)

type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyNormal Urgency = "NORMAL"
	UrgencyHigh   Urgency = "HIGH"
	UrgencyUrgent Urgency = "URGENT"
)

// Lead is the exclusive job posting being sold to exactly one provider.
// assignedProviderId is set if and only if leadStatus is ASSIGNED.
type Lead struct {
	ID                 string     `json:"id"`
	OwnerID            string     `json:"owner_id"`
	CategoryID         string     `json:"category_id"`
	Title              string     `json:"title"`
	City               string     `json:"city"`
	Latitude           *float64   `json:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty"`
	BudgetMin          int        `json:"budget_min"`
	BudgetMax          int        `json:"budget_max"`
	Urgency            Urgency    `json:"urgency"`
	QualityScore       int        `json:"quality_score"` // 0-100
	LeadPrice          int        `json:"lead_price"`    // in credits
	LeadStatus         LeadStatus `json:"lead_status"`
	AssignedProviderID *string    `json:"assigned_provider_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type LeadRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Lead, error)
}
