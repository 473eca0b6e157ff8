package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchaseActive    PurchaseStatus = "ACTIVE"
	PurchaseConverted PurchaseStatus = "CONVERTED"
	PurchaseRefunded  PurchaseStatus = "REFUNDED"
)

// LeadPurchase records the exclusive purchase of a lead. Created exactly
// once per lead, only by a successful purchase transaction.
type LeadPurchase struct {
	ID           string         `json:"id"`
	LeadID       string         `json:"lead_id"`
	ProviderID   string         `json:"provider_id"`
	CreditsSpent int            `json:"credits_spent"`
	LeadPrice    int            `json:"lead_price"`
	Status       PurchaseStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}

func NewLeadPurchase(leadID, providerID string, leadPrice int) *LeadPurchase {
	return &LeadPurchase{
		ID:           uuid.New().String(),
		LeadID:       leadID,
		ProviderID:   providerID,
		CreditsSpent: leadPrice,
		LeadPrice:    leadPrice,
		Status:       PurchaseActive,
		CreatedAt:    time.Now(),
	}
}

type LeadPurchaseRepositoryInterface interface {
	FindByLeadID(ctx context.Context, leadID string) (*LeadPurchase, error)
}
