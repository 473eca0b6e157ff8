package entity

import (
	"context"
	"time"
)

const CreditTxLeadPurchase = "LEAD_PURCHASE"

// CreditTransaction is the ledger's audit record. The ledger owns it; we
// only append LEAD_PURCHASE rows through the ledger's atomic debit.
type CreditTransaction struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Type          string    `json:"type"`
	Amount        int       `json:"amount"`  // negative for debits
	Balance       int       `json:"balance"` // balance after the movement
	Description   string    `json:"description"`
	RelatedLeadID string    `json:"related_lead_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreditLedgerInterface is the narrow view the lifecycle needs: a balance
// read for the purchase precheck. The debit itself is transactional and
// lives inside the purchase coordinator.
type CreditLedgerInterface interface {
	Balance(ctx context.Context, providerID string) (int, error)
}
