package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type QueueStatus string

const (
	QueueWaiting  QueueStatus = "WAITING"
	QueueOffered  QueueStatus = "OFFERED"
	QueueAccepted QueueStatus = "ACCEPTED"
	QueueDeclined QueueStatus = "DECLINED"
	QueueExpired  QueueStatus = "EXPIRED"
	QueueSkipped  QueueStatus = "SKIPPED"
)

type OfferResponse string

const (
	ResponseInterested    OfferResponse = "INTERESTED"
	ResponseNotInterested OfferResponse = "NOT_INTERESTED"
	ResponseNoResponse    OfferResponse = "NO_RESPONSE"
)

// QueueEntry is one provider's ranked slot in a lead's distribution queue.
// Entries are created in bulk when the queue is built and never deleted;
// terminal statuses stay behind as the audit trail.
type QueueEntry struct {
	ID          string        `json:"id"`
	LeadID      string        `json:"lead_id"`
	ProviderID  string        `json:"provider_id"`
	Position    int           `json:"position"` // 1-based, unique per lead
	Status      QueueStatus   `json:"status"`
	Response    OfferResponse `json:"response,omitempty"`
	OfferedAt   *time.Time    `json:"offered_at,omitempty"`
	ExpiresAt   *time.Time    `json:"expires_at,omitempty"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func NewQueueEntry(leadID, providerID string, position int) *QueueEntry {
	now := time.Now()
	return &QueueEntry{
		ID:         uuid.New().String(),
		LeadID:     leadID,
		ProviderID: providerID,
		Position:   position,
		Status:     QueueWaiting,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Offer moves the entry into the OFFERED state with a fresh expiry window.
func (e *QueueEntry) Offer(now time.Time, ttl time.Duration) {
	expires := now.Add(ttl)
	e.Status = QueueOffered
	e.OfferedAt = &now
	e.ExpiresAt = &expires
	e.UpdatedAt = now
}

// IsExpired reports whether the offer window has closed. The lazy check in
// respond() and the eager check in the sweeper both go through here so the
// two paths can never disagree on what "expired" means.
func (e *QueueEntry) IsExpired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// AdvanceResult describes what happened after a terminal transition:
// either the next WAITING entry was offered, or the queue ran dry and the
// lead may have been exhausted (3+ declines/expiries).
type AdvanceResult struct {
	Offered       *QueueEntry
	LeadExhausted bool
}

type QueueStoreInterface interface {
	CreateBatch(ctx context.Context, entries []*QueueEntry) error
	FindByLeadAndProvider(ctx context.Context, leadID, providerID string) (*QueueEntry, error)
	ListByLead(ctx context.Context, leadID string) ([]QueueEntry, error)
	ListExpiredOffers(ctx context.Context, now time.Time) ([]QueueEntry, error)
	DeclineAndAdvance(ctx context.Context, leadID, providerID string, now time.Time) (*AdvanceResult, error)
	ExpireAndAdvance(ctx context.Context, entryID, leadID string, now time.Time) (bool, *AdvanceResult, error)
	ExecutePurchase(ctx context.Context, lead *Lead, providerID string, now time.Time) (*LeadPurchase, error)
}
