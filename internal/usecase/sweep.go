package usecase

import (
	"context"
	"log"
	"time"

	"github.com/uslugar/lead-exchange/internal/entity"
	"github.com/uslugar/lead-exchange/internal/infra/queue"
)

// SweepExpiredUseCase finds offers whose 24h window has closed and
// advances their queues. Safe to run concurrently with itself and with
// responses: the expiry transition is a conditional update on
// status=OFFERED, so a given entry can only be expired once.
type SweepExpiredUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Store    entity.QueueStoreInterface
	Producer queue.NotificationProducerInterface
	OfferTTL time.Duration
}

func NewSweepExpiredUseCase(
	leads entity.LeadRepositoryInterface,
	store entity.QueueStoreInterface,
	producer queue.NotificationProducerInterface,
	offerTTL time.Duration,
) *SweepExpiredUseCase {
	return &SweepExpiredUseCase{
		Leads:    leads,
		Store:    store,
		Producer: producer,
		OfferTTL: offerTTL,
	}
}

// Execute returns how many queues were actually advanced. Entries already
// handled by a racing response or a redundant sweep are skipped.
func (uc *SweepExpiredUseCase) Execute(ctx context.Context, now time.Time) (int, error) {
	offers, err := uc.Store.ListExpiredOffers(ctx, now)
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, offer := range offers {
		expired, advance, err := uc.Store.ExpireAndAdvance(ctx, offer.ID, offer.LeadID, now)
		if err != nil {
			log.Printf("❌ [SWEEP] failed to expire entry %s (lead %s): %v", offer.ID, offer.LeadID, err)
			continue
		}
		if !expired {
			// lost the race: the provider responded or another sweep got here first
			continue
		}
		advanced++
		log.Printf("⏱️ [SWEEP] offer expired: lead=%s position=%d", offer.LeadID, offer.Position)

		uc.notifyAfterAdvance(ctx, offer.LeadID, advance)
	}

	if advanced > 0 {
		log.Printf("✅ [SWEEP] advanced %d lead queue(s)", advanced)
	}
	return advanced, nil
}

func (uc *SweepExpiredUseCase) notifyAfterAdvance(ctx context.Context, leadID string, advance *entity.AdvanceResult) {
	if advance == nil || (advance.Offered == nil && !advance.LeadExhausted) {
		return
	}
	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil || lead == nil {
		log.Printf("⚠️ [SWEEP] could not load lead %s for notification: %v", leadID, err)
		return
	}
	if advance.Offered != nil {
		notifyOffer(ctx, uc.Producer, lead, advance.Offered, uc.OfferTTL)
	}
	if advance.LeadExhausted {
		notifyLeadExhausted(ctx, uc.Producer, lead)
	}
}
