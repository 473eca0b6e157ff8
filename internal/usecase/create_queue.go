package usecase

import (
	"context"
	"log"
	"time"

	"github.com/uslugar/lead-exchange/internal/entity"
	"github.com/uslugar/lead-exchange/internal/infra/queue"
)

// CreateQueueUseCase builds the distribution queue for a lead: rank the
// eligible providers, persist one entry per position and put the offer on
// the table for position 1.
type CreateQueueUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Store    entity.QueueStoreInterface
	Ranker   *RankProvidersUseCase
	Producer queue.NotificationProducerInterface
	OfferTTL time.Duration
}

func NewCreateQueueUseCase(
	leads entity.LeadRepositoryInterface,
	store entity.QueueStoreInterface,
	ranker *RankProvidersUseCase,
	producer queue.NotificationProducerInterface,
	offerTTL time.Duration,
) *CreateQueueUseCase {
	return &CreateQueueUseCase{
		Leads:    leads,
		Store:    store,
		Ranker:   ranker,
		Producer: producer,
		OfferTTL: offerTTL,
	}
}

func (uc *CreateQueueUseCase) Execute(ctx context.Context, leadID string, limit int) ([]entity.QueueEntry, error) {
	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}

	candidates, err := uc.Ranker.Execute(ctx, lead, limit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoEligibleCandidates
	}

	now := time.Now()
	entries := make([]*entity.QueueEntry, len(candidates))
	for i, c := range candidates {
		e := entity.NewQueueEntry(lead.ID, c.ProviderID, i+1)
		if i == 0 {
			e.Offer(now, uc.OfferTTL)
		}
		entries[i] = e
	}

	if err := uc.Store.CreateBatch(ctx, entries); err != nil {
		return nil, err
	}

	log.Printf("📋 [QUEUE] created queue for lead %s with %d providers", lead.ID, len(entries))

	notifyOffer(ctx, uc.Producer, lead, entries[0], uc.OfferTTL)

	result := make([]entity.QueueEntry, len(entries))
	for i, e := range entries {
		result[i] = *e
	}
	return result, nil
}
