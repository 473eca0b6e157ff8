package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/uslugar/lead-exchange/internal/entity"
	"github.com/uslugar/lead-exchange/internal/infra/queue"
)

// RespondToOfferUseCase drives a queue entry out of the OFFERED state.
// NOT_INTERESTED declines and advances the queue; INTERESTED runs the
// atomic purchase. A failed purchase (credits, ledger) leaves the entry
// OFFERED so the provider can retry or let it expire.
type RespondToOfferUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Store    entity.QueueStoreInterface
	Ledger   entity.CreditLedgerInterface
	Producer queue.NotificationProducerInterface
	OfferTTL time.Duration
}

func NewRespondToOfferUseCase(
	leads entity.LeadRepositoryInterface,
	store entity.QueueStoreInterface,
	ledger entity.CreditLedgerInterface,
	producer queue.NotificationProducerInterface,
	offerTTL time.Duration,
) *RespondToOfferUseCase {
	return &RespondToOfferUseCase{
		Leads:    leads,
		Store:    store,
		Ledger:   ledger,
		Producer: producer,
		OfferTTL: offerTTL,
	}
}

// RespondResult carries the purchase when the response was accepted.
type RespondResult struct {
	Accepted *entity.LeadPurchase `json:"accepted,omitempty"`
}

func (uc *RespondToOfferUseCase) Execute(ctx context.Context, leadID, providerID string, response entity.OfferResponse) (*RespondResult, error) {
	if response != entity.ResponseInterested && response != entity.ResponseNotInterested {
		return nil, ErrInvalidResponse
	}

	entry, err := uc.Store.FindByLeadAndProvider(ctx, leadID, providerID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	if entry.Status != entity.QueueOffered || entry.IsExpired(now) {
		return nil, ErrStaleOffer
	}

	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}

	if response == entity.ResponseNotInterested {
		return uc.decline(ctx, lead, providerID, now)
	}
	return uc.purchase(ctx, lead, providerID, now)
}

func (uc *RespondToOfferUseCase) decline(ctx context.Context, lead *entity.Lead, providerID string, now time.Time) (*RespondResult, error) {
	advance, err := uc.Store.DeclineAndAdvance(ctx, lead.ID, providerID, now)
	if err != nil {
		return nil, err
	}

	log.Printf("❌ [QUEUE] provider %s declined lead %s", providerID, lead.ID)

	if advance.Offered != nil {
		notifyOffer(ctx, uc.Producer, lead, advance.Offered, uc.OfferTTL)
	}
	if advance.LeadExhausted {
		notifyLeadExhausted(ctx, uc.Producer, lead)
	}

	return &RespondResult{}, nil
}

func (uc *RespondToOfferUseCase) purchase(ctx context.Context, lead *entity.Lead, providerID string, now time.Time) (*RespondResult, error) {
	// advisory precheck; the debit inside the transaction is conditional
	// either way, so a stale read here can only produce a nicer error
	balance, err := uc.Ledger.Balance(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if balance < lead.LeadPrice {
		return nil, ErrInsufficientCredits
	}

	purchase, err := uc.Store.ExecutePurchase(ctx, lead, providerID, now)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [QUEUE] lead %s purchased by provider %s for %d credits", lead.ID, providerID, purchase.CreditsSpent)

	notifyPurchase(ctx, uc.Producer, lead, purchase)

	return &RespondResult{Accepted: purchase}, nil
}
