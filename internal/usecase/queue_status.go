package usecase

import (
	"context"

	"github.com/uslugar/lead-exchange/internal/entity"
)

// GetQueueStatusUseCase is the read model behind position displays:
// every entry for the lead, in position order, audit trail included.
type GetQueueStatusUseCase struct {
	Store entity.QueueStoreInterface
}

func NewGetQueueStatusUseCase(store entity.QueueStoreInterface) *GetQueueStatusUseCase {
	return &GetQueueStatusUseCase{Store: store}
}

func (uc *GetQueueStatusUseCase) Execute(ctx context.Context, leadID string) ([]entity.QueueEntry, error) {
	return uc.Store.ListByLead(ctx, leadID)
}
