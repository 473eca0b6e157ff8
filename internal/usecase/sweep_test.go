package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/uslugar/lead-exchange/internal/entity"
	"github.com/uslugar/lead-exchange/internal/infra/queue"
)

func expiredOffer(id, leadID, providerID string, position int) entity.QueueEntry {
	e := entity.NewQueueEntry(leadID, providerID, position)
	e.ID = id
	e.Offer(time.Now().Add(-25*time.Hour), 24*time.Hour)
	return *e
}

func TestSweepExpiresAndOffersNext(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	leads := new(MockLeadRepository)
	store := new(MockQueueStore)
	producer := new(MockNotificationProducer)

	next := offeredEntry("lead-1", "prov-2", 2)

	store.On("ListExpiredOffers", ctx, now).Return([]entity.QueueEntry{
		expiredOffer("entry-1", "lead-1", "prov-1", 1),
	}, nil)
	store.On("ExpireAndAdvance", ctx, "entry-1", "lead-1", now).
		Return(true, &entity.AdvanceResult{Offered: next}, nil)
	leads.On("FindByID", ctx, "lead-1").Return(testLead(), nil)
	producer.On("PublishNotification", ctx, mock.MatchedBy(func(p queue.NotificationPayload) bool {
		return p.UserID == "prov-2" && p.Kind == queue.KindNewJob
	})).Return(nil)

	advanced, err := NewSweepExpiredUseCase(leads, store, producer, 24*time.Hour).Execute(ctx, now)

	assert.NoError(t, err)
	assert.Equal(t, 1, advanced)
	producer.AssertNumberOfCalls(t, "PublishNotification", 1)
}

func TestSweepSkipsEntriesLostToARacingResponse(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	leads := new(MockLeadRepository)
	store := new(MockQueueStore)
	producer := new(MockNotificationProducer)

	store.On("ListExpiredOffers", ctx, now).Return([]entity.QueueEntry{
		expiredOffer("entry-1", "lead-1", "prov-1", 1),
	}, nil)
	// conditional update matched zero rows: someone else handled the entry
	store.On("ExpireAndAdvance", ctx, "entry-1", "lead-1", now).
		Return(false, nil, nil)

	advanced, err := NewSweepExpiredUseCase(leads, store, producer, 24*time.Hour).Execute(ctx, now)

	assert.NoError(t, err)
	assert.Equal(t, 0, advanced)
	leads.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	producer.AssertNotCalled(t, "PublishNotification", mock.Anything, mock.Anything)
}

func TestSweepNotifiesOwnerWhenLeadExhausted(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	leads := new(MockLeadRepository)
	store := new(MockQueueStore)
	producer := new(MockNotificationProducer)

	store.On("ListExpiredOffers", ctx, now).Return([]entity.QueueEntry{
		expiredOffer("entry-3", "lead-1", "prov-3", 3),
	}, nil)
	store.On("ExpireAndAdvance", ctx, "entry-3", "lead-1", now).
		Return(true, &entity.AdvanceResult{LeadExhausted: true}, nil)
	leads.On("FindByID", ctx, "lead-1").Return(testLead(), nil)
	producer.On("PublishNotification", ctx, mock.MatchedBy(func(p queue.NotificationPayload) bool {
		return p.UserID == "client-1" && p.Kind == queue.KindSystem
	})).Return(nil)

	advanced, err := NewSweepExpiredUseCase(leads, store, producer, 24*time.Hour).Execute(ctx, now)

	assert.NoError(t, err)
	assert.Equal(t, 1, advanced)
	producer.AssertNumberOfCalls(t, "PublishNotification", 1)
}

func TestSweepContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	leads := new(MockLeadRepository)
	store := new(MockQueueStore)
	producer := new(MockNotificationProducer)

	store.On("ListExpiredOffers", ctx, now).Return([]entity.QueueEntry{
		expiredOffer("entry-1", "lead-1", "prov-1", 1),
		expiredOffer("entry-2", "lead-2", "prov-1", 1),
	}, nil)
	store.On("ExpireAndAdvance", ctx, "entry-1", "lead-1", now).
		Return(false, nil, assert.AnError)
	store.On("ExpireAndAdvance", ctx, "entry-2", "lead-2", now).
		Return(true, &entity.AdvanceResult{}, nil)

	advanced, err := NewSweepExpiredUseCase(leads, store, producer, 24*time.Hour).Execute(ctx, now)

	assert.NoError(t, err)
	assert.Equal(t, 1, advanced)
}

func TestSweepNothingToDo(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := new(MockQueueStore)
	store.On("ListExpiredOffers", ctx, now).Return([]entity.QueueEntry{}, nil)

	advanced, err := NewSweepExpiredUseCase(new(MockLeadRepository), store, new(MockNotificationProducer), 24*time.Hour).Execute(ctx, now)

	assert.NoError(t, err)
	assert.Equal(t, 0, advanced)
	store.AssertNotCalled(t, "ExpireAndAdvance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
