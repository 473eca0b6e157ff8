package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/uslugar/lead-exchange/internal/entity"
	"github.com/uslugar/lead-exchange/internal/infra/queue"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if lead := args.Get(0); lead != nil {
		return lead.(*entity.Lead), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockQueueStore struct {
	mock.Mock
}

func (m *MockQueueStore) CreateBatch(ctx context.Context, entries []*entity.QueueEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockQueueStore) FindByLeadAndProvider(ctx context.Context, leadID, providerID string) (*entity.QueueEntry, error) {
	args := m.Called(ctx, leadID, providerID)
	if e := args.Get(0); e != nil {
		return e.(*entity.QueueEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQueueStore) ListByLead(ctx context.Context, leadID string) ([]entity.QueueEntry, error) {
	args := m.Called(ctx, leadID)
	if e := args.Get(0); e != nil {
		return e.([]entity.QueueEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQueueStore) ListExpiredOffers(ctx context.Context, now time.Time) ([]entity.QueueEntry, error) {
	args := m.Called(ctx, now)
	if e := args.Get(0); e != nil {
		return e.([]entity.QueueEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQueueStore) DeclineAndAdvance(ctx context.Context, leadID, providerID string, now time.Time) (*entity.AdvanceResult, error) {
	args := m.Called(ctx, leadID, providerID, now)
	if r := args.Get(0); r != nil {
		return r.(*entity.AdvanceResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQueueStore) ExpireAndAdvance(ctx context.Context, entryID, leadID string, now time.Time) (bool, *entity.AdvanceResult, error) {
	args := m.Called(ctx, entryID, leadID, now)
	var result *entity.AdvanceResult
	if r := args.Get(1); r != nil {
		result = r.(*entity.AdvanceResult)
	}
	return args.Bool(0), result, args.Error(2)
}

func (m *MockQueueStore) ExecutePurchase(ctx context.Context, lead *entity.Lead, providerID string, now time.Time) (*entity.LeadPurchase, error) {
	args := m.Called(ctx, lead, providerID, now)
	if p := args.Get(0); p != nil {
		return p.(*entity.LeadPurchase), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCreditLedger struct {
	mock.Mock
}

func (m *MockCreditLedger) Balance(ctx context.Context, providerID string) (int, error) {
	args := m.Called(ctx, providerID)
	return args.Int(0), args.Error(1)
}

type MockCandidateRepository struct {
	mock.Mock
}

func (m *MockCandidateRepository) FindEligible(ctx context.Context, lead *entity.Lead) ([]entity.Candidate, error) {
	args := m.Called(ctx, lead)
	if c := args.Get(0); c != nil {
		return c.([]entity.Candidate), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCandidateRepository) FindCategory(ctx context.Context, id string) (*entity.Category, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*entity.Category), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCandidateRepository) FindOwnerIdentity(ctx context.Context, userID string) (*entity.OwnerIdentity, error) {
	args := m.Called(ctx, userID)
	if o := args.Get(0); o != nil {
		return o.(*entity.OwnerIdentity), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockNotificationProducer struct {
	mock.Mock
}

func (m *MockNotificationProducer) PublishNotification(ctx context.Context, payload queue.NotificationPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
