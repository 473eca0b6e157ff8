package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/uslugar/lead-exchange/internal/entity"
	"github.com/uslugar/lead-exchange/internal/usecase"
)

func newMockRepo(t *testing.T) (*QueueRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := NewQueueRepository(db, NewCreditLedger(db), 24*time.Hour, 3)
	return repo, mock, func() { db.Close() }
}

func entryRow(e *entity.QueueEntry) *sqlmock.Rows {
	nullable := func(t *time.Time) interface{} {
		if t == nil {
			return nil
		}
		return *t
	}
	return sqlmock.NewRows([]string{
		"id", "lead_id", "provider_id", "position", "status", "response",
		"offered_at", "expires_at", "responded_at", "created_at", "updated_at",
	}).AddRow(
		e.ID, e.LeadID, e.ProviderID, e.Position, string(e.Status), nil,
		nullable(e.OfferedAt), nullable(e.ExpiresAt), nullable(e.RespondedAt), e.CreatedAt, e.UpdatedAt,
	)
}

func expectLock(mock sqlmock.Sqlmock, leadID string) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM lead_queue WHERE lead_id = $1 FOR UPDATE`)).
		WithArgs(leadID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("entry-1"))
}

func TestCreateBatchInsertsAllEntries(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	first := entity.NewQueueEntry("lead-1", "prov-1", 1)
	first.Offer(time.Now(), 24*time.Hour)
	second := entity.NewQueueEntry("lead-1", "prov-2", 2)

	mock.ExpectBegin()
	insert := regexp.QuoteMeta(`INSERT INTO lead_queue`)
	mock.ExpectExec(insert).
		WithArgs(first.ID, "lead-1", "prov-1", 1, string(entity.QueueOffered), "",
			first.OfferedAt, first.ExpiresAt, nil, first.CreatedAt, first.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insert).
		WithArgs(second.ID, "lead-1", "prov-2", 2, string(entity.QueueWaiting), "",
			nil, nil, nil, second.CreatedAt, second.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateBatch(context.Background(), []*entity.QueueEntry{first, second})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatchDuplicateRollsBack(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	entry := entity.NewQueueEntry("lead-1", "prov-1", 1)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lead_queue`)).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), []*entity.QueueEntry{entry})

	assert.ErrorIs(t, err, usecase.ErrDuplicateQueue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclineAndAdvanceOffersNextPosition(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()
	next := entity.NewQueueEntry("lead-1", "prov-2", 2)

	mock.ExpectBegin()
	expectLock(mock, "lead-1")
	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'DECLINED', response = 'NOT_INTERESTED'`)).
		WithArgs(now, "lead-1", "prov-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE lead_id = $1 AND status = 'WAITING'`)).
		WithArgs("lead-1").
		WillReturnRows(entryRow(next))
	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'OFFERED', offered_at = $1, expires_at = $2`)).
		WithArgs(now, now.Add(24*time.Hour), next.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	advance, err := repo.DeclineAndAdvance(context.Background(), "lead-1", "prov-1", now)

	assert.NoError(t, err)
	assert.NotNil(t, advance.Offered)
	assert.Equal(t, "prov-2", advance.Offered.ProviderID)
	assert.Equal(t, entity.QueueOffered, advance.Offered.Status)
	assert.False(t, advance.LeadExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclineAndAdvanceStaleOfferRollsBack(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()

	mock.ExpectBegin()
	expectLock(mock, "lead-1")
	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'DECLINED', response = 'NOT_INTERESTED'`)).
		WithArgs(now, "lead-1", "prov-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.DeclineAndAdvance(context.Background(), "lead-1", "prov-1", now)

	assert.ErrorIs(t, err, usecase.ErrStaleOffer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireAndAdvanceRaceLostIsANoOp(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()

	mock.ExpectBegin()
	expectLock(mock, "lead-1")
	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'EXPIRED', response = 'NO_RESPONSE'`)).
		WithArgs(now, "entry-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	expired, advance, err := repo.ExpireAndAdvance(context.Background(), "entry-1", "lead-1", now)

	assert.NoError(t, err)
	assert.False(t, expired)
	assert.Nil(t, advance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireAndAdvanceExhaustsLeadAfterMaxRejections(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()

	mock.ExpectBegin()
	expectLock(mock, "lead-1")
	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'EXPIRED', response = 'NO_RESPONSE'`)).
		WithArgs(now, "entry-3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE lead_id = $1 AND status = 'WAITING'`)).
		WithArgs("lead-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"})) // queue has run dry
	mock.ExpectQuery(regexp.QuoteMeta(`status IN ('DECLINED', 'EXPIRED')`)).
		WithArgs("lead-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`SET lead_status = 'EXPIRED', quality_score = 0`)).
		WithArgs(now, "lead-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expired, advance, err := repo.ExpireAndAdvance(context.Background(), "entry-3", "lead-1", now)

	assert.NoError(t, err)
	assert.True(t, expired)
	assert.Nil(t, advance.Offered)
	assert.True(t, advance.LeadExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func purchaseLead() *entity.Lead {
	return &entity.Lead{
		ID:         "lead-1",
		OwnerID:    "client-1",
		CategoryID: "cat-1",
		Title:      "Bathroom renovation",
		City:       "Zagreb",
		LeadPrice:  10,
		LeadStatus: entity.LeadAvailable,
	}
}

func TestExecutePurchaseCommitsTheFullSequence(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()
	lead := purchaseLead()
	entry := entity.NewQueueEntry("lead-1", "prov-1", 1)
	entry.Offer(now, 24*time.Hour)

	mock.ExpectBegin()
	expectLock(mock, "lead-1")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM lead_queue WHERE lead_id = $1 AND provider_id = $2`)).
		WithArgs("lead-1", "prov-1").
		WillReturnRows(entryRow(entry))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE subscriptions`)).
		WithArgs(10, "prov-1").
		WillReturnRows(sqlmock.NewRows([]string{"credits_balance"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO credit_transactions`)).
		WithArgs(sqlmock.AnyArg(), "prov-1", entity.CreditTxLeadPurchase, -10, 5,
			"Exclusive lead purchase: Bathroom renovation", "lead-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lead_purchases`)).
		WithArgs(sqlmock.AnyArg(), "lead-1", "prov-1", 10, 10, string(entity.PurchaseActive), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`SET lead_status = 'ASSIGNED', assigned_provider_id = $1`)).
		WithArgs("prov-1", now, "lead-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'ACCEPTED', response = 'INTERESTED'`)).
		WithArgs(now, entry.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'SKIPPED'`)).
		WithArgs(now, "lead-1", entry.ID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	purchase, err := repo.ExecutePurchase(context.Background(), lead, "prov-1", now)

	assert.NoError(t, err)
	assert.Equal(t, "prov-1", purchase.ProviderID)
	assert.Equal(t, 10, purchase.CreditsSpent)
	assert.Equal(t, entity.PurchaseActive, purchase.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutePurchaseInsufficientCreditsRollsBack(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()
	entry := entity.NewQueueEntry("lead-1", "prov-1", 1)
	entry.Offer(now, 24*time.Hour)

	mock.ExpectBegin()
	expectLock(mock, "lead-1")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM lead_queue WHERE lead_id = $1 AND provider_id = $2`)).
		WithArgs("lead-1", "prov-1").
		WillReturnRows(entryRow(entry))
	// conditional debit matches no row: balance below the price
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE subscriptions`)).
		WithArgs(10, "prov-1").
		WillReturnRows(sqlmock.NewRows([]string{"credits_balance"}))
	mock.ExpectRollback()

	_, err := repo.ExecutePurchase(context.Background(), purchaseLead(), "prov-1", now)

	assert.ErrorIs(t, err, usecase.ErrInsufficientCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutePurchaseStaleEntryRollsBack(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	now := time.Now()
	entry := entity.NewQueueEntry("lead-1", "prov-1", 1) // still WAITING under the lock

	mock.ExpectBegin()
	expectLock(mock, "lead-1")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM lead_queue WHERE lead_id = $1 AND provider_id = $2`)).
		WithArgs("lead-1", "prov-1").
		WillReturnRows(entryRow(entry))
	mock.ExpectRollback()

	_, err := repo.ExecutePurchase(context.Background(), purchaseLead(), "prov-1", now)

	assert.ErrorIs(t, err, usecase.ErrStaleOffer)
	assert.NoError(t, mock.ExpectationsWereMet())
}
