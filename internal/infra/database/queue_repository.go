package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/uslugar/lead-exchange/internal/entity"
	"github.com/uslugar/lead-exchange/internal/usecase"
)

// QueueRepository owns the lead_queue rows and every multi-row mutation on
// them. All transitions that touch more than one row run inside a single
// transaction with the lead's queue rows locked FOR UPDATE, which is what
// keeps "at most one OFFERED" and "at most one ACCEPTED" true when a
// response races the expiry sweep.
type QueueRepository struct {
	DB          *sql.DB
	Ledger      *CreditLedger
	OfferTTL    time.Duration
	MaxDeclines int
}

func NewQueueRepository(db *sql.DB, ledger *CreditLedger, offerTTL time.Duration, maxDeclines int) *QueueRepository {
	return &QueueRepository{
		DB:          db,
		Ledger:      ledger,
		OfferTTL:    offerTTL,
		MaxDeclines: maxDeclines,
	}
}

const entryColumns = `id, lead_id, provider_id, position, status, response, offered_at, expires_at, responded_at, created_at, updated_at`

func (r *QueueRepository) CreateBatch(ctx context.Context, entries []*entity.QueueEntry) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO lead_queue (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11)
	`

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, query,
			e.ID,
			e.LeadID,
			e.ProviderID,
			e.Position,
			e.Status,
			string(e.Response),
			e.OfferedAt,
			e.ExpiresAt,
			e.RespondedAt,
			e.CreatedAt,
			e.UpdatedAt,
		)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return usecase.ErrDuplicateQueue
			}
			return fmt.Errorf("failed to insert queue entry at position %d: %w", e.Position, err)
		}
	}

	return tx.Commit()
}

func (r *QueueRepository) FindByLeadAndProvider(ctx context.Context, leadID, providerID string) (*entity.QueueEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM lead_queue WHERE lead_id = $1 AND provider_id = $2`

	entry, err := scanEntry(r.DB.QueryRowContext(ctx, query, leadID, providerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *QueueRepository) ListByLead(ctx context.Context, leadID string) ([]entity.QueueEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM lead_queue WHERE lead_id = $1 ORDER BY position ASC`
	return r.queryEntries(ctx, query, leadID)
}

func (r *QueueRepository) ListExpiredOffers(ctx context.Context, now time.Time) ([]entity.QueueEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM lead_queue WHERE status = 'OFFERED' AND expires_at < $1`
	return r.queryEntries(ctx, query, now)
}

// DeclineAndAdvance flips the provider's OFFERED entry to DECLINED and
// offers the lead to the next position, all in one transaction. A zero-row
// decline means someone (the sweeper, usually) got there first.
func (r *QueueRepository) DeclineAndAdvance(ctx context.Context, leadID, providerID string, now time.Time) (*entity.AdvanceResult, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := r.lockQueue(ctx, tx, leadID); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE lead_queue
		SET status = 'DECLINED', response = 'NOT_INTERESTED', responded_at = $1, updated_at = $1
		WHERE lead_id = $2 AND provider_id = $3 AND status = 'OFFERED'
	`, now, leadID, providerID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, usecase.ErrStaleOffer
	}

	advance, err := r.advance(ctx, tx, leadID, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return advance, nil
}

// ExpireAndAdvance marks an OFFERED entry as timed out and advances the
// queue. The conditional update makes it race-safe: when a late response
// or a concurrent sweep already moved the entry on, this is a no-op and
// the first return value is false.
func (r *QueueRepository) ExpireAndAdvance(ctx context.Context, entryID, leadID string, now time.Time) (bool, *entity.AdvanceResult, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, nil, err
	}
	defer tx.Rollback()

	if err := r.lockQueue(ctx, tx, leadID); err != nil {
		return false, nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE lead_queue
		SET status = 'EXPIRED', response = 'NO_RESPONSE', updated_at = $1
		WHERE id = $2 AND status = 'OFFERED'
	`, now, entryID)
	if err != nil {
		return false, nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, nil, err
	}
	if affected == 0 {
		return false, nil, tx.Commit()
	}

	advance, err := r.advance(ctx, tx, leadID, now)
	if err != nil {
		return false, nil, err
	}

	if err := tx.Commit(); err != nil {
		return false, nil, err
	}
	return true, advance, nil
}

// ExecutePurchase is the exclusive purchase: debit, audit row, purchase
// record, lead assignment, entry acceptance and sibling invalidation as
// one all-or-nothing unit. Any failure rolls the whole thing back and the
// entry stays OFFERED.
func (r *QueueRepository) ExecutePurchase(ctx context.Context, lead *entity.Lead, providerID string, now time.Time) (*entity.LeadPurchase, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := r.lockQueue(ctx, tx, lead.ID); err != nil {
		return nil, err
	}

	// re-check under the lock: the precheck in respond() is advisory only
	entry, err := scanEntry(tx.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM lead_queue WHERE lead_id = $1 AND provider_id = $2`,
		lead.ID, providerID))
	if err == sql.ErrNoRows {
		return nil, usecase.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if entry.Status != entity.QueueOffered || entry.IsExpired(now) {
		return nil, usecase.ErrStaleOffer
	}

	memo := fmt.Sprintf("Exclusive lead purchase: %s", lead.Title)
	if _, err := r.Ledger.DebitTx(ctx, tx, providerID, lead.LeadPrice, memo, lead.ID); err != nil {
		return nil, err
	}

	purchase := entity.NewLeadPurchase(lead.ID, providerID, lead.LeadPrice)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO lead_purchases (id, lead_id, provider_id, credits_spent, lead_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, purchase.ID, purchase.LeadID, purchase.ProviderID, purchase.CreditsSpent, purchase.LeadPrice, purchase.Status, purchase.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead purchase: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE leads
		SET lead_status = 'ASSIGNED', assigned_provider_id = $1, updated_at = $2
		WHERE id = $3
	`, providerID, now, lead.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign lead: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE lead_queue
		SET status = 'ACCEPTED', response = 'INTERESTED', responded_at = $1, updated_at = $1
		WHERE id = $2
	`, now, entry.ID)
	if err != nil {
		return nil, err
	}

	// one batch write, not a loop: siblings must flip with the acceptance
	_, err = tx.ExecContext(ctx, `
		UPDATE lead_queue
		SET status = 'SKIPPED', updated_at = $1
		WHERE lead_id = $2 AND id <> $3 AND status IN ('WAITING', 'OFFERED')
	`, now, lead.ID, entry.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return purchase, nil
}

// lockQueue serializes every multi-row mutation for one lead. Different
// leads proceed fully in parallel.
func (r *QueueRepository) lockQueue(ctx context.Context, tx *sql.Tx, leadID string) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM lead_queue WHERE lead_id = $1 FOR UPDATE`, leadID)
	if err != nil {
		return err
	}
	return rows.Close()
}

// advance offers the lead to the lowest WAITING position, or, when the
// queue has run dry after enough declines/expiries, expires the lead and
// zeroes its quality score. Exhaustion is a business outcome, not an error.
func (r *QueueRepository) advance(ctx context.Context, tx *sql.Tx, leadID string, now time.Time) (*entity.AdvanceResult, error) {
	next, err := scanEntry(tx.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM lead_queue
		WHERE lead_id = $1 AND status = 'WAITING'
		ORDER BY position ASC
		LIMIT 1
	`, leadID))
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	if next != nil {
		expires := now.Add(r.OfferTTL)
		_, err := tx.ExecContext(ctx, `
			UPDATE lead_queue
			SET status = 'OFFERED', offered_at = $1, expires_at = $2, updated_at = $1
			WHERE id = $3
		`, now, expires, next.ID)
		if err != nil {
			return nil, err
		}
		next.Status = entity.QueueOffered
		next.OfferedAt = &now
		next.ExpiresAt = &expires
		next.UpdatedAt = now
		return &entity.AdvanceResult{Offered: next}, nil
	}

	var rejected int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM lead_queue
		WHERE lead_id = $1 AND status IN ('DECLINED', 'EXPIRED')
	`, leadID).Scan(&rejected)
	if err != nil {
		return nil, err
	}

	if rejected < r.MaxDeclines {
		return &entity.AdvanceResult{}, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE leads
		SET lead_status = 'EXPIRED', quality_score = 0, updated_at = $1
		WHERE id = $2
	`, now, leadID)
	if err != nil {
		return nil, err
	}
	return &entity.AdvanceResult{LeadExhausted: true}, nil
}

func (r *QueueRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]entity.QueueEntry, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []entity.QueueEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*entity.QueueEntry, error) {
	var e entity.QueueEntry
	var response sql.NullString
	var offeredAt, expiresAt, respondedAt sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.LeadID,
		&e.ProviderID,
		&e.Position,
		&e.Status,
		&response,
		&offeredAt,
		&expiresAt,
		&respondedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if response.Valid {
		e.Response = entity.OfferResponse(response.String)
	}
	if offeredAt.Valid {
		e.OfferedAt = &offeredAt.Time
	}
	if expiresAt.Valid {
		e.ExpiresAt = &expiresAt.Time
	}
	if respondedAt.Valid {
		e.RespondedAt = &respondedAt.Time
	}

	return &e, nil
}
