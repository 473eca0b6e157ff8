package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/uslugar/lead-exchange/internal/entity"
	"github.com/uslugar/lead-exchange/internal/usecase"
)

// CreditLedger fronts the subscriptions credit balance and its audit
// trail. Debits are conditional ("balance must cover the amount") and
// tx-scoped so the purchase coordinator can fold them into the queue
// transaction: either everything commits or nothing does.
type CreditLedger struct {
	DB *sql.DB
}

func NewCreditLedger(db *sql.DB) *CreditLedger {
	return &CreditLedger{DB: db}
}

func (l *CreditLedger) Balance(ctx context.Context, providerID string) (int, error) {
	var balance int
	err := l.DB.QueryRowContext(ctx,
		`SELECT credits_balance FROM subscriptions WHERE user_id = $1`, providerID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		// no subscription means no credits, not an error
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// DebitTx removes amount credits and appends the LEAD_PURCHASE audit row
// inside the caller's transaction. Zero rows updated means the balance
// did not cover the amount.
func (l *CreditLedger) DebitTx(ctx context.Context, tx *sql.Tx, providerID string, amount int, memo, relatedLeadID string) (int, error) {
	var newBalance int
	err := tx.QueryRowContext(ctx, `
		UPDATE subscriptions
		SET credits_balance = credits_balance - $1,
		    lifetime_credits_used = lifetime_credits_used + $1,
		    updated_at = NOW()
		WHERE user_id = $2 AND credits_balance >= $1
		RETURNING credits_balance
	`, amount, providerID).Scan(&newBalance)
	if err == sql.ErrNoRows {
		return 0, usecase.ErrInsufficientCredits
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", usecase.ErrLedgerUnavailable, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (id, user_id, type, amount, balance, description, related_lead_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New().String(), providerID, entity.CreditTxLeadPurchase, -amount, newBalance, memo, relatedLeadID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", usecase.ErrLedgerUnavailable, err)
	}

	return newBalance, nil
}
