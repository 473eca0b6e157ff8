package usecase

import "errors"

// Domain errors surfaced to callers. Everything here is detected before
// the transactional commit point; nothing partially applies.
var (
	// validation
	ErrInvalidResponse = errors.New("invalid response value")
	ErrDuplicateQueue  = errors.New("a queue already exists for this lead")

	// authorization
	ErrUnauthorized = errors.New("this offer does not belong to you")

	// concurrency / staleness: recoverable, re-check queue status
	ErrStaleOffer = errors.New("offer is no longer active")

	// resource: the entry stays OFFERED so the provider can retry
	ErrInsufficientCredits = errors.New("not enough credits to purchase this lead")
	ErrLedgerUnavailable   = errors.New("credit ledger unavailable")

	ErrNoEligibleCandidates = errors.New("no eligible providers found for this lead")
	ErrLeadNotFound         = errors.New("lead not found")
)
