package worker

import (
	"context"
	"log"
	"time"

	"github.com/uslugar/lead-exchange/internal/infra/http/middleware"
	"github.com/uslugar/lead-exchange/internal/usecase"
)

// OfferExpirationWorker is the eager half of the 24h offer window: it
// periodically sweeps timed-out offers and advances their queues. The
// lazy half lives in respond(), which checks the same expiresAt.
type OfferExpirationWorker struct {
	sweeper      *usecase.SweepExpiredUseCase
	tickInterval time.Duration
}

func NewOfferExpirationWorker(sweeper *usecase.SweepExpiredUseCase, tickInterval time.Duration) *OfferExpirationWorker {
	return &OfferExpirationWorker{
		sweeper:      sweeper,
		tickInterval: tickInterval,
	}
}

func (w *OfferExpirationWorker) Start(ctx context.Context) {
	log.Printf("🕒 offer expiration worker started (every %s)", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ offer expiration worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *OfferExpirationWorker) sweep(ctx context.Context) {
	advanced, err := w.sweeper.Execute(ctx, time.Now())
	if err != nil {
		log.Printf("❌ [SWEEP] sweep run failed: %v", err)
		return
	}
	if advanced > 0 {
		middleware.RecordOffersExpired(advanced)
		log.Printf("⏰ [SWEEP] sweep run advanced %d queue(s)", advanced)
	}
}
