package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/uslugar/lead-exchange/internal/entity"
	"github.com/uslugar/lead-exchange/internal/infra/queue"
)

// Notification dispatch is best-effort and happens strictly after the
// database commit: a publish failure is logged and never bubbles up.

func notifyOffer(ctx context.Context, producer queue.NotificationProducerInterface, lead *entity.Lead, entry *entity.QueueEntry, ttl time.Duration) {
	if producer == nil || entry == nil {
		return
	}
	payload := queue.NotificationPayload{
		UserID: entry.ProviderID,
		Kind:   queue.KindNewJob,
		Title:  "🎯 New exclusive lead available!",
		Message: fmt.Sprintf("%s in %s. Price: %d credits. You have %dh to respond.",
			lead.Title, lead.City, lead.LeadPrice, int(ttl.Hours())),
		LeadID: lead.ID,
	}
	if err := producer.PublishNotification(ctx, payload); err != nil {
		log.Printf("⚠️ [NOTIFY] offer notification for lead %s failed: %v", lead.ID, err)
	}
}

func notifyLeadExhausted(ctx context.Context, producer queue.NotificationProducerInterface, lead *entity.Lead) {
	if producer == nil {
		return
	}
	payload := queue.NotificationPayload{
		UserID: lead.OwnerID,
		Kind:   queue.KindSystem,
		Title:  "⚠️ Your listing needs revision",
		Message: fmt.Sprintf("Several providers passed on your listing %q. Consider revising the description, price or location.",
			lead.Title),
		LeadID: lead.ID,
	}
	if err := producer.PublishNotification(ctx, payload); err != nil {
		log.Printf("⚠️ [NOTIFY] exhaustion notification for lead %s failed: %v", lead.ID, err)
	}
}

func notifyPurchase(ctx context.Context, producer queue.NotificationProducerInterface, lead *entity.Lead, purchase *entity.LeadPurchase) {
	if producer == nil {
		return
	}
	receipt := queue.NotificationPayload{
		UserID: purchase.ProviderID,
		Kind:   queue.KindSystem,
		Title:  "Lead purchased",
		Message: fmt.Sprintf("Spent %d credits on the exclusive lead %q.",
			purchase.CreditsSpent, lead.Title),
		LeadID: lead.ID,
	}
	if err := producer.PublishNotification(ctx, receipt); err != nil {
		log.Printf("⚠️ [NOTIFY] purchase receipt for lead %s failed: %v", lead.ID, err)
	}

	assigned := queue.NotificationPayload{
		UserID: lead.OwnerID,
		Kind:   queue.KindSystem,
		Title:  "✅ A provider took your job",
		Message: fmt.Sprintf("Your listing %q was accepted. The provider will contact you shortly.",
			lead.Title),
		LeadID: lead.ID,
	}
	if err := producer.PublishNotification(ctx, assigned); err != nil {
		log.Printf("⚠️ [NOTIFY] assignment notification for lead %s failed: %v", lead.ID, err)
	}
}
