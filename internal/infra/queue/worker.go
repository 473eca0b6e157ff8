package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationChannel is one delivery medium (email today; push/SMS later).
type NotificationChannel interface {
	Deliver(ctx context.Context, to string, payload NotificationPayload) error
}

// RecipientDirectory resolves a user id to a deliverable address.
type RecipientDirectory interface {
	FindEmail(ctx context.Context, userID string) (string, error)
}

type Worker struct {
	Channel   *amqp.Channel
	Delivery  NotificationChannel
	Directory RecipientDirectory
}

func NewWorker(ch *amqp.Channel, delivery NotificationChannel, directory RecipientDirectory) *Worker {
	return &Worker{
		Channel:   ch,
		Delivery:  delivery,
		Directory: directory,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual is safer)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		log.Fatalf("❌ [WORKER] failed to register RabbitMQ consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload NotificationPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("❌ [WORKER] malformed notification: %s", err)
				// rotten message, reject without requeue
				d.Nack(false, false)
				continue
			}

			log.Printf("📥 [WORKER] delivering %s notification to user %s", payload.Kind, payload.UserID)

			if err := w.deliver(context.Background(), payload); err != nil {
				log.Printf("❌ [WORKER] delivery failed: %s", err)
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}()

	log.Printf(" [*] notification worker waiting on queue '%s'", queueName)
	<-forever
}

func (w *Worker) deliver(ctx context.Context, payload NotificationPayload) error {
	email, err := w.Directory.FindEmail(ctx, payload.UserID)
	if err != nil {
		return err
	}
	return w.Delivery.Deliver(ctx, email, payload)
}
