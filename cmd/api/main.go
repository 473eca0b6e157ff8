package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uslugar/lead-exchange/internal/config"
	"github.com/uslugar/lead-exchange/internal/infra/database"
	"github.com/uslugar/lead-exchange/internal/infra/http/handlers"
	"github.com/uslugar/lead-exchange/internal/infra/http/middleware"
	"github.com/uslugar/lead-exchange/internal/infra/mail"
	"github.com/uslugar/lead-exchange/internal/infra/queue"
	"github.com/uslugar/lead-exchange/internal/infra/worker"
	"github.com/uslugar/lead-exchange/internal/usecase"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitUser, cfg.RabbitPass, cfg.RabbitHost, cfg.RabbitPort)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)
	candidateRepo := database.NewCandidateRepository(db)
	ledger := database.NewCreditLedger(db)
	queueRepo := database.NewQueueRepository(db, ledger, cfg.OfferTTL, cfg.MaxDeclines)
	purchaseRepo := database.NewPurchaseRepository(db)
	directory := database.NewUserDirectory(db)

	// 2. Notification side channel
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	mailSender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)

	notificationWorker := queue.NewWorker(rabbitMQ.Ch, mailSender, directory)
	go notificationWorker.Start(queue.QueueName)

	// 3. UseCases
	ranker := usecase.NewRankProvidersUseCase(candidateRepo, cfg.Weights)
	createQueueUC := usecase.NewCreateQueueUseCase(leadRepo, queueRepo, ranker, producer, cfg.OfferTTL)
	respondUC := usecase.NewRespondToOfferUseCase(leadRepo, queueRepo, ledger, producer, cfg.OfferTTL)
	statusUC := usecase.NewGetQueueStatusUseCase(queueRepo)
	sweepUC := usecase.NewSweepExpiredUseCase(leadRepo, queueRepo, producer, cfg.OfferTTL)

	// 4. Expiry sweeper
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := worker.NewOfferExpirationWorker(sweepUC, cfg.SweepInterval)
	go sweeper.Start(ctx)

	// 5. Handlers
	queueHandler := handlers.NewQueueHandler(createQueueUC, respondUC, statusUC, purchaseRepo, cfg.QueueLimit)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/leads/{leadId}/queue", queueHandler.HandleCreate)
	r.Get("/leads/{leadId}/queue", queueHandler.HandleStatus)
	r.Post("/leads/{leadId}/respond", queueHandler.HandleRespond)
	r.Get("/leads/{leadId}/purchase", queueHandler.HandlePurchase)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	log.Printf("🔥 Lead exchange listening on %s", cfg.HTTPAddr)
	http.ListenAndServe(cfg.HTTPAddr, r)
}
