// cmd/worker/main.go
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/davencourt/mailliste-backend/internal/config"
	"github.com/davencourt/mailliste-backend/internal/db"
	"github.com/davencourt/mailliste-backend/internal/mailer"
	"github.com/davencourt/mailliste-backend/internal/queue"
	"github.com/davencourt/mailliste-backend/internal/repository"
	"github.com/davencourt/mailliste-backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}
	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required for the worker")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database:", err)
	}
	defer database.Close()

	contactRepo := &repository.ContactRepository{DB: database}
	campaignRepo := &repository.CampaignRepository{DB: database}
	messageRepo := &repository.MessageRepository{DB: database}

	runner := &service.CampaignRunner{
		CampaignRepo: campaignRepo,
		MessageRepo:  messageRepo,
		ContactRepo:  contactRepo,
		Unsubscribes: &service.UnsubscribeService{
			ContactRepo: contactRepo,
			SecretKey:   cfg.SecretKey,
			BaseURL:     cfg.BaseURL,
		},
		Mailer:        mailer.NewSMTPMailer(cfg),
		SenderEmail:   cfg.Mail.SenderEmail,
		RatePerMinute: cfg.Mail.RatePerMinute,
	}

	q, err := queue.NewAMQPQueue(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer q.Close()

	// Prefetch 1 in the AMQP consumer keeps campaigns serial, so the send
	// rate budget holds across concurrent campaigns.
	err = q.Subscribe(queue.CampaignSendsQueue, func(payload any) error {
		job, ok := payload.(queue.CampaignJob)
		if !ok {
			log.Println("⚠️ invalid campaign job payload")
			return nil
		}
		log.Println("📩 Running campaign", job.CampaignID)
		return runner.Run(job.CampaignID)
	})
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	log.Println("Worker running, waiting for campaigns...")
	select {}
}
