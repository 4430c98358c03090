// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/davencourt/mailliste-backend/internal/auth"
	"github.com/davencourt/mailliste-backend/internal/config"
	"github.com/davencourt/mailliste-backend/internal/controller"
	"github.com/davencourt/mailliste-backend/internal/db"
	"github.com/davencourt/mailliste-backend/internal/mailer"
	"github.com/davencourt/mailliste-backend/internal/queue"
	"github.com/davencourt/mailliste-backend/internal/repository"
	"github.com/davencourt/mailliste-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database:", err)
	}
	defer database.Close()

	contactRepo := &repository.ContactRepository{DB: database}
	listRepo := &repository.ListRepository{DB: database}
	campaignRepo := &repository.CampaignRepository{DB: database}
	messageRepo := &repository.MessageRepository{DB: database}
	userRepo := &repository.UserRepository{DB: database}

	smtpMailer := mailer.NewSMTPMailer(cfg)

	unsubscribeService := &service.UnsubscribeService{
		ContactRepo: contactRepo,
		SecretKey:   cfg.SecretKey,
		BaseURL:     cfg.BaseURL,
	}

	// Without an AMQP broker the server runs its own send loop in-process.
	var q queue.Queue
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.NewAMQPQueue(cfg.AMQPURL)
		if err != nil {
			log.Fatal("queue:", err)
		}
		defer amqpQueue.Close()
		q = amqpQueue
	} else {
		log.Println("⚠️ AMQP_URL not set, sending campaigns in-process")
		mem := queue.NewInMemoryQueue()
		runner := &service.CampaignRunner{
			CampaignRepo:  campaignRepo,
			MessageRepo:   messageRepo,
			ContactRepo:   contactRepo,
			Unsubscribes:  unsubscribeService,
			Mailer:        smtpMailer,
			SenderEmail:   cfg.Mail.SenderEmail,
			RatePerMinute: cfg.Mail.RatePerMinute,
		}
		mem.Subscribe(queue.CampaignSendsQueue, func(payload any) error {
			job, ok := payload.(queue.CampaignJob)
			if !ok {
				log.Println("⚠️ invalid campaign job payload")
				return nil
			}
			return runner.Run(job.CampaignID)
		})
		q = mem
	}

	contactService := &service.ContactService{ContactRepo: contactRepo, ListRepo: listRepo}
	listService := &service.ListService{ListRepo: listRepo}
	importService := &service.ImportService{ContactRepo: contactRepo, ListRepo: listRepo}
	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		MessageRepo:  messageRepo,
		ContactRepo:  contactRepo,
		ListRepo:     listRepo,
		Queue:        q,
	}

	sessions := auth.NewSessionStore(userRepo)

	router := controller.NewRouter(controller.Controllers{
		Auth:        &controller.AuthController{Sessions: sessions},
		Contact:     &controller.ContactController{ContactService: contactService, UnsubscribeService: unsubscribeService},
		List:        &controller.ListController{ListService: listService},
		Import:      &controller.ImportController{ImportService: importService},
		Campaign:    &controller.CampaignController{CampaignService: campaignService, Mailer: smtpMailer},
		Unsubscribe: &controller.UnsubscribeController{Unsubscribes: unsubscribeService},
		Sessions:    sessions,
	})

	log.Println("🚀 Server running on", cfg.ServerAddress)
	log.Fatal(http.ListenAndServe(cfg.ServerAddress, router))
}
