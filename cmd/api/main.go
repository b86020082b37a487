package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ntdung97/spacebook/internal/adapter/eventbridge"
	"github.com/ntdung97/spacebook/internal/adapter/handler"
	"github.com/ntdung97/spacebook/internal/adapter/notifier"
	"github.com/ntdung97/spacebook/internal/adapter/payment/payos"
	"github.com/ntdung97/spacebook/internal/adapter/realtime"
	"github.com/ntdung97/spacebook/internal/adapter/repository/postgres"
	"github.com/ntdung97/spacebook/internal/adapter/scheduler/redisq"
	"github.com/ntdung97/spacebook/internal/core/domain"
	"github.com/ntdung97/spacebook/internal/core/ports"
	"github.com/ntdung97/spacebook/internal/core/services"
	"github.com/ntdung97/spacebook/internal/platform/bus"
	"github.com/ntdung97/spacebook/internal/platform/config"
	"github.com/ntdung97/spacebook/internal/platform/database"
	"github.com/ntdung97/spacebook/internal/platform/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdownTracer := obs.InitTracer("spacebook-api", cfg.OTLPEndpoint)

	db, err := database.NewPostgresDB(database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	})
	if err != nil {
		log.Fatalf("Failed to connect to db after retries: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	defer db.Close()

	log.Printf("Connecting to Redis at %s:%s...", cfg.RedisHost, cfg.RedisPort)

	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		DB:   0,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Redis connected successfully!")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Adapters
	bookingRepo := postgres.NewBookingRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	directory := postgres.NewDirectory(db)

	scheduler := redisq.New(redisClient)
	eventBus := bus.New(256)
	hub := realtime.NewHub(messageRepo)
	gateway := realtime.NewGateway(hub, cfg.JWTSecret)

	provider := payos.NewClient(
		cfg.PayOSBaseURL, cfg.PayOSClientID, cfg.PayOSAPIKey,
		cfg.PayOSChecksumKey, cfg.PaymentReturnURL, cfg.PaymentCancelURL,
	)

	var emailSender ports.EmailSender = notifier.LogEmailSender{}
	if cfg.SMTPAddr != "" {
		emailSender = notifier.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPassword)
	}
	var smsSender ports.SMSSender = notifier.LogSMSSender{}
	if cfg.SMSGatewayURL != "" {
		smsSender = notifier.NewHTTPSMSSender(cfg.SMSGatewayURL, cfg.SMSAPIKey)
	}

	// Services
	lifecycle, err := services.NewLifecycleService(
		bookingRepo, paymentRepo, scheduler, eventBus, provider,
		time.Duration(cfg.ReminderLeadMinutes)*time.Minute,
	)
	if err != nil {
		log.Fatalf("Failed to init lifecycle service: %v", err)
	}

	fanout := services.NewNotificationService(
		notificationRepo, directory, hub, scheduler, emailSender, smsSender,
	)
	fanout.Register(eventBus)

	scheduler.Register(domain.JobKindExpireBooking, lifecycle.HandleExpireJob)
	scheduler.Register(domain.JobKindPaymentReminder, lifecycle.HandleReminderJob)
	scheduler.Register(domain.JobKindNotifyEmail, fanout.HandleEmailJob)
	scheduler.Register(domain.JobKindNotifySMS, fanout.HandleSMSJob)

	if cfg.RabbitURL != "" {
		bridge, err := eventbridge.New(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			log.Fatalf("Failed to connect event bridge: %v", err)
		}
		defer bridge.Close()
		bridge.Attach(eventBus)
		log.Printf("Event bridge attached to exchange %s", cfg.RabbitExchange)
	}

	go eventBus.Run(ctx)
	for i := 0; i < cfg.SchedulerWorkers; i++ {
		go scheduler.Run(ctx)
	}

	router := handler.NewRouter(
		cfg.JWTSecret,
		handler.NewBookingHandler(lifecycle),
		handler.NewWebhookHandler(lifecycle, cfg.PayOSChecksumKey),
		handler.NewNotificationHandler(fanout),
		gateway,
	)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	select {
	case <-eventBus.Done():
	case <-shutdownCtx.Done():
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("Tracer shutdown: %v", err)
	}

	log.Println("Server exiting")
}
