package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gala-ticketing/internal/attendees"
	attendees_db "gala-ticketing/internal/attendees/db"
	"gala-ticketing/internal/attendees/qr"
	"gala-ticketing/internal/auth"
	auth_db "gala-ticketing/internal/auth/db"
	"gala-ticketing/internal/catalog"
	catalog_db "gala-ticketing/internal/catalog/db"
	"gala-ticketing/internal/config"
	"gala-ticketing/internal/database"
	"gala-ticketing/internal/fulfillment"
	fulfillment_db "gala-ticketing/internal/fulfillment/db"
	"gala-ticketing/internal/kafka"
	"gala-ticketing/internal/lock"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/notification"
	notification_db "gala-ticketing/internal/notification/db"
	"gala-ticketing/internal/order"
	order_db "gala-ticketing/internal/order/db"
	"gala-ticketing/internal/payment"
	"gala-ticketing/internal/reports"
	reports_db "gala-ticketing/internal/reports/db"
	"gala-ticketing/internal/seating"
	seating_db "gala-ticketing/internal/seating/db"
	"gala-ticketing/internal/sse"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

type orderEvents interface {
	order.KafkaPublisher
	fulfillment.Publisher
	Close() error
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Addr))
	return client, nil
}

func newEvents(cfg config.KafkaConfig, log *logger.Logger) orderEvents {
	if !cfg.Enabled {
		log.Info("KAFKA", "Kafka disabled, order events will not be published")
		return kafka.Noop{}
	}
	if err := kafka.EnsureTopicsExist(cfg.Brokers, cfg.Topics.All(), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}
	log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %v", cfg.Brokers))
	return kafka.NewProducer(cfg.Brokers, cfg.Topics, log)
}

func newGateway(cfg config.StripeConfig, log *logger.Logger) payment.Gateway {
	gw, err := payment.NewStripeGateway(cfg, log)
	if errors.Is(err, payment.ErrStripeNotConfigured) {
		log.Warn("STRIPE", "STRIPE_SECRET_KEY not set, card checkout is disabled")
		return payment.Unconfigured{}
	}
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Failed to initialise Stripe: %v", err))
	}
	return gw
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting gala ticketing initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()
	ctx := context.Background()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect: %v", err))
	}
	defer bunDB.Close()

	if err := database.Migrate(ctx, bunDB, cfg.Database, cfg.Migrations, log); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}

	var (
		locker      lock.Locker      = lock.NewLocal()
		revocations auth.Revocations = auth.NewMemoryRevocations()
	)
	if cfg.Redis.Enabled {
		redisClient, err := connectRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
		}
		defer redisClient.Close()
		locker = lock.NewRedis(redisClient, cfg.Redis.LockTTL)
		revocations = auth.NewRedisRevocations(redisClient)
	} else {
		log.Info("REDIS", "Redis disabled, using in-process fulfillment lock")
	}

	events := newEvents(cfg.Kafka, log)
	defer events.Close()

	gateway := newGateway(cfg.Stripe, log)

	emailLog := &notification_db.DB{Bun: bunDB}
	notifier := &notification.Notifier{
		Sender:     notification.NewSender(cfg.Email, log),
		Store:      emailLog,
		Logger:     log,
		From:       cfg.Email.From,
		AdminEmail: cfg.Email.AdminEmail,
		BaseURL:    cfg.App.BaseURL,
	}
	dispatcher := notification.NewDispatcher(30*time.Second, log)

	feed := sse.NewOrderFeed()
	fulfiller := fulfillment.NewService(&fulfillment_db.DB{Bun: bunDB}, locker, fulfillment.Publishers{events, feed}, notifier, dispatcher, log)

	orderService := &order.OrderService{
		DB:         &order_db.DB{Bun: bunDB},
		Gateway:    gateway,
		Fulfiller:  fulfiller,
		Kafka:      events,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Logger:     log,
		BaseURL:    cfg.App.BaseURL,
	}

	passes, err := qr.NewGenerator(cfg.App.QRSecret)
	if err != nil {
		log.Fatal("APP", fmt.Sprintf("Failed to initialise pass generator: %v", err))
	}

	users := &auth_db.DB{Bun: bunDB}
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	app := &services{
		db:        bunDB,
		catalog:   catalog.NewService(&catalog_db.DB{Bun: bunDB}, log),
		orders:    orderService,
		fulfiller: fulfiller,
		webhook:   payment.WebhookVerifier{Secret: cfg.Stripe.WebhookSecret},
		seating:   seating.NewService(&seating_db.DB{Bun: bunDB}, log),
		attendees: attendees.NewService(&attendees_db.DB{Bun: bunDB}, passes, log),
		reports:   reports.NewService(&reports_db.DB{Bun: bunDB}, log),
		auth:      auth.NewService(users, tokens, revocations, notifier, cfg.Auth.ResetTTL, log),
		emailLog:  emailLog,
		feed:      feed,
		authMiddleware: &auth.Middleware{
			Tokens:      tokens,
			Revocations: revocations,
			Users:       users,
			Logger:      log,
		},
	}

	log.Info("HTTP", "Setting up router and middleware")
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      newRouter(cfg, app, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Gala ticketing running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	}
	dispatcher.Wait()
	log.Info("HTTP", "✅ Gala ticketing shutdown complete")
}
