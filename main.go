package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"storefront-messaging/internal/config"
	"storefront-messaging/internal/db"
	"storefront-messaging/internal/handlers"
	"storefront-messaging/internal/kafka"
	"storefront-messaging/internal/middleware"
	"storefront-messaging/internal/observability"
	"storefront-messaging/internal/rabbitmq"
	"storefront-messaging/internal/repositories"
	"storefront-messaging/internal/telemetry"
	"storefront-messaging/internal/ws"
)

func main() {
	cfg := config.MustLoad()

	logger := observability.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}

	database, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	database.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	database.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	database.SetConnMaxLifetime(cfg.Database.ConnLifetime)

	publisher := newPublisher(cfg.Broker)
	defer publisher.Close()
	observability.SetPublisher(publisher)

	auditEmitter := telemetry.NewAuditEmitter(publisher, cfg.Broker.AuditKey, cfg.Tracing.ServiceName, cfg.Env)
	notificationEvents := telemetry.NewNotificationEmitter(publisher, cfg.Tracing.ServiceName)

	convRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	typingRepo := repositories.NewTypingRepo(database)
	reactionRepo := repositories.NewReactionRepo(database)
	notifRepo := repositories.NewNotificationRepo(database)
	groupRepo := repositories.NewNotificationGroupRepo(database)
	directoryRepo := repositories.NewDirectoryRepo(database)

	hub := ws.NewHub()

	api := handlers.Set{
		Directory:     handlers.NewDirectoryHandler(directoryRepo),
		Conversations: handlers.NewConversationHandler(convRepo, messageRepo, directoryRepo, hub),
		Typing:        handlers.NewTypingHandler(convRepo, typingRepo, hub),
		Reactions:     handlers.NewReactionHandler(convRepo, messageRepo, reactionRepo, hub),
		Notifications: handlers.NewNotificationHandler(notifRepo, groupRepo, notificationEvents, auditEmitter, hub),
	}
	subscribeWS := ws.NewSubscribeHandler(hub, directoryRepo, convRepo)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"status": "ok"}})
	})
	router.GET("/metrics", observability.MetricsHandler())
	router.GET("/ws/subscribe", subscribeWS.Handle)

	api.Register(router, middleware.AuthMiddleware(directoryRepo))

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("messaging api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}
}

// newPublisher picks the event broker. Kafka falls back to AMQP when the
// producer cannot be created.
func newPublisher(cfg config.Broker) rabbitmq.Publisher {
	if cfg.Kind == "kafka" && len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, nil)
		if err == nil {
			slog.Info("kafka producer connected", "topic", cfg.KafkaTopic)
			return producer
		}
		slog.Warn("kafka unavailable, falling back to amqp", "error", err)
	}
	return rabbitmq.NewPublisher(cfg.AMQPURL, cfg.Exchange)
}
