// Command inbox-agent runs the messaging client core for one signed-in user:
// it polls notifications, reports their delivery, logs who is typing in a
// watched conversation, and can acknowledge one message with a reaction.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-messaging/internal/client"
	"storefront-messaging/internal/config"
	"storefront-messaging/internal/core/cache"
	"storefront-messaging/internal/core/contact"
	"storefront-messaging/internal/core/conversations"
	"storefront-messaging/internal/core/notifications"
	"storefront-messaging/internal/core/op"
	"storefront-messaging/internal/core/presence"
	"storefront-messaging/internal/core/reactions"
	"storefront-messaging/internal/core/toast"
	"storefront-messaging/internal/models"
	"storefront-messaging/internal/observability"
)

func main() {
	cfg := config.MustLoad()

	logger := observability.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := toast.NewLogSink(logger)
	runner := op.NewRunner(sink)
	runner.Timeout = cfg.Agent.OpTimeout
	runner.SlowAfter = cfg.Agent.SlowAfter

	api := client.New(cfg.Agent.APIURL, client.WithToken(cfg.Agent.Token))
	realtime := client.NewRealtime(cfg.Agent.APIURL, cfg.Agent.Token)

	me, err := api.CurrentUser(ctx)
	if err != nil {
		logger.Error("cannot resolve current user", "error", err)
		os.Exit(1)
	}
	logger.Info("signed in", "user_id", me.UserID, "name", me.DisplayName)

	backend, closeCache := newCache(ctx, cfg.Cache, logger)
	defer closeCache()
	store := cache.ForUser(backend, me.UserID)

	guard := contact.NewGuard(api, api, sink, contact.WithRate(cfg.Agent.ContactRatePerMin, cfg.Agent.ContactBurst))
	inbox := conversations.NewStore(api, guard, store, sink, runner)
	logger.Info("conversations loaded", "count", len(inbox.ListConversations(ctx)))

	if cfg.Agent.AckMessageID != "" {
		ledger := reactions.NewLedger(api, api, store, sink, runner)
		list, err := ledger.AddReaction(ctx, cfg.Agent.AckMessageID, cfg.Agent.AckEmoji)
		if err != nil {
			logger.Warn("acknowledge message failed", "message_id", cfg.Agent.AckMessageID, "error", err)
		} else {
			logger.Info("message acknowledged", "message_id", cfg.Agent.AckMessageID, "reactions", len(list))
		}
	}

	pipeline := notifications.NewPipeline(api, store, sink, runner)
	poller := notifications.NewPoller(pipeline, models.NotificationFilter{}, cfg.Agent.NotificationPoll, func(list []models.Notification) {
		for _, n := range list {
			pipeline.TrackDelivery(ctx, n.ID)
		}
		logger.Info("notifications refreshed", "total", len(list), "unread", notifications.UnreadCount(list, time.Now()))
	}, logger)
	poller.Start(ctx)

	var watch *presence.Watch
	if cfg.Agent.ConversationID != "" {
		tracker := presence.NewTracker(api, realtime, api, presence.Config{PollInterval: cfg.Agent.TypingPoll})
		watch, err = tracker.Watch(ctx, cfg.Agent.ConversationID, me.UserID, func(s presence.State) {
			logger.Info("typing", "conversation_id", cfg.Agent.ConversationID, "label", s.Label())
		})
		if err != nil {
			logger.Warn("typing watch unavailable", "conversation_id", cfg.Agent.ConversationID, "error", err)
		}
	}

	<-ctx.Done()
	logger.Info("inbox agent stopping")

	if watch != nil {
		watch.Stop()
	}
	poller.Stop()
	pipeline.Flush()
}

func newCache(ctx context.Context, cfg config.Cache, logger *slog.Logger) (cache.Cache, func()) {
	if cfg.Backend != "redis" {
		return cache.NewMemoryCache(), func() {}
	}
	rdb, err := cache.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, using in-process cache", "addr", cfg.RedisAddr, "error", err)
		return cache.NewMemoryCache(), func() {}
	}
	rc := cache.NewRedisCache(rdb, cfg.Namespace, cfg.TTL)
	return rc, func() {
		if err := rc.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}
}
