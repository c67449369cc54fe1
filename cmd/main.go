package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/acertax/connect/internal/api"
	"github.com/acertax/connect/internal/auth"
	"github.com/acertax/connect/internal/chat"
	"github.com/acertax/connect/internal/config"
	"github.com/acertax/connect/internal/events"
	"github.com/acertax/connect/internal/logger"
	"github.com/acertax/connect/internal/store"
	"github.com/acertax/connect/internal/ws"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Development)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	var verifier auth.Verifier
	if cfg.JWT.Algorithm == "HS256" {
		verifier, err = auth.NewHS256(cfg.JWT.HSSecret)
	} else {
		verifier, err = auth.NewRS256(cfg.JWT.PublicKeyPath)
	}
	if err != nil {
		zlog.Fatalw("jwt verifier init", "err", err)
	}

	db, err := store.Connect(context.Background(), cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		zlog.Fatalw("mongo connect", "err", err)
	}

	hub := ws.NewHub(zlog)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		hub.EnableRelay(rdb, cfg.Redis.Channel)
		zlog.Infow("cross-instance relay enabled", "channel", cfg.Redis.Channel)
	}

	var sink chat.EventSink
	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = pub.Close() }()
		sink = pub
		zlog.Infow("message event stream enabled", "topic", cfg.Kafka.Topic)
	}

	svc := chat.NewService(
		store.NewUserStore(db),
		store.NewGroupStore(db),
		store.NewMessageStore(db),
		store.NewUnreadStore(db),
		hub,
		sink,
		zlog,
		chat.Options{
			CompanyDomain:       cfg.Chat.CompanyDomain,
			AdminEmail:          cfg.Chat.AdminEmail,
			HistoryLimit:        cfg.Chat.HistoryLimit,
			SoftDeleteBatchSize: cfg.Chat.SoftDeleteBatchSize,
			PurgeOnGroupDelete:  cfg.Chat.PurgeMessagesOnGroupDrop,
		},
	)

	app := api.NewServer(svc, hub, verifier, cfg, zlog)

	errs := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		zlog.Infow("starting coordination server", "addr", addr)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case e := <-errs:
		zlog.Fatalw("server error", "err", e)
	case sg := <-sig:
		zlog.Infow("signal received", "signal", sg)
	}

	hub.Shutdown()
	if err := app.Shutdown(); err != nil {
		zlog.Warnw("fiber shutdown", "err", err)
	}
	zlog.Info("shutting down")
}
