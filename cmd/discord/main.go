// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "ashenrealm/internal/command/admin"
	_ "ashenrealm/internal/command/character"
	_ "ashenrealm/internal/command/combat"
	_ "ashenrealm/internal/command/economy"
	_ "ashenrealm/internal/command/social"

	"go.uber.org/zap"

	"ashenrealm/internal/command"
	"ashenrealm/internal/config"
	"ashenrealm/internal/cooldown"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/inventory"
	"ashenrealm/internal/profile"
	"ashenrealm/internal/prompt"
	"ashenrealm/internal/session"
	"ashenrealm/internal/store"
)

func main() {
	log.Println("[INFO] Starting Ashenrealm bot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := store.Migrate(cfg.PostgresDSN, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	db, err := store.ConnectPostgres(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		logger.Fatal("postgres unavailable", zap.Error(err))
	}
	defer db.Close()

	rdb, err := store.ConnectRedis(ctx, cfg.RedisURL, logger)
	if err != nil {
		logger.Fatal("redis unavailable", zap.Error(err))
	}
	defer rdb.Close()

	deps := &command.Deps{
		Profiles:  profile.New(db, logger),
		Items:     inventory.New(db, logger),
		Cooldowns: cooldown.New(rdb, logger),
		Sessions:  session.NewRegistry(logger),
		Cfg:       cfg,
		Log:       logger,
	}

	bot, err := discord.NewBot(cfg, deps)
	if err != nil {
		logger.Fatal("discord session", zap.Error(err))
	}
	deps.Prompts = prompt.New(bot.Session(), prompt.NewBroker(), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- bot.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...", s)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	}

	log.Println("[INFO] Discord bot exited cleanly")
}
