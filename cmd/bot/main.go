package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"questbot/internal/config"
	"questbot/internal/game"
	"questbot/internal/player"
	"questbot/internal/scheduler"
	"questbot/internal/store"
	"questbot/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("failed to close store: %v", err)
		}
	}()

	players := player.NewManager(st)

	sched := scheduler.New(players, scheduler.Config{
		Interval:  cfg.ReminderInterval,
		Grace:     cfg.ReminderGrace,
		PenaltyXP: cfg.PenaltyXP,
		LockWait:  cfg.SchedulerWait,
	})

	bot, err := telegram.New(cfg.TelegramBotToken, players, sched, game.DefaultCatalog())
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	sched.SetNotifier(bot)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("🎮 Quest bot started")
	bot.Start(ctx)
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		return store.NewFileStore(cfg.StoreFilePath)
	case config.BackendRedis:
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return store.OpenSQLite(cfg.SQLitePath)
	}
}
