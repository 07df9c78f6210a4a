package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type StoreBackend string

const (
	BackendFile   StoreBackend = "file"
	BackendSQLite StoreBackend = "sqlite"
	BackendRedis  StoreBackend = "redis"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// Storage
	StoreBackend  StoreBackend `env:"STORE_BACKEND" envDefault:"sqlite"`
	StoreFilePath string       `env:"STORE_FILE_PATH" envDefault:"data/players.json"`
	SQLitePath    string       `env:"SQLITE_PATH" envDefault:"data/questbot.db"`
	RedisAddr     string       `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string       `env:"REDIS_PASSWORD"`
	RedisDB       int          `env:"REDIS_DB" envDefault:"0"`

	// Accountability
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"15m"`
	ReminderGrace    time.Duration `env:"REMINDER_GRACE" envDefault:"15m"`
	PenaltyXP        int           `env:"PENALTY_XP" envDefault:"10"`
	SchedulerWait    time.Duration `env:"SCHEDULER_LOCK_WAIT" envDefault:"2s"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
