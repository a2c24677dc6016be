package config

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config хранит значения флагов или переменных окружения
type Config struct {
	Address      string `env:"RUN_ADDRESS"`
	CachePath    string `env:"CACHE_PATH"`
	CacheTTL     int    `env:"CACHE_TTL_SECONDS"`
	SkladURL     string `env:"MS_API_URL"`
	SkladToken   string `env:"MS_TOKEN"`
	SkladBasic   string `env:"MS_BASIC_TOKEN"`
	TelegramURL  string `env:"TG_API_URL"`
	TelegramBot  string `env:"TG_BOT_TOKEN"`
	TelegramChat string `env:"TG_CHAT_ID"`
	Update       time.Duration
	LookbackDays int
	PageLimit    int
}

// ParseFlags обрабатывает значения флагов и переменных окружения
func ParseFlags(ctx context.Context) (*Config, error) {
	// Локальный .env при наличии, переменные окружения имеют приоритет
	_ = godotenv.Load()

	cfg := &Config{}

	flag.StringVar(&cfg.Address, "a", "localhost:8080", "Relay service running host:port")
	flag.StringVar(&cfg.CachePath, "c", "/tmp/orders_cache.json", "Path to orders cache snapshot file")
	flag.IntVar(&cfg.CacheTTL, "t", 300, "Cache snapshot TTL in seconds")
	flag.StringVar(&cfg.SkladURL, "m", "https://api.moysklad.ru/api/remap/1.2", "MoySklad API base URL")
	flag.StringVar(&cfg.TelegramURL, "g", "https://api.telegram.org", "Telegram API base URL")

	cfg.Update = 60 * time.Second
	cfg.LookbackDays = 7
	cfg.PageLimit = 100

	flag.Parse()

	if err := env.Parse(cfg); err != nil {
		return cfg, fmt.Errorf("ParseFlags: wrong environment values %w", err)
	}

	return cfg, nil
}
