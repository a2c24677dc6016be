package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casherops/skladrelay/internal/controllers/middlewares"
	"github.com/casherops/skladrelay/internal/domains/notify"
	"github.com/casherops/skladrelay/internal/domains/order"
	orderhttp "github.com/casherops/skladrelay/internal/domains/order/controllers/http"
	"github.com/casherops/skladrelay/internal/domains/order/repository"
	"github.com/casherops/skladrelay/internal/infra/broadcast"
	"github.com/casherops/skladrelay/internal/infra/config"
	"github.com/casherops/skladrelay/internal/infra/logger"
	"github.com/casherops/skladrelay/internal/infra/moysklad"
	"github.com/casherops/skladrelay/internal/infra/telegram"
	"go.uber.org/zap"
)

// Run инициализирует основные компоненты и запускает сервер
func Run() error {
	// Контекст
	ctx := context.Background()

	// Логгер
	if err := logger.Initialize(ctx, "Info"); err != nil {
		return fmt.Errorf("Run: logger initialization failed %w", err)
	}
	defer logger.Log.Sync()

	// Конфиг
	cfg, err := config.ParseFlags(ctx)
	if err != nil {
		return fmt.Errorf("Run: parse flags failed %w", err)
	}

	// Клиенты внешних систем
	sklad := moysklad.NewClient(cfg.SkladURL, cfg.SkladToken, cfg.SkladBasic, cfg.LookbackDays, cfg.PageLimit)
	bot := telegram.NewClient(cfg.TelegramURL, cfg.TelegramBot, cfg.TelegramChat)

	// Хранилище снимка, реестр подписчиков и сервисы
	cache := repository.NewCacheRepo(cfg.CachePath, cfg.CacheTTL)
	hub := broadcast.NewHub()
	notifier := notify.NewNotifyService(sklad, bot)
	service := order.NewOrderService(sklad, cache, hub, notifier, cfg.CacheTTL)

	// Роутер
	r := chi.NewRouter()
	r.Use(middlewares.Recovery)
	r.Use(middlewares.WithLogging)
	orderhttp.Activate(ctx, r, cfg, service, hub)

	logger.Log.Info("Running server", zap.String("address", cfg.Address))

	return http.ListenAndServe(cfg.Address, r)
}
