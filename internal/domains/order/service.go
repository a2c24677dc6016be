package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	errs "github.com/casherops/skladrelay/internal/errors"
	"github.com/casherops/skladrelay/internal/infra/logger"
	"go.uber.org/zap"
)

// OrderService координирует полное обновление кэша и обработку вебхуков
type OrderService struct {
	sklad      Sklad
	cache      Cache
	hub        Broadcaster
	notifier   Notifier
	normalizer *Normalizer
	ttl        int

	// Сериализует полные обновления между собой; блокировка записи
	// файла живёт отдельно в хранилище
	refreshMu sync.Mutex
}

// NewOrderService возвращает новый сервис кэша заказов
func NewOrderService(sklad Sklad, cache Cache, hub Broadcaster, notifier Notifier, ttlSeconds int) *OrderService {
	return &OrderService{
		sklad:      sklad,
		cache:      cache,
		hub:        hub,
		notifier:   notifier,
		normalizer: NewNormalizer(sklad),
		ttl:        ttlSeconds,
	}
}

// Current возвращает текущий снимок кэша
func (s *OrderService) Current(ctx context.Context) (*Snapshot, error) {
	snap, err := s.cache.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("Current: load snapshot failed %w", err)
	}
	return snap, nil
}

// Refresh полностью пересобирает снимок по свежей выборке заказов.
// Конкурентные вызовы ждут друг друга; при любой неудаче возвращается
// предыдущий пригодный снимок вместе с ошибкой.
func (s *OrderService) Refresh(ctx context.Context, reason string) (*Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	prev, err := s.cache.Load(ctx)
	if err != nil {
		logger.Log.Warn("Refresh: load previous snapshot failed",
			zap.Error(err))
	}

	raw, err := s.sklad.RecentOrders(ctx)
	if err != nil {
		logger.Log.Warn("Refresh: fetch recent orders failed",
			zap.String("reason", reason),
			zap.Error(err))
		return prev, fmt.Errorf("Refresh: fetch recent orders failed %w", err)
	}

	summaries := make([]Summary, 0, len(raw))
	for i := range raw {
		// Запись без идентификатора и номера невозможно ни слить, ни показать
		if raw[i].ID == "" && raw[i].Name == "" {
			logger.Log.Warn("Refresh: skipping unidentifiable order",
				zap.String("href", raw[i].Meta.Href))
			continue
		}
		summaries = append(summaries, s.normalizer.Normalize(ctx, &raw[i]))
	}

	// Пустой результат при непустой выборке означает системный сбой,
	// прежний снимок дороже подозрительно пустого
	if len(summaries) == 0 && len(raw) > 0 {
		logger.Log.Warn("Refresh: all orders failed normalization, keeping previous snapshot",
			zap.String("reason", reason),
			zap.Int("raw", len(raw)))
		return prev, fmt.Errorf("Refresh: %w", errs.ErrEmptyRefresh)
	}

	snap := NewSnapshot(summaries, s.ttl, time.Now().UTC())
	if err := s.cache.Save(ctx, snap); err != nil {
		logger.Log.Warn("Refresh: save snapshot failed",
			zap.String("reason", reason),
			zap.Error(err))
		return prev, fmt.Errorf("Refresh: save snapshot failed %w", err)
	}

	s.logStats(snap)
	s.broadcast(snap)
	logger.Log.Info("cache refreshed",
		zap.String("reason", reason))
	return snap, nil
}

// ProcessEvent обрабатывает одно событие вебхука: обновление кэша и
// уведомление — независимые домены отказа, неудача одного не мешает другому
func (s *OrderService) ProcessEvent(ctx context.Context, href string) {
	raw, err := s.sklad.Order(ctx, href)
	if err != nil {
		logger.Log.Warn("ProcessEvent: fetch order details failed",
			zap.String("href", href),
			zap.Error(err))
		return
	}

	sum := s.normalizer.Normalize(ctx, raw)

	snap, err := s.cache.MergeOrder(ctx, sum)
	if err != nil {
		logger.Log.Warn("ProcessEvent: merge order into cache failed",
			zap.String("id", sum.ID),
			zap.Error(err))
	} else {
		s.logStats(snap)
		s.broadcast(snap)
	}

	if err := s.notifier.Notify(ctx, sum, raw); err != nil {
		logger.Log.Warn("ProcessEvent: send notification failed",
			zap.String("id", sum.ID),
			zap.Error(err))
	}
}

// broadcast рассылает снимок подписчикам дашборда
func (s *OrderService) broadcast(snap *Snapshot) {
	payload, err := EventPayload(snap, time.Now().UTC())
	if err != nil {
		logger.Log.Warn("broadcast: event payload build failed",
			zap.Error(err))
		return
	}
	s.hub.Broadcast(payload)
}

func (s *OrderService) logStats(snap *Snapshot) {
	logger.Log.Info("cache stats",
		zap.Int("total", snap.Stats.TotalOrders),
		zap.Int("new", snap.Stats.NewOrders),
		zap.Int("cdek", snap.Stats.CdekOrders),
		zap.String("updated_at", snap.UpdatedAt))
}
