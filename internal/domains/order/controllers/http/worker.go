package http

import (
	"context"
	"time"

	"github.com/casherops/skladrelay/internal/infra/logger"
	"go.uber.org/zap"
)

// workerRefreshCache периодически пересобирает отсутствующий или устаревший кэш
func workerRefreshCache(ctx context.Context, h *OrderHandler) {
	ticker := time.NewTicker(h.Config.Update)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := h.Service.Current(ctx)
			if err != nil {
				logger.Log.Warn("workerRefreshCache: read cache failed",
					zap.Error(err))
				continue
			}
			if snap != nil && !snap.Stale(time.Now().UTC()) {
				continue
			}
			if _, err := h.Service.Refresh(ctx, "ttl"); err != nil {
				logger.Log.Warn("workerRefreshCache: refresh failed",
					zap.Error(err))
			}
		}
	}
}

// workerProcessEvents обрабатывает ссылки заказов из очереди вебхуков
func workerProcessEvents(ctx context.Context, h *OrderHandler, jobs <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case href, ok := <-jobs:
			if !ok {
				logger.Log.Info("workerProcessEvents: channel is closed")
				return
			}
			h.Service.ProcessEvent(ctx, href)
		}
	}
}
