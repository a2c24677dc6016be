package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/casherops/skladrelay/internal/domains/order"
	"github.com/casherops/skladrelay/internal/infra/logger"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

// Repository хранит снимок кэша заказов в файле.
// Все последовательности чтение-изменение-запись сериализуются мьютексом,
// так что читатель никогда не видит частично записанный файл.
type Repository struct {
	path string
	ttl  int
	mu   sync.Mutex
}

// NewCacheRepo возвращает новое файловое хранилище снимка
func NewCacheRepo(path string, ttlSeconds int) *Repository {
	return &Repository{
		path: path,
		ttl:  ttlSeconds,
	}
}

// Load читает снимок из файла; отсутствующий или повреждённый файл
// равнозначен отсутствию снимка, а не ошибке
func (r *Repository) Load(ctx context.Context) (*order.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

func (r *Repository) loadLocked() (*order.Snapshot, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loadLocked: read cache file failed %w", err)
	}

	var snap order.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Log.Warn("loadLocked: cache decode failed",
			zap.String("path", r.path),
			zap.Error(err))
		return nil, nil
	}
	return &snap, nil
}

// Save записывает снимок в файл атомарно
func (r *Repository) Save(ctx context.Context, snap *order.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(snap)
}

func (r *Repository) saveLocked(snap *order.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("saveLocked: snapshot marshal failed %w", err)
	}

	dir := filepath.Dir(r.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("saveLocked: ensure cache directory failed %w", err)
		}
	}

	// Запись во временный файл с последующим переименованием
	if err := atomic.WriteFile(r.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("saveLocked: atomic write failed %w", err)
	}
	return nil
}

// MergeOrder заменяет или добавляет одну запись заказа в снимке
// и возвращает новый снимок; вся последовательность держит блокировку
func (r *Repository) MergeOrder(ctx context.Context, ord order.Summary) (*order.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	snap, err := r.loadLocked()
	if err != nil {
		return nil, fmt.Errorf("MergeOrder: load snapshot failed %w", err)
	}
	if snap == nil {
		snap = order.NewSnapshot(nil, r.ttl, now)
	}

	if ord.ID == "" {
		logger.Log.Warn("MergeOrder: order without id, merging by derived key",
			zap.String("key", ord.MergeKey()))
	}

	orders := make([]order.Summary, 0, len(snap.Orders)+1)
	replaced := false
	for _, existing := range snap.Orders {
		if existing.MergeKey() == ord.MergeKey() {
			orders = append(orders, ord)
			replaced = true
			continue
		}
		orders = append(orders, existing)
	}
	if !replaced {
		orders = append(orders, ord)
	}

	merged := order.NewSnapshot(orders, r.ttl, now)
	if err := r.saveLocked(merged); err != nil {
		return nil, fmt.Errorf("MergeOrder: save snapshot failed %w", err)
	}
	return merged, nil
}
