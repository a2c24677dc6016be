package broadcast

import (
	"sync"

	"github.com/casherops/skladrelay/internal/infra/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const subscriberBuffer = 10

// Subscriber хранит канал доставки событий одного подключения
type Subscriber struct {
	ID string
	C  chan []byte
}

// Hub хранит подписчиков живых подключений дашборда
type Hub struct {
	mu   sync.Mutex
	subs map[string]*Subscriber
}

// NewHub возвращает новый реестр подписчиков
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]*Subscriber),
	}
}

// Subscribe регистрирует нового подписчика с ограниченной очередью доставки
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID: uuid.NewString(),
		C:  make(chan []byte, subscriberBuffer),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()

	logger.Log.Info("event subscriber registered",
		zap.String("id", sub.ID))
	return sub
}

// Unsubscribe удаляет подписчика; повторный вызов безопасен
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	_, ok := h.subs[sub.ID]
	delete(h.subs, sub.ID)
	h.mu.Unlock()

	if ok {
		logger.Log.Info("event subscriber removed",
			zap.String("id", sub.ID))
	}
}

// Broadcast отправляет событие всем подписчикам без блокировки отправителя.
// Переполненная очередь медленного подписчика теряет это событие.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		select {
		case sub.C <- payload:
		default:
			logger.Log.Warn("dropping event for slow subscriber",
				zap.String("id", sub.ID))
		}
	}
}

// Len возвращает количество зарегистрированных подписчиков
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
