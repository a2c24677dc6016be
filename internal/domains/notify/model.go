package notify

import (
	"context"

	"github.com/casherops/skladrelay/internal/domains/order"
	"github.com/casherops/skladrelay/internal/infra/moysklad"
)

// Service отправляет уведомления о заказах
type Service interface {
	Notify(ctx context.Context, sum order.Summary, raw *moysklad.CustomerOrder) error
}

// Sklad дозапрашивает позиции и справочные сущности заказа
type Sklad interface {
	Entity(ctx context.Context, href string) (*moysklad.Entity, error)
	Positions(ctx context.Context, href string) ([]moysklad.Position, error)
}

// Sender доставляет готовый текст уведомления
type Sender interface {
	SendMessage(ctx context.Context, text string) error
}
