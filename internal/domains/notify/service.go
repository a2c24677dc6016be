package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/casherops/skladrelay/internal/domains/order"
	"github.com/casherops/skladrelay/internal/infra/logger"
	"github.com/casherops/skladrelay/internal/infra/moysklad"
	"go.uber.org/zap"
)

// NotifyService собирает и отправляет уведомления о заказах
type NotifyService struct {
	sklad  Sklad
	sender Sender
}

// NewNotifyService возвращает новый сервис уведомлений
func NewNotifyService(sklad Sklad, sender Sender) *NotifyService {
	return &NotifyService{
		sklad:  sklad,
		sender: sender,
	}
}

// Notify собирает текст уведомления по заказу и отправляет его
func (s *NotifyService) Notify(ctx context.Context, sum order.Summary, raw *moysklad.CustomerOrder) error {
	var text string
	if order.IsCdekState(sum.State) {
		text = s.buildCdekMessage(ctx, sum, raw)
	} else {
		text = s.buildMessage(ctx, sum, raw)
	}

	if err := s.sender.SendMessage(ctx, text); err != nil {
		return fmt.Errorf("Notify: send message failed %w", err)
	}
	return nil
}

// buildMessage собирает полный текст уведомления о заказе
func (s *NotifyService) buildMessage(ctx context.Context, sum order.Summary, raw *moysklad.CustomerOrder) string {
	lines := []string{
		"📦 " + orDefault(sum.State, "не указан"),
		"ID заказа: " + orDefault(sum.Name, "без номера"),
		"",
		"👤 Получатель: " + orDefault(sum.Recipient, "не указан"),
		"📞 Номер телефона: " + orDefault(sum.Phone, "не указан"),
		"📧 Email: " + orDefault(sum.Email, "не указан"),
		"Способ доставки: " + orDefault(sum.Delivery, "не указан"),
		"",
		"🏠 Адрес доставки: " + orDefault(sum.Address, "не указан"),
		"Ссылка на доставку: " + orDefault(raw.Attr("ссылка на доставку"), "не указана"),
		"Трек-номер: " + orDefault(raw.Attr("трек-номер"), "не указан"),
		"",
		"Состав заказа:",
		s.positionsText(ctx, raw),
		"",
		"Сумма заказа: " + formatMoney(raw.Sum) + " руб.",
		"",
		"Комментарий: " + orDefault(sum.Comment, "нет"),
		"Создан: " + formatMoment(sum.Moment),
		"Ссылка: " + orDefault(sum.Link, "нет"),
	}
	return strings.Join(lines, "\n")
}

// buildCdekMessage собирает сокращённый текст для заказов, отправленных в СДЭК
func (s *NotifyService) buildCdekMessage(ctx context.Context, sum order.Summary, raw *moysklad.CustomerOrder) string {
	lines := []string{
		"🚚 " + orDefault(sum.State, "не указан"),
		"ID заказа: " + orDefault(sum.Name, "без номера"),
		"",
		"👤 Получатель: " + orDefault(sum.Recipient, "не указан"),
		"📞 Номер телефона: " + orDefault(sum.Phone, "не указан"),
		"🏠 Адрес доставки: " + orDefault(sum.Address, "не указан"),
		"Ссылка на доставку: " + orDefault(raw.Attr("ссылка на доставку"), "не указана"),
		"Трек-номер: " + orDefault(raw.Attr("трек-номер"), "не указан"),
		"Ссылка: " + orDefault(sum.Link, "нет"),
	}
	return strings.Join(lines, "\n")
}

// positionsText собирает перечень позиций заказа, дозапрашивая их
// по ссылке, когда список не пришёл в составе заказа
func (s *NotifyService) positionsText(ctx context.Context, raw *moysklad.CustomerOrder) string {
	var rows []moysklad.Position
	if raw.Positions != nil {
		rows = raw.Positions.Rows
		if len(rows) == 0 && raw.Positions.Meta.Href != "" {
			fetched, err := s.sklad.Positions(ctx, raw.Positions.Meta.Href)
			if err != nil {
				logger.Log.Warn("positionsText: positions request failed",
					zap.String("href", raw.Positions.Meta.Href),
					zap.Error(err))
			} else {
				rows = fetched
			}
		}
	}

	if len(rows) == 0 {
		return "нет позиций"
	}

	lines := make([]string, 0, len(rows))
	for _, pos := range rows {
		name := pos.Assortment.Name
		if name == "" && pos.Assortment.Meta.Href != "" {
			ent, err := s.sklad.Entity(ctx, pos.Assortment.Meta.Href)
			if err != nil {
				logger.Log.Warn("positionsText: assortment request failed",
					zap.String("href", pos.Assortment.Meta.Href),
					zap.Error(err))
			} else {
				name = ent.Name
			}
		}
		if name == "" {
			name = "Товар"
		}
		lines = append(lines, fmt.Sprintf("%s - %s шт. - %s руб.", name, formatQuantity(pos.Quantity), formatMoney(pos.Price)))
	}
	return strings.Join(lines, "\n")
}

func orDefault(value string, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// formatMoney переводит сумму из копеек в рубли с двумя знаками
func formatMoney(m *moysklad.Money) string {
	if m == nil {
		return "не указана"
	}
	return fmt.Sprintf("%.2f", float64(*m)/100)
}

// formatQuantity убирает дробную часть у целых количеств
func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return strconv.FormatInt(int64(q), 10)
	}
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// formatMoment приводит отметку времени к читаемому виду
func formatMoment(value string) string {
	if value == "" {
		return "не указана"
	}
	if t, ok := order.ParseMoment(value); ok {
		return t.Format("2006-01-02 15:04:05")
	}
	return value
}
