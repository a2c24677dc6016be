package order

import (
	"context"

	"github.com/casherops/skladrelay/internal/infra/logger"
	"github.com/casherops/skladrelay/internal/infra/moysklad"
	"go.uber.org/zap"
)

// Normalizer приводит исходный заказ МойСклад к канонической записи.
// Недостающие вложенные ссылки разрешаются через справочный клиент,
// любая неудача разрешения вырождается в заглушку, а не в ошибку.
type Normalizer struct {
	sklad Sklad
}

// NewNormalizer возвращает новый нормализатор заказов
func NewNormalizer(sklad Sklad) *Normalizer {
	return &Normalizer{
		sklad: sklad,
	}
}

// Normalize строит каноническую запись по исходному заказу
func (n *Normalizer) Normalize(ctx context.Context, raw *moysklad.CustomerOrder) Summary {
	agentName, agentPhone, agentEmail := n.agentDetails(ctx, raw)

	sum := Summary{
		ID:    raw.ID,
		Name:  firstNonEmpty(raw.Name, "без номера"),
		State: n.StateName(ctx, raw),
		Sum:   moneyValue(raw.Sum),
		Link:  raw.EditLink(),
	}

	sum.Moment = raw.Moment
	if moment, ok := ParseMoment(raw.Moment); ok {
		sum.MomentMS = moment.UnixMilli()
	}

	shipment := raw.ShipmentAddressFull
	if shipment == nil {
		shipment = &moysklad.ShipmentAddressFull{}
	}

	sum.City = firstNonEmpty(shipment.City, shipment.Region.Name)
	sum.Recipient = firstNonEmpty(shipment.Recipient, raw.Attr("получатель"), agentName)
	sum.Phone = firstNonEmpty(raw.Phone, agentPhone, raw.Attr("телефон"))
	sum.Email = firstNonEmpty(raw.Email, agentEmail, raw.Attr("email"))
	sum.Delivery = firstNonEmpty(raw.Attr("способ доставки"), shipment.DeliveryService.Name, shipment.ShipmentMethod.Name)
	sum.Address = firstNonEmpty(raw.ShipmentAddress, shipment.Address)
	sum.Comment = firstNonEmpty(raw.Description, shipment.Comment, raw.Attr("комментарий"))

	return sum
}

// StateName возвращает название статуса заказа, при необходимости
// разрешая ссылку на статус через справочник
func (n *Normalizer) StateName(ctx context.Context, raw *moysklad.CustomerOrder) string {
	if raw.State != nil && raw.State.Name != "" {
		return raw.State.Name
	}
	if raw.State != nil && raw.State.Meta.Href != "" {
		ent, err := n.sklad.Entity(ctx, raw.State.Meta.Href)
		if err != nil {
			logger.Log.Warn("StateName: state entity request failed",
				zap.String("href", raw.State.Meta.Href),
				zap.Error(err))
		} else if ent.Name != "" {
			return ent.Name
		}
	}
	return "не указан"
}

// agentDetails возвращает имя, телефон и почту контрагента,
// дозапрашивая недостающие поля по ссылке
func (n *Normalizer) agentDetails(ctx context.Context, raw *moysklad.CustomerOrder) (string, string, string) {
	if raw.Agent == nil {
		return "", "", ""
	}

	name := raw.Agent.Name
	phone := raw.Agent.Phone
	email := raw.Agent.Email

	href := raw.Agent.Meta.Href
	if href != "" && (name == "" || phone == "" || email == "") {
		ent, err := n.sklad.Entity(ctx, href)
		if err != nil {
			logger.Log.Warn("agentDetails: agent entity request failed",
				zap.String("href", href),
				zap.Error(err))
		} else {
			name = firstNonEmpty(name, ent.Name)
			phone = firstNonEmpty(phone, ent.Phone)
			email = firstNonEmpty(email, ent.Email)
		}
	}
	return name, phone, email
}

// firstNonEmpty возвращает первое непустое значение из цепочки кандидатов
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func moneyValue(m *moysklad.Money) int64 {
	if m == nil {
		return 0
	}
	return int64(*m)
}
