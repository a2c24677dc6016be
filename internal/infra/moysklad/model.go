package moysklad

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Meta описывает ссылку на сущность МойСклад
type Meta struct {
	Href string `json:"href,omitempty"`
	Type string `json:"type,omitempty"`
}

// State описывает статус заказа
type State struct {
	Meta Meta   `json:"meta,omitempty"`
	Name string `json:"name,omitempty"`
}

// Entity описывает справочную сущность: контрагента, товар и т.п.
type Entity struct {
	Meta  Meta   `json:"meta,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Money хранит сумму в копейках; значения неожиданного типа приводятся к нулю
type Money int64

// UnmarshalJSON принимает число, числовую строку или null
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*m = 0
		return nil
	}
	*m = Money(int64(f))
	return nil
}

// NameOrString принимает объект с полем name либо простую строку
type NameOrString struct {
	Name string
}

func (n *NameOrString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		n.Name = obj.Name
		return nil
	}
	n.Name = ""
	return nil
}

// Attribute описывает дополнительное поле заказа
type Attribute struct {
	Name  string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`
}

// ShipmentAddressFull описывает структурированный адрес доставки
type ShipmentAddressFull struct {
	Recipient       string       `json:"recipient,omitempty"`
	Address         string       `json:"address,omitempty"`
	Comment         string       `json:"comment,omitempty"`
	City            string       `json:"city,omitempty"`
	Region          NameOrString `json:"region,omitempty"`
	DeliveryService NameOrString `json:"deliveryService,omitempty"`
	ShipmentMethod  NameOrString `json:"shipmentMethod,omitempty"`
}

// Position описывает позицию заказа
type Position struct {
	Assortment Entity  `json:"assortment,omitempty"`
	Quantity   float64 `json:"quantity,omitempty"`
	Price      *Money  `json:"price,omitempty"`
}

// PositionList описывает вложенный список позиций заказа
type PositionList struct {
	Meta Meta       `json:"meta,omitempty"`
	Rows []Position `json:"rows,omitempty"`
}

// CustomerOrder описывает заказ покупателя в исходном виде API
type CustomerOrder struct {
	ID                  string               `json:"id,omitempty"`
	Name                string               `json:"name,omitempty"`
	Moment              string               `json:"moment,omitempty"`
	Sum                 *Money               `json:"sum,omitempty"`
	Description         string               `json:"description,omitempty"`
	Phone               string               `json:"phone,omitempty"`
	Email               string               `json:"email,omitempty"`
	Meta                Meta                 `json:"meta,omitempty"`
	State               *State               `json:"state,omitempty"`
	Agent               *Entity              `json:"agent,omitempty"`
	Attributes          []Attribute          `json:"attributes,omitempty"`
	ShipmentAddress     string               `json:"shipmentAddress,omitempty"`
	ShipmentAddressFull *ShipmentAddressFull `json:"shipmentAddressFull,omitempty"`
	Positions           *PositionList        `json:"positions,omitempty"`
}

// Attr возвращает строковое значение дополнительного поля по имени
func (o *CustomerOrder) Attr(name string) string {
	for _, a := range o.Attributes {
		if !strings.EqualFold(a.Name, name) {
			continue
		}
		switch v := a.Value.(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
		return ""
	}
	return ""
}

// EditLink возвращает ссылку на заказ в интерфейсе МойСклад
func (o *CustomerOrder) EditLink() string {
	if o.ID != "" {
		return "https://online.moysklad.ru/app/#customerorder/edit?id=" + o.ID
	}
	if o.Meta.Href != "" {
		return o.Meta.Href
	}
	return "нет"
}

type ordersPage struct {
	Rows []CustomerOrder `json:"rows"`
}
