package order_test

import (
	"context"
	"errors"
	"testing"

	"github.com/casherops/skladrelay/internal/domains/order"
	"github.com/casherops/skladrelay/internal/infra/moysklad"
	"github.com/stretchr/testify/assert"
)

type mockSklad struct {
	recentFunc    func(ctx context.Context) ([]moysklad.CustomerOrder, error)
	orderFunc     func(ctx context.Context, href string) (*moysklad.CustomerOrder, error)
	entityFunc    func(ctx context.Context, href string) (*moysklad.Entity, error)
	positionsFunc func(ctx context.Context, href string) ([]moysklad.Position, error)
}

func (m *mockSklad) RecentOrders(ctx context.Context) ([]moysklad.CustomerOrder, error) {
	return m.recentFunc(ctx)
}

func (m *mockSklad) Order(ctx context.Context, href string) (*moysklad.CustomerOrder, error) {
	return m.orderFunc(ctx, href)
}

func (m *mockSklad) Entity(ctx context.Context, href string) (*moysklad.Entity, error) {
	return m.entityFunc(ctx, href)
}

func (m *mockSklad) Positions(ctx context.Context, href string) ([]moysklad.Position, error) {
	return m.positionsFunc(ctx, href)
}

func money(v int64) *moysklad.Money {
	m := moysklad.Money(v)
	return &m
}

func TestNormalizer_Normalize(t *testing.T) {
	sklad := &mockSklad{
		entityFunc: func(ctx context.Context, href string) (*moysklad.Entity, error) {
			return nil, errors.New("unexpected entity request")
		},
	}
	n := order.NewNormalizer(sklad)

	raw := &moysklad.CustomerOrder{
		ID:     "abc",
		Name:   "0001",
		Moment: "2025-06-07 10:30:00",
		Sum:    money(150000),
		Phone:  "+79990000000",
		State:  &moysklad.State{Name: "Новый"},
		Agent:  &moysklad.Entity{Name: "Иван Иванов", Phone: "+79991111111", Email: "ivan@example.com"},
		ShipmentAddressFull: &moysklad.ShipmentAddressFull{
			City:    "Москва",
			Address: "ул. Тверская, 1",
			Comment: "позвонить заранее",
		},
	}

	sum := n.Normalize(context.Background(), raw)

	assert.Equal(t, "abc", sum.ID)
	assert.Equal(t, "0001", sum.Name)
	assert.Equal(t, "Новый", sum.State)
	assert.Equal(t, int64(150000), sum.Sum)
	assert.Equal(t, "Москва", sum.City)
	// Получатель без явного поля берётся из контрагента
	assert.Equal(t, "Иван Иванов", sum.Recipient)
	// Телефон заказа приоритетнее телефона контрагента
	assert.Equal(t, "+79990000000", sum.Phone)
	assert.Equal(t, "ivan@example.com", sum.Email)
	assert.Equal(t, "ул. Тверская, 1", sum.Address)
	assert.Equal(t, "позвонить заранее", sum.Comment)
	assert.Equal(t, "https://online.moysklad.ru/app/#customerorder/edit?id=abc", sum.Link)
	assert.NotZero(t, sum.MomentMS)
}

func TestNormalizer_FallbackChains(t *testing.T) {
	tests := []struct {
		name  string
		raw   *moysklad.CustomerOrder
		check func(t *testing.T, sum order.Summary)
	}{
		{
			name: "attribute_fallbacks",
			raw: &moysklad.CustomerOrder{
				ID:   "a1",
				Name: "0002",
				Attributes: []moysklad.Attribute{
					{Name: "Получатель", Value: "Пётр Петров"},
					{Name: "Телефон", Value: "+78880000000"},
					{Name: "Способ доставки", Value: "Курьер"},
				},
			},
			check: func(t *testing.T, sum order.Summary) {
				assert.Equal(t, "Пётр Петров", sum.Recipient)
				assert.Equal(t, "+78880000000", sum.Phone)
				assert.Equal(t, "Курьер", sum.Delivery)
			},
		},
		{
			name: "delivery_from_service",
			raw: &moysklad.CustomerOrder{
				ID:   "a2",
				Name: "0003",
				ShipmentAddressFull: &moysklad.ShipmentAddressFull{
					DeliveryService: moysklad.NameOrString{Name: "Boxberry"},
				},
			},
			check: func(t *testing.T, sum order.Summary) {
				assert.Equal(t, "Boxberry", sum.Delivery)
			},
		},
		{
			name: "city_from_region",
			raw: &moysklad.CustomerOrder{
				ID:   "a3",
				Name: "0004",
				ShipmentAddressFull: &moysklad.ShipmentAddressFull{
					Region: moysklad.NameOrString{Name: "Московская область"},
				},
			},
			check: func(t *testing.T, sum order.Summary) {
				assert.Equal(t, "Московская область", sum.City)
			},
		},
		{
			name: "empty_name_placeholder",
			raw:  &moysklad.CustomerOrder{ID: "a4"},
			check: func(t *testing.T, sum order.Summary) {
				assert.Equal(t, "без номера", sum.Name)
				assert.Equal(t, int64(0), sum.Sum)
			},
		},
	}

	sklad := &mockSklad{
		entityFunc: func(ctx context.Context, href string) (*moysklad.Entity, error) {
			return &moysklad.Entity{}, nil
		},
	}
	n := order.NewNormalizer(sklad)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, n.Normalize(context.Background(), tt.raw))
		})
	}
}

func TestNormalizer_StateResolution(t *testing.T) {
	tests := []struct {
		name       string
		state      *moysklad.State
		entityFunc func(ctx context.Context, href string) (*moysklad.Entity, error)
		want       string
	}{
		{
			name:  "inline_name",
			state: &moysklad.State{Name: "Оплачен"},
			entityFunc: func(ctx context.Context, href string) (*moysklad.Entity, error) {
				return nil, errors.New("must not be called")
			},
			want: "Оплачен",
		},
		{
			name:  "resolved_by_href",
			state: &moysklad.State{Meta: moysklad.Meta{Href: "https://erp/entity/state/s1"}},
			entityFunc: func(ctx context.Context, href string) (*moysklad.Entity, error) {
				return &moysklad.Entity{Name: "Принят"}, nil
			},
			want: "Принят",
		},
		{
			name:  "resolution_failure_degrades",
			state: &moysklad.State{Meta: moysklad.Meta{Href: "https://erp/entity/state/s1"}},
			entityFunc: func(ctx context.Context, href string) (*moysklad.Entity, error) {
				return nil, errors.New("boom")
			},
			want: "не указан",
		},
		{
			name:  "missing_state",
			state: nil,
			entityFunc: func(ctx context.Context, href string) (*moysklad.Entity, error) {
				return nil, errors.New("must not be called")
			},
			want: "не указан",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := order.NewNormalizer(&mockSklad{entityFunc: tt.entityFunc})
			sum := n.Normalize(context.Background(), &moysklad.CustomerOrder{ID: "x", State: tt.state})
			assert.Equal(t, tt.want, sum.State)
		})
	}
}
