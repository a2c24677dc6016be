package order

import (
	"context"
	"strings"
	"time"

	"github.com/casherops/skladrelay/internal/infra/moysklad"
)

// Summary описывает каноническую запись заказа в кэше
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	Moment    string `json:"moment,omitempty"`
	MomentMS  int64  `json:"moment_ms,omitempty"`
	Sum       int64  `json:"sum"`
	City      string `json:"city,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Delivery  string `json:"delivery,omitempty"`
	Address   string `json:"address,omitempty"`
	Comment   string `json:"comment,omitempty"`
	Link      string `json:"link,omitempty"`
}

// MergeKey возвращает ключ слияния записи в снимке.
// При пустом id используется производный ключ из номера и даты,
// уникальность такого ключа не гарантируется.
func (s Summary) MergeKey() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Name + "|" + s.Moment
}

// DayBucket хранит продажи одного дня скользящего окна
type DayBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Sum   int64  `json:"sum"`
}

// Stats хранит производные показатели по заказам снимка
type Stats struct {
	TotalOrders int         `json:"total_orders"`
	NewOrders   int         `json:"new_orders"`
	CdekOrders  int         `json:"cdek_orders"`
	Week        []DayBucket `json:"week,omitempty"`
}

// Snapshot описывает полный снимок кэша заказов
type Snapshot struct {
	UpdatedAt  string    `json:"updated_at"`
	TTLSeconds int       `json:"ttl_seconds"`
	Stats      Stats     `json:"stats"`
	Orders     []Summary `json:"orders"`
}

// NewSnapshot собирает снимок из записей заказов с пересчётом показателей
func NewSnapshot(orders []Summary, ttlSeconds int, now time.Time) *Snapshot {
	if orders == nil {
		orders = make([]Summary, 0)
	}
	return &Snapshot{
		UpdatedAt:  now.Format(time.RFC3339),
		TTLSeconds: ttlSeconds,
		Stats:      BuildStats(orders, now),
		Orders:     orders,
	}
}

// Stale сообщает, не истёк ли срок годности снимка.
// Непригодная для разбора отметка времени считается устаревшей.
func (s *Snapshot) Stale(now time.Time) bool {
	if s.UpdatedAt == "" {
		return true
	}
	updated, err := time.Parse(time.RFC3339, s.UpdatedAt)
	if err != nil {
		return true
	}
	return now.Sub(updated) > time.Duration(s.TTLSeconds)*time.Second
}

// IsCdekState сообщает, относится ли статус к отправленным в СДЭК заказам
func IsCdekState(state string) bool {
	return strings.Contains(strings.ToLower(state), "сдек")
}

// IsNewState сообщает, относится ли статус к новым заказам
func IsNewState(state string) bool {
	value := strings.ToLower(state)
	for _, word := range []string{"нов", "принят", "оплачен", "обработ"} {
		if strings.Contains(value, word) {
			return true
		}
	}
	return false
}

// momentLayouts перечисляет встречающиеся форматы отметки времени заказа
var momentLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseMoment разбирает отметку времени заказа в любом известном формате
func ParseMoment(value string) (time.Time, bool) {
	for _, layout := range momentLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BuildStats пересчитывает показатели по записям заказов
func BuildStats(orders []Summary, now time.Time) Stats {
	stats := Stats{TotalOrders: len(orders)}

	buckets := make([]DayBucket, 7)
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		date := now.AddDate(0, 0, i-6).Format("2006-01-02")
		buckets[i] = DayBucket{Date: date}
		index[date] = i
	}

	for _, ord := range orders {
		if IsCdekState(ord.State) {
			stats.CdekOrders++
		} else if IsNewState(ord.State) {
			stats.NewOrders++
		}

		moment, ok := ParseMoment(ord.Moment)
		if !ok {
			continue
		}
		if i, ok := index[moment.Format("2006-01-02")]; ok {
			buckets[i].Count++
			buckets[i].Sum += ord.Sum
		}
	}

	stats.Week = buckets
	return stats
}

// Service управляет снимком кэша заказов
type Service interface {
	Refresh(ctx context.Context, reason string) (*Snapshot, error)
	ProcessEvent(ctx context.Context, href string)
	Current(ctx context.Context) (*Snapshot, error)
}

// Cache хранит снимок кэша заказов
type Cache interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	MergeOrder(ctx context.Context, ord Summary) (*Snapshot, error)
}

// Sklad запрашивает данные заказов из МойСклад
type Sklad interface {
	RecentOrders(ctx context.Context) ([]moysklad.CustomerOrder, error)
	Order(ctx context.Context, href string) (*moysklad.CustomerOrder, error)
	Entity(ctx context.Context, href string) (*moysklad.Entity, error)
}

// Notifier отправляет уведомление о заказе
type Notifier interface {
	Notify(ctx context.Context, sum Summary, raw *moysklad.CustomerOrder) error
}

// Broadcaster рассылает события подписчикам дашборда
type Broadcaster interface {
	Broadcast(payload []byte)
}
