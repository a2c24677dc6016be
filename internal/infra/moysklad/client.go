package moysklad

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	errs "github.com/casherops/skladrelay/internal/errors"
	"github.com/casherops/skladrelay/internal/utils"
)

// Client выполняет запросы к API МойСклад
type Client struct {
	base     string
	token    string
	basic    string
	lookback int
	limit    int
	client   *http.Client

	// Кэш справочных сущностей по href: растёт без вытеснения,
	// справочники считаются неизменными в рамках жизни процесса
	mu       sync.Mutex
	entities map[string]*Entity
}

// NewClient возвращает новый клиент API МойСклад
func NewClient(base string, token string, basic string, lookbackDays int, pageLimit int) *Client {
	return &Client{
		base:     base,
		token:    token,
		basic:    basic,
		lookback: lookbackDays,
		limit:    pageLimit,
		client:   &http.Client{Timeout: 10 * time.Second},
		entities: make(map[string]*Entity),
	}
}

// authorization возвращает заголовок авторизации, Basic имеет приоритет
func (c *Client) authorization() (string, error) {
	if c.basic != "" {
		return "Basic " + c.basic, nil
	}
	if c.token != "" {
		return "Bearer " + c.token, nil
	}
	return "", errs.ErrMissingCredentials
}

// get выполняет запрос к API и возвращает тело успешного ответа
func (c *Client) get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	auth, err := c.authorization()
	if err != nil {
		return nil, fmt.Errorf("get: authorization failed %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get: new request forming failed %w", err)
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Accept", "application/json")

	resp, err := utils.DoRequestWithRetry(ctx, c.client, req)
	if err != nil {
		return nil, fmt.Errorf("get: request failed %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get: %w %d", errs.ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("get: read response body failed %w", err)
	}
	return body, nil
}

// RecentOrders постранично запрашивает заказы за окно последних дней
func (c *Client) RecentOrders(ctx context.Context) ([]CustomerOrder, error) {
	since := time.Now().UTC().AddDate(0, 0, -c.lookback)

	orders := make([]CustomerOrder, 0)
	offset := 0
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(c.limit))
		query.Set("offset", strconv.Itoa(offset))
		query.Set("expand", "state")
		query.Set("filter", "moment>="+since.Format("2006-01-02 15:04:05"))

		body, err := c.get(ctx, c.base+"/entity/customerorder", query)
		if err != nil {
			return nil, fmt.Errorf("RecentOrders: orders page request failed %w", err)
		}

		var page ordersPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("RecentOrders: page unmarshal failed %w", err)
		}

		orders = append(orders, page.Rows...)
		if len(page.Rows) < c.limit {
			break
		}
		offset += c.limit
	}
	return orders, nil
}

// Order запрашивает полные данные заказа по ссылке
func (c *Client) Order(ctx context.Context, href string) (*CustomerOrder, error) {
	body, err := c.get(ctx, href, nil)
	if err != nil {
		return nil, fmt.Errorf("Order: request failed %w", err)
	}
	var ord CustomerOrder
	if err := json.Unmarshal(body, &ord); err != nil {
		return nil, fmt.Errorf("Order: unmarshal failed %w", err)
	}
	return &ord, nil
}

// Entity запрашивает справочную сущность по ссылке с кэшированием по href
func (c *Client) Entity(ctx context.Context, href string) (*Entity, error) {
	c.mu.Lock()
	if cached, ok := c.entities[href]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	body, err := c.get(ctx, href, nil)
	if err != nil {
		return nil, fmt.Errorf("Entity: request failed %w", err)
	}
	var ent Entity
	if err := json.Unmarshal(body, &ent); err != nil {
		return nil, fmt.Errorf("Entity: unmarshal failed %w", err)
	}

	c.mu.Lock()
	c.entities[href] = &ent
	c.mu.Unlock()

	return &ent, nil
}

// Positions запрашивает список позиций заказа по ссылке
func (c *Client) Positions(ctx context.Context, href string) ([]Position, error) {
	body, err := c.get(ctx, href, nil)
	if err != nil {
		return nil, fmt.Errorf("Positions: request failed %w", err)
	}
	var page struct {
		Rows []Position `json:"rows"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("Positions: unmarshal failed %w", err)
	}
	return page.Rows, nil
}
