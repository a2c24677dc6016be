package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	errs "github.com/casherops/skladrelay/internal/errors"
)

// Client выполняет запросы к Bot API Telegram
type Client struct {
	base   string
	token  string
	chatID string
	client *http.Client
}

// NewClient возвращает новый клиент Bot API Telegram
func NewClient(base string, token string, chatID string) *Client {
	return &Client{
		base:   base,
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// SendMessage отправляет текстовое сообщение в настроенный чат
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if c.token == "" || c.chatID == "" {
		return fmt.Errorf("SendMessage: %w", errs.ErrTelegramNotSetup)
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID: c.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("SendMessage: request marshal failed %w", err)
	}

	reqURL := c.base + "/bot" + c.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("SendMessage: new request forming failed %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("SendMessage: request failed %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SendMessage: %w %d", errs.ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
