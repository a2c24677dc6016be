package telegram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	errs "github.com/casherops/skladrelay/internal/errors"
	"github.com/casherops/skladrelay/internal/infra/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := telegram.NewClient(srv.URL, "bot-token", "chat-1")
	err := client.SendMessage(context.Background(), "Заказ 0001")
	require.NoError(t, err)

	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "chat-1", gotBody["chat_id"])
	assert.Equal(t, "Заказ 0001", gotBody["text"])
}

func TestClient_SendMessageMissingConfig(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		chatID string
	}{
		{name: "no_token", token: "", chatID: "chat-1"},
		{name: "no_chat", token: "bot-token", chatID: ""},
		{name: "nothing", token: "", chatID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := telegram.NewClient("https://api.example", tt.token, tt.chatID)
			err := client.SendMessage(context.Background(), "hi")
			assert.ErrorIs(t, err, errs.ErrTelegramNotSetup)
		})
	}
}

func TestClient_SendMessageUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := telegram.NewClient(srv.URL, "bot-token", "chat-1")
	err := client.SendMessage(context.Background(), "hi")
	assert.ErrorIs(t, err, errs.ErrUnexpectedStatus)
}
