package errors

import (
	"errors"
)

var (
	ErrEmptyRefresh     = errors.New("refresh produced no orders from non-empty response")
	ErrTelegramNotSetup = errors.New("missing TG_BOT_TOKEN or TG_CHAT_ID for Telegram access")
)
