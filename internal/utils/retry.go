package utils

import (
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"golang.org/x/net/context"
)

// DoRequestWithRetry делает повторные запросы при отказе соединения и возвращает ответ
func DoRequestWithRetry(ctx context.Context, client *http.Client, r *http.Request) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var err error = nil
	var resp *http.Response
	intervals := []time.Duration{0, time.Second, 3 * time.Second, 5 * time.Second}
	for _, interval := range intervals {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("DoRequestWithRetry: context cancelled %w", ctx.Err())
		case <-time.After(interval):
		}
		resp, err = client.Do(r)
		if !errors.Is(err, syscall.ECONNREFUSED) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("DoRequestWithRetry: request failed %w", err)
	}
	return resp, nil
}
