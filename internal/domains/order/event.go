package order

import (
	"encoding/json"
	"fmt"
	"time"
)

type eventPayload struct {
	*Snapshot
	Stale        bool   `json:"stale"`
	ServerTime   string `json:"server_time"`
	ServerTimeMS int64  `json:"server_time_ms"`
}

// EventPayload сериализует снимок с признаком устаревания и серверным временем
func EventPayload(snap *Snapshot, now time.Time) ([]byte, error) {
	data, err := json.Marshal(eventPayload{
		Snapshot:     snap,
		Stale:        snap.Stale(now),
		ServerTime:   now.Format(time.RFC3339),
		ServerTimeMS: now.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("EventPayload: payload marshal failed %w", err)
	}
	return data, nil
}
