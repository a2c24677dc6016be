package broadcast_test

import (
	"testing"

	"github.com/casherops/skladrelay/internal/infra/broadcast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := broadcast.NewHub()

	first := hub.Subscribe()
	second := hub.Subscribe()
	require.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, hub.Len())

	hub.Unsubscribe(first)
	assert.Equal(t, 1, hub.Len())

	// Повторная отписка и отписка nil безопасны
	hub.Unsubscribe(first)
	hub.Unsubscribe(nil)
	assert.Equal(t, 1, hub.Len())

	hub.Unsubscribe(second)
	assert.Equal(t, 0, hub.Len())
}

func TestHub_Broadcast(t *testing.T) {
	hub := broadcast.NewHub()

	first := hub.Subscribe()
	second := hub.Subscribe()

	hub.Broadcast([]byte(`{"n":1}`))

	assert.Equal(t, []byte(`{"n":1}`), <-first.C)
	assert.Equal(t, []byte(`{"n":1}`), <-second.C)
}

func TestHub_BroadcastDropsForSlowSubscriber(t *testing.T) {
	hub := broadcast.NewHub()
	sub := hub.Subscribe()

	// Забиваем очередь подписчика до отказа
	for i := 0; i < cap(sub.C); i++ {
		hub.Broadcast([]byte(`{"seq":"fill"}`))
	}

	// Рассылка при полной очереди не блокируется и не падает
	done := make(chan struct{})
	go func() {
		hub.Broadcast([]byte(`{"seq":"dropped"}`))
		close(done)
	}()
	<-done

	// У подписчика не больше ёмкости очереди событий
	assert.Equal(t, cap(sub.C), len(sub.C))

	drained := 0
	for len(sub.C) > 0 {
		payload := <-sub.C
		assert.Equal(t, []byte(`{"seq":"fill"}`), payload)
		drained++
	}
	assert.Equal(t, cap(sub.C), drained)
}

func TestHub_BroadcastWithoutSubscribers(t *testing.T) {
	hub := broadcast.NewHub()
	hub.Broadcast([]byte(`{}`))
	assert.Equal(t, 0, hub.Len())
}
