package server

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectEvents(events *[]FeedEvent, mu *sync.Mutex) func(FeedEvent) {
	return func(event FeedEvent) {
		mu.Lock()
		*events = append(*events, event)
		mu.Unlock()
	}
}

func waitForEvents(t *testing.T, mu *sync.Mutex, events *[]FeedEvent, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		got := len(*events)
		mu.Unlock()
		if got >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events", want)
}

func TestFeedDeliversInOrder(t *testing.T) {
	hub := newFeedHub()
	var mu sync.Mutex
	var events []FeedEvent
	sub := hub.Subscribe("lobby-1", tableAll, collectEvents(&events, &mu))
	defer sub.Cancel()

	for i := 0; i < 20; i++ {
		hub.Publish(FeedEvent{
			Table:   tablePlayers,
			Type:    feedUpdate,
			LobbyID: "lobby-1",
			Player:  &Player{Score: i},
		})
	}
	waitForEvents(t, &mu, &events, 20)

	mu.Lock()
	defer mu.Unlock()
	for i, event := range events {
		require.NotNil(t, event.Player)
		assert.Equal(t, i, event.Player.Score, "event %d out of order", i)
	}
}

func TestFeedFiltersByLobbyAndTable(t *testing.T) {
	hub := newFeedHub()
	var mu sync.Mutex
	var events []FeedEvent
	sub := hub.Subscribe("lobby-1", tableRoasts, collectEvents(&events, &mu))
	defer sub.Cancel()

	hub.Publish(FeedEvent{Table: tableRoasts, Type: feedInsert, LobbyID: "lobby-2"})
	hub.Publish(FeedEvent{Table: tablePlayers, Type: feedInsert, LobbyID: "lobby-1"})
	hub.Publish(FeedEvent{Table: tableRoasts, Type: feedInsert, LobbyID: "lobby-1"})
	waitForEvents(t, &mu, &events, 1)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, tableRoasts, events[0].Table)
	assert.Equal(t, "lobby-1", events[0].LobbyID)
}

func TestFeedCancelStopsDelivery(t *testing.T) {
	hub := newFeedHub()
	var mu sync.Mutex
	var events []FeedEvent
	sub := hub.Subscribe("lobby-1", tableAll, collectEvents(&events, &mu))

	hub.Publish(FeedEvent{Table: tablePlayers, Type: feedInsert, LobbyID: "lobby-1"})
	waitForEvents(t, &mu, &events, 1)

	sub.Cancel()
	sub.Cancel() // second cancel is a no-op

	assert.Equal(t, 0, hub.subscriberCount("lobby-1"))
	hub.Publish(FeedEvent{Table: tablePlayers, Type: feedInsert, LobbyID: "lobby-1"})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, events, 1)
}
