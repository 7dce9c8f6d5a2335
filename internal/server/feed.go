package server

import (
	"log"
	"sync"
)

type feedEventType string

const (
	feedInsert feedEventType = "INSERT"
	feedUpdate feedEventType = "UPDATE"
	feedDelete feedEventType = "DELETE"
)

const (
	tableLobbies        = "lobbies"
	tablePlayers        = "players"
	tableCategories     = "categories"
	tableNominees       = "nominees"
	tablePredictions    = "predictions"
	tableFavoriteMovies = "favorite_movies"
	tableQuestions      = "questions"
	tableAnswers        = "answers"
	tableRoasts         = "roasts"
	tableFinalBurns     = "final_burns"
	tableChatMessages   = "chat_messages"
)

// FeedEvent is a typed row-change notification. Exactly one row field is
// populated, matching Table; DELETE events carry the old row instead.
// Consumers must merge by primary key: delivery is at-least-once and order
// is only guaranteed within a single subscription.
type FeedEvent struct {
	Table   string        `json:"table"`
	Type    feedEventType `json:"event"`
	LobbyID string        `json:"lobby_id"`

	Lobby         *Lobby         `json:"lobby,omitempty"`
	Player        *Player        `json:"player,omitempty"`
	OldPlayer     *Player        `json:"old_player,omitempty"`
	Category      *Category      `json:"category,omitempty"`
	Nominee       *Nominee       `json:"nominee,omitempty"`
	Prediction    *Prediction    `json:"prediction,omitempty"`
	FavoriteMovie *FavoriteMovie `json:"favorite_movie,omitempty"`
	Question      *Question      `json:"question,omitempty"`
	Answer        *Answer        `json:"answer,omitempty"`
	Roast         *Roast         `json:"roast,omitempty"`
	FinalBurn     *FinalBurn     `json:"final_burn,omitempty"`
	Chat          *ChatMessage   `json:"chat_message,omitempty"`
}

// tableAll subscribes to every table for a lobby.
const tableAll = "*"

const feedBufferSize = 256

type feedSub struct {
	id      int
	lobbyID string
	table   string
	ch      chan FeedEvent
	done    chan struct{}
}

type feedHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*feedSub
}

// Subscription is a scoped handle: acquire on attach, Cancel on teardown.
// A subscription left open keeps delivering into a dead handler and leaks
// the hub slot.
type Subscription struct {
	hub  *feedHub
	sub  *feedSub
	once sync.Once
}

func newFeedHub() *feedHub {
	return &feedHub{
		nextID: 1,
		subs:   make(map[int]*feedSub),
	}
}

// Subscribe registers handler for change events on table rows belonging to
// lobbyID. Events are dispatched on a dedicated goroutine per subscription,
// preserving publish order within the stream.
func (h *feedHub) Subscribe(lobbyID, table string, handler func(FeedEvent)) *Subscription {
	sub := &feedSub{
		lobbyID: lobbyID,
		table:   table,
		ch:      make(chan FeedEvent, feedBufferSize),
		done:    make(chan struct{}),
	}
	h.mu.Lock()
	sub.id = h.nextID
	h.nextID++
	h.subs[sub.id] = sub
	h.mu.Unlock()

	go func() {
		for {
			select {
			case event := <-sub.ch:
				handler(event)
			case <-sub.done:
				return
			}
		}
	}()

	return &Subscription{hub: h, sub: sub}
}

func (s *Subscription) Cancel() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.sub.id)
		s.hub.mu.Unlock()
		close(s.sub.done)
	})
}

// Publish fans the event out to matching subscriptions. A subscriber that
// cannot keep up has the event dropped; stale clients recover by re-fetching
// a snapshot on reconnect.
func (h *feedHub) Publish(event FeedEvent) {
	h.mu.Lock()
	matched := make([]*feedSub, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.lobbyID != event.LobbyID {
			continue
		}
		if sub.table != tableAll && sub.table != event.Table {
			continue
		}
		matched = append(matched, sub)
	}
	h.mu.Unlock()

	for _, sub := range matched {
		select {
		case sub.ch <- event:
		default:
			log.Printf("feed event dropped lobby_id=%s table=%s sub=%d", event.LobbyID, event.Table, sub.id)
		}
	}
}

func (h *feedHub) subscriberCount(lobbyID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for _, sub := range h.subs {
		if sub.lobbyID == lobbyID {
			count++
		}
	}
	return count
}
