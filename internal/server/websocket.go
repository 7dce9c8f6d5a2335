package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsMessage is the envelope sent to clients. A snapshot arrives once on
// connect; after that clients merge row events by primary key. The stage
// field tells the connected player which screen to show.
type wsMessage struct {
	Type  string     `json:"type"`
	Lobby *Lobby     `json:"lobby,omitempty"`
	Event *FeedEvent `json:"event,omitempty"`
	Stage string     `json:"stage,omitempty"`
}

// wsClient serializes writes: the connect handler and the feed dispatch
// goroutine both write to the same conn.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsClient]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*wsClient]struct{}),
	}
}

func (h *wsHub) Add(lobbyID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[lobbyID]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[lobbyID] = group
	}
	group[client] = struct{}{}
}

func (h *wsHub) Remove(lobbyID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[lobbyID]
	if group == nil {
		return
	}
	delete(group, client)
	_ = client.conn.Close()
	if len(group) == 0 {
		delete(h.groups, lobbyID)
	}
}

func (h *wsHub) count(lobbyID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[lobbyID])
}

// handleWebsocket upgrades the connection, sends one full snapshot, then
// relays change events for the lobby until the client goes away. The
// snapshot is sent after subscribing so no event published in between is
// lost; clients treat replayed events as idempotent merges.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	idOrCode, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	lobby, exists := s.store.ResolveLobby(idOrCode)
	if !exists {
		http.NotFound(w, r)
		return
	}
	lobbyID := lobby.ID
	playerID := r.URL.Query().Get("player")

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn}
	s.ws.Add(lobbyID, client)
	log.Printf("ws connected lobby_id=%s remote=%s clients=%d", lobbyID, r.RemoteAddr, s.ws.count(lobbyID))

	sub := s.feed.Subscribe(lobbyID, tableAll, func(event FeedEvent) {
		msg := wsMessage{Type: "event", Event: &event}
		if playerID != "" {
			if snapshot, ok := s.store.snapshotLobby(lobbyID); ok {
				msg.Stage = deriveStage(snapshot, playerID)
			}
		}
		if err := client.send(msg); err != nil {
			log.Printf("ws write failed lobby_id=%s err=%v", lobbyID, err)
		}
	})

	if snapshot, ok := s.store.snapshotLobby(lobbyID); ok {
		msg := wsMessage{Type: "snapshot", Lobby: snapshot}
		if playerID != "" {
			msg.Stage = deriveStage(snapshot, playerID)
		}
		if err := client.send(msg); err != nil {
			sub.Cancel()
			s.ws.Remove(lobbyID, client)
			return
		}
	}

	go s.readWS(lobbyID, client, sub)
}

func (s *Server) readWS(lobbyID string, client *wsClient, sub *Subscription) {
	defer func() {
		sub.Cancel()
		s.ws.Remove(lobbyID, client)
	}()
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected lobby_id=%s error=%v", lobbyID, err)
			return
		}
	}
}
