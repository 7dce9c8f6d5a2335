package server

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"oscars-party/internal/db"

	"gorm.io/gorm"
)

// sessionStore ties a browser to the seat it holds in a lobby so reloads
// and reconnects land back on the same player. Sessions live in Postgres
// when a connection is configured and fall back to process memory
// otherwise.
type sessionStore struct {
	db       *gorm.DB
	mu       sync.Mutex
	sessions map[string]sessionData
}

type sessionData struct {
	LobbyID   string
	PlayerID  string
	LobbyCode string
	Name      string
}

func newSessionStore(conn *gorm.DB) *sessionStore {
	return &sessionStore{
		db:       conn,
		sessions: make(map[string]sessionData),
	}
}

// SetSeat records the lobby and player a session belongs to.
func (s *sessionStore) SetSeat(w http.ResponseWriter, r *http.Request, lobbyID, playerID, code string) {
	id := s.ensureSessionID(w, r)
	if s.db == nil {
		s.mu.Lock()
		data := s.sessions[id]
		data.LobbyID = lobbyID
		data.PlayerID = playerID
		data.LobbyCode = code
		s.sessions[id] = data
		s.mu.Unlock()
		return
	}
	var record db.Session
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		record = db.Session{ID: id}
	}
	record.LobbyID = lobbyID
	record.PlayerID = playerID
	record.LobbyCode = code
	_ = s.db.Save(&record).Error
}

// Seat returns the lobby id, player id, and join code held by the session.
func (s *sessionStore) Seat(w http.ResponseWriter, r *http.Request) (string, string, string) {
	id := s.ensureSessionID(w, r)
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		data := s.sessions[id]
		return data.LobbyID, data.PlayerID, data.LobbyCode
	}
	var record db.Session
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		return "", "", ""
	}
	return record.LobbyID, record.PlayerID, record.LobbyCode
}

// ClearSeat drops the lobby binding but keeps the remembered name.
func (s *sessionStore) ClearSeat(w http.ResponseWriter, r *http.Request) {
	id := s.ensureSessionID(w, r)
	if s.db == nil {
		s.mu.Lock()
		data := s.sessions[id]
		data.LobbyID = ""
		data.PlayerID = ""
		data.LobbyCode = ""
		s.sessions[id] = data
		s.mu.Unlock()
		return
	}
	var record db.Session
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		return
	}
	record.LobbyID = ""
	record.PlayerID = ""
	record.LobbyCode = ""
	_ = s.db.Save(&record).Error
}

func (s *sessionStore) SetName(w http.ResponseWriter, r *http.Request, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	id := s.ensureSessionID(w, r)
	if s.db == nil {
		s.mu.Lock()
		data := s.sessions[id]
		data.Name = name
		s.sessions[id] = data
		s.mu.Unlock()
		return
	}
	var record db.Session
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		record = db.Session{ID: id}
	}
	record.PlayerName = name
	_ = s.db.Save(&record).Error
}

func (s *sessionStore) GetName(w http.ResponseWriter, r *http.Request) string {
	id := s.ensureSessionID(w, r)
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.sessions[id].Name
	}
	var record db.Session
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		return ""
	}
	return record.PlayerName
}

func (s *sessionStore) ensureSessionID(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie("op_session")
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := newSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     "op_session",
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	// Later lookups in the same request must see the same id.
	r.AddCookie(&http.Cookie{Name: "op_session", Value: id})
	return id
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("sess-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", buf)
}
