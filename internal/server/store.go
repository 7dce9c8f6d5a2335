package server

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store holds the transient in-memory copy of each active lobby. The
// database remains the authority; everything here is rebuilt from a fetch
// on restart.
type Store struct {
	mu      sync.Mutex
	lobbies map[string]*Lobby
	byCode  map[string]*Lobby
}

func NewStore() *Store {
	return &Store{
		lobbies: make(map[string]*Lobby),
		byCode:  make(map[string]*Lobby),
	}
}

// CreateLobby generates a join code, retrying until it is unused among
// active lobbies, and seats the host as the first player.
func (s *Store) CreateLobby(hostName, mode string, cfg LobbyConfig) (*Lobby, *Player) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := newLobbyCode()
	for _, taken := s.byCode[code]; taken; _, taken = s.byCode[code] {
		code = newLobbyCode()
	}

	hostID := uuid.NewString()
	lobby := &Lobby{
		ID:        uuid.NewString(),
		Code:      code,
		HostID:    hostID,
		Mode:      mode,
		GameStage: stageLobby,
		Config:    cfg,
		CreatedAt: timeNowUTC(),
	}
	host := Player{
		ID:       hostID,
		LobbyID:  lobby.ID,
		Name:     hostName,
		IsHost:   true,
		JoinedAt: timeNowUTC(),
	}
	lobby.Players = append(lobby.Players, host)
	s.lobbies[lobby.ID] = lobby
	s.byCode[code] = lobby
	return lobby, &lobby.Players[0]
}

func (s *Store) GetLobby(id string) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lobby, ok := s.lobbies[id]
	return lobby, ok
}

func (s *Store) FindLobbyByCode(code string) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lobby, ok := s.byCode[normalizeLobbyCode(code)]
	return lobby, ok
}

// ResolveLobby accepts either a lobby id or a join code.
func (s *Store) ResolveLobby(idOrCode string) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lobby, ok := s.lobbies[idOrCode]; ok {
		return lobby, true
	}
	lobby, ok := s.byCode[normalizeLobbyCode(idOrCode)]
	return lobby, ok
}

// FindLobbyIDByCategory returns the id of the lobby holding the given
// ballot category. Category ids are globally unique.
func (s *Store) FindLobbyIDByCategory(categoryID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, lobby := range s.lobbies {
		for i := range lobby.Categories {
			if lobby.Categories[i].ID == categoryID {
				return id, true
			}
		}
	}
	return "", false
}

// FindLobbyIDByPlayer returns the id of the lobby whose roster holds the
// given player.
func (s *Store) FindLobbyIDByPlayer(playerID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, lobby := range s.lobbies {
		for i := range lobby.Players {
			if lobby.Players[i].ID == playerID {
				return id, true
			}
		}
	}
	return "", false
}

func (s *Store) UpdateLobby(idOrCode string, update func(lobby *Lobby) error) (*Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lobby, ok := s.lobbies[idOrCode]
	if !ok {
		lobby, ok = s.byCode[normalizeLobbyCode(idOrCode)]
	}
	if !ok {
		return nil, errLobbyNotFound
	}
	if err := update(lobby); err != nil {
		return nil, err
	}
	return lobby, nil
}

// RemoveLobby drops an in-memory lobby; used as the compensating step when
// host-player persistence fails during creation.
func (s *Store) RemoveLobby(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lobby, ok := s.lobbies[id]
	if !ok {
		return
	}
	delete(s.lobbies, id)
	delete(s.byCode, lobby.Code)
}

func (s *Store) AddPlayer(code, name string) (*Lobby, *Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby, ok := s.byCode[normalizeLobbyCode(code)]
	if !ok {
		lobby, ok = s.lobbies[code]
	}
	if !ok {
		return nil, nil, errLobbyNotFound
	}
	if lobby.EndedAt != nil {
		return nil, nil, wrapKind(errConflict, "game already ended")
	}
	if len(lobby.Players) >= maxLobbySize {
		return nil, nil, wrapKind(errConflict, "lobby is full")
	}
	for i := range lobby.Players {
		if strings.EqualFold(lobby.Players[i].Name, name) {
			return nil, nil, wrapKind(errConflict, "name already taken")
		}
	}

	player := Player{
		ID:       uuid.NewString(),
		LobbyID:  lobby.ID,
		Name:     name,
		JoinedAt: timeNowUTC(),
	}
	lobby.Players = append(lobby.Players, player)
	seated := player
	return lobby, &seated, nil
}

// FindPlayer looks a player up inside a lobby already held by the caller.
func (s *Store) FindPlayer(lobby *Lobby, playerID string) (*Player, bool) {
	for i := range lobby.Players {
		if lobby.Players[i].ID == playerID {
			return &lobby.Players[i], true
		}
	}
	return nil, false
}

// RemovePlayer takes a player out of the roster and returns the removed
// copy. The host cannot be removed; ending the game is the way out.
func (s *Store) RemovePlayer(idOrCode, playerID string) (*Lobby, *Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lobby, ok := s.lobbies[idOrCode]
	if !ok {
		lobby, ok = s.byCode[normalizeLobbyCode(idOrCode)]
	}
	if !ok {
		return nil, nil, errLobbyNotFound
	}
	if lobby.HostID == playerID {
		return nil, nil, wrapKind(errConflict, "the host cannot leave")
	}
	for i := range lobby.Players {
		if lobby.Players[i].ID != playerID {
			continue
		}
		removed := lobby.Players[i]
		lobby.Players = append(lobby.Players[:i], lobby.Players[i+1:]...)
		return lobby, &removed, nil
	}
	return nil, nil, errPlayerNotFound
}
