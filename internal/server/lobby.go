package server

import (
	"log"
	"strings"
)

// createLobby seats the host as the first player. The lobby row is written
// before the host row; if seating the host fails the lobby row is deleted
// again so no orphan lobby survives a partial create.
func (s *Server) createLobby(hostName, mode string, cfg LobbyConfig) (*Lobby, *Player, error) {
	hostName = strings.TrimSpace(hostName)
	if err := validatePlayerName(hostName); err != nil {
		return nil, nil, err
	}
	switch mode {
	case "":
		mode = modeTrivia
	case modeTrivia, modePredictions:
	default:
		return nil, nil, wrapKind(errValidation, "unknown game mode")
	}
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = s.cfg.QuestionCount
	}
	if cfg.QuestionCount > maxQuestionCount {
		cfg.QuestionCount = maxQuestionCount
	}
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = s.cfg.TimeLimitSeconds
	}

	lobby, host := s.store.CreateLobby(hostName, mode, cfg)
	if err := s.persistLobby(lobby); err != nil {
		s.store.RemoveLobby(lobby.ID)
		log.Printf("create lobby failed code=%s err=%v", lobby.Code, err)
		return nil, nil, wrapKind(errPersistence, "could not save lobby")
	}
	if err := s.persistPlayer(lobby, host); err != nil {
		if delErr := s.deleteLobby(lobby.ID); delErr != nil {
			log.Printf("compensating lobby delete failed lobby_id=%s err=%v", lobby.ID, delErr)
		}
		s.store.RemoveLobby(lobby.ID)
		log.Printf("seat host failed code=%s err=%v", lobby.Code, err)
		return nil, nil, wrapKind(errPersistence, "could not seat host")
	}
	if lobby.Mode == modePredictions {
		if err := s.seedCategories(lobby); err != nil {
			log.Printf("seed categories failed lobby_id=%s err=%v", lobby.ID, err)
		}
	}

	lobbyCopy, _ := s.store.snapshotLobby(lobby.ID)
	hostCopy := *host
	s.feed.Publish(FeedEvent{Table: tableLobbies, Type: feedInsert, LobbyID: lobby.ID, Lobby: lobbyCopy})
	s.feed.Publish(FeedEvent{Table: tablePlayers, Type: feedInsert, LobbyID: lobby.ID, Player: &hostCopy})
	log.Printf("lobby created code=%s mode=%s host=%s", lobby.Code, lobby.Mode, host.Name)
	return lobbyCopy, &hostCopy, nil
}

// joinLobby adds a player by join code. Codes match regardless of case or
// stray spaces. Names must be unique within the lobby.
func (s *Server) joinLobby(code, name string) (*Lobby, *Player, error) {
	name = strings.TrimSpace(name)
	if err := validatePlayerName(name); err != nil {
		return nil, nil, err
	}
	lobby, player, err := s.store.AddPlayer(code, name)
	if err != nil {
		return nil, nil, err
	}
	playerCopy := *player
	snapshot, _ := s.store.snapshotLobby(lobby.ID)
	if err := s.persistPlayer(snapshot, &playerCopy); err != nil {
		log.Printf("persist player failed lobby_id=%s name=%s err=%v", snapshot.ID, name, err)
		return nil, nil, wrapKind(errPersistence, "could not save player")
	}

	s.feed.Publish(FeedEvent{Table: tablePlayers, Type: feedInsert, LobbyID: snapshot.ID, Player: &playerCopy})
	log.Printf("player joined code=%s name=%s", snapshot.Code, name)
	return snapshot, &playerCopy, nil
}

// leaveLobby removes a player who bails before or during the game. Their
// rows stay in the database for the record; only the live roster shrinks.
func (s *Server) leaveLobby(idOrCode, playerID string) (*Lobby, error) {
	lobby, removed, err := s.store.RemovePlayer(idOrCode, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.deletePlayerRow(removed.ID); err != nil {
		log.Printf("delete player row failed player_id=%s err=%v", removed.ID, err)
	}
	_ = s.persistEvent(lobby.ID, &removed.ID, "player_left", eventPayload{PlayerName: removed.Name})

	snapshot, _ := s.store.snapshotLobby(lobby.ID)
	s.feed.Publish(FeedEvent{Table: tablePlayers, Type: feedDelete, LobbyID: lobby.ID, OldPlayer: removed})
	log.Printf("player left code=%s name=%s", snapshot.Code, removed.Name)
	return snapshot, nil
}

// startGame moves the lobby out of the waiting room. StartedAt is set
// exactly once so clients already redirected by an earlier start do not
// loop.
func (s *Server) startGame(idOrCode, playerID string) (*Lobby, error) {
	var snapshot *Lobby
	_, err := s.store.UpdateLobby(idOrCode, func(lobby *Lobby) error {
		if lobby.HostID != playerID {
			return wrapKind(errValidation, "only the host can start the game")
		}
		if lobby.EndedAt != nil {
			return wrapKind(errConflict, "game already ended")
		}
		if lobby.StartedAt == nil {
			now := timeNowUTC()
			lobby.StartedAt = &now
			switch lobby.Mode {
			case modePredictions:
				lobby.GameStage = stagePredictions
			default:
				lobby.GameStage = stageFavorites
			}
		}
		snapshot = copyLobby(lobby)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistLobbyUpdate(snapshot); err != nil {
		log.Printf("persist start failed lobby_id=%s err=%v", snapshot.ID, err)
	}
	_ = s.persistEvent(snapshot.ID, &playerID, "game_started", eventPayload{Stage: snapshot.GameStage})
	s.feed.Publish(FeedEvent{Table: tableLobbies, Type: feedUpdate, LobbyID: snapshot.ID, Lobby: snapshot})
	log.Printf("game started code=%s stage=%s", snapshot.Code, snapshot.GameStage)
	return snapshot, nil
}

// endGame closes the lobby and kicks off the final burn for the player with
// the most wrong answers.
func (s *Server) endGame(idOrCode, playerID string) (*Lobby, error) {
	var snapshot *Lobby
	_, err := s.store.UpdateLobby(idOrCode, func(lobby *Lobby) error {
		if lobby.HostID != playerID {
			return wrapKind(errValidation, "only the host can end the game")
		}
		if lobby.EndedAt == nil {
			now := timeNowUTC()
			lobby.EndedAt = &now
			lobby.GameStage = stageFinal
		}
		snapshot = copyLobby(lobby)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistLobbyUpdate(snapshot); err != nil {
		log.Printf("persist end failed lobby_id=%s err=%v", snapshot.ID, err)
	}
	_ = s.persistEvent(snapshot.ID, &playerID, "game_ended", eventPayload{Stage: stageFinal})
	s.feed.Publish(FeedEvent{Table: tableLobbies, Type: feedUpdate, LobbyID: snapshot.ID, Lobby: snapshot})
	log.Printf("game ended code=%s", snapshot.Code)

	if snapshot.FinalBurn == nil {
		go s.deliverFinalBurn(snapshot.ID)
	}
	return snapshot, nil
}
