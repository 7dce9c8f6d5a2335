package server

import (
	"log"

	"oscars-party/internal/db"

	"github.com/google/uuid"
)

// seedCategories loads the ballot into a fresh predictions lobby.
func (s *Server) seedCategories(created *Lobby) error {
	var snapshot *Lobby
	_, err := s.store.UpdateLobby(created.ID, func(lobby *Lobby) error {
		if len(lobby.Categories) > 0 {
			return nil
		}
		for order, seed := range defaultBallot {
			cat := Category{
				ID:      uuid.NewString(),
				LobbyID: lobby.ID,
				Name:    seed.Name,
				Order:   order + 1,
			}
			for _, nom := range seed.Nominees {
				cat.Nominees = append(cat.Nominees, Nominee{
					ID:         uuid.NewString(),
					CategoryID: cat.ID,
					Name:       nom.Name,
					Movie:      nom.Movie,
				})
			}
			lobby.Categories = append(lobby.Categories, cat)
		}
		snapshot = copyLobby(lobby)
		return nil
	})
	if err != nil {
		return err
	}
	for i := range snapshot.Categories {
		if err := s.persistCategory(snapshot, &snapshot.Categories[i]); err != nil {
			return err
		}
	}
	return nil
}

// makePrediction records a player's pick for a category, replacing any
// earlier pick. Locked categories reject new picks.
func (s *Server) makePrediction(idOrCode, playerID, categoryID, nomineeID string) (*Lobby, error) {
	var snapshot *Lobby
	var predCopy Prediction
	_, err := s.store.UpdateLobby(idOrCode, func(lobby *Lobby) error {
		if lobby.EndedAt != nil {
			return wrapKind(errConflict, "game already ended")
		}
		if _, ok := s.store.FindPlayer(lobby, playerID); !ok {
			return errPlayerNotFound
		}
		category := findCategory(lobby, categoryID)
		if category == nil {
			return wrapKind(errNotFound, "category not found")
		}
		if category.Locked {
			return wrapKind(errConflict, "category is locked")
		}
		if findNominee(category, nomineeID) == nil {
			return wrapKind(errNotFound, "nominee not in category")
		}

		updated := false
		for i := range lobby.Predictions {
			p := &lobby.Predictions[i]
			if p.PlayerID == playerID && p.CategoryID == categoryID {
				p.NomineeID = nomineeID
				predCopy = *p
				updated = true
				break
			}
		}
		if !updated {
			pred := Prediction{
				ID:         uuid.NewString(),
				PlayerID:   playerID,
				CategoryID: categoryID,
				NomineeID:  nomineeID,
			}
			lobby.Predictions = append(lobby.Predictions, pred)
			predCopy = pred
		}
		snapshot = copyLobby(lobby)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistPrediction(&predCopy); err != nil {
		log.Printf("persist prediction failed lobby_id=%s err=%v", snapshot.ID, err)
	}
	s.feed.Publish(FeedEvent{Table: tablePredictions, Type: feedInsert, LobbyID: snapshot.ID, Prediction: &predCopy})
	return snapshot, nil
}

// lockCategory stops further picks, usually just before the envelope opens.
func (s *Server) lockCategory(idOrCode, playerID, categoryID string) (*Lobby, error) {
	var snapshot *Lobby
	var catCopy Category
	_, err := s.store.UpdateLobby(idOrCode, func(lobby *Lobby) error {
		if lobby.HostID != playerID {
			return wrapKind(errValidation, "only the host can lock a category")
		}
		category := findCategory(lobby, categoryID)
		if category == nil {
			return wrapKind(errNotFound, "category not found")
		}
		category.Locked = true
		catCopy = *category
		catCopy.Nominees = append([]Nominee(nil), category.Nominees...)
		snapshot = copyLobby(lobby)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.db != nil {
		if err := s.db.Model(&db.Category{}).Where("id = ?", categoryID).Update("locked", true).Error; err != nil {
			log.Printf("persist lock failed category_id=%s err=%v", categoryID, err)
		}
	}
	s.feed.Publish(FeedEvent{Table: tableCategories, Type: feedUpdate, LobbyID: snapshot.ID, Category: &catCopy})
	return snapshot, nil
}

// setWinner marks the winning nominee, locks the category, and pays out
// prediction points. The reset-then-set runs inside one database
// transaction so a crash can never leave two winners standing.
func (s *Server) setWinner(idOrCode, playerID, categoryID, nomineeID string) (*Lobby, error) {
	var snapshot *Lobby
	var catCopy Category
	var changedPlayers []Player
	_, err := s.store.UpdateLobby(idOrCode, func(lobby *Lobby) error {
		if lobby.HostID != playerID {
			return wrapKind(errValidation, "only the host can set a winner")
		}
		category := findCategory(lobby, categoryID)
		if category == nil {
			return wrapKind(errNotFound, "category not found")
		}
		winner := findNominee(category, nomineeID)
		if winner == nil {
			return wrapKind(errNotFound, "nominee not in category")
		}

		for i := range category.Nominees {
			category.Nominees[i].IsWinner = false
		}
		winner.IsWinner = true
		category.Locked = true

		changedPlayers = awardCategoryLocked(lobby, categoryID, nomineeID, s.cfg.PredictionPoints)

		catCopy = *category
		catCopy.Nominees = append([]Nominee(nil), category.Nominees...)
		snapshot = copyLobby(lobby)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.persistWinner(categoryID, nomineeID); err != nil {
		log.Printf("persist winner failed category_id=%s err=%v", categoryID, err)
	}
	for i := range changedPlayers {
		if err := s.persistPlayerUpdate(&changedPlayers[i]); err != nil {
			log.Printf("persist player failed lobby_id=%s err=%v", snapshot.ID, err)
		}
	}
	_ = s.persistEvent(snapshot.ID, &playerID, "winner_set", eventPayload{CategoryID: categoryID})

	s.feed.Publish(FeedEvent{Table: tableCategories, Type: feedUpdate, LobbyID: snapshot.ID, Category: &catCopy})
	for i := range changedPlayers {
		p := changedPlayers[i]
		s.feed.Publish(FeedEvent{Table: tablePlayers, Type: feedUpdate, LobbyID: snapshot.ID, Player: &p})
	}
	log.Printf("winner set code=%s category=%s", snapshot.Code, catCopy.Name)
	return snapshot, nil
}

// updateScores pays out a category for the given winning nominee, used to
// catch up a payout that did not run when the winner was set. Safe to call
// twice: each category only awards once.
func (s *Server) updateScores(categoryID, nomineeID string) (*Lobby, int, error) {
	lobbyID, ok := s.store.FindLobbyIDByCategory(categoryID)
	if !ok {
		return nil, 0, wrapKind(errNotFound, "category not found")
	}

	var snapshot *Lobby
	var changedPlayers []Player
	_, err := s.store.UpdateLobby(lobbyID, func(lobby *Lobby) error {
		category := findCategory(lobby, categoryID)
		if category == nil {
			return wrapKind(errNotFound, "category not found")
		}
		if findNominee(category, nomineeID) == nil {
			return wrapKind(errNotFound, "nominee not in category")
		}
		changedPlayers = awardCategoryLocked(lobby, categoryID, nomineeID, s.cfg.PredictionPoints)
		snapshot = copyLobby(lobby)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	for i := range changedPlayers {
		if err := s.persistPlayerUpdate(&changedPlayers[i]); err != nil {
			log.Printf("persist player failed lobby_id=%s err=%v", snapshot.ID, err)
		}
	}
	for i := range changedPlayers {
		p := changedPlayers[i]
		s.feed.Publish(FeedEvent{Table: tablePlayers, Type: feedUpdate, LobbyID: snapshot.ID, Player: &p})
	}
	return snapshot, len(changedPlayers), nil
}

// awardCategoryLocked adds prediction points for correct picks. Caller must
// hold the store lock. Returns copies of the players whose scores changed;
// empty when the category has already been paid out.
func awardCategoryLocked(lobby *Lobby, categoryID, winnerID string, points int) []Player {
	for _, id := range lobby.Awarded {
		if id == categoryID {
			return nil
		}
	}
	lobby.Awarded = append(lobby.Awarded, categoryID)

	var changed []Player
	for i := range lobby.Predictions {
		pred := &lobby.Predictions[i]
		if pred.CategoryID != categoryID || pred.NomineeID != winnerID {
			continue
		}
		for j := range lobby.Players {
			if lobby.Players[j].ID == pred.PlayerID {
				lobby.Players[j].Score += points
				changed = append(changed, lobby.Players[j])
				break
			}
		}
	}
	return changed
}

func findCategory(lobby *Lobby, categoryID string) *Category {
	for i := range lobby.Categories {
		if lobby.Categories[i].ID == categoryID {
			return &lobby.Categories[i]
		}
	}
	return nil
}

func findNominee(category *Category, nomineeID string) *Nominee {
	for i := range category.Nominees {
		if category.Nominees[i].ID == nomineeID {
			return &category.Nominees[i]
		}
	}
	return nil
}
