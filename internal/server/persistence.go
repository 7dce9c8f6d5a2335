package server

import (
	"encoding/json"
	"errors"
	"log"

	"oscars-party/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Persistence mirrors in-memory lobby state into Postgres. Every writer
// tolerates a nil connection so the server can run storage-free in tests
// and local play.

func (s *Server) persistLobby(lobby *Lobby) error {
	if s.db == nil {
		return nil
	}
	cfg, err := json.Marshal(lobby.Config)
	if err != nil {
		return err
	}
	record := db.Lobby{
		ID:        lobby.ID,
		Code:      lobby.Code,
		HostID:    lobby.HostID,
		Mode:      lobby.Mode,
		GameStage: lobby.GameStage,
		Config:    datatypes.JSON(cfg),
		StartedAt: lobby.StartedAt,
		EndedAt:   lobby.EndedAt,
		CreatedAt: lobby.CreatedAt,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	return s.persistEvent(lobby.ID, nil, "lobby_created", eventPayload{
		LobbyCode: lobby.Code,
	})
}

func (s *Server) persistLobbyUpdate(lobby *Lobby) error {
	if s.db == nil {
		return nil
	}
	cfg, err := json.Marshal(lobby.Config)
	if err != nil {
		return err
	}
	return s.db.Model(&db.Lobby{}).
		Where("id = ?", lobby.ID).
		Updates(map[string]any{
			"game_stage": lobby.GameStage,
			"config":     datatypes.JSON(cfg),
			"started_at": lobby.StartedAt,
			"ended_at":   lobby.EndedAt,
		}).Error
}

// deleteLobby is the compensating step when seating the host fails after
// the lobby row was already written.
func (s *Server) deleteLobby(lobbyID string) error {
	if s.db == nil {
		return nil
	}
	return s.db.Where("id = ?", lobbyID).Delete(&db.Lobby{}).Error
}

func (s *Server) persistPlayer(lobby *Lobby, player *Player) error {
	if s.db == nil {
		return nil
	}
	record := db.Player{
		ID:        player.ID,
		LobbyID:   lobby.ID,
		Name:      player.Name,
		IsHost:    player.IsHost,
		CreatedAt: player.JoinedAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return s.persistEvent(lobby.ID, &player.ID, "player_joined", eventPayload{
		PlayerName: player.Name,
	})
}

func (s *Server) deletePlayerRow(playerID string) error {
	if s.db == nil {
		return nil
	}
	return s.db.Where("id = ?", playerID).Delete(&db.Player{}).Error
}

func (s *Server) persistPlayerUpdate(player *Player) error {
	if s.db == nil {
		return nil
	}
	return s.db.Model(&db.Player{}).
		Where("id = ?", player.ID).
		Updates(map[string]any{
			"score":             player.Score,
			"streak":            player.Streak,
			"correct_answers":   player.CorrectAnswers,
			"incorrect_answers": player.IncorrectAnswers,
			"has_been_roasted":  player.HasBeenRoasted,
		}).Error
}

func (s *Server) persistFavorite(fav *FavoriteMovie) error {
	if s.db == nil {
		return nil
	}
	record := db.FavoriteMovie{
		ID:         fav.ID,
		PlayerID:   fav.PlayerID,
		MovieTitle: fav.MovieTitle,
		CreatedAt:  timeNowUTC(),
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

func (s *Server) persistQuestion(lobby *Lobby, q *Question) error {
	if s.db == nil {
		return nil
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	record := db.Question{
		ID:            q.ID,
		LobbyID:       lobby.ID,
		Question:      q.Question,
		Options:       datatypes.JSON(options),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		MovieTitle:    q.MovieTitle,
		ImageURL:      q.ImageURL,
		Difficulty:    q.Difficulty,
		Points:        q.Points,
		CreatedAt:     timeNowUTC(),
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

func (s *Server) persistAnswer(a *Answer) error {
	if s.db == nil {
		return nil
	}
	record := db.Answer{
		ID:         a.ID,
		PlayerID:   a.PlayerID,
		QuestionID: a.QuestionID,
		Answer:     a.Answer,
		IsCorrect:  a.IsCorrect,
		AnswerMS:   a.AnswerMS,
		CreatedAt:  a.CreatedAt,
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

func (s *Server) persistCategory(lobby *Lobby, cat *Category) error {
	if s.db == nil {
		return nil
	}
	record := db.Category{
		ID:        cat.ID,
		LobbyID:   lobby.ID,
		Name:      cat.Name,
		Order:     cat.Order,
		Locked:    cat.Locked,
		CreatedAt: timeNowUTC(),
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	for i := range cat.Nominees {
		nom := &cat.Nominees[i]
		nomRecord := db.Nominee{
			ID:         nom.ID,
			CategoryID: cat.ID,
			Name:       nom.Name,
			Movie:      nom.Movie,
			IsWinner:   nom.IsWinner,
			CreatedAt:  timeNowUTC(),
		}
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&nomRecord).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) persistPrediction(pred *Prediction) error {
	if s.db == nil {
		return nil
	}
	record := db.Prediction{
		ID:         pred.ID,
		PlayerID:   pred.PlayerID,
		CategoryID: pred.CategoryID,
		NomineeID:  pred.NomineeID,
		CreatedAt:  timeNowUTC(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "category_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nominee_id"}),
	}).Create(&record).Error
}

// persistWinner resets all nominee winner flags in the category, marks the
// chosen nominee, and locks the category in one transaction.
func (s *Server) persistWinner(categoryID, nomineeID string) error {
	if s.db == nil {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Nominee{}).
			Where("category_id = ?", categoryID).
			Update("is_winner", false).Error; err != nil {
			return err
		}
		result := tx.Model(&db.Nominee{}).
			Where("id = ? AND category_id = ?", nomineeID, categoryID).
			Update("is_winner", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("nominee not in category")
		}
		return tx.Model(&db.Category{}).
			Where("id = ?", categoryID).
			Update("locked", true).Error
	})
}

func (s *Server) persistRoast(roast *Roast) error {
	if s.db == nil {
		return nil
	}
	record := db.Roast{
		ID:         roast.ID,
		PlayerID:   roast.PlayerID,
		QuestionID: roast.QuestionID,
		Content:    roast.Content,
		CreatedAt:  roast.CreatedAt,
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

func (s *Server) persistFinalBurn(lobby *Lobby, burn *FinalBurn) error {
	if s.db == nil {
		return nil
	}
	shame, err := json.Marshal(burn.ShameList)
	if err != nil {
		return err
	}
	record := db.FinalBurn{
		ID:        burn.ID,
		LobbyID:   lobby.ID,
		PlayerID:  burn.PlayerID,
		Content:   burn.Content,
		ShameList: datatypes.JSON(shame),
		CreatedAt: timeNowUTC(),
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	for _, title := range burn.ShameList {
		row := db.ShameMovie{
			ID:         uuid.NewString(),
			PlayerID:   burn.PlayerID,
			MovieTitle: title,
			Reason:     "missed a question about it",
			CreatedAt:  timeNowUTC(),
		}
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) persistChatMessage(msg *ChatMessage) error {
	if s.db == nil {
		return nil
	}
	record := db.ChatMessage{
		ID:        msg.ID,
		LobbyID:   msg.LobbyID,
		PlayerID:  msg.PlayerID,
		Emoji:     msg.Emoji,
		CreatedAt: msg.CreatedAt,
	}
	return s.db.Create(&record).Error
}

type eventPayload struct {
	LobbyCode  string `json:"lobby_code,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Stage      string `json:"stage,omitempty"`
	QuestionID string `json:"question_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func (s *Server) persistEvent(lobbyID string, playerID *string, eventType string, payload eventPayload) error {
	if s.db == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	record := db.Event{
		ID:        uuid.NewString(),
		LobbyID:   lobbyID,
		PlayerID:  playerID,
		Type:      eventType,
		Payload:   datatypes.JSON(body),
		CreatedAt: timeNowUTC(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Printf("persist event failed type=%s lobby=%s err=%v", eventType, lobbyID, err)
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
