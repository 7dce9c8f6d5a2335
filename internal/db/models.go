package db

import (
	"time"

	"gorm.io/datatypes"
)

type Lobby struct {
	ID        string         `gorm:"type:uuid;primaryKey"`
	Code      string         `gorm:"size:4;uniqueIndex;not null"`
	HostID    string         `gorm:"type:uuid;not null"`
	Mode      string         `gorm:"size:16;not null;default:trivia"`
	GameStage string         `gorm:"size:32;not null"`
	Config    datatypes.JSON `gorm:"type:jsonb"`
	StartedAt *time.Time
	EndedAt   *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Players   []Player
	Questions []Question
	Events    []Event
}

type Player struct {
	ID               string `gorm:"type:uuid;primaryKey"`
	LobbyID          string `gorm:"type:uuid;index;not null"`
	Name             string `gorm:"size:64;not null"`
	IsHost           bool   `gorm:"not null;default:false"`
	Score            int    `gorm:"not null;default:0"`
	Streak           int    `gorm:"not null;default:0"`
	CorrectAnswers   int    `gorm:"not null;default:0"`
	IncorrectAnswers int    `gorm:"not null;default:0"`
	HasBeenRoasted   bool   `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

type Category struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	LobbyID   string `gorm:"type:uuid;index;not null"`
	Name      string `gorm:"size:128;not null"`
	Order     int    `gorm:"column:display_order;not null;default:0"`
	Locked    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Nominees  []Nominee
}

type Nominee struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	CategoryID string `gorm:"type:uuid;index;not null"`
	Name       string `gorm:"size:128;not null"`
	Movie      string `gorm:"size:128"`
	IsWinner   bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// Prediction holds at most one live pick per player and category.
type Prediction struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	PlayerID   string `gorm:"type:uuid;index;not null;uniqueIndex:idx_predictions_player_category"`
	CategoryID string `gorm:"type:uuid;not null;uniqueIndex:idx_predictions_player_category"`
	NomineeID  string `gorm:"type:uuid;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// Movie caches TMDb lookups so repeat generations skip the API.
type Movie struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	TMDbID      int    `gorm:"column:tmdb_id"`
	Title       string `gorm:"size:256;uniqueIndex;not null"`
	PosterPath  string `gorm:"size:256"`
	ReleaseDate string `gorm:"size:16"`
	Overview    string `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
}

type FavoriteMovie struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	PlayerID   string `gorm:"type:uuid;index;not null"`
	MovieTitle string `gorm:"size:256;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

type Question struct {
	ID            string         `gorm:"type:uuid;primaryKey"`
	LobbyID       string         `gorm:"type:uuid;index;not null"`
	Question      string         `gorm:"type:text;not null"`
	Options       datatypes.JSON `gorm:"type:jsonb;not null"`
	CorrectAnswer string         `gorm:"size:256;not null"`
	Explanation   string         `gorm:"type:text"`
	MovieID       *string        `gorm:"type:uuid"`
	MovieTitle    string         `gorm:"size:256"`
	ImageURL      string         `gorm:"size:512"`
	Difficulty    string         `gorm:"size:16;not null;default:medium"`
	Points        int            `gorm:"not null;default:100"`
	CreatedAt     time.Time      `gorm:"not null"`
}

// Answer rows are append-only per player and question.
type Answer struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	PlayerID   string `gorm:"type:uuid;index;not null"`
	QuestionID string `gorm:"type:uuid;index;not null"`
	Answer     string `gorm:"size:256;not null"`
	IsCorrect  bool   `gorm:"not null"`
	AnswerMS   int    `gorm:"column:answer_ms;not null;default:0"`
	CreatedAt  time.Time `gorm:"not null"`
}

type Roast struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	PlayerID   string `gorm:"type:uuid;index;not null"`
	QuestionID string `gorm:"type:uuid;not null"`
	Content    string `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

type FinalBurn struct {
	ID        string         `gorm:"type:uuid;primaryKey"`
	LobbyID   string         `gorm:"type:uuid;index;not null"`
	PlayerID  string         `gorm:"type:uuid;not null"`
	Content   string         `gorm:"type:text;not null"`
	ShameList datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null"`
}

// ShameMovie records a movie a player plainly needs to rewatch.
type ShameMovie struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	PlayerID   string    `gorm:"type:uuid;index;not null"`
	MovieTitle string    `gorm:"size:256;not null"`
	Reason     string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
}

type ChatMessage struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	LobbyID   string `gorm:"type:uuid;index;not null"`
	PlayerID  string `gorm:"type:uuid;not null"`
	Emoji     string `gorm:"size:16;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type Event struct {
	ID        string         `gorm:"type:uuid;primaryKey"`
	LobbyID   string         `gorm:"type:uuid;index;not null"`
	PlayerID  *string        `gorm:"type:uuid"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

type Session struct {
	ID         string `gorm:"primaryKey;size:64"`
	LobbyID    string `gorm:"type:uuid"`
	PlayerID   string `gorm:"type:uuid"`
	LobbyCode  string `gorm:"size:4"`
	PlayerName string
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
