package server

import "time"

const (
	modeTrivia      = "trivia"
	modePredictions = "predictions"
)

// Lobby-level stages, persisted in the lobbies.game_stage column.
const (
	stageLobby       = "lobby"
	stageFavorites   = "favorites"
	stageTrivia      = "trivia_started"
	stagePredictions = "predictions"
	stageFinal       = "final"
)

// Per-session stages derived by the game controller for one player.
const (
	sessionStageLobby      = "lobby"
	sessionStageSubmitting = "submitting_data"
	sessionStageWaiting    = "waiting_for_content"
	sessionStagePlaying    = "playing"
	sessionStageFinished   = "finished"
	sessionStageEnded      = "ended"
)

const (
	difficultyEasy   = "easy"
	difficultyMedium = "medium"
	difficultyHard   = "hard"
)

type LobbyConfig struct {
	QuestionCount int `json:"question_count"`
	TimeLimit     int `json:"time_limit"`
}

type Lobby struct {
	ID        string      `json:"id"`
	Code      string      `json:"code"`
	HostID    string      `json:"host_id"`
	Mode      string      `json:"mode"`
	GameStage string      `json:"game_stage"`
	Config    LobbyConfig `json:"config"`
	StartedAt *time.Time  `json:"started_at"`
	EndedAt   *time.Time  `json:"ended_at"`
	CreatedAt time.Time   `json:"created_at"`

	Players     []Player        `json:"players"`
	Categories  []Category      `json:"categories,omitempty"`
	Predictions []Prediction    `json:"predictions,omitempty"`
	Favorites   []FavoriteMovie `json:"favorite_movies,omitempty"`
	Questions   []Question      `json:"questions,omitempty"`
	Answers     []Answer        `json:"answers,omitempty"`
	Roasts      []Roast         `json:"roasts,omitempty"`
	Chat        []ChatMessage   `json:"chat_messages,omitempty"`
	FinalBurn   *FinalBurn      `json:"final_burn,omitempty"`

	// Awarded lists category ids whose prediction points have been paid
	// out, guarding against double scoring.
	Awarded []string `json:"awarded_categories,omitempty"`
}

type Player struct {
	ID               string    `json:"id"`
	LobbyID          string    `json:"lobby_id"`
	Name             string    `json:"name"`
	IsHost           bool      `json:"is_host"`
	Score            int       `json:"score"`
	Streak           int       `json:"streak"`
	CorrectAnswers   int       `json:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers"`
	HasBeenRoasted   bool      `json:"has_been_roasted"`
	JoinedAt         time.Time `json:"created_at"`
}

type Category struct {
	ID       string    `json:"id"`
	LobbyID  string    `json:"lobby_id"`
	Name     string    `json:"name"`
	Order    int       `json:"order"`
	Locked   bool      `json:"locked"`
	Nominees []Nominee `json:"nominees"`
}

type Nominee struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Movie      string `json:"movie,omitempty"`
	IsWinner   bool   `json:"is_winner"`
}

type Prediction struct {
	ID         string `json:"id"`
	PlayerID   string `json:"player_id"`
	CategoryID string `json:"category_id"`
	NomineeID  string `json:"nominee_id"`
}

type FavoriteMovie struct {
	ID         string `json:"id"`
	PlayerID   string `json:"player_id"`
	MovieTitle string `json:"movie_title"`
}

type Question struct {
	ID            string   `json:"id"`
	LobbyID       string   `json:"lobby_id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	MovieTitle    string   `json:"movie_title,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Difficulty    string   `json:"difficulty"`
	Points        int      `json:"points"`
}

type Answer struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"player_id"`
	QuestionID string    `json:"question_id"`
	Answer     string    `json:"answer"`
	IsCorrect  bool      `json:"is_correct"`
	AnswerMS   int       `json:"answer_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type Roast struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"player_id"`
	QuestionID string    `json:"question_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type FinalBurn struct {
	ID        string   `json:"id"`
	LobbyID   string   `json:"lobby_id"`
	PlayerID  string   `json:"player_id"`
	Content   string   `json:"content"`
	ShameList []string `json:"shame_list"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	LobbyID   string    `json:"lobby_id"`
	PlayerID  string    `json:"player_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
