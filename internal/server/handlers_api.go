package server

import (
	"context"
	"net/http"
	"time"
)

type createLobbyRequest struct {
	HostName string       `json:"host_name"`
	Mode     string       `json:"mode"`
	Config   *LobbyConfig `json:"config"`
}

type joinRequest struct {
	PlayerName string `json:"player_name"`
}

type hostRequest struct {
	PlayerID string `json:"player_id"`
}

type favoritesRequest struct {
	PlayerID string   `json:"player_id"`
	Movies   []string `json:"movies"`
}

type answerRequest struct {
	PlayerID   string `json:"player_id"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	AnswerMS   int    `json:"answer_ms"`
}

type predictionRequest struct {
	PlayerID   string `json:"player_id"`
	CategoryID string `json:"category_id"`
	NomineeID  string `json:"nominee_id"`
}

type chatRequest struct {
	PlayerID string `json:"player_id"`
	Emoji    string `json:"emoji"`
}

type winnerRequest struct {
	PlayerID   string `json:"player_id"`
	CategoryID string `json:"category_id"`
	NomineeID  string `json:"nominee_id"`
}

type lockRequest struct {
	PlayerID   string `json:"player_id"`
	CategoryID string `json:"category_id"`
}

type updateScoresRequest struct {
	CategoryID string `json:"category_id"`
	NomineeID  string `json:"nominee_id"`
}

type generateQuestionsRequest struct {
	LobbyID string   `json:"lobby_id"`
	Movies  []string `json:"movies"`
	Count   int      `json:"count"`
}

type generateRoastRequest struct {
	PlayerID      string `json:"player_id"`
	QuestionID    string `json:"question_id"`
	PlayerName    string `json:"player_name"`
	Question      string `json:"question"`
	WrongAnswer   string `json:"wrong_answer"`
	CorrectAnswer string `json:"correct_answer"`
}

type generateFinalBurnRequest struct {
	LobbyID string `json:"lobby_id"`
}

func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	var req createLobbyRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "host_name is required")
		return
	}
	var cfg LobbyConfig
	if req.Config != nil {
		cfg = *req.Config
	}
	lobby, host, err := s.createLobby(req.HostName, req.Mode, cfg)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.sessions.SetSeat(w, r, lobby.ID, host.ID, lobby.Code)
	s.sessions.SetName(w, r, host.Name)
	writeJSON(w, http.StatusCreated, map[string]any{
		"lobby_id":   lobby.ID,
		"player_id":  host.ID,
		"lobby_code": lobby.Code,
		"lobby":      lobby,
		"player":     host,
	})
}

func (s *Server) handleGetLobby(w http.ResponseWriter, r *http.Request, idOrCode string) {
	snapshot, ok := s.store.snapshotLobby(idOrCode)
	if !ok {
		http.NotFound(w, r)
		return
	}
	resp := map[string]any{"lobby": snapshot}
	if playerID := r.URL.Query().Get("player"); playerID != "" {
		resp["stage"] = deriveStage(snapshot, playerID)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJoinLobby(w http.ResponseWriter, r *http.Request, idOrCode string) {
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_name is required")
		return
	}
	lobby, player, err := s.joinLobby(idOrCode, req.PlayerName)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.sessions.SetSeat(w, r, lobby.ID, player.ID, lobby.Code)
	s.sessions.SetName(w, r, player.Name)
	writeJSON(w, http.StatusOK, map[string]any{
		"lobby_id":   lobby.ID,
		"player_id":  player.ID,
		"lobby_code": lobby.Code,
		"lobby":      lobby,
		"player":     player,
	})
}

func (s *Server) handleLeaveLobby(w http.ResponseWriter, r *http.Request, idOrCode string) {
	var req hostRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	lobby, err := s.leaveLobby(idOrCode, req.PlayerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.sessions.ClearSeat(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"lobby": lobby})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request, idOrCode string) {
	var req hostRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	lobby, err := s.startGame(idOrCode, req.PlayerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lobby": lobby})
}

func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request, idOrCode string) {
	var req hostRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	lobby, err := s.endGame(idOrCode, req.PlayerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lobby": lobby})
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request, idOrCode string) {
	var req favoritesRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "movies are required")
		return
	}
	for _, title := range req.Movies {
		if err := validateMovieTitle(title); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	lobby, err := s.submitFavorites(idOrCode, req.PlayerID, req.Movies)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lobby": lobby,
		"stage": deriveStage(lobby, req.PlayerID),
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request, idOrCode string) {
	var req answerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "answer is required")
		return
	}
	lobby, answer, err := s.answerQuestion(idOrCode, req.PlayerID, req.QuestionID, req.Answer, req.AnswerMS)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"answer": answer,
		"stage":  deriveStage(lobby, req.PlayerID),
		"lobby":  lobby,
	})
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request, idOrCode string) {
	var req predictionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "nominee_id is required")
		return
	}
	lobby, err := s.makePrediction(idOrCode, req.PlayerID, req.CategoryID, req.NomineeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lobby": lobby})
}

func (s *Server) handleLockCategory(w http.ResponseWriter, r *http.Request, idOrCode string) {
	var req lockRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "category_id is required")
		return
	}
	lobby, err := s.lockCategory(idOrCode, req.PlayerID, req.CategoryID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lobby": lobby})
}

func (s *Server) handleSetWinner(w http.ResponseWriter, r *http.Request, idOrCode string) {
	var req winnerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "nominee_id is required")
		return
	}
	lobby, err := s.setWinner(idOrCode, req.PlayerID, req.CategoryID, req.NomineeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lobby": lobby})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, idOrCode string) {
	var req chatRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "emoji is required")
		return
	}
	msg, err := s.sendChat(idOrCode, req.PlayerID, req.Emoji)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

func (s *Server) handleUpdateScores(w http.ResponseWriter, r *http.Request) {
	var req updateScoresRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "category_id and nominee_id are required")
		return
	}
	lobby, updated, err := s.updateScores(req.CategoryID, req.NomineeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"players_updated": updated,
		"lobby":           lobby,
	})
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req generateQuestionsRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "lobby_id is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	// Without a lobby this is a preview; nothing is stored.
	if req.LobbyID == "" {
		questions := s.generateQuestions(ctx, req.Movies, req.Count)
		writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
		return
	}

	snapshot, ok := s.store.snapshotLobby(req.LobbyID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	count := req.Count
	if count <= 0 {
		count = snapshot.Config.QuestionCount
	}
	questions := s.generateQuestions(ctx, favoriteTitles(snapshot), count)
	s.attachPosters(ctx, questions)
	snapshot, _, err := s.attachQuestions(req.LobbyID, questions, false)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": snapshot.Questions})
}

func (s *Server) handleGenerateRoast(w http.ResponseWriter, r *http.Request) {
	var req generateRoastRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id and question_id are required")
		return
	}
	if req.PlayerID == "" || req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "player_id and question_id are required")
		return
	}
	lobbyID, ok := s.store.FindLobbyIDByPlayer(req.PlayerID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	snapshot, _ := s.store.snapshotLobby(lobbyID)
	rc := roastContextFor(snapshot, req.PlayerID, req.QuestionID)
	if req.PlayerName != "" {
		if err := validatePlayerName(req.PlayerName); err != nil {
			writeDomainError(w, err)
			return
		}
		rc.PlayerName = normalizeText(req.PlayerName)
	}
	if req.Question != "" {
		rc.Question = req.Question
	}
	if req.WrongAnswer != "" {
		rc.WrongAnswer = req.WrongAnswer
	}
	if req.CorrectAnswer != "" {
		rc.CorrectAnswer = req.CorrectAnswer
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()
	content := s.generateRoast(ctx, rc)
	roast, err := s.recordRoast(lobbyID, req.PlayerID, req.QuestionID, content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roast": roast})
}

func (s *Server) handleGenerateFinalBurn(w http.ResponseWriter, r *http.Request) {
	var req generateFinalBurnRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "lobby_id is required")
		return
	}
	burn, err := s.produceFinalBurn(req.LobbyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"final_burn": burn})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	lobbyID, playerID, code := s.sessions.Seat(w, r)
	resp := map[string]any{
		"lobby_id":   lobbyID,
		"player_id":  playerID,
		"lobby_code": code,
		"name":       s.sessions.GetName(w, r),
	}
	if lobbyID != "" && playerID != "" {
		if snapshot, ok := s.store.snapshotLobby(lobbyID); ok {
			resp["stage"] = deriveStage(snapshot, playerID)
		} else {
			s.sessions.ClearSeat(w, r)
			resp["lobby_id"] = ""
			resp["player_id"] = ""
			resp["lobby_code"] = ""
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGameSubroutes(w http.ResponseWriter, r *http.Request) {
	idOrCode, action, ok := parseGamePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if action == "" && r.Method == http.MethodGet {
		s.handleGetLobby(w, r, idOrCode)
		return
	}

	switch r.Method {
	case http.MethodPost:
		switch action {
		case "join":
			s.handleJoinLobby(w, r, idOrCode)
		case "leave":
			s.handleLeaveLobby(w, r, idOrCode)
		case "start":
			s.handleStartGame(w, r, idOrCode)
		case "end":
			s.handleEndGame(w, r, idOrCode)
		case "favorites":
			s.handleFavorites(w, r, idOrCode)
		case "answers":
			s.handleAnswer(w, r, idOrCode)
		case "predictions":
			s.handlePrediction(w, r, idOrCode)
		case "lock":
			s.handleLockCategory(w, r, idOrCode)
		case "winner":
			s.handleSetWinner(w, r, idOrCode)
		case "chat":
			s.handleChat(w, r, idOrCode)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
