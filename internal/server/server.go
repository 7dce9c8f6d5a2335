package server

import (
	"net/http"

	"oscars-party/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store    *Store
	db       *gorm.DB
	feed     *feedHub
	ws       *wsHub
	cfg      config.Config
	sessions *sessionStore
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		store:    NewStore(),
		db:       conn,
		feed:     newFeedHub(),
		ws:       newWSHub(),
		cfg:      cfg,
		sessions: newSessionStore(conn),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/games", s.handleCreateLobby)
	mux.HandleFunc("GET /api/games/", s.handleGameSubroutes)
	mux.HandleFunc("POST /api/games/", s.handleGameSubroutes)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("POST /api/update-scores", s.handleUpdateScores)
	mux.HandleFunc("POST /api/trivia/generate", s.handleGenerateQuestions)
	mux.HandleFunc("POST /api/roast/generate", s.handleGenerateRoast)
	mux.HandleFunc("POST /api/finalburn/generate", s.handleGenerateFinalBurn)
	mux.HandleFunc("GET /ws/games/", s.handleWebsocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
