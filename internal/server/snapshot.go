package server

// snapshotLobby returns a deep copy of the lobby, safe to marshal outside
// the store lock.
func (s *Store) snapshotLobby(idOrCode string) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lobby, ok := s.lobbies[idOrCode]
	if !ok {
		lobby, ok = s.byCode[normalizeLobbyCode(idOrCode)]
	}
	if !ok {
		return nil, false
	}
	return copyLobby(lobby), true
}

func copyLobby(lobby *Lobby) *Lobby {
	out := *lobby
	out.Players = append([]Player(nil), lobby.Players...)
	out.Categories = make([]Category, len(lobby.Categories))
	for i, cat := range lobby.Categories {
		cp := cat
		cp.Nominees = append([]Nominee(nil), cat.Nominees...)
		out.Categories[i] = cp
	}
	out.Predictions = append([]Prediction(nil), lobby.Predictions...)
	out.Favorites = append([]FavoriteMovie(nil), lobby.Favorites...)
	out.Questions = make([]Question, len(lobby.Questions))
	for i, q := range lobby.Questions {
		cp := q
		cp.Options = append([]string(nil), q.Options...)
		out.Questions[i] = cp
	}
	out.Answers = append([]Answer(nil), lobby.Answers...)
	out.Awarded = append([]string(nil), lobby.Awarded...)
	out.Roasts = append([]Roast(nil), lobby.Roasts...)
	out.Chat = append([]ChatMessage(nil), lobby.Chat...)
	if lobby.FinalBurn != nil {
		fb := *lobby.FinalBurn
		fb.ShameList = append([]string(nil), lobby.FinalBurn.ShameList...)
		out.FinalBurn = &fb
	}
	return &out
}
