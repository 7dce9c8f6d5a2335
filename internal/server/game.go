package server

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxFavoritesPerPlayer = 5
	maxQuestionCount      = 50
	streakBonusStep       = 5
	streakBonusCap        = 25
)

// deriveStage maps shared lobby state to the screen one player should see.
// It is a pure function of the lobby and the player, so recomputing it
// after any event is safe.
func deriveStage(lobby *Lobby, playerID string) string {
	if lobby.EndedAt != nil {
		return sessionStageEnded
	}
	switch lobby.GameStage {
	case stageLobby:
		return sessionStageLobby
	case stageFavorites:
		if hasSubmittedFavorites(lobby, playerID) {
			return sessionStageWaiting
		}
		return sessionStageSubmitting
	case stageTrivia:
		if len(lobby.Questions) == 0 {
			return sessionStageWaiting
		}
		if answeredCount(lobby, playerID) >= len(lobby.Questions) {
			return sessionStageFinished
		}
		return sessionStagePlaying
	case stagePredictions:
		return sessionStagePlaying
	case stageFinal:
		return sessionStageFinished
	default:
		return sessionStageLobby
	}
}

func hasSubmittedFavorites(lobby *Lobby, playerID string) bool {
	for i := range lobby.Favorites {
		if lobby.Favorites[i].PlayerID == playerID {
			return true
		}
	}
	return false
}

func answeredCount(lobby *Lobby, playerID string) int {
	count := 0
	for i := range lobby.Answers {
		if lobby.Answers[i].PlayerID == playerID {
			count++
		}
	}
	return count
}

// favoriteTitles collects everyone's favorites, case-insensitively deduped,
// in submission order.
func favoriteTitles(lobby *Lobby) []string {
	titles := make([]string, 0, len(lobby.Favorites))
	seen := make(map[string]bool)
	for i := range lobby.Favorites {
		title := lobby.Favorites[i].MovieTitle
		if seen[strings.ToLower(title)] {
			continue
		}
		seen[strings.ToLower(title)] = true
		titles = append(titles, title)
	}
	return titles
}

func allFavoritesIn(lobby *Lobby) bool {
	for i := range lobby.Players {
		if !hasSubmittedFavorites(lobby, lobby.Players[i].ID) {
			return false
		}
	}
	return len(lobby.Players) > 0
}

// submitFavorites records a player's picks once. When the last roster member
// has submitted, question generation starts in the background.
func (s *Server) submitFavorites(idOrCode, playerID string, titles []string) (*Lobby, error) {
	cleaned := make([]string, 0, len(titles))
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		cleaned = append(cleaned, title)
	}
	if len(cleaned) == 0 {
		return nil, wrapKind(errValidation, "at least one movie is required")
	}
	if len(cleaned) > maxFavoritesPerPlayer {
		cleaned = cleaned[:maxFavoritesPerPlayer]
	}

	var snapshot *Lobby
	var added []FavoriteMovie
	var lastIn bool
	lobby, err := s.store.UpdateLobby(idOrCode, func(lobby *Lobby) error {
		if lobby.GameStage != stageFavorites {
			return wrapKind(errConflict, "favorites are not open")
		}
		if _, ok := s.store.FindPlayer(lobby, playerID); !ok {
			return errPlayerNotFound
		}
		if hasSubmittedFavorites(lobby, playerID) {
			return wrapKind(errConflict, "favorites already submitted")
		}
		for _, title := range cleaned {
			fav := FavoriteMovie{
				ID:         uuid.NewString(),
				PlayerID:   playerID,
				MovieTitle: title,
			}
			lobby.Favorites = append(lobby.Favorites, fav)
			added = append(added, fav)
		}
		lastIn = allFavoritesIn(lobby)
		snapshot = copyLobby(lobby)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range added {
		if err := s.persistFavorite(&added[i]); err != nil {
			log.Printf("persist favorite failed lobby_id=%s err=%v", lobby.ID, err)
		}
	}
	for i := range added {
		fav := added[i]
		s.feed.Publish(FeedEvent{Table: tableFavoriteMovies, Type: feedInsert, LobbyID: snapshot.ID, FavoriteMovie: &fav})
	}
	if lastIn {
		go s.prepareTrivia(snapshot.ID)
	}
	return snapshot, nil
}

// prepareTrivia generates the question set from everyone's favorites and
// opens play. Generation failures fall back to the built-in set so the
// lobby is never stuck waiting.
func (s *Server) prepareTrivia(lobbyID string) {
	lobby, ok := s.store.snapshotLobby(lobbyID)
	if !ok {
		return
	}
	titles := favoriteTitles(lobby)

	count := lobby.Config.QuestionCount
	if count <= 0 {
		count = s.cfg.QuestionCount
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	questions := s.generateQuestions(ctx, titles, count)
	s.attachPosters(ctx, questions)

	snapshot, stored, err := s.attachQuestions(lobbyID, questions, true)
	if err != nil {
		log.Printf("prepare trivia failed lobby_id=%s err=%v", lobbyID, err)
		return
	}
	if len(stored) > 0 {
		log.Printf("trivia ready code=%s questions=%d", snapshot.Code, len(snapshot.Questions))
	}
}

// attachQuestions stores a generated set on the lobby: first writer wins,
// a lobby that already has questions keeps them. openPlay also moves the
// lobby into the trivia stage. Returns the stored questions (nil when the
// set was discarded) and the post-attach snapshot.
func (s *Server) attachQuestions(lobbyID string, questions []Question, openPlay bool) (*Lobby, []Question, error) {
	var snapshot *Lobby
	_, err := s.store.UpdateLobby(lobbyID, func(lobby *Lobby) error {
		if len(lobby.Questions) > 0 {
			questions = nil
			snapshot = copyLobby(lobby)
			return nil
		}
		lobby.Questions = append(lobby.Questions, questions...)
		if openPlay {
			lobby.GameStage = stageTrivia
		}
		snapshot = copyLobby(lobby)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	for i := range questions {
		if err := s.persistQuestion(snapshot, &questions[i]); err != nil {
			log.Printf("persist question failed lobby_id=%s err=%v", lobbyID, err)
		}
	}
	for i := range questions {
		q := questions[i]
		s.feed.Publish(FeedEvent{Table: tableQuestions, Type: feedInsert, LobbyID: lobbyID, Question: &q})
	}
	if openPlay && len(questions) > 0 {
		if err := s.persistLobbyUpdate(snapshot); err != nil {
			log.Printf("persist stage failed lobby_id=%s err=%v", lobbyID, err)
		}
		_ = s.persistEvent(lobbyID, nil, "trivia_ready", eventPayload{Stage: stageTrivia})
		s.feed.Publish(FeedEvent{Table: tableLobbies, Type: feedUpdate, LobbyID: lobbyID, Lobby: snapshot})
	}
	return snapshot, questions, nil
}

// scoreFor computes the points earned by a correct answer. Faster answers
// earn a larger share of the time bonus; a missing or non-positive elapsed
// time counts as instant. The streak bonus only applies from the second
// consecutive correct answer and is capped.
func scoreFor(question Question, streak, answerMS, timeLimitSeconds, timeBonusMax int) int {
	total := question.Points
	limitMS := timeLimitSeconds * 1000
	switch {
	case answerMS <= 0 || limitMS <= 0:
		total += timeBonusMax
	case answerMS < limitMS:
		total += timeBonusMax * (limitMS - answerMS) / limitMS
	}
	if streak > 1 {
		bonus := streak * streakBonusStep
		if bonus > streakBonusCap {
			bonus = streakBonusCap
		}
		total += bonus
	}
	return total
}

// answerQuestion scores one answer. Correct answers extend the streak and
// add points; wrong answers reset the streak, leave the score untouched,
// and trigger a roast in the background.
func (s *Server) answerQuestion(idOrCode, playerID, questionID, answerText string, answerMS int) (*Lobby, *Answer, error) {
	answerText = strings.TrimSpace(answerText)
	if answerText == "" {
		return nil, nil, wrapKind(errValidation, "answer is required")
	}

	var snapshot *Lobby
	var recorded Answer
	var playerCopy Player
	var wrong bool
	_, err := s.store.UpdateLobby(idOrCode, func(lobby *Lobby) error {
		if lobby.GameStage != stageTrivia {
			return wrapKind(errConflict, "trivia is not running")
		}
		player, ok := s.store.FindPlayer(lobby, playerID)
		if !ok {
			return errPlayerNotFound
		}
		var question *Question
		for i := range lobby.Questions {
			if lobby.Questions[i].ID == questionID {
				question = &lobby.Questions[i]
				break
			}
		}
		if question == nil {
			return wrapKind(errNotFound, "question not found")
		}
		for i := range lobby.Answers {
			if lobby.Answers[i].PlayerID == playerID && lobby.Answers[i].QuestionID == questionID {
				return wrapKind(errConflict, "question already answered")
			}
		}

		correct := strings.EqualFold(answerText, question.CorrectAnswer)
		if correct {
			player.Streak++
			player.CorrectAnswers++
			player.Score += scoreFor(*question, player.Streak, answerMS, lobby.Config.TimeLimit, s.cfg.TimeBonusMax)
		} else {
			player.Streak = 0
			player.IncorrectAnswers++
			wrong = true
		}
		recorded = Answer{
			ID:         uuid.NewString(),
			PlayerID:   playerID,
			QuestionID: questionID,
			Answer:     answerText,
			IsCorrect:  correct,
			AnswerMS:   answerMS,
			CreatedAt:  timeNowUTC(),
		}
		lobby.Answers = append(lobby.Answers, recorded)
		playerCopy = *player
		snapshot = copyLobby(lobby)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.persistAnswer(&recorded); err != nil {
		log.Printf("persist answer failed lobby_id=%s err=%v", snapshot.ID, err)
	}
	if err := s.persistPlayerUpdate(&playerCopy); err != nil {
		log.Printf("persist player failed lobby_id=%s err=%v", snapshot.ID, err)
	}
	answerCopy := recorded
	s.feed.Publish(FeedEvent{Table: tableAnswers, Type: feedInsert, LobbyID: snapshot.ID, Answer: &answerCopy})
	s.feed.Publish(FeedEvent{Table: tablePlayers, Type: feedUpdate, LobbyID: snapshot.ID, Player: &playerCopy})
	if wrong {
		go s.deliverRoast(snapshot.ID, playerID, questionID)
	}
	return snapshot, &answerCopy, nil
}

// roastContextFor gathers everything the lobby knows about one miss: the
// question, the player's wrong answer, their mistake count, and the
// favorites they submitted.
func roastContextFor(lobby *Lobby, playerID, questionID string) roastContext {
	rc := roastContext{}
	for i := range lobby.Players {
		if lobby.Players[i].ID == playerID {
			rc.PlayerName = lobby.Players[i].Name
			rc.MistakeCount = lobby.Players[i].IncorrectAnswers
			break
		}
	}
	for i := range lobby.Questions {
		if lobby.Questions[i].ID == questionID {
			rc.MovieTitle = lobby.Questions[i].MovieTitle
			rc.Question = lobby.Questions[i].Question
			rc.CorrectAnswer = lobby.Questions[i].CorrectAnswer
			break
		}
	}
	for i := range lobby.Answers {
		if lobby.Answers[i].PlayerID == playerID && lobby.Answers[i].QuestionID == questionID {
			rc.WrongAnswer = lobby.Answers[i].Answer
			break
		}
	}
	for i := range lobby.Favorites {
		if lobby.Favorites[i].PlayerID == playerID {
			rc.Favorites = append(rc.Favorites, lobby.Favorites[i].MovieTitle)
		}
	}
	return rc
}

// deliverRoast generates a roast for a missed question and fans it out.
// Errors are logged and swallowed: a lost roast never blocks play.
func (s *Server) deliverRoast(lobbyID, playerID, questionID string) {
	lobby, ok := s.store.snapshotLobby(lobbyID)
	if !ok {
		return
	}
	if _, ok := s.store.FindPlayer(lobby, playerID); !ok {
		return
	}
	rc := roastContextFor(lobby, playerID, questionID)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	content := s.generateRoast(ctx, rc)

	if _, err := s.recordRoast(lobbyID, playerID, questionID, content); err != nil {
		log.Printf("deliver roast failed lobby_id=%s err=%v", lobbyID, err)
	}
}

// recordRoast appends the roast to the lobby, marks the player roasted, and
// fans both rows out over the feed.
func (s *Server) recordRoast(lobbyID, playerID, questionID, content string) (*Roast, error) {
	var roastCopy Roast
	var playerCopy Player
	_, err := s.store.UpdateLobby(lobbyID, func(lobby *Lobby) error {
		player, ok := s.store.FindPlayer(lobby, playerID)
		if !ok {
			return errPlayerNotFound
		}
		player.HasBeenRoasted = true
		roast := Roast{
			ID:         uuid.NewString(),
			PlayerID:   playerID,
			QuestionID: questionID,
			Content:    content,
			CreatedAt:  timeNowUTC(),
		}
		lobby.Roasts = append(lobby.Roasts, roast)
		roastCopy = roast
		playerCopy = *player
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistRoast(&roastCopy); err != nil {
		log.Printf("persist roast failed lobby_id=%s err=%v", lobbyID, err)
	}
	if err := s.persistPlayerUpdate(&playerCopy); err != nil {
		log.Printf("persist player failed lobby_id=%s err=%v", lobbyID, err)
	}
	s.feed.Publish(FeedEvent{Table: tableRoasts, Type: feedInsert, LobbyID: lobbyID, Roast: &roastCopy})
	s.feed.Publish(FeedEvent{Table: tablePlayers, Type: feedUpdate, LobbyID: lobbyID, Player: &playerCopy})
	return &roastCopy, nil
}

// deliverFinalBurn roasts the night's loser once the game ends. Errors are
// logged and swallowed; the burn arrives over the feed when it lands.
func (s *Server) deliverFinalBurn(lobbyID string) {
	if _, err := s.produceFinalBurn(lobbyID); err != nil {
		log.Printf("deliver final burn failed lobby_id=%s err=%v", lobbyID, err)
	}
}

// produceFinalBurn generates and persists the closing roast for the
// lowest-scoring player. Idempotent: a lobby that already has a burn keeps
// it. The shame list collects the movies the target answered wrong about.
func (s *Server) produceFinalBurn(lobbyID string) (*FinalBurn, error) {
	lobby, ok := s.store.snapshotLobby(lobbyID)
	if !ok {
		return nil, errLobbyNotFound
	}
	if lobby.FinalBurn != nil {
		return lobby.FinalBurn, nil
	}
	target, shame := finalBurnTarget(lobby)
	if target == nil {
		return nil, wrapKind(errValidation, "lobby has no players")
	}
	targetID := target.ID
	targetName := target.Name

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	content := s.generateFinalBurn(ctx, targetName, shame)

	var burnCopy FinalBurn
	created := false
	_, err := s.store.UpdateLobby(lobbyID, func(lobby *Lobby) error {
		if lobby.FinalBurn != nil {
			burnCopy = *lobby.FinalBurn
			return nil
		}
		burn := FinalBurn{
			ID:        uuid.NewString(),
			LobbyID:   lobby.ID,
			PlayerID:  targetID,
			Content:   content,
			ShameList: shame,
		}
		lobby.FinalBurn = &burn
		burnCopy = burn
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.persistFinalBurn(lobby, &burnCopy); err != nil {
			log.Printf("persist final burn failed lobby_id=%s err=%v", lobbyID, err)
		}
		s.feed.Publish(FeedEvent{Table: tableFinalBurns, Type: feedInsert, LobbyID: lobbyID, FinalBurn: &burnCopy})
		log.Printf("final burn delivered code=%s target=%s", lobby.Code, targetName)
	}
	return &burnCopy, nil
}

// finalBurnTarget picks the lowest-scoring player, breaking ties toward
// whoever missed more questions, and lists the movies they got wrong.
func finalBurnTarget(lobby *Lobby) (*Player, []string) {
	var target *Player
	for i := range lobby.Players {
		p := &lobby.Players[i]
		switch {
		case target == nil:
			target = p
		case p.Score < target.Score:
			target = p
		case p.Score == target.Score && p.IncorrectAnswers > target.IncorrectAnswers:
			target = p
		}
	}
	if target == nil {
		return nil, nil
	}

	shame := make([]string, 0)
	seen := make(map[string]bool)
	for i := range lobby.Answers {
		a := &lobby.Answers[i]
		if a.PlayerID != target.ID || a.IsCorrect {
			continue
		}
		for j := range lobby.Questions {
			q := &lobby.Questions[j]
			if q.ID == a.QuestionID && q.MovieTitle != "" && !seen[q.MovieTitle] {
				seen[q.MovieTitle] = true
				shame = append(shame, q.MovieTitle)
			}
		}
	}
	return target, shame
}

// sendChat appends an emoji reaction to the lobby chat.
func (s *Server) sendChat(idOrCode, playerID, emoji string) (*ChatMessage, error) {
	if err := validateEmoji(emoji); err != nil {
		return nil, err
	}
	var msgCopy ChatMessage
	_, err := s.store.UpdateLobby(idOrCode, func(lobby *Lobby) error {
		if _, ok := s.store.FindPlayer(lobby, playerID); !ok {
			return errPlayerNotFound
		}
		msg := ChatMessage{
			ID:        uuid.NewString(),
			LobbyID:   lobby.ID,
			PlayerID:  playerID,
			Emoji:     emoji,
			CreatedAt: timeNowUTC(),
		}
		lobby.Chat = append(lobby.Chat, msg)
		msgCopy = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistChatMessage(&msgCopy); err != nil {
		log.Printf("persist chat failed lobby_id=%s err=%v", msgCopy.LobbyID, err)
	}
	s.feed.Publish(FeedEvent{Table: tableChatMessages, Type: feedInsert, LobbyID: msgCopy.LobbyID, Chat: &msgCopy})
	return &msgCopy, nil
}
