package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const openAIChatURL = "https://api.openai.com/v1/chat/completions"

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// chatCompletion sends one chat request and returns the first choice.
func (s *Server) chatCompletion(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if strings.TrimSpace(s.cfg.OpenAIAPIKey) == "" {
		return "", errors.New("OpenAI API key is not configured")
	}
	reqBody := openAIChatRequest{
		Model: s.cfg.OpenAIModel,
		Messages: []openAIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to build OpenAI request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, openAIChatURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build OpenAI request")
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(s.cfg.OpenAIAPIKey))
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach OpenAI")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read OpenAI response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("OpenAI request failed (%d)", resp.StatusCode)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response")
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", fmt.Errorf("OpenAI error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("OpenAI returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

type generatedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	MovieTitle    string   `json:"movie_title"`
	Difficulty    string   `json:"difficulty"`
}

const questionSystemPrompt = `You are a movie trivia writer for a rowdy Oscars party.
Write multiple-choice questions about the listed movies. Mix easy, medium,
and hard. Reply with a JSON array only; each element has the keys
"question", "options" (exactly 4 strings), "correct_answer" (one of the
options), "explanation", "movie_title", and "difficulty" (easy, medium, or
hard). No markdown, no commentary.`

// generateQuestions builds the trivia set for the given movies. Any
// generation failure falls back to the built-in question bank so callers
// always get a playable set.
func (s *Server) generateQuestions(ctx context.Context, titles []string, count int) []Question {
	if count <= 0 {
		count = s.cfg.QuestionCount
	}
	if count > maxQuestionCount {
		count = maxQuestionCount
	}
	user := fmt.Sprintf("Write %d questions about these movies: %s", count, strings.Join(titles, ", "))
	raw, err := s.chatCompletion(ctx, questionSystemPrompt, user, 0.8, 2500)
	if err != nil {
		log.Printf("question generation failed err=%v", err)
		return fallbackQuestions(titles, count)
	}

	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &generated); err != nil {
		log.Printf("question generation returned bad JSON err=%v", err)
		return fallbackQuestions(titles, count)
	}

	questions := make([]Question, 0, len(generated))
	for _, g := range generated {
		if !usableQuestion(g) {
			continue
		}
		questions = append(questions, Question{
			ID:            uuid.NewString(),
			Question:      strings.TrimSpace(g.Question),
			Options:       g.Options,
			CorrectAnswer: g.CorrectAnswer,
			Explanation:   strings.TrimSpace(g.Explanation),
			MovieTitle:    strings.TrimSpace(g.MovieTitle),
			Difficulty:    normalizeDifficulty(g.Difficulty),
			Points:        pointsForDifficulty(normalizeDifficulty(g.Difficulty)),
		})
		if len(questions) == count {
			break
		}
	}
	if len(questions) == 0 {
		return fallbackQuestions(titles, count)
	}
	return questions
}

// usableQuestion drops malformed generations rather than failing the batch.
func usableQuestion(g generatedQuestion) bool {
	if strings.TrimSpace(g.Question) == "" {
		return false
	}
	if len(g.Options) != 4 {
		return false
	}
	for _, opt := range g.Options {
		if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(g.CorrectAnswer)) {
			return true
		}
	}
	return false
}

const roastSystemPrompt = `You roast party guests who miss easy movie trivia.
One or two sentences, playful and mean but never cruel. Reply with the
roast only.`

// roastContext carries what is known about a missed question. Only
// PlayerName is required; the rest sharpens the roast when present.
type roastContext struct {
	PlayerName    string
	MovieTitle    string
	Question      string
	WrongAnswer   string
	CorrectAnswer string
	MistakeCount  int
	Favorites     []string
}

// generateRoast returns a roast for a missed question, falling back to the
// template bank when generation fails.
func (s *Server) generateRoast(ctx context.Context, rc roastContext) string {
	user := fmt.Sprintf("Roast %s for missing an easy movie trivia question.", rc.PlayerName)
	if rc.MovieTitle != "" {
		user = fmt.Sprintf("Roast %s for missing a question about %s.", rc.PlayerName, rc.MovieTitle)
	}
	if rc.Question != "" && rc.WrongAnswer != "" && rc.CorrectAnswer != "" {
		user += fmt.Sprintf(` The question was "%s"; they answered "%s" when the answer was "%s".`,
			rc.Question, rc.WrongAnswer, rc.CorrectAnswer)
	}
	if rc.MistakeCount > 1 {
		user += fmt.Sprintf(" That makes %d wrong answers tonight.", rc.MistakeCount)
	}
	if len(rc.Favorites) > 0 {
		user += fmt.Sprintf(" They claim their favorite movies are %s.", strings.Join(rc.Favorites, ", "))
	}
	raw, err := s.chatCompletion(ctx, roastSystemPrompt, user, 1.0, 120)
	if err != nil {
		log.Printf("roast generation failed player=%s err=%v", rc.PlayerName, err)
		return fallbackRoast(rc.PlayerName, rc.MovieTitle)
	}
	roast := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`))
	if roast == "" {
		return fallbackRoast(rc.PlayerName, rc.MovieTitle)
	}
	return roast
}

const finalBurnSystemPrompt = `You deliver the closing roast of a movie
trivia night, aimed at the player who missed the most questions. Two or
three sentences, theatrical, never cruel. Reply with the roast only.`

// generateFinalBurn writes the closing roast for the night's biggest loser.
func (s *Server) generateFinalBurn(ctx context.Context, playerName string, shameList []string) string {
	user := fmt.Sprintf("Deliver the final burn for %s.", playerName)
	if len(shameList) > 0 {
		user = fmt.Sprintf("Deliver the final burn for %s, who clearly needs to rewatch: %s.", playerName, strings.Join(shameList, ", "))
	}
	raw, err := s.chatCompletion(ctx, finalBurnSystemPrompt, user, 1.0, 200)
	if err != nil {
		log.Printf("final burn generation failed player=%s err=%v", playerName, err)
		return fallbackFinalBurn(playerName, shameList)
	}
	burn := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`))
	if burn == "" {
		return fallbackFinalBurn(playerName, shameList)
	}
	return burn
}

// stripCodeFence unwraps the ```json fences models add despite instructions.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func normalizeDifficulty(difficulty string) string {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case difficultyEasy:
		return difficultyEasy
	case difficultyHard:
		return difficultyHard
	default:
		return difficultyMedium
	}
}

func pointsForDifficulty(difficulty string) int {
	switch difficulty {
	case difficultyEasy:
		return 100
	case difficultyHard:
		return 300
	default:
		return 200
	}
}
