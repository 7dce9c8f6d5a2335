package server

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// The fallback bank keeps a lobby playable when generation is down. The
// questions are deterministic so a retried generation produces the same
// set.

type bankQuestion struct {
	question      string
	options       [4]string
	correctAnswer string
	explanation   string
	movieTitle    string
	difficulty    string
}

var questionBank = []bankQuestion{
	{
		question:      "Which film won the first Academy Award for Best Picture?",
		options:       [4]string{"Wings", "Sunrise", "The Jazz Singer", "Metropolis"},
		correctAnswer: "Wings",
		explanation:   "Wings took the top prize at the first ceremony in 1929.",
		movieTitle:    "Wings",
		difficulty:    difficultyHard,
	},
	{
		question:      "Who directed Titanic?",
		options:       [4]string{"James Cameron", "Steven Spielberg", "Ridley Scott", "Peter Jackson"},
		correctAnswer: "James Cameron",
		explanation:   "Cameron won Best Director for it in 1998.",
		movieTitle:    "Titanic",
		difficulty:    difficultyEasy,
	},
	{
		question:      "Which movie features the line 'Here's looking at you, kid'?",
		options:       [4]string{"Casablanca", "Gone with the Wind", "Citizen Kane", "The Maltese Falcon"},
		correctAnswer: "Casablanca",
		explanation:   "Bogart says it to Bergman four times.",
		movieTitle:    "Casablanca",
		difficulty:    difficultyMedium,
	},
	{
		question:      "How many Oscars did The Lord of the Rings: The Return of the King win?",
		options:       [4]string{"11", "9", "7", "13"},
		correctAnswer: "11",
		explanation:   "It went eleven for eleven, tying the all-time record.",
		movieTitle:    "The Lord of the Rings: The Return of the King",
		difficulty:    difficultyMedium,
	},
	{
		question:      "Which actor has won the most Academy Awards for acting?",
		options:       [4]string{"Katharine Hepburn", "Meryl Streep", "Jack Nicholson", "Daniel Day-Lewis"},
		correctAnswer: "Katharine Hepburn",
		explanation:   "Four Best Actress wins, never collected in person.",
		difficulty:    difficultyHard,
	},
	{
		question:      "What was the first animated film nominated for Best Picture?",
		options:       [4]string{"Beauty and the Beast", "Toy Story", "The Lion King", "Up"},
		correctAnswer: "Beauty and the Beast",
		explanation:   "Nominated in 1992, long before the animated category existed.",
		movieTitle:    "Beauty and the Beast",
		difficulty:    difficultyMedium,
	},
	{
		question:      "Which film ended Parasite's historic Oscars night as Best Picture?",
		options:       [4]string{"Parasite", "1917", "Joker", "Once Upon a Time in Hollywood"},
		correctAnswer: "Parasite",
		explanation:   "The first non-English-language film to win Best Picture.",
		movieTitle:    "Parasite",
		difficulty:    difficultyEasy,
	},
	{
		question:      "Who played the Joker in The Dark Knight?",
		options:       [4]string{"Heath Ledger", "Jack Nicholson", "Joaquin Phoenix", "Jared Leto"},
		correctAnswer: "Heath Ledger",
		explanation:   "Ledger won a posthumous Oscar for the role.",
		movieTitle:    "The Dark Knight",
		difficulty:    difficultyEasy,
	},
}

var decoyTitles = []string{
	"The Godfather",
	"Forrest Gump",
	"Pulp Fiction",
	"The Shawshank Redemption",
	"Goodfellas",
	"Jaws",
}

// fallbackQuestions returns up to count playable questions: one per listed
// favorite first, then the fixed bank.
func fallbackQuestions(titles []string, count int) []Question {
	if count <= 0 {
		count = len(questionBank)
	}
	questions := make([]Question, 0, count)

	for i, title := range titles {
		if len(questions) == count {
			break
		}
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		options := []string{
			title,
			decoyTitles[i%len(decoyTitles)],
			decoyTitles[(i+1)%len(decoyTitles)],
			decoyTitles[(i+2)%len(decoyTitles)],
		}
		questions = append(questions, Question{
			ID:            uuid.NewString(),
			Question:      "Which of these movies made tonight's favorites list?",
			Options:       options,
			CorrectAnswer: title,
			Explanation:   fmt.Sprintf("Somebody in this room loves %s.", title),
			MovieTitle:    title,
			Difficulty:    difficultyEasy,
			Points:        pointsForDifficulty(difficultyEasy),
		})
	}

	for i := 0; len(questions) < count; i++ {
		bank := questionBank[i%len(questionBank)]
		questions = append(questions, Question{
			ID:            uuid.NewString(),
			Question:      bank.question,
			Options:       bank.options[:],
			CorrectAnswer: bank.correctAnswer,
			Explanation:   bank.explanation,
			MovieTitle:    bank.movieTitle,
			Difficulty:    bank.difficulty,
			Points:        pointsForDifficulty(bank.difficulty),
		})
	}
	return questions
}

var roastTemplates = []string{
	"%s, that was a movie question, not a riddle. The answer was on the poster.",
	"Somewhere a film school is revoking %s's application.",
	"%s just proved that watching trailers is not the same as watching movies.",
	"Don't worry %s, the Academy forgets too. Mostly people like you.",
}

// Movie templates take the player name first, then the movie.
var roastMovieTemplates = []string{
	"%s, missing a question about %s should legally require a rewatch.",
	"%s talks a big game for someone who clearly slept through %s.",
	"%s, the director of %s just felt a disturbance and doesn't know why.",
}

// fallbackRoast picks a template keyed off the player and movie so repeated
// misses cycle rather than repeat.
func fallbackRoast(playerName, movieTitle string) string {
	if movieTitle != "" {
		tmpl := roastMovieTemplates[hashString(playerName+movieTitle)%len(roastMovieTemplates)]
		return fmt.Sprintf(tmpl, playerName, movieTitle)
	}
	tmpl := roastTemplates[hashString(playerName)%len(roastTemplates)]
	return fmt.Sprintf(tmpl, playerName)
}

func fallbackFinalBurn(playerName string, shameList []string) string {
	if len(shameList) == 0 {
		return fmt.Sprintf("%s, tonight you achieved something rare: a perfect record of being wrong. The group chat will remember.", playerName)
	}
	return fmt.Sprintf("%s, before you speak about cinema again, please rewatch: %s. We'll wait. We have to, apparently.", playerName, strings.Join(shameList, ", "))
}

func hashString(s string) int {
	h := 0
	for _, r := range s {
		h = h*31 + int(r)
	}
	if h < 0 {
		h = -h
	}
	return h
}
