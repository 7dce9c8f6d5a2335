package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackQuestionsArePlayable(t *testing.T) {
	questions := fallbackQuestions([]string{"Heat", "Alien"}, 10)
	require.Len(t, questions, 10)
	for _, q := range questions {
		assert.NotEmpty(t, q.Question)
		require.Len(t, q.Options, 4)
		found := false
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				found = true
			}
		}
		assert.True(t, found, "correct answer %q missing from options of %q", q.CorrectAnswer, q.Question)
		assert.NotZero(t, q.Points)
	}

	// Favorites lead the set.
	assert.Equal(t, "Heat", questions[0].CorrectAnswer)
	assert.Equal(t, "Alien", questions[1].CorrectAnswer)
}

func TestFallbackQuestionsWithoutTitles(t *testing.T) {
	questions := fallbackQuestions(nil, 5)
	assert.Len(t, questions, 5)
}

func TestFallbackRoastMentionsPlayer(t *testing.T) {
	roast := fallbackRoast("Bob", "")
	assert.Contains(t, roast, "Bob")

	roast = fallbackRoast("Bob", "Titanic")
	assert.Contains(t, roast, "Bob")
	assert.Contains(t, roast, "Titanic")

	// Deterministic for the same inputs.
	assert.Equal(t, roast, fallbackRoast("Bob", "Titanic"))
}

func TestFallbackFinalBurn(t *testing.T) {
	burn := fallbackFinalBurn("Bob", nil)
	assert.Contains(t, burn, "Bob")

	burn = fallbackFinalBurn("Bob", []string{"Heat", "Alien"})
	assert.Contains(t, burn, "Bob")
	assert.Contains(t, burn, "Heat, Alien")
}

func TestStripCodeFence(t *testing.T) {
	raw := "```json\n[{\"question\":\"?\"}]\n```"
	assert.Equal(t, `[{"question":"?"}]`, stripCodeFence(raw))
	assert.Equal(t, `[1,2]`, stripCodeFence("[1,2]"))
}

func TestNormalizeDifficulty(t *testing.T) {
	assert.Equal(t, difficultyEasy, normalizeDifficulty(" Easy "))
	assert.Equal(t, difficultyHard, normalizeDifficulty("HARD"))
	assert.Equal(t, difficultyMedium, normalizeDifficulty("impossible"))
}

func TestUsableQuestion(t *testing.T) {
	good := generatedQuestion{
		Question:      "Who directed Jaws?",
		Options:       []string{"Spielberg", "Lucas", "Scott", "Coppola"},
		CorrectAnswer: "Spielberg",
	}
	assert.True(t, usableQuestion(good))

	bad := good
	bad.CorrectAnswer = "Kubrick"
	assert.False(t, usableQuestion(bad), "correct answer must be among the options")

	bad = good
	bad.Options = bad.Options[:3]
	assert.False(t, usableQuestion(bad))

	bad = good
	bad.Question = "  "
	assert.False(t, usableQuestion(bad))
}
