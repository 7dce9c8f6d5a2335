package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionsLobbySeedsBallot(t *testing.T) {
	srv, _ := newTestServer(t)
	lobby, _, err := srv.createLobby("Alice", modePredictions, LobbyConfig{})
	require.NoError(t, err)

	require.NotEmpty(t, lobby.Categories)
	assert.Len(t, lobby.Categories, len(defaultBallot))
	for i, cat := range lobby.Categories {
		assert.Equal(t, defaultBallot[i].Name, cat.Name)
		assert.Equal(t, i+1, cat.Order)
		assert.False(t, cat.Locked)
		assert.Len(t, cat.Nominees, len(defaultBallot[i].Nominees))
	}
}

func TestMakePredictionUpserts(t *testing.T) {
	srv, _ := newTestServer(t)
	lobby, host, err := srv.createLobby("Alice", modePredictions, LobbyConfig{})
	require.NoError(t, err)

	cat := lobby.Categories[0]
	first := cat.Nominees[0]
	second := cat.Nominees[1]

	updated, err := srv.makePrediction(lobby.ID, host.ID, cat.ID, first.ID)
	require.NoError(t, err)
	require.Len(t, updated.Predictions, 1)
	assert.Equal(t, first.ID, updated.Predictions[0].NomineeID)

	// Picking again replaces, never duplicates.
	updated, err = srv.makePrediction(lobby.ID, host.ID, cat.ID, second.ID)
	require.NoError(t, err)
	require.Len(t, updated.Predictions, 1)
	assert.Equal(t, second.ID, updated.Predictions[0].NomineeID)
}

func TestSetWinnerLocksAndScoresOnce(t *testing.T) {
	srv, _ := newTestServer(t)
	lobby, host, err := srv.createLobby("Alice", modePredictions, LobbyConfig{})
	require.NoError(t, err)
	bobID := joinDirect(t, srv, lobby.Code, "Bob")

	cat := lobby.Categories[0]
	winner := cat.Nominees[0]
	loser := cat.Nominees[1]

	_, err = srv.makePrediction(lobby.ID, bobID, cat.ID, winner.ID)
	require.NoError(t, err)
	_, err = srv.makePrediction(lobby.ID, host.ID, cat.ID, loser.ID)
	require.NoError(t, err)

	updated, err := srv.setWinner(lobby.ID, host.ID, cat.ID, winner.ID)
	require.NoError(t, err)

	resolved := findCategory(updated, cat.ID)
	require.NotNil(t, resolved)
	assert.True(t, resolved.Locked)
	winners := 0
	for _, nom := range resolved.Nominees {
		if nom.IsWinner {
			winners++
			assert.Equal(t, winner.ID, nom.ID)
		}
	}
	assert.Equal(t, 1, winners, "exactly one winner per category")

	// Only Bob predicted right.
	assert.Equal(t, 10, playerScore(updated, bobID))
	assert.Equal(t, 0, playerScore(updated, host.ID))

	// A second payout attempt changes nothing.
	updated, paid, err := srv.updateScores(cat.ID, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, paid)
	assert.Equal(t, 10, playerScore(updated, bobID))

	// Locked categories reject new picks.
	_, err = srv.makePrediction(lobby.ID, bobID, cat.ID, loser.ID)
	assert.ErrorIs(t, err, errConflict)
}

func TestSetWinnerHostOnly(t *testing.T) {
	srv, _ := newTestServer(t)
	lobby, _, err := srv.createLobby("Alice", modePredictions, LobbyConfig{})
	require.NoError(t, err)
	bobID := joinDirect(t, srv, lobby.Code, "Bob")

	cat := lobby.Categories[0]
	_, err = srv.setWinner(lobby.ID, bobID, cat.ID, cat.Nominees[0].ID)
	assert.ErrorIs(t, err, errValidation)

	_, err = srv.lockCategory(lobby.ID, bobID, cat.ID)
	assert.ErrorIs(t, err, errValidation)
}

func joinDirect(t *testing.T, srv *Server, code, name string) string {
	t.Helper()
	_, player, err := srv.joinLobby(code, name)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return player.ID
}

func playerScore(lobby *Lobby, playerID string) int {
	for _, p := range lobby.Players {
		if p.ID == playerID {
			return p.Score
		}
	}
	return -1
}
