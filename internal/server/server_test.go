package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestCreateLobby(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/games", map[string]string{
		"host_name": "Alice",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	lobby := body["lobby"].(map[string]any)
	player := body["player"].(map[string]any)

	code := lobby["code"].(string)
	if len(code) != codeLength {
		t.Fatalf("expected %d character code, got %q", codeLength, code)
	}
	if lobby["game_stage"].(string) != stageLobby {
		t.Fatalf("expected stage %q, got %q", stageLobby, lobby["game_stage"])
	}
	if lobby["started_at"] != nil {
		t.Fatalf("expected started_at to be unset, got %v", lobby["started_at"])
	}
	if player["is_host"] != true {
		t.Fatal("expected creator to be host")
	}
	if lobby["host_id"].(string) != player["id"].(string) {
		t.Fatal("expected host_id to match the host player")
	}
	if body["lobby_id"].(string) != lobby["id"].(string) {
		t.Fatal("expected top-level lobby_id to match the lobby")
	}
	if body["player_id"].(string) != player["id"].(string) {
		t.Fatal("expected top-level player_id to match the host")
	}
	if body["lobby_code"].(string) != code {
		t.Fatal("expected top-level lobby_code to match the lobby")
	}
}

func TestCreateLobbyRejectsBadName(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/games", map[string]string{
		"host_name": "   ",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestJoinLobbyNormalizesCode(t *testing.T) {
	_, ts := newTestServer(t)
	_, code, _ := createTestLobby(t, ts, "")

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+strings.ToLower(code)+"/join", map[string]string{
		"player_name": "Bob",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	// Same name twice conflicts.
	resp = doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/join", map[string]string{
		"player_name": "bob",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}

	// Unknown code is a 404.
	resp = doRequest(t, ts, http.MethodPost, "/api/games/ZZZZ/join", map[string]string{
		"player_name": "Carol",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestGetLobbyByCodeAndID(t *testing.T) {
	_, ts := newTestServer(t)
	lobbyID, code, hostID := createTestLobby(t, ts, "")

	for _, key := range []string{lobbyID, code} {
		resp := doRequest(t, ts, http.MethodGet, "/api/games/"+key, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status %d for %q, got %d", http.StatusOK, key, resp.StatusCode)
		}
		body := decodeBody(t, resp)
		lobby := body["lobby"].(map[string]any)
		if lobby["id"].(string) != lobbyID {
			t.Fatalf("expected lobby %s, got %v", lobbyID, lobby["id"])
		}
	}

	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+code+"?player="+hostID, nil)
	body := decodeBody(t, resp)
	if body["stage"].(string) != sessionStageLobby {
		t.Fatalf("expected stage %q, got %v", sessionStageLobby, body["stage"])
	}
}

func TestStartGameHostOnly(t *testing.T) {
	_, ts := newTestServer(t)
	_, code, hostID := createTestLobby(t, ts, "")
	bobID := joinTestPlayer(t, ts, code, "Bob")

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/start", map[string]string{
		"player_id": bobID,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/start", map[string]string{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	lobby := body["lobby"].(map[string]any)
	if lobby["game_stage"].(string) != stageFavorites {
		t.Fatalf("expected stage %q, got %v", stageFavorites, lobby["game_stage"])
	}
	if lobby["started_at"] == nil {
		t.Fatal("expected started_at to be set")
	}
	startedAt := lobby["started_at"].(string)

	// Starting again keeps the original timestamp.
	resp = doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/start", map[string]string{
		"player_id": hostID,
	})
	body = decodeBody(t, resp)
	lobby = body["lobby"].(map[string]any)
	if lobby["started_at"].(string) != startedAt {
		t.Fatal("expected started_at to be set exactly once")
	}
}

func TestFavoritesFlowReachesTrivia(t *testing.T) {
	_, ts := newTestServer(t)
	_, code, hostID := createTestLobby(t, ts, "")
	bobID := joinTestPlayer(t, ts, code, "Bob")
	startTestGame(t, ts, code, hostID)

	submitTestFavorites(t, ts, code, hostID, []string{"Heat", "Alien"})

	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+code+"?player="+hostID, nil)
	body := decodeBody(t, resp)
	if body["stage"].(string) != sessionStageWaiting {
		t.Fatalf("expected stage %q, got %v", sessionStageWaiting, body["stage"])
	}

	submitTestFavorites(t, ts, code, bobID, []string{"Jaws"})

	// Generation runs in the background with the built-in fallback set.
	lobby := waitForStage(t, ts, code, stageTrivia)
	questions, ok := lobby["questions"].([]any)
	if !ok || len(questions) == 0 {
		t.Fatalf("expected questions after favorites, got %v", lobby["questions"])
	}

	first := questions[0].(map[string]any)
	options := first["options"].([]any)
	if len(options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(options))
	}
}

func TestEndGameDeliversFinalBurn(t *testing.T) {
	srv, ts := newTestServer(t)
	lobbyID, code, hostID := createTestLobby(t, ts, "")
	startTestGame(t, ts, code, hostID)

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/end", map[string]string{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	lobby := body["lobby"].(map[string]any)
	if lobby["game_stage"].(string) != stageFinal {
		t.Fatalf("expected stage %q, got %v", stageFinal, lobby["game_stage"])
	}
	if lobby["ended_at"] == nil {
		t.Fatal("expected ended_at to be set")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snapshot, ok := srv.store.snapshotLobby(lobbyID)
		if ok && snapshot.FinalBurn != nil {
			if snapshot.FinalBurn.Content == "" {
				t.Fatal("expected final burn content")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for final burn")
}

func TestLeaveLobby(t *testing.T) {
	_, ts := newTestServer(t)
	_, code, hostID := createTestLobby(t, ts, "")
	bobID := joinTestPlayer(t, ts, code, "Bob")

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/leave", map[string]string{
		"player_id": bobID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	lobby := body["lobby"].(map[string]any)
	players := lobby["players"].([]any)
	if len(players) != 1 {
		t.Fatalf("expected 1 player after leave, got %d", len(players))
	}

	// The host stays until the game ends.
	resp = doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/leave", map[string]string{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestChatEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	_, code, hostID := createTestLobby(t, ts, "")

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/chat", map[string]string{
		"player_id": hostID,
		"emoji":     "🎬",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	msg := body["message"].(map[string]any)
	if msg["emoji"].(string) != "🎬" {
		t.Fatalf("expected emoji back, got %v", msg["emoji"])
	}
}

func TestGenerateEndpointsFallBack(t *testing.T) {
	_, ts := newTestServer(t)
	_, code, _ := createTestLobby(t, ts, "")
	bobID := joinTestPlayer(t, ts, code, "Bob")

	resp := doRequest(t, ts, http.MethodPost, "/api/roast/generate", map[string]string{
		"player_id":      bobID,
		"question_id":    "q-titanic",
		"player_name":    "Bob",
		"question":       "Which ship sank in Titanic?",
		"wrong_answer":   "The Lusitania",
		"correct_answer": "The Titanic",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	roast := body["roast"].(map[string]any)
	if !strings.Contains(roast["content"].(string), "Bob") {
		t.Fatalf("expected roast to mention the player, got %v", roast["content"])
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/trivia/generate", map[string]any{
		"movies": []string{"Heat"},
		"count":  5,
	})
	body = decodeBody(t, resp)
	questions := body["questions"].([]any)
	if len(questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(questions))
	}

	// Absurd counts come back clamped, not materialized.
	resp = doRequest(t, ts, http.MethodPost, "/api/trivia/generate", map[string]any{
		"movies": []string{"Heat"},
		"count":  200000,
	})
	body = decodeBody(t, resp)
	if got := len(body["questions"].([]any)); got != maxQuestionCount {
		t.Fatalf("expected %d questions, got %d", maxQuestionCount, got)
	}
}

func TestGenerateEndpointsPersist(t *testing.T) {
	_, ts := newTestServer(t)
	lobbyID, code, hostID := createTestLobby(t, ts, "")
	joinTestPlayer(t, ts, code, "Bob")

	resp := doRequest(t, ts, http.MethodPost, "/api/trivia/generate", map[string]any{
		"lobby_id": lobbyID,
		"count":    5,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	questions := decodeBody(t, resp)["questions"].([]any)
	if len(questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(questions))
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/games/"+lobbyID, nil)
	lobby := decodeBody(t, resp)["lobby"].(map[string]any)
	if got := len(lobby["questions"].([]any)); got != 5 {
		t.Fatalf("expected stored questions on the lobby, got %d", got)
	}

	// A roast for a real player lands on the lobby and marks them roasted.
	questionID := questions[0].(map[string]any)["id"].(string)
	resp = doRequest(t, ts, http.MethodPost, "/api/roast/generate", map[string]string{
		"player_id":   hostID,
		"question_id": questionID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodGet, "/api/games/"+lobbyID, nil)
	lobby = decodeBody(t, resp)["lobby"].(map[string]any)
	if got := len(lobby["roasts"].([]any)); got != 1 {
		t.Fatalf("expected one stored roast, got %d", got)
	}
	host := lobby["players"].([]any)[0].(map[string]any)
	if host["has_been_roasted"] != true {
		t.Fatal("expected the roasted player to be marked")
	}

	// The final burn is written once; repeat calls return the same row.
	resp = doRequest(t, ts, http.MethodPost, "/api/finalburn/generate", map[string]any{
		"lobby_id": lobbyID,
	})
	first := decodeBody(t, resp)["final_burn"].(map[string]any)
	resp = doRequest(t, ts, http.MethodPost, "/api/finalburn/generate", map[string]any{
		"lobby_id": lobbyID,
	})
	second := decodeBody(t, resp)["final_burn"].(map[string]any)
	if first["id"].(string) != second["id"].(string) {
		t.Fatal("expected repeated final burn calls to return the same burn")
	}
	resp = doRequest(t, ts, http.MethodGet, "/api/games/"+lobbyID, nil)
	lobby = decodeBody(t, resp)["lobby"].(map[string]any)
	if lobby["final_burn"] == nil {
		t.Fatal("expected the final burn stored on the lobby")
	}
}

func TestUpdateScoresEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	lobbyID, code, _ := createTestLobby(t, ts, modePredictions)
	bobID := joinTestPlayer(t, ts, code, "Bob")

	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+lobbyID, nil)
	lobby := decodeBody(t, resp)["lobby"].(map[string]any)
	cat := lobby["categories"].([]any)[0].(map[string]any)
	catID := cat["id"].(string)
	nomID := cat["nominees"].([]any)[0].(map[string]any)["id"].(string)

	resp = doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/predictions", map[string]string{
		"player_id":   bobID,
		"category_id": catID,
		"nominee_id":  nomID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/update-scores", map[string]string{
		"category_id": catID,
		"nominee_id":  nomID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["players_updated"].(float64) != 1 {
		t.Fatalf("expected one payout, got %v", body["players_updated"])
	}

	// Paying the same category twice awards nothing.
	resp = doRequest(t, ts, http.MethodPost, "/api/update-scores", map[string]string{
		"category_id": catID,
		"nominee_id":  nomID,
	})
	body = decodeBody(t, resp)
	if body["players_updated"].(float64) != 0 {
		t.Fatalf("expected no second payout, got %v", body["players_updated"])
	}
}

func TestWebsocketSnapshotAndEvents(t *testing.T) {
	_, ts := newTestServer(t)
	_, code, hostID := createTestLobby(t, ts, "")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games/" + code + "?player=" + hostID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snapshot wsMessage
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snapshot.Type != "snapshot" {
		t.Fatalf("expected snapshot first, got %q", snapshot.Type)
	}
	if snapshot.Lobby == nil || snapshot.Lobby.Code != code {
		t.Fatalf("expected lobby snapshot for %s", code)
	}
	if snapshot.Stage != sessionStageLobby {
		t.Fatalf("expected stage %q, got %q", sessionStageLobby, snapshot.Stage)
	}

	joinTestPlayer(t, ts, code, "Bob")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event wsMessage
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != "event" || event.Event == nil {
		t.Fatalf("expected change event, got %+v", event)
	}
	if event.Event.Table != tablePlayers || event.Event.Player == nil {
		t.Fatalf("expected player insert, got %+v", event.Event)
	}
	if event.Event.Player.Name != "Bob" {
		t.Fatalf("expected Bob, got %q", event.Event.Player.Name)
	}
}

func waitForStage(t *testing.T, ts *httptest.Server, code, stage string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp := doRequest(t, ts, http.MethodGet, "/api/games/"+code, nil)
		body := decodeBody(t, resp)
		lobby := body["lobby"].(map[string]any)
		if lobby["game_stage"].(string) == stage {
			return lobby
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for stage %q", stage)
	return nil
}
