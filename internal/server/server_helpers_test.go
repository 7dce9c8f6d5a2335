package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"oscars-party/internal/config"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(nil, config.Default())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

// createLobby posts a new lobby and returns (lobbyID, joinCode, hostID).
func createTestLobby(t *testing.T, ts *httptest.Server, mode string) (string, string, string) {
	t.Helper()
	payload := map[string]any{"host_name": "Alice"}
	if mode != "" {
		payload["mode"] = mode
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/games", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	lobby := body["lobby"].(map[string]any)
	player := body["player"].(map[string]any)
	return lobby["id"].(string), lobby["code"].(string), player["id"].(string)
}

func joinTestPlayer(t *testing.T, ts *httptest.Server, code, name string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/join", map[string]string{
		"player_name": name,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	player := body["player"].(map[string]any)
	return player["id"].(string)
}

func startTestGame(t *testing.T, ts *httptest.Server, code, hostID string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/start", map[string]string{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func submitTestFavorites(t *testing.T, ts *httptest.Server, code, playerID string, movies []string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/favorites", map[string]any{
		"player_id": playerID,
		"movies":    movies,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}
