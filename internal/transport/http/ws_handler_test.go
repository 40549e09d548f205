package http

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

func wsPool() []domain.Question {
	return []domain.Question{
		{Prompt: "p1", CorrectChoice: "c1", Choices: []string{"c1", "x1", "y1"}},
		{Prompt: "p2", CorrectChoice: "c2", Choices: []string{"c2", "x2", "y2"}},
	}
}

func wsCorrectFor(t *testing.T, prompt string) string {
	t.Helper()
	for _, q := range wsPool() {
		if q.Prompt == prompt {
			return q.CorrectChoice
		}
	}
	t.Fatalf("unknown prompt %q", prompt)
	return ""
}

func newTestServer(t *testing.T, cfg app.GameConfig) *httptest.Server {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	source := memory.NewCachedSource(memory.NewStaticPoolLoader(wsPool()), time.Minute)
	service := app.NewGameService(source, hub, cfg, zerolog.Nop())
	handler := NewWSHandler(service, hub, zerolog.Nop())
	srv := httptest.NewServer(nethttp.HandlerFunc(handler.ServeWS))
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readUntil skips frames until one of the wanted type arrives and decodes its
// payload into out (which may be nil).
func readUntil(t *testing.T, conn *websocket.Conn, want string, out any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("reading until %q: %v", want, err)
		}
		if f.Type != want {
			continue
		}
		if out != nil && len(f.Payload) > 0 {
			if err := json.Unmarshal(f.Payload, out); err != nil {
				t.Fatalf("decoding %q payload: %v", want, err)
			}
		}
		return
	}
}

func TestCreateAndJoinRoom(t *testing.T) {
	srv := newTestServer(t, app.GameConfig{PublicURL: "https://trivia.test"})

	host := dialWS(t, srv)
	send(t, host, "create_room", map[string]string{"name": "Hanna", "avatar": "owl"})

	var created app.RoomCreatedPayload
	readUntil(t, host, app.EventRoomCreated, &created)
	if len(created.RoomID) != 6 {
		t.Fatalf("expected 6-char room code, got %q", created.RoomID)
	}
	if created.Link != "https://trivia.test/?room="+created.RoomID {
		t.Fatalf("unexpected share link %q", created.Link)
	}

	player := dialWS(t, srv)
	send(t, player, "join_room", map[string]string{"roomId": created.RoomID, "name": "Pat"})

	var fromJoiner, fromHost app.PlayerListPayload
	readUntil(t, player, app.EventPlayerList, &fromJoiner)
	readUntil(t, host, app.EventPlayerList, &fromHost)
	if len(fromJoiner.Players) != 2 || len(fromHost.Players) != 2 {
		t.Fatalf("both sides must see 2 players, got %d and %d", len(fromJoiner.Players), len(fromHost.Players))
	}
	if fromHost.Players[0].Name != "Hanna" || fromHost.Players[1].Name != "Pat" {
		t.Fatalf("player list must be in join order, got %+v", fromHost.Players)
	}
}

func TestFullGameOverWebSocket(t *testing.T) {
	srv := newTestServer(t, app.GameConfig{
		QuestionCount:    1,
		QuestionDuration: 500 * time.Millisecond,
		RevealPause:      50 * time.Millisecond,
		GameOverPause:    50 * time.Millisecond,
	})

	host := dialWS(t, srv)
	send(t, host, "create_room", map[string]string{"name": "Hanna"})
	var created app.RoomCreatedPayload
	readUntil(t, host, app.EventRoomCreated, &created)

	send(t, host, "start_game", map[string]string{"roomId": created.RoomID})
	var started app.GameStartedPayload
	readUntil(t, host, app.EventGameStarted, &started)
	if started.Total != 1 {
		t.Fatalf("expected 1 question, got %d", started.Total)
	}

	var q app.QuestionPayload
	readUntil(t, host, app.EventQuestion, &q)
	if q.Index != 1 || len(q.Choices) != 3 {
		t.Fatalf("unexpected question payload: %+v", q)
	}

	send(t, host, "submit_answer", map[string]string{
		"roomId": created.RoomID,
		"answer": wsCorrectFor(t, q.Question),
	})
	readUntil(t, host, app.EventAnswerReceived, nil)

	var reveal app.RevealPayload
	readUntil(t, host, app.EventReveal, &reveal)
	if reveal.CorrectAnswer != wsCorrectFor(t, q.Question) {
		t.Fatalf("reveal disagrees with the pool: %+v", reveal)
	}

	var over app.GameOverPayload
	readUntil(t, host, app.EventGameOver, &over)
	if len(over.Rankings) != 1 || over.Rankings[0].Name != "Hanna" {
		t.Fatalf("unexpected rankings: %+v", over.Rankings)
	}
	if over.Rankings[0].Score < 500 {
		t.Fatalf("correct in-time answer must score at least base points, got %d", over.Rankings[0].Score)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	srv := newTestServer(t, app.GameConfig{})

	conn := dialWS(t, srv)
	send(t, conn, "join_room", map[string]string{"roomId": "ZZZZZZ", "name": "Pat"})

	var errPayload app.ErrorPayload
	readUntil(t, conn, app.EventError, &errPayload)
	if errPayload.Message != "Room not found" {
		t.Fatalf("unexpected error message %q", errPayload.Message)
	}
}

func TestUnsupportedMessageType(t *testing.T) {
	srv := newTestServer(t, app.GameConfig{})

	conn := dialWS(t, srv)
	send(t, conn, "dance", nil)

	var errPayload app.ErrorPayload
	readUntil(t, conn, app.EventError, &errPayload)
	if errPayload.Message != "unsupported message type" {
		t.Fatalf("unexpected error message %q", errPayload.Message)
	}
}

func TestInvalidPayload(t *testing.T) {
	srv := newTestServer(t, app.GameConfig{})

	conn := dialWS(t, srv)
	send(t, conn, "join_room", "not-an-object")

	var errPayload app.ErrorPayload
	readUntil(t, conn, app.EventError, &errPayload)
	if errPayload.Message != "invalid payload" {
		t.Fatalf("unexpected error message %q", errPayload.Message)
	}
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	srv := newTestServer(t, app.GameConfig{})

	host := dialWS(t, srv)
	send(t, host, "create_room", map[string]string{"name": "Hanna"})
	var created app.RoomCreatedPayload
	readUntil(t, host, app.EventRoomCreated, &created)

	player := dialWS(t, srv)
	send(t, player, "join_room", map[string]string{"roomId": created.RoomID, "name": "Pat"})
	var pl app.PlayerListPayload
	readUntil(t, host, app.EventPlayerList, &pl)
	if len(pl.Players) != 2 {
		t.Fatalf("expected 2 players before disconnect, got %+v", pl.Players)
	}

	player.Close()

	readUntil(t, host, app.EventPlayerList, &pl)
	if len(pl.Players) != 1 || pl.Players[0].Name != "Hanna" {
		t.Fatalf("expected only the host after disconnect, got %+v", pl.Players)
	}
}

func TestHubDropsOnUnknownConn(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	// Must not panic or block when the connection is gone.
	hub.ToConn("ghost", app.EventError, app.ErrorPayload{Message: "x"})
	hub.ToRoom("NOROOM", app.EventPlayerList, nil)
	hub.LeaveRoom("NOROOM", "ghost")
	hub.unregister("ghost")
}
