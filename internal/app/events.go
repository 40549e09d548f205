package app

import "trivia-room-service/internal/domain"

// Outbound event names. The transport wraps each payload into a
// {type, payload} envelope keyed by these.
const (
	EventRoomCreated    = "room_created"
	EventError          = "error_message"
	EventPlayerList     = "player_list"
	EventGameStarted    = "game_started"
	EventQuestion       = "question"
	EventAnswerReceived = "answer_received"
	EventAnswerRejected = "answer_rejected"
	EventReveal         = "reveal"
	EventGameOver       = "game_over"
)

// RejectedTimeout is the reason attached to answers that arrive past the deadline.
const RejectedTimeout = "timeout"

type RoomCreatedPayload struct {
	RoomID string `json:"roomId"`
	Link   string `json:"link"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PlayerListPayload struct {
	Players []domain.PlayerSummary `json:"players"`
}

type GameStartedPayload struct {
	Total int `json:"total"`
}

// QuestionPayload is broadcast when a question opens. Index is 1-based.
type QuestionPayload struct {
	Index    int      `json:"index"`
	Total    int      `json:"total"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Duration int      `json:"duration"` // seconds
}

type AnswerRejectedPayload struct {
	Reason string `json:"reason"`
}

type RevealPayload struct {
	CorrectAnswer string              `json:"correctAnswer"`
	Scoreboard    []domain.ScoreEntry `json:"scoreboard"`
}

type GameOverPayload struct {
	Rankings []domain.ScoreEntry `json:"rankings"`
}

// Broadcaster is the transport-side gateway the state machine pushes events
// through: per-room group membership, room-wide broadcast, and targeted send.
type Broadcaster interface {
	JoinRoom(code, connID string)
	LeaveRoom(code, connID string)
	ToRoom(code, event string, payload any)
	ToConn(connID, event string, payload any)
}
