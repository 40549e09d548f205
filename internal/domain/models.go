package domain

import "time"

// Question is one normalized multiple-choice trivia record. Choices contains
// the correct answer plus the distractors; the order is randomized once when
// the batch is fetched and stays fixed for the room that owns it. Text is kept
// exactly as the provider delivered it (HTML entities included) so answer
// comparison always happens on raw provider bytes; decoding is display-side.
type Question struct {
	Prompt        string   `json:"prompt"`
	CorrectChoice string   `json:"correctChoice"`
	Choices       []string `json:"choices"`
}

// Participant is one joined connection in a room. Participants are held in
// join order; final-ranking ties are broken by that order.
type Participant struct {
	ConnID string
	Name   string
	Avatar string
	Score  int
}

// Answer is a participant's submission for the currently active question.
// It exists only between question start and question end.
type Answer struct {
	Choice     string
	ReceivedAt time.Time
}

// PlayerSummary is the participant view broadcast after every join/leave.
type PlayerSummary struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Avatar string `json:"avatar,omitempty"`
}

// ScoreEntry is one scoreboard or ranking line.
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}
