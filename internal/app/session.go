package app

import (
	"time"

	"trivia-room-service/internal/domain"
)

// Phase is the lifecycle state of a room.
type Phase string

const (
	PhaseWaiting        Phase = "Waiting"
	PhaseQuestionActive Phase = "QuestionActive"
	PhaseReveal         Phase = "Reveal"
	PhaseFinished       Phase = "Finished"
)

// Room is one live trivia session. None of its fields carry their own lock;
// all access happens inside a GameService critical section, and the only
// asynchronous re-entry points (timer fires) go back through the service.
type Room struct {
	Code   string
	HostID string

	phase        Phase
	participants []*domain.Participant // join order preserved for ranking ties
	byConn       map[string]*domain.Participant

	questions     []domain.Question
	index         int       // -1 before start, len(questions) when finished
	questionStart time.Time // zero while no question is active

	answers map[string]domain.Answer // connID -> answer for the current question

	// timer holds whichever transition is pending (question deadline or
	// reveal pause); at most one is live at any moment.
	timer *time.Timer

	// starting latches while a question fetch is in flight so a retried
	// start_game cannot trigger a second fetch.
	starting bool
}

func newRoom(code string, host *domain.Participant) *Room {
	room := &Room{
		Code:    code,
		HostID:  host.ConnID,
		phase:   PhaseWaiting,
		byConn:  make(map[string]*domain.Participant),
		index:   -1,
		answers: make(map[string]domain.Answer),
	}
	room.addParticipant(host)
	return room
}

// Phase reports the room's current lifecycle state.
func (r *Room) Phase() Phase {
	return r.phase
}

// addParticipant inserts p, replacing any previous entry for the same
// connection while keeping the original join position.
func (r *Room) addParticipant(p *domain.Participant) {
	if prev, ok := r.byConn[p.ConnID]; ok {
		for i, existing := range r.participants {
			if existing == prev {
				r.participants[i] = p
				break
			}
		}
	} else {
		r.participants = append(r.participants, p)
	}
	r.byConn[p.ConnID] = p
}

// removeParticipant drops the connection's participant, reporting whether it
// was present.
func (r *Room) removeParticipant(connID string) bool {
	p, ok := r.byConn[connID]
	if !ok {
		return false
	}
	delete(r.byConn, connID)
	for i, existing := range r.participants {
		if existing == p {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			break
		}
	}
	return true
}

func (r *Room) isEmpty() bool {
	return len(r.participants) == 0
}

func (r *Room) currentQuestion() domain.Question {
	return r.questions[r.index]
}

func (r *Room) lastQuestion() bool {
	return r.index+1 >= len(r.questions)
}

// openQuestion moves the room to question i: fresh answer map, start stamp,
// active phase. The caller arms the deadline timer.
func (r *Room) openQuestion(i int, now time.Time) {
	r.index = i
	r.answers = make(map[string]domain.Answer)
	r.questionStart = now
	r.phase = PhaseQuestionActive
}

// closeQuestion clears the per-question state and enters the reveal phase.
func (r *Room) closeQuestion() {
	r.answers = make(map[string]domain.Answer)
	r.questionStart = time.Time{}
	r.timer = nil
	r.phase = PhaseReveal
}

// cancelTimer stops whatever transition is pending. Safe to call when none is.
func (r *Room) cancelTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Room) playerList() []domain.PlayerSummary {
	out := make([]domain.PlayerSummary, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, domain.PlayerSummary{Name: p.Name, Score: p.Score, Avatar: p.Avatar})
	}
	return out
}

func (r *Room) scoreboard() []domain.ScoreEntry {
	out := make([]domain.ScoreEntry, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, domain.ScoreEntry{Name: p.Name, Score: p.Score})
	}
	return out
}

// rankings returns the scoreboard sorted by score descending. The sort is an
// insertion over the join-ordered slice and keeps that order among ties.
func (r *Room) rankings() []domain.ScoreEntry {
	out := r.scoreboard()
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Score > out[j-1].Score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
