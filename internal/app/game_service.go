package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trivia-room-service/internal/domain"
)

// QuestionSource provides a batch of normalized questions. Implementations
// live under internal/infra (Open Trivia DB, Postgres pool, static pool).
type QuestionSource interface {
	Fetch(ctx context.Context, count int) ([]domain.Question, error)
}

// GameConfig tunes one service instance. Zero values fall back to the
// defaults below.
type GameConfig struct {
	QuestionCount    int
	QuestionDuration time.Duration
	RevealPause      time.Duration // pause between reveal and the next question
	GameOverPause    time.Duration // pause between the last reveal and game over
	BasePoints       int
	BonusPerSecond   int
	PublicURL        string // base for shareable join links
}

func (c GameConfig) withDefaults() GameConfig {
	if c.QuestionCount <= 0 {
		c.QuestionCount = 10
	}
	if c.QuestionDuration <= 0 {
		c.QuestionDuration = 15 * time.Second
	}
	if c.RevealPause <= 0 {
		c.RevealPause = 2 * time.Second
	}
	if c.GameOverPause <= 0 {
		c.GameOverPause = 1500 * time.Millisecond
	}
	if c.BasePoints <= 0 {
		c.BasePoints = 500
	}
	if c.BonusPerSecond <= 0 {
		c.BonusPerSecond = 10
	}
	if c.PublicURL == "" {
		c.PublicURL = "http://localhost:8080"
	}
	return c
}

// GameService owns the registry and drives every room's lifecycle. One mutex
// serializes all mutations (join, start, submit, timer fire, leave,
// disconnect), so each handler runs as a discrete non-interleaved step — the
// correctness mechanism is the absence of interleaving, not per-field locks.
// The question fetch during Start is the only work done outside the lock.
type GameService struct {
	mu       sync.Mutex
	registry *Registry
	source   QuestionSource
	bcast    Broadcaster
	cfg      GameConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewGameService(source QuestionSource, b Broadcaster, cfg GameConfig, log zerolog.Logger) *GameService {
	return newGameService(source, b, cfg, log, time.Now)
}

// NewGameServiceWithClock is test-only for deterministic elapsed-time math.
func NewGameServiceWithClock(source QuestionSource, b Broadcaster, cfg GameConfig, log zerolog.Logger, now func() time.Time) *GameService {
	return newGameService(source, b, cfg, log, now)
}

func newGameService(source QuestionSource, b Broadcaster, cfg GameConfig, log zerolog.Logger, now func() time.Time) *GameService {
	return &GameService{
		registry: NewRegistry(),
		source:   source,
		bcast:    b,
		cfg:      cfg.withDefaults(),
		log:      log,
		now:      now,
	}
}

// CreateRoom makes the caller host of a fresh room and tells it the code and
// shareable link.
func (s *GameService) CreateRoom(connID, name, avatar string) string {
	if name == "" {
		name = "Host"
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.registry.Create(&domain.Participant{ConnID: connID, Name: name, Avatar: avatar})
	s.bcast.JoinRoom(room.Code, connID)
	s.bcast.ToConn(connID, EventRoomCreated, RoomCreatedPayload{
		RoomID: room.Code,
		Link:   s.shareLink(room.Code),
	})
	s.log.Info().Str("room", room.Code).Str("host", connID).Msg("room created")
	return room.Code
}

// Join adds the connection to the room and rebroadcasts the participant list.
// Joining is allowed in any phase; late joiners spectate the current question
// and score from the next one. An unknown code only notifies the caller.
func (s *GameService) Join(code, connID, name, avatar string) error {
	if name == "" {
		name = "Player"
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.registry.Room(code)
	if !ok {
		s.bcast.ToConn(connID, EventError, ErrorPayload{Message: "Room not found"})
		return domain.ErrRoomNotFound
	}
	room.addParticipant(&domain.Participant{ConnID: connID, Name: name, Avatar: avatar})
	s.bcast.JoinRoom(code, connID)
	s.bcast.ToRoom(code, EventPlayerList, PlayerListPayload{Players: room.playerList()})
	return nil
}

// Start fetches the question batch and opens question 0. Host-only and only
// from Waiting; anything else is ignored without a broadcast. The fetch runs
// outside the lock so a slow provider never stalls other rooms; the room's
// starting latch keeps a retried start from fetching twice. On provider
// failure the room stays in Waiting and Start may be retried.
func (s *GameService) Start(ctx context.Context, code, connID string) error {
	s.mu.Lock()
	room, ok := s.registry.Room(code)
	if !ok {
		s.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	if room.HostID != connID {
		s.mu.Unlock()
		return domain.ErrNotHost
	}
	if room.phase != PhaseWaiting || room.starting {
		s.mu.Unlock()
		return domain.ErrWrongPhase
	}
	room.starting = true
	count := s.cfg.QuestionCount
	s.mu.Unlock()

	questions, err := s.source.Fetch(ctx, count)

	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok = s.registry.Room(code)
	if !ok {
		// room emptied out while the fetch was in flight
		return domain.ErrRoomNotFound
	}
	room.starting = false
	if err != nil {
		s.log.Warn().Err(err).Str("room", code).Msg("question fetch failed")
		s.bcast.ToRoom(code, EventError, ErrorPayload{Message: "Failed to fetch questions"})
		return err
	}
	if room.phase != PhaseWaiting {
		return domain.ErrWrongPhase
	}
	room.questions = questions
	s.bcast.ToRoom(code, EventGameStarted, GameStartedPayload{Total: len(questions)})
	s.log.Info().Str("room", code).Int("questions", len(questions)).Msg("game started")
	s.openQuestionLocked(room, 0)
	return nil
}

// SubmitAnswer records the connection's first answer for the active question.
// Late answers are rejected on the submitter's own elapsed time even though
// the deadline timer is the authoritative end condition, which guards against
// messages delayed past the deadline. Duplicates are ignored silently.
func (s *GameService) SubmitAnswer(code, connID, choice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.registry.Room(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.questionStart.IsZero() {
		return domain.ErrNoActiveQuestion
	}
	now := s.now()
	if now.Sub(room.questionStart) > s.cfg.QuestionDuration {
		s.bcast.ToConn(connID, EventAnswerRejected, AnswerRejectedPayload{Reason: RejectedTimeout})
		return domain.ErrAnswerTooLate
	}
	if _, dup := room.answers[connID]; dup {
		return domain.ErrAlreadyAnswered
	}
	room.answers[connID] = domain.Answer{Choice: choice, ReceivedAt: now}
	s.bcast.ToConn(connID, EventAnswerReceived, struct{}{})
	return nil
}

// Leave removes the connection from the room, if it is a member.
func (s *GameService) Leave(code, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.registry.Room(code)
	if !ok {
		return
	}
	s.dropParticipantLocked(room, connID)
}

// Disconnect removes the connection from every room it belongs to.
func (s *GameService) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.Each(func(room *Room) {
		s.dropParticipantLocked(room, connID)
	})
}

// RoomCount reports the number of live rooms.
func (s *GameService) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Len()
}

// RoomPhase reports the phase of a live room.
func (s *GameService) RoomPhase(code string) (Phase, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.registry.Room(code)
	if !ok {
		return "", false
	}
	return room.phase, true
}

// openQuestionLocked moves the room to question i, broadcasts it, and arms the
// single deadline timer. Any previously pending timer has either fired (and
// scheduled this call) or is explicitly canceled here, so two live timers for
// one room cannot exist.
func (s *GameService) openQuestionLocked(room *Room, i int) {
	room.cancelTimer()
	room.openQuestion(i, s.now())
	q := room.currentQuestion()
	s.bcast.ToRoom(room.Code, EventQuestion, QuestionPayload{
		Index:    i + 1,
		Total:    len(room.questions),
		Question: q.Prompt,
		Choices:  q.Choices,
		Duration: int(s.cfg.QuestionDuration / time.Second),
	})
	code := room.Code
	room.timer = time.AfterFunc(s.cfg.QuestionDuration, func() {
		s.questionDeadline(code)
	})
}

// questionDeadline is the timer-fire entry point ending a question. A fire for
// a torn-down or already-advanced room is a guarded no-op: the timer race is
// resolved by re-checking the registry, never by trusting the handle.
func (s *GameService) questionDeadline(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.registry.Room(code)
	if !ok || room.phase != PhaseQuestionActive {
		return
	}
	s.endQuestionLocked(room)
}

// endQuestionLocked scores the current question, broadcasts the reveal, and
// arms the pause before the next question or game over. Elapsed time comes
// from each answer's own receive timestamp, not the timer fire time, so
// faster correct answers score strictly more.
func (s *GameService) endQuestionLocked(room *Room) {
	q := room.currentQuestion()
	for _, p := range room.participants {
		a, answered := room.answers[p.ConnID]
		if !answered || a.Choice != q.CorrectChoice {
			continue
		}
		p.Score += s.points(a.ReceivedAt.Sub(room.questionStart))
	}
	s.bcast.ToRoom(room.Code, EventReveal, RevealPayload{
		CorrectAnswer: q.CorrectChoice,
		Scoreboard:    room.scoreboard(),
	})

	last := room.lastQuestion()
	room.closeQuestion()

	code := room.Code
	if last {
		room.timer = time.AfterFunc(s.cfg.GameOverPause, func() {
			s.finishGame(code)
		})
		return
	}
	next := room.index + 1
	room.timer = time.AfterFunc(s.cfg.RevealPause, func() {
		s.nextQuestion(code, next)
	})
}

// nextQuestion fires after the reveal pause.
func (s *GameService) nextQuestion(code string, i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.registry.Room(code)
	if !ok || room.phase != PhaseReveal {
		return
	}
	s.openQuestionLocked(room, i)
}

// finishGame fires after the last reveal pause: final rankings out, room gone.
func (s *GameService) finishGame(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.registry.Room(code)
	if !ok || room.phase != PhaseReveal {
		return
	}
	room.phase = PhaseFinished
	room.index = len(room.questions)
	s.bcast.ToRoom(code, EventGameOver, GameOverPayload{Rankings: room.rankings()})
	s.removeRoomLocked(room)
	s.log.Info().Str("room", code).Msg("game over")
}

// points implements BASE + max(0, floor(duration - elapsed)) * BONUS.
func (s *GameService) points(elapsed time.Duration) int {
	whole := int((s.cfg.QuestionDuration - elapsed) / time.Second)
	if whole < 0 {
		whole = 0
	}
	return s.cfg.BasePoints + whole*s.cfg.BonusPerSecond
}

// dropParticipantLocked removes the connection from one room and tears the
// room down if it emptied, canceling its timer with it.
func (s *GameService) dropParticipantLocked(room *Room, connID string) {
	if !room.removeParticipant(connID) {
		return
	}
	s.bcast.LeaveRoom(room.Code, connID)
	if room.isEmpty() {
		s.registry.Remove(room.Code)
		s.log.Info().Str("room", room.Code).Msg("room emptied, removed")
		return
	}
	s.bcast.ToRoom(room.Code, EventPlayerList, PlayerListPayload{Players: room.playerList()})
}

// removeRoomLocked disbands the broadcast group and deletes the room.
func (s *GameService) removeRoomLocked(room *Room) {
	for _, p := range room.participants {
		s.bcast.LeaveRoom(room.Code, p.ConnID)
	}
	s.registry.Remove(room.Code)
}

func (s *GameService) shareLink(code string) string {
	return strings.TrimRight(s.cfg.PublicURL, "/") + "/?room=" + code
}
