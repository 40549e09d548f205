package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no room exists for a given code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotHost is returned when a non-host connection attempts a host-only action.
	ErrNotHost = errors.New("only the host may do that")
	// ErrWrongPhase is returned when an action is not valid in the room's current phase.
	ErrWrongPhase = errors.New("action not allowed in current phase")
	// ErrNoActiveQuestion is returned when an answer arrives while no question is running.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrAnswerTooLate is returned when an answer arrives past the question deadline.
	ErrAnswerTooLate = errors.New("answer received after deadline")
	// ErrAlreadyAnswered is returned when a connection submits twice for the same question.
	ErrAlreadyAnswered = errors.New("answer already recorded for this question")
	// ErrEmptyPool indicates the question pool has no records at all.
	ErrEmptyPool = errors.New("question pool is empty")
	// ErrNotEnoughQuestions indicates the pool cannot satisfy the requested batch size.
	ErrNotEnoughQuestions = errors.New("not enough questions in pool")
)
