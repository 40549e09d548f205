package app

import (
	"math/rand"

	"trivia-room-service/internal/domain"
)

// codeAlphabet avoids characters that read ambiguously when typed from a screen.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// Registry is the process-wide table of live rooms. It has no lock of its own:
// every mutation runs inside a GameService critical section, which is the
// single-writer contract the whole session core relies on.
type Registry struct {
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create inserts a new room with a code not currently in use and the given
// host as its sole participant.
func (r *Registry) Create(host *domain.Participant) *Room {
	code := randomCode(codeLength)
	for r.rooms[code] != nil {
		code = randomCode(codeLength)
	}
	room := newRoom(code, host)
	r.rooms[code] = room
	return room
}

// Room looks up a live room by code.
func (r *Registry) Room(code string) (*Room, bool) {
	room, ok := r.rooms[code]
	return room, ok
}

// Remove cancels any pending timer and deletes the entry. No-op if absent.
func (r *Registry) Remove(code string) {
	room, ok := r.rooms[code]
	if !ok {
		return
	}
	room.cancelTimer()
	delete(r.rooms, code)
}

// Each visits every live room. Used by disconnect handling, which scans
// defensively instead of assuming a connection sits in exactly one room.
func (r *Registry) Each(fn func(*Room)) {
	for _, room := range r.rooms {
		fn(room)
	}
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}

func randomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}
