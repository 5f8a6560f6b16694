package session

import (
	"sync"
	"time"
)

// MaxTurns is the number of turns a session remembers.
const MaxTurns = 7

type Turn struct {
	Seq       uint64
	UserText  string
	AIReply   string
	CreatedAt time.Time
}

// Session is the per-user conversation state. Callers hold Lock while reading
// or mutating it and must not hold it across network calls.
type Session struct {
	mu sync.Mutex

	UserID          int64
	History         []Turn
	MessageCount    int
	LastInteraction time.Time

	lastSeen time.Time
	nextSeq  uint64
}

func newSession(userID int64, now time.Time) *Session {
	return &Session{
		UserID:   userID,
		History:  make([]Turn, 0, MaxTurns),
		lastSeen: now,
	}
}

func (s *Session) Lock() {
	s.mu.Lock()
}

func (s *Session) Unlock() {
	s.mu.Unlock()
}

// RecordUserTurn appends a turn with an empty reply, evicting the oldest turn
// once more than MaxTurns are held, and returns the new turn's sequence number.
func (s *Session) RecordUserTurn(text string, now time.Time) uint64 {
	s.nextSeq++

	turn := Turn{
		Seq:       s.nextSeq,
		UserText:  text,
		CreatedAt: now,
	}

	if len(s.History) >= MaxTurns {
		s.History = append(s.History[1:], turn)
	} else {
		s.History = append(s.History, turn)
	}

	s.MessageCount++

	return turn.Seq
}

// RecordAIReply sets the reply of the most recent turn.
func (s *Session) RecordAIReply(text string) {
	if len(s.History) == 0 {
		return
	}

	s.History[len(s.History)-1].AIReply = text
}

// AttachReply sets the reply of the turn with the given sequence number.
// It reports false when that turn has since been evicted or reset away.
func (s *Session) AttachReply(seq uint64, text string) bool {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Seq == seq {
			s.History[i].AIReply = text
			return true
		}
	}

	return false
}

// ResetCycle starts the conversation over after a delivered unlock.
func (s *Session) ResetCycle() {
	s.History = s.History[:0]
	s.MessageCount = 0
}

// PriorTurns returns a copy of the turns recorded before the turn with the given sequence number.
func (s *Session) PriorTurns(seq uint64) []Turn {
	result := make([]Turn, 0, len(s.History))

	for _, turn := range s.History {
		if turn.Seq >= seq {
			break
		}

		result = append(result, turn)
	}

	return result
}
