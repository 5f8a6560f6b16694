package conversation

import (
	"strings"
	"time"
	"unicode/utf8"

	"unlockbot/app/service/session"
)

type Policy struct {
	GraceMessages int
	Cooldown      time.Duration
}

type Verdict struct {
	Allowed    bool
	Deflection string
}

// Evaluate decides whether the backend may be called for the session's latest message.
// The session must be locked. LastInteraction is latched to now whatever the outcome,
// so a stream of deflected messages keeps restarting the cooldown.
func (p Policy) Evaluate(sess *session.Session, now time.Time) Verdict {
	last := sess.LastInteraction
	sess.LastInteraction = now

	if sess.MessageCount <= p.GraceMessages {
		return Verdict{Allowed: true}
	}

	if now.Sub(last) < p.Cooldown {
		return Verdict{Deflection: deflectionReply}
	}

	return Verdict{Allowed: true}
}

func isTooShort(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < minTextLength
}
