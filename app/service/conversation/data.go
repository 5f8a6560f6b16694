package conversation

import (
	"context"
	"time"

	"unlockbot/app/client/telegram"
)

const (
	// minTextLength is the trimmed length below which a message skips the backend.
	minTextLength = 2
	// maxPromptTurns is how many prior turns are rendered into a prompt.
	maxPromptTurns = 6

	photoMarker = "[photo]"

	fillerReply     = "😘"
	deflectionReply = "Give me a minute, babe 😘 I'll be right back"
	apologyReply    = "Sorry, I got distracted for a sec 😅 What were you saying?"
	fallbackReply   = "Oops! Try again later. 😅"
)

// Inbound is one private-chat message handed over by the webhook.
type Inbound struct {
	UserID   int64
	ChatID   int64
	Text     string
	HasPhoto bool
	PhotoRef string
	Route    telegram.Route
	Now      time.Time
}

// UserText is the message as it is remembered in history.
func (in Inbound) UserText() string {
	if !in.HasPhoto {
		return in.Text
	}

	if in.Text == "" {
		return photoMarker
	}

	return in.Text + " " + photoMarker
}

type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, route telegram.Route) error
	SendPaidMedia(ctx context.Context, chatID int64, media telegram.PaidMedia, route telegram.Route) error
}

type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
