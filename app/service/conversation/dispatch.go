package conversation

import (
	"context"
	"html"
	"log/slog"
	"strconv"
	"strings"

	"unlockbot/app/client/telegram"
	"unlockbot/app/service/ledger"
	"unlockbot/app/service/session"
	"unlockbot/app/util/mylog"
)

const defaultContentLabel = "DM"

type dispatchTarget struct {
	in   Inbound
	sess *session.Session
	seq  uint64
}

func (s *Service) dispatch(ctx context.Context, target dispatchTarget, decision Decision) {
	switch decision.Action() {
	case ActionUnlock:
		s.dispatchUnlock(ctx, target, decision)
	default:
		s.dispatchReply(ctx, target, decision.ReplyText)
	}
}

func (s *Service) dispatchReply(ctx context.Context, target dispatchTarget, text string) {
	if strings.TrimSpace(text) == "" {
		text = fillerReply
	}

	if err := s.messenger.SendText(ctx, target.in.ChatID, text, telegram.Route{}); err != nil {
		slog.Error("Failed to send reply",
			"user_id", target.in.UserID,
			"chat_id", target.in.ChatID,
			"error", err,
		)
		return
	}

	target.sess.Lock()
	attached := target.sess.AttachReply(target.seq, text)
	target.sess.Unlock()

	if !attached {
		slog.Debug("Reply sent for a turn no longer in history",
			"user_id", target.in.UserID,
			"seq", target.seq,
		)
	}
}

func (s *Service) dispatchUnlock(ctx context.Context, target dispatchTarget, decision Decision) {
	media := telegram.PaidMedia{
		MediaRef: s.unlock.MediaRef,
		Stars:    s.unlock.Price,
		Caption:  s.renderCaption(decision.ContentLabel),
		Payload:  s.unlock.Payload,
	}

	err := s.messenger.SendPaidMedia(ctx, target.in.ChatID, media, telegram.Route{})
	if err != nil {
		slog.Error("Failed to send paid media",
			"user_id", target.in.UserID,
			"chat_id", target.in.ChatID,
			"error", err,
		)
		s.sendFallback(ctx, target, decision.ReplyText)
		return
	}

	target.sess.Lock()
	target.sess.ResetCycle()
	target.sess.Unlock()

	slog.Info("Unlock delivered",
		"user_id", target.in.UserID,
		"content", decision.ContentLabel,
		"stars", media.Stars,
		mylog.TelegramKey, true,
	)

	err = s.ledger.Record(ledger.Entry{
		UserID:       target.in.UserID,
		ChatID:       target.in.ChatID,
		MediaRef:     media.MediaRef,
		Stars:        media.Stars,
		ContentLabel: decision.ContentLabel,
		Payload:      media.Payload,
		DeliveredAt:  target.in.Now,
	})
	if err != nil {
		slog.Warn("Failed to record unlock", "user_id", target.in.UserID, "error", err)
	}
}

// sendFallback replaces a failed media delivery with a plain text reply to the user's message.
func (s *Service) sendFallback(ctx context.Context, target dispatchTarget, text string) {
	if strings.TrimSpace(text) == "" {
		text = fallbackReply
	}

	route := telegram.Route{ReplyToMessageID: target.in.Route.ReplyToMessageID}
	if err := s.messenger.SendText(ctx, target.in.ChatID, text, route); err != nil {
		slog.Error("Failed to send fallback reply",
			"user_id", target.in.UserID,
			"chat_id", target.in.ChatID,
			"error", err,
		)
	}
}

func (s *Service) renderCaption(contentLabel string) string {
	if contentLabel == "" {
		contentLabel = defaultContentLabel
	}

	return strings.NewReplacer(
		"{content}", html.EscapeString(contentLabel),
		"{price}", strconv.Itoa(s.unlock.Price),
	).Replace(s.unlock.Caption)
}
