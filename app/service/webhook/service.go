package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"unlockbot/app/client/telegram"
	"unlockbot/app/config"
	"unlockbot/app/service/conversation"
	"unlockbot/app/service/ledger"
	"unlockbot/app/service/queue"
	"unlockbot/app/service/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Service receives telegram updates over HTTP and hands private messages to the queue.
type Service struct {
	cfg      *config.Config
	app      *fiber.App
	queueSvc *queue.Service
	store    *session.Store
	ledger   *ledger.Service

	now func() time.Time
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*config.Config](di),
		do.MustInvoke[*queue.Service](di),
		do.MustInvoke[*session.Store](di),
		do.MustInvoke[*ledger.Service](di),
	), nil
}

func NewService(
	cfg *config.Config,
	queueSvc *queue.Service,
	store *session.Store,
	ledgerSvc *ledger.Service,
) *Service {
	s := &Service{
		cfg:      cfg,
		queueSvc: queueSvc,
		store:    store,
		ledger:   ledgerSvc,
		now:      time.Now,
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
	})

	s.app.Get("/health", s.handleHealth)
	s.app.Get("/stats", s.handleStats)
	s.app.Post(cfg.Telegram.WebhookPath, s.handleUpdate)

	return s
}

func (s *Service) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)

	slog.Info("Webhook server listening", "addr", addr, "path", s.cfg.Telegram.WebhookPath)

	return s.app.Listen(addr)
}

// Register points telegram at this server, when a public host is configured.
func (s *Service) Register(client *telegram.Client) error {
	if s.cfg.Telegram.PublicHost == "" {
		slog.Warn("No public host configured, webhook not set (local dev?)")
		return nil
	}

	url := "https://" + s.cfg.Telegram.PublicHost + s.cfg.Telegram.WebhookPath
	if err := client.SetWebhook(url, s.cfg.Telegram.SecretToken); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	slog.Info("Webhook set", "url", url)

	return nil
}

func (s *Service) Stop() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

func (s *Service) handleHealth(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func (s *Service) handleStats(c *fiber.Ctx) error {
	entries, err := s.ledger.Load()
	if err != nil {
		slog.Warn("Failed to load ledger", "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"sessions": s.store.Len(),
		"queued":   s.queueSvc.Len(),
		"unlocks":  len(entries),
	})
}

func (s *Service) handleUpdate(c *fiber.Ctx) error {
	if !s.authorized(c.Get(secretHeader)) {
		return fiber.ErrUnauthorized
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid update")
	}

	msg, ok := s.toInbound(update)
	if !ok {
		return c.SendStatus(fiber.StatusOK)
	}

	slog.Debug("DM received",
		"user_id", msg.UserID,
		"text", preview(msg.Text),
		"has_photo", msg.HasPhoto,
	)

	s.queueSvc.Add(msg)

	// telegram does not wait for the reply, it only needs the ack
	return c.SendStatus(fiber.StatusOK)
}

func (s *Service) authorized(secret string) bool {
	expected := s.cfg.Telegram.SecretToken
	if expected == "" {
		return true
	}

	return subtle.ConstantTimeCompare([]byte(secret), []byte(expected)) == 1
}

func (s *Service) toInbound(update tgbotapi.Update) (conversation.Inbound, bool) {
	message := update.Message
	if message == nil || message.From == nil || message.Chat == nil || !message.Chat.IsPrivate() {
		return conversation.Inbound{}, false
	}

	msg := conversation.Inbound{
		UserID: message.From.ID,
		ChatID: message.Chat.ID,
		Text:   message.Text,
		Route: telegram.Route{
			ReplyToMessageID: message.MessageID,
		},
		Now: s.now(),
	}

	if len(message.Photo) > 0 {
		msg.HasPhoto = true
		msg.PhotoRef = message.Photo[len(message.Photo)-1].FileID
		msg.Text = message.Caption
	}

	return msg, true
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}

	return text
}
