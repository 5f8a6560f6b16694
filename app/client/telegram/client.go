package telegram

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"unlockbot/app/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const requestTimeout = 10 * time.Second

var _ do.Shutdownable = (*Client)(nil)

// Route carries delivery hints for a single outbound message.
type Route struct {
	// Message to quote, zero sends a standalone message
	ReplyToMessageID int
}

type PaidMedia struct {
	MediaRef string
	Stars    int
	Caption  string
	Payload  string
}

type Client struct {
	bot *tgbotapi.BotAPI

	webhookSet atomic.Bool
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	endpoint := cfg.Telegram.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	return New(cfg.Telegram.Token, endpoint, &http.Client{Timeout: requestTimeout})
}

func New(token, endpoint string, httpClient tgbotapi.HTTPClient) (*Client, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, oops.In("telegram").Errorf("failed to create bot api: %w", err)
	}

	slog.Info("Authorized on telegram", "username", bot.Self.UserName)

	return &Client{bot: bot}, nil
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string, route Route) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := tgbotapi.Params{}
	params["chat_id"] = strconv.FormatInt(chatID, 10)
	params["text"] = text

	if err := addReply(params, route); err != nil {
		return err
	}

	if _, err := c.bot.MakeRequest("sendMessage", params); err != nil {
		return oops.In("telegram").With("chat_id", chatID).Errorf("sendMessage: %w", err)
	}

	return nil
}

func (c *Client) SendPaidMedia(ctx context.Context, chatID int64, media PaidMedia, route Route) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := tgbotapi.Params{}
	params["chat_id"] = strconv.FormatInt(chatID, 10)
	params.AddNonZero("star_count", media.Stars)
	params.AddNonEmpty("caption", media.Caption)
	params.AddNonEmpty("payload", media.Payload)
	params["parse_mode"] = tgbotapi.ModeHTML

	items := []map[string]string{{
		"type":  "photo",
		"media": media.MediaRef,
	}}
	if err := params.AddInterface("media", items); err != nil {
		return oops.In("telegram").Errorf("failed to encode media: %w", err)
	}

	if err := addReply(params, route); err != nil {
		return err
	}

	if _, err := c.bot.MakeRequest("sendPaidMedia", params); err != nil {
		return oops.In("telegram").
			With("chat_id", chatID).
			With("stars", media.Stars).
			Errorf("sendPaidMedia: %w", err)
	}

	return nil
}

// SetWebhook points telegram at url. An empty secret disables the secret header.
func (c *Client) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{}
	params["url"] = url
	params.AddNonEmpty("secret_token", secret)
	params["allowed_updates"] = `["message"]`

	if _, err := c.bot.MakeRequest("setWebhook", params); err != nil {
		return oops.In("telegram").With("url", url).Errorf("setWebhook: %w", err)
	}

	c.webhookSet.Store(true)

	return nil
}

func (c *Client) DeleteWebhook(dropPending bool) error {
	params := tgbotapi.Params{}
	params.AddBool("drop_pending_updates", dropPending)

	if _, err := c.bot.MakeRequest("deleteWebhook", params); err != nil {
		return oops.In("telegram").Errorf("deleteWebhook: %w", err)
	}

	c.webhookSet.Store(false)

	return nil
}

func (c *Client) Shutdown() error {
	if !c.webhookSet.Load() {
		return nil
	}

	if err := c.DeleteWebhook(true); err != nil {
		return err
	}

	slog.Info("Webhook deleted")

	return nil
}

func addReply(params tgbotapi.Params, route Route) error {
	if route.ReplyToMessageID == 0 {
		return nil
	}

	err := params.AddInterface("reply_parameters", map[string]any{
		"message_id":                  route.ReplyToMessageID,
		"allow_sending_without_reply": true,
	})
	if err != nil {
		return oops.In("telegram").Errorf("failed to encode reply parameters: %w", err)
	}

	return nil
}
