package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const defaultPath = "config.yaml"

type Config struct {
	Log      Log      `yaml:"log"`
	Server   Server   `yaml:"server"`
	Telegram Telegram `yaml:"telegram"`
	AI       AI       `yaml:"ai"`
	Unlock   Unlock   `yaml:"unlock"`
	Pacing   Pacing   `yaml:"pacing"`
	Session  Session  `yaml:"session"`
	Queue    Queue    `yaml:"queue"`
	Persona  Persona  `yaml:"persona"`
	Ledger   Ledger   `yaml:"ledger"`
}

type Server struct {
	// HTTP port the webhook listens on
	Port int `yaml:"port" example:"10000" validate:"min=1,max=65535"`
}

type Telegram struct {
	// Bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789" validate:"required"`
	// Public hostname the webhook is registered under, empty disables registration
	PublicHost string `yaml:"public_host" example:"unlockbot.onrender.com"`
	// Webhook path
	WebhookPath string `yaml:"webhook_path" example:"/webhook" validate:"startswith=/"`
	// Secret token telegram echoes in X-Telegram-Bot-Api-Secret-Token
	SecretToken string `yaml:"secret_token"`
	// Bot API endpoint format, override for local bot api servers
	APIEndpoint string `yaml:"api_endpoint" example:"https://api.telegram.org/bot%s/%s"`
}

type AI struct {
	// Backend implementation: openai or langchain
	Provider string `yaml:"provider" example:"openai" validate:"oneof=openai langchain"`
	// OpenAI compatible base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1" validate:"required"`
	// Bearer token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// Model name
	Model string `yaml:"model" example:"deepseek/deepseek-chat-v3-0324:free" validate:"required"`
	// Sampling temperature
	Temperature float32 `yaml:"temperature" example:"1"`
	// Ask the backend for a JSON object response
	JSONMode bool `yaml:"json_mode" example:"true"`
	// Request timeout, zero means the transport default
	Timeout time.Duration `yaml:"timeout" example:"30s"`
}

type Unlock struct {
	// Telegram file_id of the default media item
	MediaRef string `yaml:"media_ref" example:"AgACAgIAAxkBAAIB..." validate:"required"`
	// Price in stars
	Price int `yaml:"price" example:"10" validate:"min=1"`
	// Caption template, {content} and {price} are substituted
	Caption string `yaml:"caption"`
	// Payload attached to the paid media for tracking
	Payload string `yaml:"payload" example:"dm_exclusive"`
}

type Pacing struct {
	// Messages exempt from the cooldown after each reset
	GraceMessages int `yaml:"grace_messages" example:"3" validate:"min=0"`
	// Minimum time between AI calls once grace is used up
	Cooldown time.Duration `yaml:"cooldown" example:"60s" validate:"min=0"`
}

type Session struct {
	// Maximum number of sessions kept in memory
	MaxSessions int `yaml:"max_sessions" example:"10000" validate:"min=1"`
	// Sessions idle longer than this are dropped
	IdleTTL time.Duration `yaml:"idle_ttl" example:"1h" validate:"min=0"`
	// How often idle sessions are swept
	SweepInterval time.Duration `yaml:"sweep_interval" example:"5m" validate:"min=0"`
}

type Queue struct {
	// Inbound buffer size
	Size int `yaml:"size" example:"64" validate:"min=1"`
	// Number of concurrent message workers
	Workers int `yaml:"workers" example:"8" validate:"min=1"`
}

type Persona struct {
	// Instruction block sent ahead of the history, {unlock_after} is substituted
	Prompt string `yaml:"prompt"`
	// Number of user turns after which the backend may escalate to an unlock
	UnlockAfter int `yaml:"unlock_after" example:"5" validate:"min=0"`
}

type Ledger struct {
	// JSON lines file with delivered unlocks
	Path string `yaml:"path" example:"data/unlocks.jsonl" validate:"required"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.With("path", path).Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references against the environment, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var result Config

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	result.applyDefaults()

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 10000
	}
	if c.Telegram.WebhookPath == "" {
		c.Telegram.WebhookPath = "/webhook"
	}
	if c.Telegram.PublicHost == "" {
		c.Telegram.PublicHost = os.Getenv("RENDER_EXTERNAL_HOSTNAME")
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://api.openai.com/v1"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 1
	}
	if c.Unlock.Price == 0 {
		c.Unlock.Price = 10
	}
	if c.Unlock.Caption == "" {
		c.Unlock.Caption = DefaultCaption
	}
	if c.Unlock.Payload == "" {
		c.Unlock.Payload = "dm_exclusive"
	}
	if c.Pacing.GraceMessages == 0 {
		c.Pacing.GraceMessages = 3
	}
	if c.Pacing.Cooldown == 0 {
		c.Pacing.Cooldown = 60 * time.Second
	}
	if c.Session.MaxSessions == 0 {
		c.Session.MaxSessions = 10000
	}
	if c.Session.IdleTTL == 0 {
		c.Session.IdleTTL = 60 * c.Pacing.Cooldown
	}
	if c.Session.SweepInterval == 0 {
		c.Session.SweepInterval = 5 * time.Minute
	}
	if c.Queue.Size == 0 {
		c.Queue.Size = 64
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 8
	}
	if c.Persona.Prompt == "" {
		c.Persona.Prompt = DefaultPersona
	}
	if c.Persona.UnlockAfter == 0 {
		c.Persona.UnlockAfter = 5
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "data/unlocks.jsonl"
	}
}
