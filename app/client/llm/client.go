package llm

import (
	"context"
	"net/http"
	"time"

	"unlockbot/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
)

type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// Client turns a prompt into the backend's raw reply text, whatever the provider.
type Client struct {
	provider string
	backend  completer
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(cfg.AI)
}

func New(cfg config.AI) (*Client, error) {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
	}

	var (
		backend completer
		err     error
	)

	switch cfg.Provider {
	case "langchain":
		backend, err = newLangchainBackend(cfg, httpClient)
	case "openai", "":
		backend = newOpenAIBackend(cfg, httpClient)
	default:
		return nil, oops.In("llm").With("provider", cfg.Provider).Errorf("unknown provider")
	}
	if err != nil {
		return nil, err
	}

	return &Client{
		provider: cfg.Provider,
		backend:  backend,
	}, nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	result, err := c.backend.complete(ctx, prompt)
	if err != nil {
		return "", oops.In("llm").
			With("provider", c.provider).
			With("duration", time.Since(start)).
			Wrap(err)
	}

	return result, nil
}
