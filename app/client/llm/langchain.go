package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"unlockbot/app/config"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

type langchainBackend struct {
	model       llms.Model
	temperature float64
	jsonMode    bool
}

func newLangchainBackend(cfg config.AI, httpClient *http.Client) (*langchainBackend, error) {
	model, err := lcopenai.New(
		lcopenai.WithToken(cfg.Token),
		lcopenai.WithBaseURL(cfg.BaseURL),
		lcopenai.WithModel(cfg.Model),
		lcopenai.WithHTTPClient(httpClient),
		lcopenai.WithCallback(LogCallbackHandler{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create langchain openai model: %w", err)
	}

	return &langchainBackend{
		model:       model,
		temperature: float64(cfg.Temperature),
		jsonMode:    cfg.JSONMode,
	}, nil
}

func (b *langchainBackend) complete(ctx context.Context, prompt string) (string, error) {
	options := []llms.CallOption{
		llms.WithTemperature(b.temperature),
		llms.WithMaxTokens(maxCompletionTokens),
	}
	if b.jsonMode {
		options = append(options, llms.WithJSONMode())
	}

	result, err := llms.GenerateFromSinglePrompt(ctx, b.model, prompt, options...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return strings.TrimSpace(result), nil
}
