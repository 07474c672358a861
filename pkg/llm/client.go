// Package llm wraps the text-generation providers behind a single Generator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Completion is one raw model reply. Text is returned exactly as the
// provider produced it.
type Completion struct {
	Text   string
	Model  string
	Tokens int64
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (*Completion, error)
	Model() string
}

type Options struct {
	Provider string
	Model    string
	APIKey   string
}

var ErrEmptyReply = errors.New("empty reply from model")

func New(ctx context.Context, opts Options) (Generator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("missing API key for provider %q", opts.Provider)
	}
	switch strings.ToLower(opts.Provider) {
	case "", ProviderGemini:
		return NewGeminiClient(ctx, opts.APIKey, opts.Model)
	case ProviderOpenAI:
		return NewOpenAIClient(opts.APIKey, opts.Model), nil
	case ProviderAnthropic:
		return NewAnthropicClient(opts.APIKey, opts.Model), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
}

// Retryable reports whether err is worth another attempt. Provider errors
// carrying a client status other than 408, 409 or 429 are final, as is an
// empty or blocked reply. Transport errors are retried.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyReply) {
		return false
	}
	status := 0
	var oaiErr *openai.Error
	var antErr *anthropic.Error
	var gemErr genai.APIError
	var gemPtr *genai.APIError
	switch {
	case errors.As(err, &oaiErr):
		status = oaiErr.StatusCode
	case errors.As(err, &antErr):
		status = antErr.StatusCode
	case errors.As(err, &gemErr):
		status = gemErr.Code
	case errors.As(err, &gemPtr):
		status = gemPtr.Code
	}
	switch {
	case status == 0, status >= 500:
		return true
	case status == http.StatusRequestTimeout, status == http.StatusConflict, status == http.StatusTooManyRequests:
		return true
	}
	return false
}
