package llm

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Skufu/symptom-checker/internal/config"
)

// ErrEmptyReply is returned when the provider answered without any text.
var ErrEmptyReply = errors.New("llm: empty reply")

// Gateway sends a single prompt to a text-completion backend and returns the
// raw reply. An error means the call itself failed; an unusable reply is not
// an error at this layer.
type Gateway interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// New builds the gateway selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Gateway, error) {
	var (
		gw  Gateway
		err error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		gw, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.ProviderOpenAI:
		gw = NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	default:
		return nil, errors.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(gw, cfg.Timeout), nil
}

type timeoutGateway struct {
	Gateway
	timeout time.Duration
}

// WithTimeout bounds each Generate call. A zero timeout returns gw unchanged.
func WithTimeout(gw Gateway, timeout time.Duration) Gateway {
	if timeout <= 0 {
		return gw
	}
	return &timeoutGateway{Gateway: gw, timeout: timeout}
}

func (t *timeoutGateway) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Gateway.Generate(ctx, prompt)
}
