package classifier

import "fmt"

// Provider names accepted by NewCompleter.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewCompleter builds the Completer for provider.
func NewCompleter(provider, apiKey, baseURL, model string) (Completer, error) {
	switch provider {
	case ProviderOpenAI, "":
		return NewOpenAICompleter(apiKey, baseURL, model), nil
	case ProviderAnthropic:
		return NewAnthropicCompleter(apiKey, baseURL, model), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}
