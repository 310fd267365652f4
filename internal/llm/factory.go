package llm

import (
	"fmt"
	"strings"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderYandex     = "yandex"
)

// placeholderKey is the documented sample value from the .env template. A key
// left at the sample is treated the same as no key at all.
const placeholderKey = "your_api_key_here"

// Factory creates completion gateways with consistent credential handling:
// a provider without a usable credential degrades to the simulator instead
// of failing startup.
type Factory struct {
	APIKey           string
	BaseURL          string
	Referrer         string
	Title            string
	YandexOAuthToken string
	YandexFolderID   string
}

func (f *Factory) CreateGateway(provider, model string) (Gateway, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenRouter:
		if f.APIKey == "" || f.APIKey == placeholderKey {
			return NewSimulator(), nil
		}
		return NewOpenRouter(f.APIKey, f.BaseURL, model, f.Referrer, f.Title), nil
	case ProviderYandex:
		if f.YandexOAuthToken == "" || f.YandexFolderID == "" {
			return NewSimulator(), nil
		}
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
