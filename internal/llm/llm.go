package llm

import (
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/bodi-go/internal/config"
)

const requestTimeout = 60 * time.Second

// NewClient creates the inference client for cfg.Provider. "azure" targets an
// Azure OpenAI deployment at BaseURL; anything else is treated as an
// OpenAI-compatible endpoint (OpenAI, Groq, a local server).
func NewClient(cfg config.LLMConfig) *openai.Client {
	var oc openai.ClientConfig
	switch cfg.Provider {
	case "azure":
		oc = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
	default:
		oc = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
	}
	oc.HTTPClient = &http.Client{Timeout: requestTimeout}

	return openai.NewClientWithConfig(oc)
}
