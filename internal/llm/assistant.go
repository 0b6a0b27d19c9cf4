package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/bodi-go/internal/catalog"
	"github.com/comigor/bodi-go/internal/config"
	"github.com/comigor/bodi-go/internal/history"
	"github.com/comigor/bodi-go/internal/logger"
)

const defaultSystemPrompt = `You are BODI, an AI housing assistant for Nigeria. Your tone is warm, helpful, and trustworthy.

CORE MISSION: Connect users with safe, verified housing while prioritizing TRUST and SAFETY.

CRITICAL INSTRUCTION: When recommending properties, ALWAYS mention the property ID in your response.
For example: "I found LAG-001 which is a 2-bedroom in Yaba..." or "Check out ABJ-002 for a luxury duplex..."

FORMATTING RULES:
- Use **bold** (double asterisks) for important details like property IDs, prices, and key features
- Put property recommendations in a bulleted list using "-" for easy reading
- Add blank lines between paragraphs for readability
- Keep responses concise but informative (2-4 sentences per recommendation)

RULES:
- Always mention if a property is VERIFIED (major trust signal)
- Only recommend properties from the list below, and always include their ID
- If discussing payments, emphasize ESCROW protection
- If the user seems worried about fraud, reassure with verification, escrow and the safety toolkit`

const pidginAddendum = "LANGUAGE: Use Nigerian Pidgin English for a more relatable, local feel. E.g. 'Abeg check this one (LAG-001)', 'No wahala', 'E get as e be'."

// Assistant answers conversation turns with an OpenAI-compatible model. The
// system prompt lists every listing in the current catalog snapshot so the
// model can cite identifiers.
type Assistant struct {
	llmClient Client
	cfg       config.LLMConfig
	catalog   *catalog.Provider
}

// NewAssistant wires a client to the catalog it should recommend from.
func NewAssistant(llmClient Client, cfg config.LLMConfig, provider *catalog.Provider) *Assistant {
	return &Assistant{llmClient: llmClient, cfg: cfg, catalog: provider}
}

// SystemPrompt builds the prompt for lang from the current snapshot.
func (a *Assistant) SystemPrompt(lang Language) string {
	base := defaultSystemPrompt
	if a.cfg.SystemPrompt != "" {
		base = a.cfg.SystemPrompt
	}

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\nAvailable Listings:\n")
	for _, e := range a.catalog.Snapshot().Entries() {
		fmt.Fprintf(&sb, "- %s in %s (%s) @ %s. Verified: %t. Safety: %.1f/10. ID: %s\n",
			e.Title, e.Location, e.Type, catalog.FormatNaira(e.PriceMinor), e.Verified, e.SafetyScore, e.ID)
	}
	if lang == Pidgin {
		sb.WriteString("\n")
		sb.WriteString(pidginAddendum)
	}
	return sb.String()
}

// Respond implements Responder.
func (a *Assistant) Respond(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.SystemPrompt(req.Language),
	})
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == history.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}

	resp, err := a.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Messages:    messages,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
		TopP:        1,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Code: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		logger.L.Error("LLM call failed", "error", err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyReply
	}
	logger.L.Debug("LLM response received", "model", a.cfg.Model, "choices", len(resp.Choices))
	return resp.Choices[0].Message.Content, nil
}
