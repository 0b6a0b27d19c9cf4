package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/bodi-go/internal/history"
)

// Client is minimal subset of openai.Client used by the assistant; it is easy to mock in tests.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Language is the reply language requested from the assistant.
type Language string

const (
	English Language = "en"
	Pidgin  Language = "pidgin"
)

// ParseLanguage accepts "en" or "pidgin" (case-sensitive).
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case English, Pidgin:
		return Language(s), nil
	}
	return "", fmt.Errorf("unsupported language %q (want en or pidgin)", s)
}

// Request is one inference call: the bounded context window plus a language.
type Request struct {
	Messages []history.Message
	Language Language
}

// Responder produces a single free-text assistant reply. Implementations
// must return promptly once ctx is done.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// ErrEmptyReply is returned when the service answers without any text.
var ErrEmptyReply = errors.New("empty assistant reply")

// StatusError is a non-success answer from an inference endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference request failed with status %d: %s", e.Code, e.Body)
}
