package server

import (
	"github.com/go-playground/validator/v10"

	"github.com/comigor/bodi-go/internal/apiclient"
	"github.com/comigor/bodi-go/internal/llm"
)

const (
	// MaxMessageContentBytes bounds a single message.
	MaxMessageContentBytes = 32 * 1024

	// MaxMessagesPerRequest bounds the context a client may send.
	MaxMessagesPerRequest = 50
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxMessageContentBytes
	}); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("maxmessages", func(fl validator.FieldLevel) bool {
		return fl.Field().Len() <= MaxMessagesPerRequest
	}); err != nil {
		panic(err)
	}
}

type chatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,maxbytes"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages" validate:"required,min=1,maxmessages,dive"`
	Language string        `json:"language" validate:"omitempty,oneof=en pidgin"`
}

func (r *chatRequest) Validate() error {
	return validate.Struct(r)
}

func (r *chatRequest) toLLM() llm.Request {
	wire := make([]apiclient.ChatMessage, len(r.Messages))
	for i, m := range r.Messages {
		wire[i] = apiclient.ChatMessage{Role: m.Role, Content: m.Content}
	}
	lang := llm.English
	if r.Language == string(llm.Pidgin) {
		lang = llm.Pidgin
	}
	return llm.Request{Messages: apiclient.FromMessages(wire), Language: lang}
}
