// Package apiclient talks to the BODI HTTP API. It loads the listing catalog
// and relays conversation turns to the chat endpoint.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/comigor/bodi-go/internal/catalog"
	"github.com/comigor/bodi-go/internal/history"
	"github.com/comigor/bodi-go/internal/llm"
)

// Client is a client for the BODI API. It implements catalog.Loader and
// llm.Responder.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a Client for baseURL, e.g. "http://localhost:8000". A nil
// httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// ChatMessage is the wire form of one context message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Language string        `json:"language"`
}

// ChatResponse is the body returned by POST /api/chat.
type ChatResponse struct {
	Response string `json:"response"`
	Language string `json:"language"`
}

// Load retrieves every listing.
func (c *Client) Load(ctx context.Context) ([]catalog.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/properties", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var entries []catalog.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	return entries, nil
}

// Respond sends the context window to the chat endpoint.
func (c *Client) Respond(ctx context.Context, r llm.Request) (string, error) {
	body := ChatRequest{
		Messages: make([]ChatMessage, 0, len(r.Messages)),
		Language: string(r.Language),
	}
	if body.Language == "" {
		body.Language = string(llm.English)
	}
	for _, m := range r.Messages {
		body.Messages = append(body.Messages, ChatMessage{Role: string(m.Role), Content: m.Text})
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewBuffer(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// a 200 with an unreadable body is a malformed reply, not a transport failure
		return "", fmt.Errorf("%w: %v", llm.ErrEmptyReply, err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", llm.ErrEmptyReply
	}
	return out.Response, nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &llm.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
}

// FromMessages converts wire messages into history messages.
func FromMessages(in []ChatMessage) []history.Message {
	out := make([]history.Message, 0, len(in))
	for _, m := range in {
		role := history.RoleUser
		if m.Role == string(history.RoleAssistant) {
			role = history.RoleAssistant
		}
		out = append(out, history.Message{Role: role, Text: m.Content})
	}
	return out
}
