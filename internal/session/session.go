package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless" // FSM library

	"github.com/comigor/bodi-go/internal/catalog"
	"github.com/comigor/bodi-go/internal/history"
	"github.com/comigor/bodi-go/internal/llm"
	"github.com/comigor/bodi-go/internal/logger"
	"github.com/comigor/bodi-go/internal/markup"
	"github.com/comigor/bodi-go/internal/metrics"
	"github.com/comigor/bodi-go/internal/recommend"
)

// FSM States
type State string

const (
	StateIdle             State = "Idle"
	StateComposing        State = "Composing"
	StateAwaitingResponse State = "AwaitingResponse"
	StateRendered         State = "Rendered" // transient: settles to Idle
	StateFailed           State = "Failed"   // transient: settles to Idle
)

// FSM Triggers
type Trigger string

const (
	TriggerCompose       Trigger = "Compose"
	TriggerSubmit        Trigger = "Submit"
	TriggerResponded     Trigger = "Responded"
	TriggerRequestFailed Trigger = "RequestFailed"
	TriggerSettle        Trigger = "Settle"
)

const (
	Greeting = "Hi! I'm BODI, your housing guide. Looking for a property? Just describe what you need! (e.g., '2-bedroom in Yaba under 800k')"

	// FallbackUnavailable answers a non-success or empty reply.
	FallbackUnavailable = "My connection is a bit weak. Please try again."
	// FallbackNetwork answers a transport failure or timeout.
	FallbackNetwork = "Network error. Please check your connection."

	DefaultTimeout     = 30 * time.Second
	DefaultViewAllBase = "/properties"
)

var (
	ErrEmptyInput      = errors.New("message is empty")
	ErrRequestInFlight = errors.New("a request is already in flight")
)

// Turn is the outcome of one Send. Cause is nil when the assistant answered;
// otherwise Message holds the fallback text shown to the user.
type Turn struct {
	Message history.Message
	Blocks  []markup.Block
	Cause   error
}

// Failed reports whether the turn ended with the fallback message.
func (t Turn) Failed() bool { return t.Cause != nil }

// Session is one user's conversation with the assistant. It owns its
// transcript exclusively; the catalog provider is shared and read-only.
type Session struct {
	id        string
	responder llm.Responder
	catalog   *catalog.Provider
	metrics   *metrics.Metrics

	limit       int
	timeout     time.Duration
	viewAllBase string
	greet       bool
	observers   []func(from, to State)

	mu         sync.Mutex
	language   llm.Language
	transcript history.Transcript
	fsm        *stateless.StateMachine
}

// Option configures a Session.
type Option func(*Session)

// WithContextLimit sets how many trailing messages each request carries.
func WithContextLimit(n int) Option { return func(s *Session) { s.limit = n } }

// WithTimeout bounds each inference request. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLanguage(lang llm.Language) Option { return func(s *Session) { s.language = lang } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Session) { s.metrics = m } }

// WithViewAllBase sets the listing page that "view all" links point at.
func WithViewAllBase(base string) Option { return func(s *Session) { s.viewAllBase = base } }

// WithoutGreeting starts the transcript empty.
func WithoutGreeting() Option { return func(s *Session) { s.greet = false } }

// WithObserver registers fn to run on every state transition. fn runs with
// the session lock held and may only call State.
func WithObserver(fn func(from, to State)) Option {
	return func(s *Session) { s.observers = append(s.observers, fn) }
}

// New creates a session in Idle. The catalog may still be loading; replies
// show without recommendations until a snapshot arrives.
func New(responder llm.Responder, provider *catalog.Provider, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		responder:   responder,
		catalog:     provider,
		limit:       history.DefaultContextLimit,
		timeout:     DefaultTimeout,
		viewAllBase: DefaultViewAllBase,
		greet:       true,
		language:    llm.English,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.greet {
		s.transcript.Append(history.Assistant(Greeting, nil))
	}
	s.fsm = s.newMachine()
	return s
}

func (s *Session) newMachine() *stateless.StateMachine {
	fsm := stateless.NewStateMachine(StateIdle)

	settle := func(ctx context.Context, args ...any) error {
		return fsm.FireCtx(ctx, TriggerSettle)
	}

	fsm.Configure(StateIdle).
		Permit(TriggerCompose, StateComposing).
		Permit(TriggerSubmit, StateAwaitingResponse)

	fsm.Configure(StateComposing).
		PermitReentry(TriggerCompose).
		Permit(TriggerSubmit, StateAwaitingResponse)

	// State: AwaitingResponse
	// Exactly one request is in flight; Submit is not permitted here.
	fsm.Configure(StateAwaitingResponse).
		Ignore(TriggerCompose).
		Permit(TriggerResponded, StateRendered).
		Permit(TriggerRequestFailed, StateFailed)

	fsm.Configure(StateRendered).
		OnEntry(settle).
		Permit(TriggerSettle, StateIdle)

	fsm.Configure(StateFailed).
		OnEntry(settle).
		Permit(TriggerSettle, StateIdle)

	fsm.OnTransitioned(func(ctx context.Context, t stateless.Transition) {
		from, _ := t.Source.(State)
		to, _ := t.Destination.(State)
		logger.L.Debug("session transition", "session", s.id, "from", from, "to", to, "trigger", t.Trigger)
		for _, fn := range s.observers {
			fn(from, to)
		}
	})

	return fsm
}

// ID is a random identifier for log correlation.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	st, _ := s.fsm.MustState().(State)
	return st
}

// Language returns the reply language sent with each request.
func (s *Session) Language() llm.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage changes the reply language for subsequent requests.
func (s *Session) SetLanguage(lang llm.Language) {
	s.mu.Lock()
	s.language = lang
	s.mu.Unlock()
}

// Messages returns the transcript in insertion order.
func (s *Session) Messages() []history.Message {
	return s.transcript.Messages()
}

// Compose marks the user as typing. It is a no-op while a request is in flight.
func (s *Session) Compose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fsm.Fire(TriggerCompose); err != nil {
		logger.L.Warn("FSM fire error", "session", s.id, "error", err)
	}
}

// Send runs one turn: it appends text as a user message, asks the responder
// for a reply over the bounded context window, extracts the listing ids the
// reply mentions and appends the assistant message. Transport failures and
// empty replies do not return an error; they append a fallback message and
// report the underlying problem in Turn.Cause. Send returns ErrEmptyInput for
// blank text and ErrRequestInFlight while another Send is waiting.
func (s *Session) Send(ctx context.Context, text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyInput
	}

	s.mu.Lock()
	if s.State() == StateAwaitingResponse {
		s.mu.Unlock()
		return Turn{}, ErrRequestInFlight
	}
	if s.State() == StateIdle {
		if err := s.fsm.Fire(TriggerCompose); err != nil {
			logger.L.Warn("FSM fire error", "session", s.id, "error", err)
		}
	}
	if err := s.fsm.Fire(TriggerSubmit); err != nil {
		s.mu.Unlock()
		return Turn{}, err
	}
	userMsg := history.User(text)
	window := history.BuildContext(s.transcript.Messages(), userMsg, s.limit)
	s.transcript.Append(userMsg)
	req := llm.Request{Messages: window, Language: s.language}
	s.mu.Unlock()

	start := time.Now()
	reply, err := s.respond(ctx, req)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = llm.ErrEmptyReply
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		logger.L.Warn("assistant request failed", "session", s.id, "error", err)
		msg := history.Assistant(fallbackFor(err), nil)
		s.transcript.Append(msg)
		if fireErr := s.fsm.Fire(TriggerRequestFailed); fireErr != nil {
			logger.L.Error("FSM fire error", "session", s.id, "error", fireErr)
		}
		s.metrics.ObserveTurn(metrics.OutcomeFailed, time.Since(start).Seconds())
		return Turn{Message: msg, Blocks: markup.Render(msg.Text), Cause: err}, nil
	}

	var ids []string
	if extracted := recommend.Extract(reply); len(extracted) > 0 {
		ids = extracted
	}
	msg := history.Assistant(reply, ids)
	s.transcript.Append(msg)
	if fireErr := s.fsm.Fire(TriggerResponded); fireErr != nil {
		logger.L.Error("FSM fire error", "session", s.id, "error", fireErr)
	}

	_, stats := recommend.CorrelateWithStats(ids, s.catalog.Snapshot())
	s.metrics.ObserveTurn(metrics.OutcomeRendered, time.Since(start).Seconds())
	s.metrics.ObserveExtraction(len(ids))
	if s.catalog.Loaded() {
		s.metrics.AddDangling(len(stats.Dangling))
	}
	logger.L.Info("assistant replied", "session", s.id, "recommended", len(ids), "resolved", stats.Resolved, "dangling", stats.Dangling)

	blocks := markup.Render(reply)
	logger.L.Debug("rendered reply", "session", s.id, "blocks", len(blocks), "text", markup.PlainText(blocks))
	return Turn{Message: msg, Blocks: blocks}, nil
}

// respond calls the responder with the session timeout. It returns at the
// deadline even when the responder ignores ctx; a late reply is dropped.
func (s *Session) respond(ctx context.Context, req llm.Request) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		reply string
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		reply, err := s.responder.Respond(reqCtx, req)
		ch <- result{reply, err}
	}()

	select {
	case r := <-ch:
		return r.reply, r.err
	case <-reqCtx.Done():
		return "", reqCtx.Err()
	}
}

// fallbackFor picks the user-visible text for a failed request.
func fallbackFor(err error) string {
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) || errors.Is(err, llm.ErrEmptyReply) {
		return FallbackUnavailable
	}
	return FallbackNetwork
}

// Blocks renders msg for display. Assistant text goes through the markup
// renderer; user text is shown verbatim as one paragraph.
func Blocks(msg history.Message) []markup.Block {
	if msg.Role == history.RoleAssistant {
		return markup.Render(msg.Text)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	return []markup.Block{{Kind: markup.Paragraph, Spans: []markup.Span{{Kind: markup.Plain, Text: msg.Text}}}}
}

// Recommendations correlates msg against the current catalog snapshot. Call it
// at render time; the result changes as the catalog loads or refreshes.
func (s *Session) Recommendations(msg history.Message) recommend.Set {
	return recommend.Correlate(msg.RecommendedIDs, s.catalog.Snapshot())
}

// ViewAll returns the listing-page URL showing every listing msg recommends.
func (s *Session) ViewAll(msg history.Message) (string, bool) {
	if !msg.HasRecommendations() {
		return "", false
	}
	return recommend.ViewAllURL(s.viewAllBase, msg.RecommendedIDs), true
}

// Open returns the navigation path for a single recommended listing.
func (s *Session) Open(id string) string {
	return recommend.ListingPath(id)
}
