// Package history holds the in-memory conversation log of a single session
// and the trailing context window sent with each inference request.
// Nothing here is persisted; a transcript lives as long as its session.
package history

import "sync"

// DefaultContextLimit is the number of trailing messages sent per request.
const DefaultContextLimit = 10

// BuildContext appends next to msgs and returns the last limit messages in
// their original order. The result never shares a backing array with msgs.
// A limit <= 0 yields an empty slice.
func BuildContext(msgs []Message, next Message, limit int) []Message {
	if limit <= 0 {
		return []Message{}
	}
	total := len(msgs) + 1
	start := 0
	if total > limit {
		start = total - limit
	}

	out := make([]Message, 0, total-start)
	if start < len(msgs) {
		out = append(out, msgs[start:]...)
	}
	return append(out, next)
}

// Transcript is an append-only, insertion-ordered message log.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
}

// Append adds msg to the end of the log.
func (t *Transcript) Append(msg Message) {
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
}

// Messages returns a copy of the log in chronological order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Last returns the most recent message, if any.
func (t *Transcript) Last() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
