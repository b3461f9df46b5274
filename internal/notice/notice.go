// Package notice carries user-facing messages from the lookup core to a
// display surface.
package notice

import (
	"fmt"
	"sync"
)

// Kind is the severity of a message.
type Kind int

const (
	Info Kind = iota
	Warning
	Error
)

func (k Kind) String() string {
	switch k {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Code classifies a message.
type Code string

const (
	QueryFailed  Code = "query_failed"
	NotFound     Code = "not_found"
	InvalidInput Code = "invalid_input"
)

// Message is one notice. Source names the pane or screen that produced it.
type Message struct {
	Kind   Kind
	Code   Code
	Source string
	Text   string
}

func (m Message) String() string {
	if m.Source == "" {
		return m.Text
	}
	return m.Source + ": " + m.Text
}

// Notifier receives messages. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(Message)
}

// Func adapts a function to Notifier.
type Func func(Message)

func (f Func) Notify(m Message) { f(m) }

// Discard drops every message.
var Discard Notifier = Func(func(Message) {})

// Recorder keeps every message it receives.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Notify(m Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Drain returns the recorded messages and forgets them.
func (r *Recorder) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.msgs
	r.msgs = nil
	return out
}

// Count returns how many recorded messages carry the code.
func (r *Recorder) Count(c Code) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.Code == c {
			n++
		}
	}
	return n
}
