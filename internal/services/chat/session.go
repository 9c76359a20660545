package chat

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/socialchef/leftovers/internal/errors"
)

// ErrorPrefix starts the assistant message appended when a question fails.
const ErrorPrefix = "Sorry, something went wrong: "

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session is an append-only chat transcript.
type Session struct {
	asker Asker

	mu         sync.Mutex
	transcript []Message
}

func NewSession(asker Asker) *Session {
	return &Session{asker: asker}
}

// Send appends the question, asks it, and appends the answer or an error
// message. It returns the messages it appended. A failed question never
// breaks the session.
func (s *Session) Send(ctx context.Context, question string) []Message {
	asked := Message{Role: RoleUser, Text: question}
	s.append(asked)

	reply := Message{Role: RoleAssistant}
	answer, err := s.asker.Ask(ctx, question)
	if err != nil {
		reply.Text = ErrorPrefix + userMessage(err)
	} else {
		reply.Text = answer
	}
	s.append(reply)

	return []Message{asked, reply}
}

// Transcript returns a copy of every message so far.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transcript)
}

func (s *Session) append(m Message) {
	s.mu.Lock()
	s.transcript = append(s.transcript, m)
	s.mu.Unlock()
}

func userMessage(err error) string {
	if appErr, ok := errors.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}

const (
	DefaultMaxSessions = 10000
	DefaultSessionIdle = 24 * time.Hour
)

// Sessions keeps one in-memory Session per user id. Sessions idle for longer
// than the idle TTL, or beyond the size cap, are forgotten.
type Sessions struct {
	asker Asker

	mu       sync.Mutex
	sessions *expirable.LRU[string, *Session]
}

func NewSessions(asker Asker) *Sessions {
	return NewSessionsWithLimits(asker, DefaultMaxSessions, DefaultSessionIdle)
}

func NewSessionsWithLimits(asker Asker, maxSessions int, idle time.Duration) *Sessions {
	return &Sessions{
		asker:    asker,
		sessions: expirable.NewLRU[string, *Session](maxSessions, nil, idle),
	}
}

// Get returns the user's session, creating it on first use. Every call
// renews the session's idle deadline.
func (s *Sessions) Get(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions.Get(userID)
	if !ok {
		session = NewSession(s.asker)
	}
	s.sessions.Add(userID, session)
	return session
}

// Len reports how many sessions are held.
func (s *Sessions) Len() int {
	return s.sessions.Len()
}
