package chat

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/cinematch/backend/internal/engine"
)

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("chat: session not found")

// Step is the position of a session in the question flow
type Step int

const (
	StepMood Step = iota + 1
	StepGenre
	StepPace
	StepLiked
	StepPeriod
	StepTone
	StepRecommended
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Answers holds the raw text given to each question
type Answers struct {
	Mood   string `json:"mood"`
	Genre  string `json:"genre"`
	Pace   string `json:"pace"`
	Liked  string `json:"liked"`
	Period string `json:"period"`
	Tone   string `json:"tone"`
}

// Session is the state of one conversation
type Session struct {
	ID                  string                  `json:"id"`
	Step                Step                    `json:"step"`
	Answers             Answers                 `json:"answers"`
	History             []Message               `json:"history"`
	Seed                string                  `json:"seed,omitempty"`
	LastRecommendations []engine.Recommendation `json:"last_recommendations,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	c := *s
	c.History = slices.Clone(s.History)
	c.LastRecommendations = slices.Clone(s.LastRecommendations)
	return &c
}

// Store persists sessions between turns
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
