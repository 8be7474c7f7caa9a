package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cinematch/backend/internal/catalog"
	"github.com/cinematch/backend/internal/config"
	"github.com/cinematch/backend/internal/engine"
	"github.com/cinematch/backend/internal/metrics"
)

// ErrEmptyMessage is returned when the user text is blank
var ErrEmptyMessage = errors.New("chat: empty message")

// Recommender is the part of the engine the conversation depends on
type Recommender interface {
	Recommend(title string, n int) []engine.Recommendation
	Entries() []catalog.Entry
}

// Reply is the assistant's answer to one user message
type Reply struct {
	Session         *Session                `json:"session"`
	Message         Message                 `json:"message"`
	Recommendations []engine.Recommendation `json:"recommendations"`
}

// Conversation drives the question flow for every session in a store
type Conversation struct {
	recommender Recommender
	store       Store
	cfg         config.ChatConfig
	logger      *logrus.Entry

	rngMu sync.Mutex
	rng   *rand.Rand

	// turns of a session are serialized on the stripe its id hashes to
	locks [lockStripes]sync.Mutex
}

const lockStripes = 64

// NewConversation creates a conversation driver. A nil rng is seeded randomly.
func NewConversation(rec Recommender, store Store, cfg config.ChatConfig, logger *logrus.Entry, rng *rand.Rand) *Conversation {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Conversation{
		recommender: rec,
		store:       store,
		cfg:         cfg,
		logger:      logger.WithField("component", "conversation"),
		rng:         rng,
	}
}

// Start opens a new session and greets the user
func (c *Conversation) Start(ctx context.Context) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		Step:      StepMood,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.History = append(s.History, assistantMessage(greetingMessage, now))

	if err := c.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	metrics.ChatActiveSessions.Inc()

	c.logger.WithField("session", s.ID).Debug("Session started")
	return s, nil
}

// Session returns the stored state of a session
func (c *Conversation) Session(ctx context.Context, id string) (*Session, error) {
	return c.store.Get(ctx, id)
}

// End deletes a session
func (c *Conversation) End(ctx context.Context, id string) error {
	unlock := c.lock(id)
	defer unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ChatActiveSessions.Dec()

	c.logger.WithField("session", id).Debug("Session ended")
	return nil
}

// Reply records the user's text, advances the session and returns the assistant's answer
func (c *Conversation) Reply(ctx context.Context, id, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	unlock := c.lock(id)
	defer unlock()

	s, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	step := s.Step
	s.History = append(s.History, Message{Role: RoleUser, Content: text, At: now})

	var (
		content string
		recs    []engine.Recommendation
	)

	switch step {
	case StepMood:
		s.Answers.Mood = text
	case StepGenre:
		s.Answers.Genre = text
	case StepPace:
		s.Answers.Pace = text
	case StepLiked:
		s.Answers.Liked = text
	case StepPeriod:
		s.Answers.Period = text
	case StepTone:
		s.Answers.Tone = text
		content, recs = c.recommend(s)
	default:
		content, recs = c.afterRecommendation(s, text)
	}

	if step < StepTone {
		content = nextQuestion[step]
		s.Step = step + 1
	}

	msg := assistantMessage(content, now)
	s.History = append(s.History, msg)
	s.UpdatedAt = now

	if err := c.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	metrics.RecordChatTurn(int(step))

	if recs == nil {
		recs = []engine.Recommendation{}
	}
	return &Reply{Session: s, Message: msg, Recommendations: recs}, nil
}

// recommend picks a seed from the answers, ranks a candidate pool around it,
// applies the era and tone preferences and keeps a shortlist.
func (c *Conversation) recommend(s *Session) (string, []engine.Recommendation) {
	s.Step = StepRecommended
	s.Seed = ""
	s.LastRecommendations = nil

	seed, ok := c.pickSeed(s.Answers)
	if !ok {
		return noMatchMessage, nil
	}
	s.Seed = seed

	pool := c.recommender.Recommend(seed, c.cfg.PoolSize)
	period, tone := ParsePeriod(s.Answers.Period), ParseTone(s.Answers.Tone)
	filtered := FilterByPeriodAndTone(pool, period, tone)
	if len(filtered) == 0 {
		filtered = pool
	}
	if len(filtered) > c.cfg.ShortlistSize {
		filtered = filtered[:c.cfg.ShortlistSize]
	}
	s.LastRecommendations = filtered

	c.logger.WithFields(logrus.Fields{
		"session":   s.ID,
		"seed":      seed,
		"pool":      len(pool),
		"shortlist": len(filtered),
		"period":    string(period),
		"tone":      string(tone),
	}).Info("Recommendation issued")

	if len(filtered) == 0 {
		return noMatchMessage, nil
	}
	return recommendationMessage(filtered[0]), filtered[:1]
}

func (c *Conversation) afterRecommendation(s *Session, text string) (string, []engine.Recommendation) {
	switch strings.ToLower(text) {
	case commandRestart:
		s.Step = StepMood
		s.Answers = Answers{}
		s.Seed = ""
		s.LastRecommendations = nil
		s.History = nil
		return restartMessage, nil
	case commandMore:
		if len(s.LastRecommendations) <= 1 {
			return noMoreMessage, nil
		}
		more := s.LastRecommendations[1:]
		return moreMessage(more), more
	default:
		return helpMessage, nil
	}
}

func (c *Conversation) pickSeed(a Answers) (string, bool) {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return PickSeed(c.recommender.Entries(), a, c.rng)
}

func (c *Conversation) lock(id string) func() {
	mu := &c.locks[lockStripe(id)]
	mu.Lock()
	return mu.Unlock
}

func lockStripe(id string) int {
	return int(xxhash.Sum64String(id) % lockStripes)
}

func assistantMessage(content string, at time.Time) Message {
	return Message{Role: RoleAssistant, Content: content, At: at}
}
