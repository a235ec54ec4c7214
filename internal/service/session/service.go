package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/persona-interview/backend/internal/metrics"
	"github.com/zhouzirui/persona-interview/backend/internal/model/chat"
	model "github.com/zhouzirui/persona-interview/backend/internal/model/interview"
	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
	"github.com/zhouzirui/persona-interview/backend/internal/service/interview"
)

var ErrSessionNotFound = errors.New("session not found")

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now for every session the service creates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics attaches shared counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service keeps interview sessions in memory. Each session owns its own
// controller and bot; nothing mutable is shared between sessions.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	newBot   func() interview.Bot
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService builds the registry. newBot is called once per created session.
func NewService(newBot func() interview.Bot, opts ...Option) *Service {
	s := &Service{
		sessions: make(map[string]*Session),
		newBot:   newBot,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create provisions a not-started session.
func (s *Service) Create(_ context.Context) (*Session, error) {
	bot := s.newBot()
	if bot == nil {
		return nil, fmt.Errorf("bot factory returned nil")
	}

	now := s.now().UTC()
	session := &Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		controller:   interview.NewController(bot, interview.WithClock(s.now)),
		metrics:      s.metrics,
		now:          s.now,
		lastActivity: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.metrics.IncSessionsCreated()
	log.Printf("[session] created session=%s", session.ID)
	return session, nil
}

// Get retrieves a session by identifier.
func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	log.Printf("[session] deleted session=%s", id)
	return nil
}

// Info is the list view of a session.
type Info struct {
	ID           string          `json:"id"`
	Phase        interview.Phase `json:"phase"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastActivity time.Time       `json:"lastActivity"`
}

// List returns all sessions, oldest first.
func (s *Service) List() []Info {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	out := make([]Info, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, session.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// EvictIdle drops sessions without activity for longer than ttl and returns
// how many were removed.
func (s *Service) EvictIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.LastActivity().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[session] evicted %d idle sessions", removed)
	}
	return removed
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(ttl)
		}
	}
}

// Session serializes all access to one interview.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	controller   *interview.Controller
	metrics      *metrics.Metrics
	now          func() time.Time
	lastActivity time.Time
}

// Status is the full view a shell needs to render a session.
type Status struct {
	ID               string                  `json:"id"`
	Phase            interview.Phase         `json:"phase"`
	Started          bool                    `json:"started"`
	Complete         bool                    `json:"complete"`
	Expired          bool                    `json:"expired"`
	RemainingSeconds int64                   `json:"remainingSeconds"`
	ElapsedSeconds   int64                   `json:"elapsedSeconds"`
	Transcript       []chat.Entry            `json:"transcript"`
	Summary          *persona.Summary        `json:"summary,omitempty"`
	Sections         []model.SectionProgress `json:"sections"`
}

// Begin starts the interview.
func (s *Session) Begin(ctx context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if _, err := s.controller.Begin(ctx); err != nil {
		s.recordFailure(err)
		return Status{}, err
	}
	s.metrics.IncInterviewsStarted()
	log.Printf("[session] interview started session=%s", s.ID)
	return s.statusLocked(), nil
}

// Submit forwards one user answer. Empty input leaves the session unchanged.
func (s *Session) Submit(ctx context.Context, text string) (Status, []chat.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	appended, err := s.controller.Submit(ctx, text)
	if err != nil {
		s.recordFailure(err)
		return Status{}, nil, err
	}
	if len(appended) > 0 {
		s.metrics.IncResponsesSubmitted()
	}
	if s.controller.Phase() == interview.PhaseComplete && len(appended) > 0 {
		s.metrics.IncInterviewsCompleted()
		log.Printf("[session] interview completed session=%s", s.ID)
	}
	return s.statusLocked(), appended, nil
}

// Export returns the persona record of a completed interview.
func (s *Session) Export() (interview.ExportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	record, err := s.controller.Export()
	if err != nil {
		return interview.ExportRecord{}, err
	}
	s.metrics.IncExports()
	return record, nil
}

// Status returns the current view without counting as activity.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Progress returns per-section progress in plan order.
func (s *Session) Progress() []model.SectionProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.SectionProgress()
}

// Remaining reports the time left while the interview is in progress.
func (s *Session) Remaining() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.RemainingTime()
}

// Phase returns the lifecycle phase.
func (s *Session) Phase() interview.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Phase()
}

// LastActivity reports when a shell last acted on the session.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Info returns the list view.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:           s.ID,
		Phase:        s.controller.Phase(),
		CreatedAt:    s.CreatedAt,
		LastActivity: s.lastActivity,
	}
}

func (s *Session) touch() {
	s.lastActivity = s.now().UTC()
}

func (s *Session) recordFailure(err error) {
	if errors.Is(err, interview.ErrInvalidStateTransition) {
		return
	}
	s.metrics.IncCollaboratorFailures()
	log.Printf("[session] collaborator failure session=%s: %v", s.ID, err)
}

func (s *Session) statusLocked() Status {
	state := s.controller.Snapshot()
	status := Status{
		ID:               s.ID,
		Phase:            state.Phase(),
		Started:          state.Started,
		Complete:         state.Complete,
		RemainingSeconds: int64(interview.SessionBudget / time.Second),
		Transcript:       state.Transcript,
		Summary:          state.Summary,
		Sections:         s.controller.SectionProgress(),
	}
	if status.Sections == nil {
		status.Sections = []model.SectionProgress{}
	}

	if elapsed, err := s.controller.Elapsed(); err == nil {
		status.ElapsedSeconds = int64(elapsed / time.Second)
		status.Expired = !state.Complete && elapsed >= interview.SessionBudget
	}
	switch state.Phase() {
	case interview.PhaseInProgress:
		if remaining, err := s.controller.RemainingTime(); err == nil {
			status.RemainingSeconds = int64(remaining / time.Second)
		}
	case interview.PhaseComplete:
		status.RemainingSeconds = 0
	}
	return status
}
