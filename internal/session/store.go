// Package session holds per-upload study state: the transcript produced by
// the pipeline and the notes, quiz and flashcards derived from it. Sessions
// live in memory, are keyed by UUID and expire after a configurable idle
// period.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/lectern/internal/observe"
	"github.com/MrWong99/lectern/internal/study"
	"github.com/google/uuid"
)

// defaultTTL is how long an idle session survives before the janitor
// removes it.
const defaultTTL = 2 * time.Hour

// defaultSweepInterval is the period between janitor sweeps.
const defaultSweepInterval = 5 * time.Minute

// ErrNotFound is returned for lookups of unknown or expired session IDs.
var ErrNotFound = errors.New("session: not found")

// Session is the study state of one user working through one lecture.
// Derived material (notes, quiz, flashcards) is only valid for the
// transcript it was generated from; a new upload resets all of it.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Transcript is the most recent transcription, empty before the first
	// upload.
	Transcript string `json:"transcript,omitempty"`

	// Confidence is the STT confidence for Transcript, 0..1.
	Confidence float64 `json:"confidence,omitempty"`

	// AudioDuration is the transcribed audio length.
	AudioDuration time.Duration `json:"audio_duration,omitempty"`

	// Notes is the study summary generated from Transcript.
	Notes string `json:"notes,omitempty"`

	// Quiz holds question/answer pairs derived from Notes.
	Quiz []study.QA `json:"quiz,omitempty"`

	// Flashcards holds cards derived from Notes.
	Flashcards []study.Card `json:"flashcards,omitempty"`
}

// Store is an in-memory session store. All methods are safe for concurrent
// use. Reads return copies so callers never share the store's internal
// state.
type Store struct {
	ttl      time.Duration
	interval time.Duration
	metrics  *observe.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session

	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a [Store].
type Option func(*Store)

// WithTTL overrides the idle expiry period. Non-positive keeps the default.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval overrides the janitor sweep period. Non-positive keeps
// the default.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithMetrics sets the metrics instance used for the active-session gauge.
// Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates an empty [Store]. Call [Store.Start] to run the
// expiry janitor.
func NewStore(opts ...Option) *Store {
	s := &Store{
		ttl:      defaultTTL,
		interval: defaultSweepInterval,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Create registers a new empty session and returns a copy of it.
func (s *Store) Create() Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.metrics.ActiveSessions.Add(context.Background(), 1)
	return *sess
}

// Get returns a copy of the session with the given ID.
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return cloneSession(sess), nil
}

// SetTranscript stores a fresh transcript on the session and invalidates all
// material derived from the previous one.
func (s *Store) SetTranscript(id, transcript string, confidence float64, audioDuration time.Duration) (Session, error) {
	return s.update(id, func(sess *Session) {
		sess.Transcript = transcript
		sess.Confidence = confidence
		sess.AudioDuration = audioDuration
		sess.Notes = ""
		sess.Quiz = nil
		sess.Flashcards = nil
	})
}

// SetNotes stores generated notes on the session. Quiz and flashcards derive
// from notes, so stale ones are dropped.
func (s *Store) SetNotes(id, notes string) (Session, error) {
	return s.update(id, func(sess *Session) {
		sess.Notes = notes
		sess.Quiz = nil
		sess.Flashcards = nil
	})
}

// SetQuiz stores a generated quiz on the session.
func (s *Store) SetQuiz(id string, quiz []study.QA) (Session, error) {
	return s.update(id, func(sess *Session) {
		sess.Quiz = quiz
	})
}

// SetFlashcards stores generated flashcards on the session.
func (s *Store) SetFlashcards(id string, cards []study.Card) (Session, error) {
	return s.update(id, func(sess *Session) {
		sess.Flashcards = cards
	})
}

// Delete removes the session with the given ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.metrics.ActiveSessions.Add(context.Background(), -1)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start begins the expiry janitor in a background goroutine. The goroutine
// runs until [Store.Stop] is called or ctx is cancelled.
func (s *Store) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Stop halts the janitor. Safe to call multiple times.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

func (s *Store) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.evictExpired(time.Now())
		}
	}
}

// evictExpired removes sessions idle for longer than the TTL.
func (s *Store) evictExpired(now time.Time) {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	var evicted int
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	s.mu.Unlock()

	if evicted > 0 {
		s.metrics.ActiveSessions.Add(context.Background(), int64(-evicted))
		slog.Info("evicted expired sessions", "count", evicted)
	}
}

// update applies fn to the stored session under the lock and bumps its
// UpdatedAt, returning a copy of the new state.
func (s *Store) update(id string, fn func(*Session)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	fn(sess)
	sess.UpdatedAt = time.Now()
	return cloneSession(sess), nil
}

// cloneSession deep-copies a session so callers cannot alias the store's
// slices.
func cloneSession(sess *Session) Session {
	out := *sess
	if sess.Quiz != nil {
		out.Quiz = make([]study.QA, len(sess.Quiz))
		copy(out.Quiz, sess.Quiz)
	}
	if sess.Flashcards != nil {
		out.Flashcards = make([]study.Card, len(sess.Flashcards))
		copy(out.Flashcards, sess.Flashcards)
	}
	return out
}
