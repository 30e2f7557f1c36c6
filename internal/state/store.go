// Package state owns the per-conversation records: creation, TTL expiry,
// turn limiting and the background sweep.
package state

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"scam-honeypot/internal/domain"
)

// EvictFunc observes a record that is about to be discarded because it
// outlived the TTL.
type EvictFunc func(state *domain.ConversationState)

// Store is a process-scoped, in-memory conversation store. It starts empty.
type Store struct {
	mu     sync.RWMutex
	states map[string]*domain.ConversationState

	ttl      time.Duration
	maxTurns int
	now      func() time.Time
	onEvict  EvictFunc

	locks keyedMutex
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithEvictHook registers fn to receive records discarded on expiry, both by
// Resolve and by the sweep.
func WithEvictHook(fn EvictFunc) Option {
	return func(s *Store) {
		s.onEvict = fn
	}
}

func New(ttl time.Duration, maxTurns int, opts ...Option) (*Store, error) {
	if ttl <= 0 {
		return nil, errors.New("state: ttl must be positive")
	}
	if maxTurns <= 0 {
		return nil, errors.New("state: max turns must be positive")
	}
	s := &Store{
		states:   make(map[string]*domain.ConversationState),
		ttl:      ttl,
		maxTurns: maxTurns,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MaxTurns returns the configured turn cap.
func (s *Store) MaxTurns() int {
	return s.maxTurns
}

// expired reports whether a record has outlived the TTL. Age is measured from
// creation, not from last activity.
func (s *Store) expired(st *domain.ConversationState, now time.Time) bool {
	return now.Sub(st.CreatedAt) > s.ttl
}

// Resolve returns a copy of the live record for id, creating an empty one if
// none exists or the existing one has expired. An expired record is discarded
// together with its history and intelligence.
func (s *Store) Resolve(id string) *domain.ConversationState {
	s.mu.Lock()
	st, evicted := s.resolveLocked(id)
	out := st.Clone()
	s.mu.Unlock()

	s.evict(evicted)
	return out
}

func (s *Store) resolveLocked(id string) (*domain.ConversationState, *domain.ConversationState) {
	now := s.now()
	var evicted *domain.ConversationState

	if st, ok := s.states[id]; ok {
		if !s.expired(st, now) {
			return st, nil
		}
		slog.Info("Conversation expired, creating new state", "conversation_id", id)
		delete(s.states, id)
		evicted = st
	}

	st := domain.NewConversationState(id, now)
	s.states[id] = st
	slog.Info("Created new conversation state", "conversation_id", id)
	return st, evicted
}

// RecordMessage appends msg to the existing record of id. TurnCount
// increments only for scammer messages. It never creates or expires a
// record: a turn that outlives the TTL finishes on the record it resolved,
// and the next Resolve starts fresh.
func (s *Store) RecordMessage(id string, msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[id]
	if !ok {
		return
	}
	st.History = append(st.History, msg)
	if msg.Role == domain.RoleScammer {
		st.TurnCount++
	}
}

// MergeIntelligence replaces the stored aggregate with intel, which the
// caller has already merged with the previous value.
func (s *Store) MergeIntelligence(id string, intel domain.Intelligence) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[id]; ok {
		st.Intelligence = intel.Clone()
	}
}

// SetScamCategory overwrites the category of id.
func (s *Store) SetScamCategory(id, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[id]; ok {
		st.ScamCategory = category
	}
}

// IsLive reports whether the conversation may still be engaged. Unknown ids
// are live. An existing record past the TTL or at the turn cap is marked
// inactive, permanently.
func (s *Store) IsLive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[id]
	if !ok {
		return true
	}
	if s.expired(st, s.now()) {
		st.Active = false
		return false
	}
	if st.TurnCount >= s.maxTurns {
		st.Active = false
		return false
	}
	return st.Active
}

// MarkDone forces the conversation inactive.
func (s *Store) MarkDone(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[id]; ok {
		st.Active = false
	}
}

// ElapsedSeconds returns whole seconds since the record was created, or 0 if
// there is no record.
func (s *Store) ElapsedSeconds(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[id]
	if !ok {
		return 0
	}
	return int(s.now().Sub(st.CreatedAt) / time.Second)
}

// Snapshot returns a copy of the record for id without creating one.
func (s *Store) Snapshot(id string) (*domain.ConversationState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[id]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

// Count returns the number of records currently held.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Sweep deletes every record older than the TTL and returns how many were
// removed. Records whose id is held through Lock are left for a later sweep
// or for the holder's next Resolve.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	var removed []*domain.ConversationState
	for id, st := range s.states {
		if !s.expired(st, now) {
			continue
		}
		unlock, ok := s.locks.tryLock(id)
		if !ok {
			continue
		}
		delete(s.states, id)
		unlock()
		removed = append(removed, st)
	}
	s.mu.Unlock()

	for _, st := range removed {
		s.evict(st)
	}
	if len(removed) > 0 {
		slog.Info("Cleaned up expired conversations", "count", len(removed))
	}
	return len(removed)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Lock acquires the exclusive section for one conversation id. Callers that
// run a multi-step read-modify-write sequence hold it for the whole sequence.
func (s *Store) Lock(id string) (unlock func()) {
	return s.locks.lock(id)
}

func (s *Store) evict(st *domain.ConversationState) {
	if st == nil || s.onEvict == nil {
		return
	}
	s.onEvict(st)
}
