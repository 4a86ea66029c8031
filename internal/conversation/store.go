// Package conversation keeps short-lived per-user conversation state in memory.
// Records expire a fixed time after they were created and are lost on restart.
package conversation

import (
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTTL        = time.Hour
	DefaultMaxHistory = 50
)

// Store maps user ids to conversation records. All accessors return copies;
// records are only changed through Store methods.
type Store struct {
	mu         sync.Mutex
	records    map[string]*Context
	ttl        time.Duration
	maxHistory int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store expiring records ttl after creation and keeping at
// most maxHistory queries per user. Non-positive values select the defaults.
func NewStore(ttl time.Duration, maxHistory int, logger *slog.Logger, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{
		records:    make(map[string]*Context),
		ttl:        ttl,
		maxHistory: maxHistory,
		now:        time.Now,
		logger:     logger.With("component", "conversation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the user's conversation, creating a fresh one if none exists or
// the existing one has expired.
func (s *Store) Get(userID string) Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(userID).clone()
}

// AddQuery appends a query to the user's history, dropping the oldest entries
// beyond the history limit.
func (s *Store) AddQuery(userID, text, intent string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getOrCreate(userID)
	c.PreviousQueries = append(c.PreviousQueries, Query{
		Text:      text,
		Intent:    intent,
		Timestamp: s.now(),
	})
	if over := len(c.PreviousQueries) - s.maxHistory; over > 0 {
		c.PreviousQueries = append([]Query(nil), c.PreviousQueries[over:]...)
	}
}

// SetUserName records the user's display name.
func (s *Store) SetUserName(userID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(userID).UserName = name
}

// SetLocation records where the user is.
func (s *Store) SetLocation(userID string, loc Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(userID).Location = &loc
}

// SetPending stores a pending clarification, replacing any previous one.
func (s *Store) SetPending(userID string, p Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p.clone()
	s.getOrCreate(userID).Pending = &cp
}

// ClearPending removes the user's pending clarification.
func (s *Store) ClearPending(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(userID).Pending = nil
}

// Sweep removes every expired record and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

// Len returns the number of records held, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) expired(c *Context, now time.Time) bool {
	return now.Sub(c.CreatedAt) > s.ttl
}

func (s *Store) sweepLocked() int {
	now := s.now()
	removed := 0
	for id, c := range s.records {
		if s.expired(c, now) {
			delete(s.records, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("Expired conversations removed", "count", removed, "remaining", len(s.records))
	}
	return removed
}

// getOrCreate must be called with mu held.
func (s *Store) getOrCreate(userID string) *Context {
	s.sweepLocked()

	if c, ok := s.records[userID]; ok {
		return c
	}

	c := &Context{
		UserID:    userID,
		CreatedAt: s.now(),
	}
	s.records[userID] = c
	s.logger.Debug("Conversation created", "user_id", userID)
	return c
}

var (
	cityPattern   = regexp.MustCompile(`(?i)\bI'?m\s+(?:in|at)\s+([A-Za-z][A-Za-z\s]*?)\s*(?:,|\bwithin\b|[.!?]|$)`)
	radiusPattern = regexp.MustCompile(`(?i)(?:within\s+)?(\d+)\s*km\b`)
)

// ExtractLocation finds a city ("I'm in Jaffa") and a radius ("within 5 km")
// in free text. It returns nil when neither is present.
func ExtractLocation(text string) *Location {
	var loc Location
	if m := cityPattern.FindStringSubmatch(text); m != nil {
		loc.City = strings.TrimSpace(m[1])
	}
	if m := radiusPattern.FindStringSubmatch(text); m != nil {
		if r, err := strconv.Atoi(m[1]); err == nil {
			loc.RadiusKM = r
		}
	}
	if loc.City == "" && loc.RadiusKM == 0 {
		return nil
	}
	return &loc
}
