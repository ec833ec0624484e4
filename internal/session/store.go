package session

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type Options struct {
	TTL     time.Duration
	Stylist Stylist
	Logger  *slog.Logger
}

// Store keeps orchestrators in memory. Entries expire after TTL without
// access; nothing is persisted.
type Store struct {
	mu      sync.Mutex
	cache   *cache.Cache
	stylist Stylist
	logger  *slog.Logger
}

func NewStore(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := cache.New(ttl, ttl/6)
	c.OnEvicted(func(id string, _ interface{}) {
		logger.Debug("session evicted", "session", id)
	})

	return &Store{
		cache:   c,
		stylist: opts.Stylist,
		logger:  logger,
	}
}

func (s *Store) Create() *Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createLocked(uuid.NewString())
}

// Get returns the orchestrator and extends its lifetime.
func (s *Store) Get(id string) (*Orchestrator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getLocked(id)
}

func (s *Store) GetOrCreate(id string) *Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.getLocked(id); ok {
		return o
	}
	return s.createLocked(id)
}

func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

func (s *Store) Len() int {
	return s.cache.ItemCount()
}

func (s *Store) getLocked(id string) (*Orchestrator, bool) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	o := x.(*Orchestrator)
	s.cache.SetDefault(id, o)
	return o, true
}

func (s *Store) createLocked(id string) *Orchestrator {
	o := NewOrchestrator(id, s.stylist, s.logger)
	s.cache.SetDefault(id, o)
	return o
}
