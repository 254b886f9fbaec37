package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store keeps one Session per visitor key (cookie id or "tg:<chatID>").
type Store struct {
	m       sync.Map // key -> *Session
	factory func(id string) *Session
	log     *zap.Logger
	onEvict func(id string)
}

func NewStore(factory func(id string) *Session, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{factory: factory, log: log}
}

func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := s.m.Load(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	sess.touch()
	return sess, true
}

// Create starts a session under a fresh UUID and bootstraps it.
func (s *Store) Create(ctx context.Context) *Session {
	sess, _ := s.GetOrCreate(ctx, uuid.NewString())
	return sess
}

// GetOrCreate returns the session for id, creating and bootstrapping it on first use.
// A failed bootstrap is recorded in the session state, not returned.
func (s *Store) GetOrCreate(ctx context.Context, id string) (*Session, bool) {
	if sess, ok := s.Get(id); ok {
		return sess, false
	}
	fresh := s.factory(id)
	v, loaded := s.m.LoadOrStore(id, fresh)
	sess := v.(*Session)
	if loaded {
		return sess, false
	}
	if err := sess.Bootstrap(ctx); err != nil {
		s.log.Debug("bootstrap failed", zap.String("session", id), zap.Error(err))
	}
	return sess, true
}

// OnEvict registers fn to run for every session removed by Delete or Sweep.
// Call it before the store is shared.
func (s *Store) OnEvict(fn func(id string)) { s.onEvict = fn }

func (s *Store) Delete(id string) {
	if _, ok := s.m.LoadAndDelete(id); ok {
		s.evicted(id)
	}
}

func (s *Store) evicted(id string) {
	if s.onEvict != nil {
		s.onEvict(id)
	}
}

func (s *Store) Len() int {
	n := 0
	s.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Sweep drops sessions idle for longer than maxIdle and reports how many went.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	n := 0
	s.m.Range(func(k, v any) bool {
		if v.(*Session).lastSeen().Before(cutoff) {
			s.m.Delete(k)
			s.evicted(k.(string))
			n++
		}
		return true
	})
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, every, maxIdle time.Duration) {
	if every <= 0 || maxIdle <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(maxIdle); n > 0 {
				s.log.Info("idle sessions dropped", zap.Int("count", n), zap.Int("left", s.Len()))
			}
		}
	}
}
