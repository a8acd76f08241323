package ordersync

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
)

// Session owns at most one running Synchronizer. Closures over a tracked set
// go stale when the set changes, so Track restarts the synchronizer instead of
// mutating it.
type Session struct {
	factory func() *Synchronizer
	logger  *zap.Logger

	mu      sync.Mutex
	ids     []string
	current *Synchronizer
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSession creates a Session that builds a fresh Synchronizer per tracked set
func NewSession(factory func() *Synchronizer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{factory: factory, logger: logger}
}

// Track starts polling orders. It is a no-op when the same set of IDs is
// already tracked; otherwise the running synchronizer is stopped first.
// Reports whether a new synchronizer was started.
func (s *Session) Track(ctx context.Context, orders []domain.Order) bool {
	ids := orderIDs(orders)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && slices.Equal(s.ids, ids) {
		return false
	}
	if s.current != nil {
		s.logger.Info("Tracked order set changed, restarting order sync",
			zap.Int("previous", len(s.ids)), zap.Int("next", len(ids)))
	}
	s.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	syncer := s.factory()
	syncer.Seed(orders)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = syncer.loop(runCtx)
	}()

	s.ids = ids
	s.current = syncer
	s.cancel = cancel
	s.done = done
	return true
}

// Current returns the running synchronizer, or nil
func (s *Session) Current() *Synchronizer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Close stops the running synchronizer and waits for it to exit
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ids = nil
	s.current = nil
	s.cancel = nil
	s.done = nil
}

func orderIDs(orders []domain.Order) []string {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if o.ID != "" {
			ids = append(ids, o.ID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
