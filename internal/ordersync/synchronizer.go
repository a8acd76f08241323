// Package ordersync keeps a locally held order list in step with the commerce
// backend by polling, and reports every observed status transition.
package ordersync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/metrics"
	"github.com/jafarshop/storefront/pkg/errors"
)

const (
	DefaultInterval     = 60 * time.Second
	DefaultFetchTimeout = 15 * time.Second
)

// OrderFetcher fetches a single order from the commerce backend
type OrderFetcher interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
}

// StatusChange is emitted when a poll observes a status different from the last known one
type StatusChange struct {
	OrderID    string             `json:"order_id"`
	DisplayID  int                `json:"display_id"`
	Previous   domain.OrderStatus `json:"previous_status"`
	Status     domain.OrderStatus `json:"status"`
	ObservedAt time.Time          `json:"observed_at"`
}

// BatchResult summarizes one polling batch
type BatchResult struct {
	Refreshed int
	Failed    int
	Changes   []StatusChange
	Discarded bool
}

// Option configures a Synchronizer
type Option func(*Synchronizer)

// WithInterval sets the pause between the end of one batch and the start of the next
func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithFetchTimeout bounds each single-order fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithConcurrency caps in-flight fetches per batch; 0 means one goroutine per order
func WithConcurrency(n int) Option {
	return func(s *Synchronizer) {
		if n >= 0 {
			s.concurrency = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synchronizer) { s.metrics = m }
}

// WithOnUpdate registers a callback receiving a copy of the order list after
// seeding and after every applied batch.
func WithOnUpdate(fn func([]domain.Order)) Option {
	return func(s *Synchronizer) { s.onUpdate = fn }
}

func withClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// Synchronizer polls a tracked set of orders. The snapshot of last known
// statuses is private to it and only changes after a successful fetch.
type Synchronizer struct {
	fetcher      OrderFetcher
	notifier     Notifier
	logger       *zap.Logger
	metrics      *metrics.Metrics
	interval     time.Duration
	fetchTimeout time.Duration
	concurrency  int
	now          func() time.Time
	onUpdate     func([]domain.Order)

	// pollMu serializes batches; snapshot is only touched while holding it
	pollMu   sync.Mutex
	snapshot map[string]domain.OrderStatus

	mu     sync.RWMutex
	orders []domain.Order
}

// New creates a Synchronizer. A nil notifier drops notifications.
func New(fetcher OrderFetcher, notifier Notifier, logger *zap.Logger, opts ...Option) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, StatusChange) {})
	}
	s := &Synchronizer{
		fetcher:      fetcher,
		notifier:     notifier,
		logger:       logger,
		interval:     DefaultInterval,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		snapshot:     make(map[string]domain.OrderStatus),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run seeds the snapshot from orders and polls until ctx ends. The next batch
// is scheduled only after the previous one has fully settled.
func (s *Synchronizer) Run(ctx context.Context, orders []domain.Order) error {
	s.Seed(orders)
	return s.loop(ctx)
}

func (s *Synchronizer) loop(ctx context.Context) error {
	s.logger.Info("Order sync started",
		zap.Int("orders", len(s.Orders())),
		zap.Duration("interval", s.interval),
	)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Order sync stopped")
			return nil
		case <-timer.C:
		}

		result := s.Poll(ctx)
		if result.Discarded {
			s.logger.Info("Order sync stopped")
			return nil
		}
		timer.Reset(s.interval)
	}
}

// Seed replaces the tracked set and records each order's current status
// without notifying: there is no previous state to compare against.
func (s *Synchronizer) Seed(orders []domain.Order) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	seen := make(map[string]struct{}, len(orders))
	tracked := make([]domain.Order, 0, len(orders))
	snapshot := make(map[string]domain.OrderStatus, len(orders))
	for _, o := range orders {
		if o.ID == "" {
			continue
		}
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}
		tracked = append(tracked, o)
		snapshot[o.ID] = o.Status
	}
	s.snapshot = snapshot
	s.publish(tracked)
}

type fetchResult struct {
	order *domain.Order
	err   error
}

// Poll runs one batch: fetch every tracked order concurrently, wait for all of
// them, then apply the results. A batch that settles after ctx has ended is
// discarded without touching any state.
func (s *Synchronizer) Poll(ctx context.Context) BatchResult {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	current := s.Orders()
	started := s.now()
	results := make([]fetchResult, len(current))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, o := range current {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = fetchResult{err: err}
				return nil
			}
			fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
			defer cancel()
			order, err := s.fetcher.GetOrder(fetchCtx, o.ID)
			if err == nil && order == nil {
				err = &errors.ErrNotFound{Resource: "order", ID: o.ID}
			}
			results[i] = fetchResult{order: order, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return BatchResult{Discarded: true}
	}

	result := s.apply(current, results)
	s.metrics.ObservePoll(s.now().Sub(started), result.Failed)
	s.logger.Debug("Order sync batch applied",
		zap.Int("refreshed", result.Refreshed),
		zap.Int("failed", result.Failed),
		zap.Int("changes", len(result.Changes)),
	)

	for _, change := range result.Changes {
		if ctx.Err() != nil {
			break
		}
		s.metrics.StatusChanged(string(change.Status))
		s.notifier.Notify(ctx, change)
	}
	return result
}

func (s *Synchronizer) apply(current []domain.Order, results []fetchResult) BatchResult {
	var result BatchResult
	next := make([]domain.Order, len(current))
	copy(next, current)
	observedAt := s.now()

	for i, r := range results {
		id := current[i].ID
		if r.err != nil {
			result.Failed++
			s.logger.Warn("Order sync: keeping last known order",
				zap.String("order_id", id),
				zap.Error(&errors.ErrPartialSync{OrderID: id, Err: r.err}),
			)
			continue
		}

		fetched := *r.order
		switch fetched.ID {
		case id:
		case "":
			fetched.ID = id
		default:
			result.Failed++
			s.logger.Warn("Order sync: backend returned a different order",
				zap.String("order_id", id),
				zap.Error(&errors.ErrPartialSync{OrderID: id, Err: fmt.Errorf("got order %q", fetched.ID)}),
			)
			continue
		}
		next[i] = fetched
		result.Refreshed++

		previous, known := s.snapshot[id]
		s.snapshot[id] = fetched.Status
		if known && previous != fetched.Status {
			result.Changes = append(result.Changes, StatusChange{
				OrderID:    id,
				DisplayID:  fetched.DisplayID,
				Previous:   previous,
				Status:     fetched.Status,
				ObservedAt: observedAt,
			})
		}
	}

	s.publish(next)
	return result
}

func (s *Synchronizer) publish(orders []domain.Order) {
	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(s.Orders())
	}
}

// Orders returns a copy of the current order list
func (s *Synchronizer) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Interval returns the pause between batches
func (s *Synchronizer) Interval() time.Duration {
	return s.interval
}

func (s *Synchronizer) statusOf(id string) (domain.OrderStatus, bool) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	status, ok := s.snapshot[id]
	return status, ok
}
