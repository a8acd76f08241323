package handlers

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/ordersync"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/pkg/errors"
)

const (
	streamChangeBuffer  = 64
	initialFetchWorkers = 8
)

// OrderReaderFor returns the order reader to use for a caller, given the
// Authorization header the caller sent.
type OrderReaderFor func(authorization string) repository.OrderReader

// OrderStream serves GET /v1/orders/stream. Each connection gets its own
// synchronizer; closing the connection tears it down.
type OrderStream struct {
	readerFor OrderReaderFor
	notifier  ordersync.Notifier
	options   []ordersync.Option
	logger    *zap.Logger
}

// NewOrderStream creates the stream handler. notifier, if non-nil, receives
// every status change in addition to the connected client.
func NewOrderStream(readerFor OrderReaderFor, notifier ordersync.Notifier, logger *zap.Logger, opts ...ordersync.Option) *OrderStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderStream{
		readerFor: readerFor,
		notifier:  notifier,
		options:   opts,
		logger:    logger,
	}
}

func (h *OrderStream) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	reader := h.readerFor(c.GetHeader("Authorization"))

	orders, err := initialOrders(ctx, reader, requestedIDs(c), h.logger)
	if err != nil {
		respondError(c, err, "Failed to load orders", h.logger)
		return
	}

	streamID := uuid.NewString()
	logger := h.logger.With(zap.String("stream_id", streamID))
	changes := ordersync.NewChanNotifier(streamChangeBuffer, logger)
	notifier := ordersync.MultiNotifier{changes, ordersync.LogNotifier{Logger: logger}}
	if h.notifier != nil {
		notifier = append(notifier, h.notifier)
	}
	updates := make(chan []domain.Order, 1)

	session := ordersync.NewSession(func() *ordersync.Synchronizer {
		opts := make([]ordersync.Option, 0, len(h.options)+1)
		opts = append(opts, h.options...)
		opts = append(opts, ordersync.WithOnUpdate(func(o []domain.Order) { offerLatest(updates, o) }))
		return ordersync.New(reader, notifier, logger, opts...)
	}, logger)
	session.Track(ctx, orders)
	defer session.Close()

	logger.Info("Order stream opened", zap.Int("orders", len(orders)))
	defer logger.Info("Order stream closed")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{
		"stream_id": streamID,
		"interval":  session.Current().Interval().String(),
	})

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case latest := <-updates:
			c.SSEvent("orders", latest)
			return true
		case change := <-changes.Changes():
			c.SSEvent("status", change)
			return true
		}
	})
}

// offerLatest replaces any undelivered list with the newest one
func offerLatest(ch chan []domain.Order, orders []domain.Order) {
	for {
		select {
		case ch <- orders:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// requestedIDs collects ?id=a&id=b and ?id=a,b
func requestedIDs(c *gin.Context) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, raw := range c.QueryArray("id") {
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// initialOrders loads the set to track: the listed IDs, or the caller's orders
// when none are given. Unknown IDs are skipped; any other failure aborts.
func initialOrders(ctx context.Context, reader repository.OrderReader, ids []string, logger *zap.Logger) ([]domain.Order, error) {
	if len(ids) == 0 {
		listed, err := reader.ListOrders(ctx)
		if err != nil {
			return nil, errors.Classify("list orders", err)
		}
		orders := make([]domain.Order, 0, len(listed))
		for _, o := range listed {
			if o != nil {
				orders = append(orders, *o)
			}
		}
		return orders, nil
	}

	fetched := make([]*domain.Order, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(initialFetchWorkers)
	var mu sync.Mutex
	missing := 0
	for i, id := range ids {
		g.Go(func() error {
			order, err := reader.GetOrder(gctx, id)
			if errors.IsNotFound(err) || (err == nil && order == nil) {
				logger.Warn("Order stream: requested order not found", zap.String("order_id", id))
				mu.Lock()
				missing++
				mu.Unlock()
				return nil
			}
			if err != nil {
				return errors.Classify("get order", err)
			}
			fetched[i] = order
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if missing == len(ids) {
		return nil, &errors.ErrNotFound{Resource: "order", ID: strings.Join(ids, ",")}
	}

	orders := make([]domain.Order, 0, len(ids))
	for _, o := range fetched {
		if o != nil {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}
