package ordersync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	webhookTimeout     = 10 * time.Second
	webhookMaxInFlight = 32
)

// Notifier receives status changes observed by a Synchronizer
type Notifier interface {
	Notify(ctx context.Context, change StatusChange)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, change StatusChange)

func (f NotifierFunc) Notify(ctx context.Context, change StatusChange) {
	f(ctx, change)
}

// MultiNotifier delivers each change to every notifier in order
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, change StatusChange) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, change)
		}
	}
}

// LogNotifier writes each change to the log
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, change StatusChange) {
	if n.Logger == nil {
		return
	}
	n.Logger.Info("Order status changed",
		zap.String("order_id", change.OrderID),
		zap.String("display_id", fmt.Sprintf("#%d", change.DisplayID)),
		zap.String("previous_status", string(change.Previous)),
		zap.String("status", string(change.Status)),
	)
}

// ChanNotifier hands changes to a buffered channel. When the buffer is full
// the change is dropped and logged rather than blocking the poll loop.
type ChanNotifier struct {
	ch     chan StatusChange
	logger *zap.Logger
}

func NewChanNotifier(buffer int, logger *zap.Logger) *ChanNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChanNotifier{ch: make(chan StatusChange, buffer), logger: logger}
}

func (n *ChanNotifier) Notify(_ context.Context, change StatusChange) {
	select {
	case n.ch <- change:
	default:
		n.logger.Warn("Status change dropped: subscriber is not keeping up",
			zap.String("order_id", change.OrderID),
			zap.String("status", string(change.Status)),
		)
	}
}

// Changes returns the receive side of the channel
func (n *ChanNotifier) Changes() <-chan StatusChange {
	return n.ch
}

// WebhookNotifier POSTs each change as JSON to a URL. Deliveries run in the
// background, at most webhookMaxInFlight at a time; changes beyond that are dropped.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
	slots      chan struct{}
	wg         sync.WaitGroup
}

func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: webhookTimeout},
		logger:     logger,
		slots:      make(chan struct{}, webhookMaxInFlight),
	}
}

type webhookPayload struct {
	Event string `json:"event"`
	StatusChange
}

// Notify hands the change to a background delivery and returns. Failures are
// logged; the poll loop never sees them.
func (n *WebhookNotifier) Notify(ctx context.Context, change StatusChange) {
	if n.url == "" {
		return
	}
	select {
	case n.slots <- struct{}{}:
	default:
		n.logger.Warn("Webhook: too many notifications in flight, dropping status change",
			zap.String("order_id", change.OrderID), zap.String("status", string(change.Status)))
		return
	}

	// The delivery outlives the batch that observed the change; the client timeout bounds it.
	sendCtx := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() { <-n.slots }()
		n.send(sendCtx, change)
	}()
}

// Wait blocks until every dispatched notification has finished.
func (n *WebhookNotifier) Wait() {
	n.wg.Wait()
}

func (n *WebhookNotifier) send(ctx context.Context, change StatusChange) {
	body, err := json.Marshal(webhookPayload{Event: "order_status_changed", StatusChange: change})
	if err != nil {
		n.logger.Warn("Webhook: failed to marshal status change", zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("Webhook: failed to create request", zap.String("url", n.url), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("Webhook: status notification request failed", zap.String("url", n.url), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("Webhook: status notification returned non-2xx",
			zap.String("url", n.url), zap.Int("status", resp.StatusCode))
		return
	}
	n.logger.Info("Webhook: status notification sent",
		zap.String("order_id", change.OrderID), zap.Int("status", resp.StatusCode))
}
