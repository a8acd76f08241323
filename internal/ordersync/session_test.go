package ordersync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jafarshop/storefront/internal/domain"
)

func TestSession_TrackSameSetIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetcher := newFakeFetcher()
	built := 0
	session := NewSession(func() *Synchronizer {
		built++
		return New(fetcher, nil, nil, WithInterval(time.Hour))
	}, nil)
	defer session.Close()

	orders := []domain.Order{order("order_a", domain.OrderStatusPending), order("order_b", domain.OrderStatusPending)}
	assert.True(t, session.Track(context.Background(), orders))
	first := session.Current()

	reordered := []domain.Order{orders[1], orders[0]}
	assert.False(t, session.Track(context.Background(), reordered))
	assert.Same(t, first, session.Current())
	assert.Equal(t, 1, built)
}

func TestSession_TrackChangedSetRestarts(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetcher := newFakeFetcher()
	fetcher.set("order_a", domain.OrderStatusPending)
	fetcher.set("order_b", domain.OrderStatusPending)
	session := NewSession(func() *Synchronizer {
		return New(fetcher, nil, nil, WithInterval(5*time.Millisecond))
	}, nil)
	defer session.Close()

	require.True(t, session.Track(context.Background(), []domain.Order{order("order_a", domain.OrderStatusPending)}))
	first := session.Current()
	require.Len(t, first.Orders(), 1, "seeded before Track returns")

	require.True(t, session.Track(context.Background(), []domain.Order{
		order("order_a", domain.OrderStatusPending),
		order("order_b", domain.OrderStatusPending),
	}))
	second := session.Current()
	assert.NotSame(t, first, second)
	assert.Len(t, second.Orders(), 2)

	require.Eventually(t, func() bool { return fetcher.callCount("order_b") >= 1 }, time.Second, time.Millisecond)
}

func TestSession_CloseStopsPolling(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetcher := newFakeFetcher()
	fetcher.set("order_a", domain.OrderStatusPending)
	session := NewSession(func() *Synchronizer {
		return New(fetcher, nil, nil, WithInterval(2*time.Millisecond))
	}, nil)

	session.Track(context.Background(), []domain.Order{order("order_a", domain.OrderStatusPending)})
	require.Eventually(t, func() bool { return fetcher.callCount("order_a") >= 2 }, time.Second, time.Millisecond)

	session.Close()
	assert.Nil(t, session.Current())

	calls := fetcher.callCount("order_a")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, fetcher.callCount("order_a"))

	// closing twice is harmless
	session.Close()
}

func TestSession_ParentCancelStopsPolling(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetcher := newFakeFetcher()
	fetcher.set("order_a", domain.OrderStatusPending)
	session := NewSession(func() *Synchronizer {
		return New(fetcher, nil, nil, WithInterval(2*time.Millisecond))
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	session.Track(ctx, []domain.Order{order("order_a", domain.OrderStatusPending)})
	require.Eventually(t, func() bool { return fetcher.callCount("order_a") >= 1 }, time.Second, time.Millisecond)
	cancel()
	session.Close()

	calls := fetcher.callCount("order_a")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, fetcher.callCount("order_a"))
}

func TestOrderIDs_SortsAndDedupes(t *testing.T) {
	ids := orderIDs([]domain.Order{{ID: "b"}, {ID: "a"}, {ID: ""}, {ID: "b"}})
	assert.Equal(t, []string{"a", "b"}, ids)
}
