package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/usecase"
)

func makePlaces(n int) []domain.PlaceRecord {
	places := make([]domain.PlaceRecord, n)
	for i := range places {
		places[i] = domain.PlaceRecord{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("place %d", i), Location: "신촌"}
	}
	return places
}

func TestResolveQueue_SequentialByDefault(t *testing.T) {
	places := makePlaces(5)
	inner := newStubResolver(map[string]domain.Coordinates{"p0": eagleCafe, "p3": yonseiRo})

	q := usecase.NewResolveQueue(inner, 0)
	assert.Equal(t, 1, q.Concurrency())

	var got []int
	err := q.Run(context.Background(), places, nil, func(i int, _ domain.PlaceRecord, _ usecase.ResolveResult) {
		got = append(got, i)
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Equal(t, []string{"p0", "p1", "p2", "p3", "p4"}, inner.Calls())
}

func TestResolveQueue_BoundedConcurrency(t *testing.T) {
	places := makePlaces(12)
	inner := newStubResolver(nil)

	var inFlight, peak int32
	inner.before = func(domain.PlaceRecord) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}

	var mu sync.Mutex
	delivered := 0
	err := usecase.NewResolveQueue(inner, 3).Run(context.Background(), places, nil, func(int, domain.PlaceRecord, usecase.ResolveResult) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	require.NoError(t, err)
	assert.Equal(t, 12, delivered)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Greater(t, atomic.LoadInt32(&peak), int32(0))
}

func TestResolveQueue_StopsWhenStale(t *testing.T) {
	places := makePlaces(10)
	inner := newStubResolver(nil)

	var stale atomic.Bool
	delivered := 0
	err := usecase.NewResolveQueue(inner, 1).Run(context.Background(), places, stale.Load, func(i int, _ domain.PlaceRecord, _ usecase.ResolveResult) {
		delivered++
		if i == 2 {
			stale.Store(true)
		}
	})

	require.NoError(t, err)
	assert.Equal(t, 3, delivered)
	assert.Len(t, inner.Calls(), 3)
}

func TestResolveQueue_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := newStubResolver(nil)
	err := usecase.NewResolveQueue(inner, 1).Run(ctx, makePlaces(3), nil, func(int, domain.PlaceRecord, usecase.ResolveResult) {
		t.Fatal("no result expected after cancel")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, inner.Calls())
}
