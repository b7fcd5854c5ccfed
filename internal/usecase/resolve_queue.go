package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
)

// ResolveFunc получает результат для places[i]. Вызывается из рабочей горутины.
type ResolveFunc func(i int, place domain.PlaceRecord, res ResolveResult)

// ResolveQueue - ограниченная очередь разрешения координат.
// При concurrency 1 запросы уходят строго по одному, как в исходном поведении.
type ResolveQueue struct {
	resolver    CoordinateResolver
	concurrency int
}

// NewResolveQueue - concurrency < 1 трактуется как 1
func NewResolveQueue(resolver CoordinateResolver, concurrency int) *ResolveQueue {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ResolveQueue{
		resolver:    resolver,
		concurrency: concurrency,
	}
}

// Concurrency - фактический лимит параллельных запросов
func (q *ResolveQueue) Concurrency() int {
	return q.concurrency
}

// Run разрешает places с ограничением параллелизма.
// stale проверяется перед каждым запросом и перед каждой доставкой результата:
// как только пакет устарел, оставшиеся места пропускаются.
// Возвращает ctx.Err() если контекст отменён.
func (q *ResolveQueue) Run(ctx context.Context, places []domain.PlaceRecord, stale func() bool, fn ResolveFunc) error {
	if stale == nil {
		stale = func() bool { return false }
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.concurrency)

	for i, place := range places {
		if gctx.Err() != nil || stale() {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil || stale() {
				return nil
			}
			res := q.resolver.Resolve(gctx, place)
			if stale() {
				return nil
			}
			fn(i, place, res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
