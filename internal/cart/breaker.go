package cart

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/pkg/circuitbreaker"
)

// BreakerCache fails fast while the underlying cache keeps erroring, so a dead
// Redis costs one round trip per open period instead of one per request.
type BreakerCache struct {
	next Cache
	cb   *circuitbreaker.Breaker
}

func NewBreakerCache(next Cache, log *slog.Logger) *BreakerCache {
	cb := circuitbreaker.New(circuitbreaker.Settings{
		Name: "cart-cache",
		Ignore: func(err error) bool {
			return errors.Is(err, ErrCacheMiss)
		},
	}, log)
	return &BreakerCache{next: next, cb: cb}
}

func (b *BreakerCache) Get(ctx context.Context, s domain.Session) (*Entry, error) {
	return circuitbreaker.Execute(b.cb, func() (*Entry, error) {
		return b.next.Get(ctx, s)
	})
}

func (b *BreakerCache) Set(ctx context.Context, s domain.Session, e Entry) error {
	return circuitbreaker.Do(b.cb, func() error {
		return b.next.Set(ctx, s, e)
	})
}

func (b *BreakerCache) Delete(ctx context.Context, s domain.Session) error {
	return circuitbreaker.Do(b.cb, func() error {
		return b.next.Delete(ctx, s)
	})
}
