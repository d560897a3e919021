package cart

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/pkg/circuitbreaker"
	"github.com/fjod/go_shop/pkg/logger"
)

type failingCache struct {
	calls atomic.Int32
	err   error
}

func (f *failingCache) Get(context.Context, domain.Session) (*Entry, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *failingCache) Set(context.Context, domain.Session, Entry) error {
	f.calls.Add(1)
	return f.err
}

func (f *failingCache) Delete(context.Context, domain.Session) error {
	f.calls.Add(1)
	return f.err
}

func TestBreakerCache_OpensAfterFailures(t *testing.T) {
	next := &failingCache{err: errors.New("connection refused")}
	cache := NewBreakerCache(next, logger.Discard())
	ctx := context.Background()

	for range 5 {
		_, err := cache.Get(ctx, testSession)
		require.Error(t, err)
	}

	_, err := cache.Get(ctx, testSession)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(5), next.calls.Load())
}

func TestBreakerCache_MissDoesNotTrip(t *testing.T) {
	next := &failingCache{err: ErrCacheMiss}
	cache := NewBreakerCache(next, logger.Discard())
	ctx := context.Background()

	for range 10 {
		_, err := cache.Get(ctx, testSession)
		assert.ErrorIs(t, err, ErrCacheMiss)
	}
	assert.Equal(t, int32(10), next.calls.Load())
}
