package cart

import (
	"context"
	"errors"

	"github.com/fjod/go_shop/internal/domain"
)

// Entry is a session's raw lines as of one cart version. Product data is
// never cached.
type Entry struct {
	Version int64             `json:"version"`
	Items   []domain.CartItem `json:"items"`
}

type Cache interface {
	Get(ctx context.Context, s domain.Session) (*Entry, error)
	Set(ctx context.Context, s domain.Session, e Entry) error
	Delete(ctx context.Context, s domain.Session) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache always misses. Used when Redis is not configured.
type NopCache struct{}

func (NopCache) Get(context.Context, domain.Session) (*Entry, error) {
	return nil, ErrCacheMiss
}

func (NopCache) Set(context.Context, domain.Session, Entry) error { return nil }

func (NopCache) Delete(context.Context, domain.Session) error { return nil }
