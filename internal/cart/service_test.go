package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/repository/testhelper"
	"github.com/fjod/go_shop/pkg/logger"
)

type fixture struct {
	svc      *Service
	db       *repository.DB
	mr       *miniredis.Miniredis
	products *repository.ProductRepository
	sess     domain.Session
}

func setup(t *testing.T) *fixture {
	db := testhelper.NewSQLite(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	products := repository.NewProductRepository(db)
	svc := NewService(repository.NewCartRepository(db), products, NewRedisCache(client, 0), logger.Discard())

	return &fixture{
		svc:      svc,
		db:       db,
		mr:       mr,
		products: products,
		sess:     testhelper.Customer(t, db, 1),
	}
}

func productIDs(c *domain.Cart) []int64 {
	ids := make([]int64, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.Product.ID)
	}
	return ids
}

func TestAddItem_InsertionOrderAndIncrement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.svc.AddItem(ctx, f.sess, 3, 1))
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 1, 1))
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 3, 1))

	c, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, productIDs(c))
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.Equal(t, "99.98", c.Lines[0].Subtotal.StringFixed(2))
	assert.Equal(t, "105.97", c.Total.StringFixed(2))
}

func TestAddItem_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.AddItem(ctx, f.sess, 1, 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, f.svc.AddItem(ctx, f.sess, 1, -2), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, f.svc.AddItem(ctx, f.sess, 404, 1), domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.AddItem(ctx, domain.Session{}, 1, 1), domain.ErrUnauthorized)
}

func TestAddItem_NoStockCheck(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.svc.AddItem(ctx, f.sess, 10, 500))

	c, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.True(t, c.Lines[0].Exceeds())
}

func TestSetQuantity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 10, 1))

	require.NoError(t, f.svc.SetQuantity(ctx, f.sess, 10, 15))

	err := f.svc.SetQuantity(ctx, f.sess, 10, 16)
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 15, stockErr.Available)

	assert.ErrorIs(t, f.svc.SetQuantity(ctx, f.sess, 10, 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, f.svc.SetQuantity(ctx, f.sess, 2, 1), domain.ErrNotFound)

	c, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, 15, c.Lines[0].Quantity)
}

func TestRemoveItem_Idempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 1, 1))
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 2, 1))

	require.NoError(t, f.svc.RemoveItem(ctx, f.sess, 1))
	require.NoError(t, f.svc.RemoveItem(ctx, f.sess, 1))

	c, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, productIDs(c))
}

func TestClear(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 1, 1))

	require.NoError(t, f.svc.Clear(ctx, f.sess))

	c, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total.IsZero())
}

func TestListItems_SessionsAreIsolated(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testhelper.Session(t, f.db, f.sess.CustomerID)

	require.NoError(t, f.svc.AddItem(ctx, f.sess, 1, 1))

	c, err := f.svc.ListItems(ctx, other)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestListItems_CachesLinesButNotPrices(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 1, 2))

	_, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	assert.True(t, f.mr.Exists(cacheKey(f.sess)))

	require.NoError(t, f.products.SetPrice(ctx, 1, decimal.RequireFromString("1.00")))

	c, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, "2.00", c.Total.StringFixed(2))
}

func TestMutationsInvalidateCache(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 1, 1))
	_, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	require.True(t, f.mr.Exists(cacheKey(f.sess)))

	require.NoError(t, f.svc.AddItem(ctx, f.sess, 2, 1))
	assert.False(t, f.mr.Exists(cacheKey(f.sess)))

	c, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, productIDs(c))
}

func TestListItems_RedisDown(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 5, 1))
	f.mr.Close()

	c, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, productIDs(c))
}

func TestRemoveItem_CacheDeleteFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 1, 1))
	_, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	require.True(t, f.mr.Exists(cacheKey(f.sess)))

	f.mr.SetError("LOADING Redis is loading the dataset in memory")
	require.NoError(t, f.svc.RemoveItem(ctx, f.sess, 1))
	f.mr.SetError("")

	require.True(t, f.mr.Exists(cacheKey(f.sess)), "old entry survives the failed delete")
	c, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestListItems_IgnoresEntryFromOlderVersion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 1, 1))
	_, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	stale, err := f.mr.Get(cacheKey(f.sess))
	require.NoError(t, err)

	require.NoError(t, f.svc.SetQuantity(ctx, f.sess, 1, 4))
	// a fill that read the lines before the update writes after its delete
	require.NoError(t, f.mr.Set(cacheKey(f.sess), stale))

	c, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 4, c.Lines[0].Quantity)
}

func TestListItems_CheckoutClearInTransaction(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.AddItem(ctx, f.sess, 2, 1))
	_, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)

	carts := repository.NewCartRepository(f.db)
	require.NoError(t, repository.NewTxManager(f.db).RunInTx(ctx, func(ctx context.Context) error {
		return carts.Clear(ctx, f.sess)
	}))

	c, err := f.svc.ListItems(ctx, f.sess)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}
