package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/repository/testhelper"
	"github.com/fjod/go_shop/pkg/logger"
)

func setup(t *testing.T) (*Service, *repository.ActivityRepository, domain.Session) {
	db := testhelper.NewSQLite(t)
	activity := repository.NewActivityRepository(db)
	svc := NewService(repository.NewProductRepository(db), activity, logger.Discard())
	return svc, activity, testhelper.Customer(t, db, 1)
}

func ids(products []*domain.Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"face", "cream"}, Keywords("  Face \t CREAM\n"))
	assert.Empty(t, Keywords("   "))
}

func TestSearch(t *testing.T) {
	svc, _, sess := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{name: "single keyword matches name or description", query: "soap", want: []int64{1, 11}},
		{name: "every keyword must match", query: "cream sensitive", want: []int64{9, 15}},
		{name: "case insensitive", query: "CARDS", want: []int64{4, 5, 6, 7, 14}},
		{name: "keywords may match different fields", query: "baby gentle", want: []int64{15}},
		{name: "substring", query: "moist", want: []int64{1, 2}},
		{name: "no match", query: "laptop", want: []int64{}},
		{name: "wildcards are literal", query: "%", want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(ctx, sess, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSearch_LogsRawQuery(t *testing.T) {
	svc, activity, sess := setup(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, sess, "Face Cream")
	require.NoError(t, err)
	_, err = svc.Search(ctx, sess, "laptop")
	require.NoError(t, err)

	logged, err := activity.Searches(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, []string{"Face Cream", "laptop"}, logged)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc, activity, sess := setup(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, sess, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	logged, err := activity.Searches(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, logged)
}

func TestView(t *testing.T) {
	svc, _, sess := setup(t)
	ctx := context.Background()

	p, err := svc.View(ctx, sess, 3)
	require.NoError(t, err)
	assert.Equal(t, "Organic Food Basket", p.Name)

	_, err = svc.View(ctx, sess, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
