package articles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_shop/internal/domain"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2015, 9, 7, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{
		"September 7, 2015",
		"Sep 7, 2015",
		"2015-09-07",
		"2015-9-7",
		"9/7/2015",
		"2015/09/07",
		"September 7 2015",
		"Sep 7 2015",
		"  2015-09-07 ",
	} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDate(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseDate_DayFirstWhenMonthFirstImpossible(t *testing.T) {
	got, err := ParseDate("25/9/2015")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 9, 25, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "yesterday", "2015-13-40", "7th Sept"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, domain.ErrInvalidValue, in)
	}
}

func TestNormalizeMediaType(t *testing.T) {
	got, err := NormalizeMediaType(" NEWS ")
	require.NoError(t, err)
	assert.Equal(t, domain.MediaNews, got)

	got, err = NormalizeMediaType("blog")
	require.NoError(t, err)
	assert.Equal(t, domain.MediaBlog, got)

	_, err = NormalizeMediaType("podcast")
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestDayRange(t *testing.T) {
	from, to := dayRange(time.Date(2015, 9, 7, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2015-09-07T00:00:00Z", from)
	assert.Equal(t, "2015-09-07T23:59:59Z", to)
}
