package articles

import (
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_shop/internal/domain"
)

// dateLayouts are tried in order; numeric day-first input only wins when the
// month-first reading is impossible.
var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-1-2",
	"1/2/2006",
	"2/1/2006",
	"2006/1/2",
	"January 2 2006",
	"Jan 2 2006",
}

// ParseDate accepts a calendar date in any of the supported layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: %w", s, domain.ErrInvalidValue)
}

// NormalizeMediaType maps user input to the stored "News" or "Blog" spelling.
func NormalizeMediaType(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "news":
		return domain.MediaNews, nil
	case "blog":
		return domain.MediaBlog, nil
	}
	return "", fmt.Errorf("media type %q: %w", s, domain.ErrInvalidValue)
}

// dayRange returns the published bounds of a day as stored strings.
func dayRange(day time.Time) (string, string) {
	d := day.Format("2006-01-02")
	return d + "T00:00:00Z", d + "T23:59:59Z"
}
