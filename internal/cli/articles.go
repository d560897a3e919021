package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/fjod/go_shop/internal/articles"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/ranking"
)

const (
	sourcesYear    = 2015
	titleWidth     = 50
	truncatedTitle = 47
)

type ArticleQueries interface {
	TopWords(ctx context.Context, mediaType string) ([]ranking.Entry[string], error)
	CountByDate(ctx context.Context, day time.Time) (*articles.DayCounts, error)
	TopSources(ctx context.Context, year int) ([]ranking.Entry[string], error)
	RecentBySource(ctx context.Context, source string) ([]domain.Article, error)
}

// Articles is the query menu over the news articles collection.
type Articles struct {
	*Terminal
	q   ArticleQueries
	log *slog.Logger
}

func NewArticles(term *Terminal, q ArticleQueries, log *slog.Logger) *Articles {
	return &Articles{Terminal: term, q: q, log: log.With("component", "articles-cli")}
}

func (a *Articles) Run(ctx context.Context) error {
	for {
		a.header("ARTICLES")
		a.println("1. Most common words by media type")
		a.println("2. Article count difference between News and Blog on a date")
		a.printf("3. Top %d news sources in %d\n", articles.TopSourcesN, sourcesYear)
		a.printf("4. %d most recent articles by source\n", articles.RecentN)
		a.println("5. Exit")

		choice, err := a.prompt("Enter your choice: ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = a.topWords(ctx)
		case "2":
			err = a.countByDate(ctx)
		case "3":
			err = a.topSources(ctx)
		case "4":
			err = a.recent(ctx)
		case "5":
			a.println("Goodbye!")
			return nil
		default:
			a.println("Invalid choice. Please try again.")
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			a.log.ErrorContext(ctx, "query failed", slog.Any("error", err))
			return err
		}
	}
}

func (a *Articles) topWords(ctx context.Context) error {
	raw, err := a.prompt("Media type (News/Blog): ")
	if err != nil {
		return err
	}
	mediaType, err := articles.NormalizeMediaType(raw)
	if err != nil {
		a.println("Media type must be News or Blog.")
		return nil
	}

	words, err := a.q.TopWords(ctx, mediaType)
	if err != nil {
		return err
	}

	a.printf("\nTop %d words in %s articles:\n", articles.TopWordsN, mediaType)
	a.printEntries(words, "Word", "Frequency")
	return nil
}

func (a *Articles) countByDate(ctx context.Context) error {
	raw, err := a.prompt("Date (e.g. September 1, 2015 or 2015-09-01): ")
	if err != nil {
		return err
	}
	day, err := articles.ParseDate(raw)
	if err != nil {
		a.println("Could not read that date.")
		return nil
	}

	c, err := a.q.CountByDate(ctx, day)
	if err != nil {
		return err
	}

	a.printf("\nArticles on %s:\n", day.Format(time.DateOnly))
	a.printf("News: %d\n", c.News)
	a.printf("Blog: %d\n", c.Blog)

	switch {
	case c.Total() == 0:
		a.println("No articles were published on this day.")
	case c.News > c.Blog:
		a.printf("%d more News articles than Blog articles.\n", c.Difference())
	case c.Blog > c.News:
		a.printf("%d more Blog articles than News articles.\n", c.Difference())
	default:
		a.println("Same number of News and Blog articles.")
	}
	return nil
}

func (a *Articles) topSources(ctx context.Context) error {
	sources, err := a.q.TopSources(ctx, sourcesYear)
	if err != nil {
		return err
	}

	a.printf("\nTop %d News sources of %d:\n", articles.TopSourcesN, sourcesYear)
	if len(sources) == 0 {
		a.println("No articles found.")
		return nil
	}
	a.printEntries(sources, "Source", "Articles")
	return nil
}

func (a *Articles) recent(ctx context.Context) error {
	source, err := a.prompt("Source name: ")
	if err != nil {
		return err
	}

	list, err := a.q.RecentBySource(ctx, source)
	if errors.Is(err, domain.ErrNotFound) {
		a.printf("Source '%s' not found.\n", source)
		return nil
	}
	if err != nil {
		return err
	}

	a.printf("\n%d most recent articles from %s:\n", len(list), source)
	a.printf("%-4s %-*s %s\n", "#", titleWidth, "Title", "Published")
	for i, art := range list {
		a.printf("%-4d %-*s %s\n", i+1, titleWidth, shortTitle(art.Title), publishedDay(art.Published))
	}
	return nil
}

func (a *Articles) printEntries(entries []ranking.Entry[string], keyCol, scoreCol string) {
	a.printf("%-6s %-30s %s\n", "Rank", keyCol, scoreCol)
	for i, e := range entries {
		a.printf("%-6d %-30s %d\n", i+1, e.Key, e.Score)
	}
}

func shortTitle(title string) string {
	r := []rune(title)
	if len(r) <= titleWidth {
		return title
	}
	return string(r[:truncatedTitle]) + "..."
}

func publishedDay(published string) string {
	if len(published) < len(time.DateOnly) {
		return published
	}
	return published[:len(time.DateOnly)]
}
