package articles

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/ranking"
)

const (
	TopWordsN   = 5
	TopSourcesN = 5
	RecentN     = 5
)

// Store runs the analytics queries against the articles collection.
type Store struct {
	coll *mongo.Collection
}

func NewStore(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

type countRow struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

func (s *Store) aggregateCounts(ctx context.Context, pipeline mongo.Pipeline) ([]ranking.Entry[string], error) {
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	defer cur.Close(ctx)

	var rows []countRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode aggregate: %w", err)
	}

	entries := make([]ranking.Entry[string], 0, len(rows))
	for _, r := range rows {
		entries = append(entries, ranking.Entry[string]{Key: r.Key, Score: r.Count})
	}
	return entries, nil
}

// TopWords returns the most frequent words in the content of one media type,
// keeping ties at fifth place. Words are lowercased, split on spaces and kept
// only when made of letters, digits, underscores or hyphens.
func (s *Store) TopWords(ctx context.Context, mediaType string) ([]ranking.Entry[string], error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "media-type", Value: mediaType}}}},
		{{Key: "$project", Value: bson.D{{Key: "words", Value: bson.D{
			{Key: "$split", Value: bson.A{bson.D{{Key: "$toLower", Value: "$content"}}, " "}},
		}}}}},
		{{Key: "$unwind", Value: "$words"}},
		{{Key: "$project", Value: bson.D{{Key: "word", Value: bson.D{
			{Key: "$trim", Value: bson.D{{Key: "input", Value: "$words"}}},
		}}}}},
		{{Key: "$match", Value: bson.D{{Key: "word", Value: bson.D{
			{Key: "$ne", Value: ""},
			{Key: "$regex", Value: primitive.Regex{Pattern: `^[a-zA-Z0-9_\-]+$`}},
		}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$word"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	entries, err := s.aggregateCounts(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("top words: %w", err)
	}
	return ranking.TopN(entries, TopWordsN), nil
}

// DayCounts compares News and Blog output for one day.
type DayCounts struct {
	Day  time.Time
	News int64
	Blog int64
}

func (c DayCounts) Total() int64 { return c.News + c.Blog }

// Difference is how many more articles the larger media type published.
func (c DayCounts) Difference() int64 {
	if c.News > c.Blog {
		return c.News - c.Blog
	}
	return c.Blog - c.News
}

func (s *Store) CountByDate(ctx context.Context, day time.Time) (*DayCounts, error) {
	from, to := dayRange(day)
	counts := &DayCounts{Day: day}

	for _, mt := range []struct {
		name string
		dst  *int64
	}{{domain.MediaNews, &counts.News}, {domain.MediaBlog, &counts.Blog}} {
		n, err := s.coll.CountDocuments(ctx, bson.D{
			{Key: "media-type", Value: mt.name},
			{Key: "published", Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lte", Value: to}}},
		})
		if err != nil {
			return nil, fmt.Errorf("count %s articles: %w", mt.name, err)
		}
		*mt.dst = n
	}
	return counts, nil
}

// TopSources ranks News sources by articles published in year.
func (s *Store) TopSources(ctx context.Context, year int) ([]ranking.Entry[string], error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "published", Value: bson.D{
				{Key: "$gte", Value: strconv.Itoa(year) + "-01-01T00:00:00Z"},
				{Key: "$lt", Value: strconv.Itoa(year+1) + "-01-01T00:00:00Z"},
			}},
			{Key: "media-type", Value: domain.MediaNews},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$source"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	entries, err := s.aggregateCounts(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("top sources: %w", err)
	}
	return ranking.TopN(entries, TopSourcesN), nil
}

// RecentBySource returns the newest articles of a source, matched exactly but
// case-insensitively. An unknown source is ErrNotFound.
func (s *Store) RecentBySource(ctx context.Context, source string) ([]domain.Article, error) {
	filter := bson.D{{Key: "source", Value: primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(source) + "$",
		Options: "i",
	}}}

	n, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count source articles: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("source %q: %w", source, domain.ErrNotFound)
	}

	opts := options.Find().SetSort(bson.D{{Key: "published", Value: -1}}).SetLimit(RecentN)
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find source articles: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Article
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	return out, nil
}
