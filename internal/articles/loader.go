// Package articles loads the news articles collection into MongoDB and runs
// the analytics queries over it.
package articles

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultBatchSize = 5000
	maxLineBytes     = 64 << 20
)

// LoadResult summarizes a load run.
type LoadResult struct {
	Inserted int
	Skipped  int
	Batches  int
	Failed   int
	Elapsed  time.Duration
}

// ReadBatches parses a JSON array printed one document per line and calls fn
// for every full batch and for the final partial one. Brackets, blank lines and
// trailing commas are tolerated; lines that do not parse are counted and skipped.
func ReadBatches(r io.Reader, batchSize int, fn func(batch []any) error) (skipped int, err error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), maxLineBytes)

	batch := make([]any, 0, batchSize)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line == "[" || line == "]" {
			continue
		}
		line = strings.TrimSuffix(line, ",")

		var doc bson.D
		if err := bson.UnmarshalExtJSON([]byte(line), false, &doc); err != nil {
			skipped++
			continue
		}

		batch = append(batch, doc)
		if len(batch) >= batchSize {
			if err := fn(batch); err != nil {
				return skipped, err
			}
			batch = make([]any, 0, batchSize)
		}
	}
	if err := sc.Err(); err != nil {
		return skipped, fmt.Errorf("read input: %w", err)
	}

	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

type Loader struct {
	coll      *mongo.Collection
	batchSize int
	log       *slog.Logger
}

func NewLoader(coll *mongo.Collection, batchSize int, log *slog.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{coll: coll, batchSize: batchSize, log: log.With("component", "articles-loader")}
}

// Load replaces the collection with the documents read from r, then builds
// the query indexes. A batch that fails to insert is logged and skipped.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*LoadResult, error) {
	start := time.Now()

	if err := l.coll.Drop(ctx); err != nil {
		return nil, fmt.Errorf("drop collection: %w", err)
	}

	res := &LoadResult{}
	opts := options.InsertMany().SetOrdered(false)

	skipped, err := ReadBatches(r, l.batchSize, func(batch []any) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := l.coll.InsertMany(ctx, batch, opts)
		if out != nil {
			res.Inserted += len(out.InsertedIDs)
		}
		if err != nil {
			res.Failed++
			l.log.WarnContext(ctx, "batch insert failed",
				slog.Int("batch", res.Batches+res.Failed),
				slog.Any("error", err))
			return nil
		}

		res.Batches++
		l.log.InfoContext(ctx, "batch inserted",
			slog.Int("batch", res.Batches),
			slog.Int("docs", len(batch)),
			slog.Int("total", res.Inserted))
		return nil
	})
	res.Skipped = skipped
	if err != nil {
		return res, fmt.Errorf("load articles: %w", err)
	}

	if err := CreateIndexes(ctx, l.coll); err != nil {
		return res, err
	}

	res.Elapsed = time.Since(start)
	if res.Skipped > 0 {
		l.log.WarnContext(ctx, "skipped invalid lines", slog.Int("count", res.Skipped))
	}
	return res, nil
}

// CreateIndexes builds the indexes the queries rely on.
func CreateIndexes(ctx context.Context, coll *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "media-type", Value: 1}}},
		{Keys: bson.D{{Key: "published", Value: 1}}},
		{Keys: bson.D{{Key: "source", Value: 1}}},
		{Keys: bson.D{{Key: "source", Value: 1}, {Key: "published", Value: -1}}},
	}

	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
