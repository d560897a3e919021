// Command articles loads the news articles dump into MongoDB and runs the
// query menu against it.
//
//	articles load <file.json>
//	articles query
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_shop/internal/articles"
	"github.com/fjod/go_shop/internal/cli"
	"github.com/fjod/go_shop/internal/config"
	"github.com/fjod/go_shop/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	uri := flag.String("uri", cfg.Mongo.URI, "MongoDB connection URI")
	batch := flag.Int("batch", cfg.Mongo.BatchSize, "documents per insert batch")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] load <file> | query\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg.Mongo, *uri, *batch, flag.Args(), log); err != nil {
		log.Error("articles failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.MongoConfig, uri string, batch int, args []string, log *slog.Logger) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := articles.Connect(ctx, uri, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	coll := conn.Collection(cfg.Collection)

	switch args[0] {
	case "load":
		if len(args) != 2 {
			return fmt.Errorf("load needs exactly one file")
		}
		return load(ctx, articles.NewLoader(coll, batch, log), args[1])
	case "query":
		term := cli.NewTerminal(os.Stdin, os.Stdout)
		return cli.NewArticles(term, articles.NewStore(coll), log).Run(ctx)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func load(ctx context.Context, l *articles.Loader, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := l.Load(ctx, f)
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d documents in %d batches (%s).\n", res.Inserted, res.Batches, res.Elapsed.Round(time.Millisecond))
	if res.Skipped > 0 || res.Failed > 0 {
		fmt.Printf("Skipped %d invalid lines, %d failed batches.\n", res.Skipped, res.Failed)
	}
	return nil
}
