// Command ziptable fetches ZIP-like archives and writes their contents
// as tables, either from explicit archive URLs or from a USPTO bulk-data
// search query.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/patchwell/ziptable"
	"github.com/patchwell/ziptable/cache"
	ziphttp "github.com/patchwell/ziptable/http"
	"github.com/patchwell/ziptable/uspto"
)

const userAgent = "ziptable/1.0"

type config struct {
	urls            string
	query           string
	baseURL         string
	format          string
	concurrency     int
	cacheSize       int
	maxArchiveBytes int64
	download        bool
	envFile         string
	verbose         bool
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.urls, "url", "", "comma-separated archive URLs to decode")
	flag.StringVar(&cfg.query, "query", "", "bulk-data search query")
	flag.StringVar(&cfg.baseURL, "base", "", "search API base URL (or USPTO_BASE_URL)")
	flag.StringVar(&cfg.format, "format", "csv", "output format: csv, tsv, or names")
	flag.IntVar(&cfg.concurrency, "concurrency", uspto.DefaultConcurrency, "parallel archive downloads")
	flag.IntVar(&cfg.cacheSize, "cache", cache.DefaultCapacity, "fetched-payload cache capacity")
	flag.Int64Var(&cfg.maxArchiveBytes, "max-archive-bytes", ziphttp.DefaultMaxBytes, "archive payload size limit (0 = unlimited)")
	flag.BoolVar(&cfg.download, "download", false, "in query mode, also download and decode each archive")
	flag.StringVar(&cfg.envFile, "env", "", "dotenv file to load (default: .env if present)")
	flag.BoolVar(&cfg.verbose, "v", false, "enable debug logging")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	if cfg.envFile != "" {
		if err := godotenv.Load(cfg.envFile); err != nil {
			log.Fatalf("loading %s: %v", cfg.envFile, err)
		}
	} else {
		_ = godotenv.Load() // optional .env
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()

	switch {
	case cfg.urls != "" && cfg.query != "":
		log.Fatal("use either -url or -query, not both")
	case cfg.urls != "":
		if err := runURLs(ctx, cfg, logger); err != nil {
			log.Fatal(err)
		}
	case cfg.query != "":
		if err := runQuery(ctx, cfg, logger); err != nil {
			log.Fatal(err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// runURLs decodes explicit archive URLs, fanning downloads out under a
// shared payload cache, and prints each table in input order.
func runURLs(ctx context.Context, cfg config, logger *slog.Logger) error {
	urls := splitURLs(cfg.urls)

	store, err := cache.New(func(ctx context.Context, url string) ([]byte, error) {
		return ziphttp.NewSource(url,
			ziphttp.WithUserAgent(userAgent),
			ziphttp.WithMaxBytes(cfg.maxArchiveBytes),
			ziphttp.WithLogger(logger),
		).Fetch(ctx)
	}, cache.WithCapacity(cfg.cacheSize), cache.WithLogger(logger))
	if err != nil {
		return err
	}

	tables := make([]*ziptable.Table, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			data, err := store.Get(gctx, url)
			if err != nil {
				return err
			}
			table, err := ziptable.Decode(data, ziptable.DecodeWithLogger(logger))
			if err != nil {
				return fmt.Errorf("decoding %s: %w", url, err)
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, table := range tables {
		logger.Info("decoded archive", "url", urls[i], "rows", table.Len())
		if err := writeTable(table, cfg.format); err != nil {
			return err
		}
	}
	return nil
}

// runQuery searches the bulk-data endpoint and prints the document
// table, optionally downloading and decoding each archive.
func runQuery(ctx context.Context, cfg config, logger *slog.Logger) error {
	baseURL := cfg.baseURL
	if baseURL == "" {
		baseURL = os.Getenv("USPTO_BASE_URL")
	}
	if baseURL == "" {
		return fmt.Errorf("query mode needs -base or USPTO_BASE_URL")
	}

	client := uspto.NewClient(baseURL,
		uspto.WithAPIKey(os.Getenv("USPTO_API_KEY")),
		uspto.WithConcurrency(cfg.concurrency),
		uspto.WithLogger(logger),
	)

	docs, err := client.Search(ctx, cfg.query)
	if err != nil {
		return err
	}
	logger.Info("search complete", "query", cfg.query, "documents", len(docs))

	if !cfg.download {
		return writeRecords(uspto.Project(docs), cfg.format)
	}

	archives, err := client.FetchArchives(ctx, docs)
	if err != nil {
		return err
	}
	for _, archive := range archives {
		logger.Info("decoded archive", "document", archive.Doc.ID, "rows", archive.Table.Len())
		if err := writeTable(archive.Table, cfg.format); err != nil {
			return err
		}
	}
	return nil
}

func splitURLs(s string) []string {
	parts := strings.Split(s, ",")
	urls := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

func writeTable(table *ziptable.Table, format string) error {
	switch format {
	case "csv":
		return table.WriteCSV(os.Stdout)
	case "tsv":
		return table.WriteTSV(os.Stdout)
	case "names":
		for _, row := range table.Rows() {
			fmt.Println(row.FileName)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeRecords(records [][]string, format string) error {
	cw := csv.NewWriter(os.Stdout)
	switch format {
	case "csv":
	case "tsv":
		cw.Comma = '\t'
	case "names":
		for i, record := range records {
			if i == 0 || len(record) == 0 {
				continue
			}
			fmt.Println(record[0])
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return cw.WriteAll(records)
}
