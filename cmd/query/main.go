// Command query reads indexed metadata records back out of Couchbase.
//
//	query [-config file] [-format json|xml|csv] <command> [flags] [args]
//
// Commands:
//
//	search   -keywords a,b -language L -subject S -sentiment s -topic T -from D -to D -limit N -offset N
//	get      <id>
//	recent   [-limit N]
//	subject  [-limit N] <subject>
//	delete   <id>
//	stats
//
// Dates are RFC 3339 or YYYY-MM-DD. Record lists are written in the chosen
// export format; stats are always JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nakshatra-tomar/docmeta/internal/config"
	"github.com/nakshatra-tomar/docmeta/internal/couchbase"
	"github.com/nakshatra-tomar/docmeta/internal/export"
	"github.com/nakshatra-tomar/docmeta/internal/logging"
	"github.com/nakshatra-tomar/docmeta/internal/models"
)

// recordQuerier is the read side of couchbase.DocumentRepository.
type recordQuerier interface {
	Search(ctx context.Context, options couchbase.SearchOptions) (*couchbase.SearchResult, error)
	Get(ctx context.Context, documentID string) (*models.DocumentMetadata, error)
	GetRecent(ctx context.Context, limit int) ([]models.DocumentMetadata, error)
	GetBySubject(ctx context.Context, subject string, limit int) ([]models.DocumentMetadata, error)
	Delete(ctx context.Context, documentID string) error
	GetStats(ctx context.Context) (*couchbase.Stats, error)
}

func main() {
	var (
		configFile = flag.String("config", "", "Path to a config file")
		format     = flag.String("format", "json", "Output format for records: json, xml or csv")
	)
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: query [-config file] [-format json|xml|csv] search|get|recent|subject|delete|stats ...")
		os.Exit(2)
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level, "text", os.Stderr)

	client, err := couchbase.NewClient(couchbase.Config{
		ConnectionString: cfg.Couchbase.ConnectionString,
		Username:         cfg.Couchbase.Username,
		Password:         cfg.Couchbase.Password,
		BucketName:       cfg.Couchbase.Bucket,
		ScopeName:        cfg.Couchbase.Scope,
		CollectionName:   cfg.Couchbase.Collection,
		ConnectTimeout:   cfg.Couchbase.Timeout,
		OperationTimeout: cfg.Couchbase.Timeout,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to Couchbase: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, couchbase.NewDocumentRepository(client), *format, flag.Args(), os.Stdout)
	stop()
	if cerr := client.Close(); cerr != nil {
		logger.WithError(cerr).Warn("Error closing Couchbase client")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, repo recordQuerier, formatName string, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command")
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cmd, args := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("limit", 0, "Maximum records to return")

	switch cmd {
	case "search":
		var (
			keywords  = fs.String("keywords", "", "Comma-separated keyword fragments")
			language  = fs.String("language", "", "Language name")
			subject   = fs.String("subject", "", "Exact subject")
			sentiment = fs.String("sentiment", "", "positive, negative or neutral")
			topic     = fs.String("topic", "", "Topic name")
			from      = fs.String("from", "", "Earliest upload date")
			to        = fs.String("to", "", "Latest upload date")
			offset    = fs.Int("offset", 0, "Records to skip")
		)
		if err := fs.Parse(args); err != nil {
			return err
		}
		opts := couchbase.SearchOptions{
			Keywords:  splitList(*keywords),
			Language:  models.Language(*language),
			Subject:   *subject,
			Sentiment: models.SentimentLabel(strings.ToLower(*sentiment)),
			Topic:     *topic,
			Limit:     *limit,
			Offset:    *offset,
		}
		if opts.DateFrom, err = parseDate(*from); err != nil {
			return err
		}
		if opts.DateTo, err = parseDate(*to); err != nil {
			return err
		}
		res, err := repo.Search(ctx, opts)
		if err != nil {
			return err
		}
		return export.Write(stdout, format, res.Documents)

	case "get":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return errors.New("get takes exactly one record id")
		}
		doc, err := repo.Get(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		if format != export.FormatJSON {
			return export.Write(stdout, format, []models.DocumentMetadata{*doc})
		}
		b, err := doc.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "%s\n", b)
		return err

	case "recent":
		if err := fs.Parse(args); err != nil {
			return err
		}
		docs, err := repo.GetRecent(ctx, *limit)
		if err != nil {
			return err
		}
		return export.Write(stdout, format, docs)

	case "subject":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			return errors.New("subject is required")
		}
		docs, err := repo.GetBySubject(ctx, strings.Join(fs.Args(), " "), *limit)
		if err != nil {
			return err
		}
		return export.Write(stdout, format, docs)

	case "delete":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return errors.New("delete takes exactly one record id")
		}
		if err := repo.Delete(ctx, fs.Arg(0)); err != nil {
			return err
		}
		_, err := fmt.Fprintf(stdout, "deleted %s\n", fs.Arg(0))
		return err

	case "stats":
		stats, err := repo.GetStats(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// parseDate accepts RFC 3339 or a bare YYYY-MM-DD (midnight UTC).
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q (want RFC 3339 or YYYY-MM-DD)", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
