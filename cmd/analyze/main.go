// Command analyze builds metadata records for local files and writes them as
// JSON, XML or CSV.
//
//	analyze -format csv -out report.csv docs/*.txt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/nakshatra-tomar/docmeta/internal/config"
	"github.com/nakshatra-tomar/docmeta/internal/enrich"
	"github.com/nakshatra-tomar/docmeta/internal/export"
	"github.com/nakshatra-tomar/docmeta/internal/logging"
	"github.com/nakshatra-tomar/docmeta/internal/metrics"
	"github.com/nakshatra-tomar/docmeta/internal/models"
	"github.com/nakshatra-tomar/docmeta/internal/worker"
)

type options struct {
	format  string
	out     string
	workers int
	ids     string
	config  string
	paths   []string
}

func main() {
	var opts options
	flag.StringVar(&opts.format, "format", "json", "Export format: json, xml or csv")
	flag.StringVar(&opts.out, "out", "", "Output file (stdout when empty)")
	flag.IntVar(&opts.workers, "workers", 0, "Concurrent analyses (analysis.workers when 0)")
	flag.StringVar(&opts.ids, "ids", "", "Comma-separated record ids or filenames to export (all when empty)")
	flag.StringVar(&opts.config, "config", "", "Path to a config file")
	flag.Parse()
	opts.paths = flag.Args()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "analyze:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	if len(opts.paths) == 0 {
		return errors.New("no input files")
	}
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(opts.config)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging.Level, "text", stderr)

	enricher, err := enrich.NewEnricher(cfg.Analysis.EnrichConfig(), logger)
	if err != nil {
		return err
	}

	workers := opts.workers
	if workers <= 0 {
		workers = cfg.Analysis.Workers
	}
	collector := metrics.New("analyze")
	pool := worker.NewPool(enricher.Assembler(), workers,
		worker.WithObserver(collector),
		worker.WithLogger(logger))

	jobs := make([]worker.Job, len(opts.paths))
	for i, path := range opts.paths {
		jobs[i] = worker.Job{Name: path, Load: fileLoader(enricher, path)}
	}

	var docs []models.DocumentMetadata
	failed := 0
	for _, res := range pool.Run(ctx, jobs) {
		if res.Err != nil {
			failed++
			continue
		}
		docs = append(docs, *res.Doc)
	}

	docs = export.Select(docs, resolveIDs(docs, splitList(opts.ids)))

	if opts.out == "" {
		err = export.Write(stdout, format, docs)
	} else {
		err = writeFile(opts.out, format, docs)
	}
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields(collector.Stats().Snapshot())).Debug("analysis stats")
	logger.WithFields(logrus.Fields{
		"files":    len(jobs),
		"exported": len(docs),
		"failed":   failed,
		"workers":  pool.Workers(),
		"format":   format,
	}).Info("analysis finished")

	if failed > 0 && len(docs) == 0 {
		return fmt.Errorf("all %d file(s) failed", failed)
	}
	return nil
}

// writeFile exports docs to path; a failed close fails the export.
func writeFile(path string, format export.Format, docs []models.DocumentMetadata) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return export.Write(f, format, docs)
}

// fileLoader reads and parses one file when the pool schedules it.
func fileLoader(e *enrich.Enricher, path string) worker.LoadFunc {
	return func(context.Context) (string, models.FileInfo, error) {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", models.FileInfo{}, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return "", models.FileInfo{}, err
		}

		name := filepath.Base(path)
		mimeType := e.Assembler().Analyzer().ResolveMIMEType(name, "")
		text, err := e.ExtractText(name, mimeType, content)
		if err != nil {
			return "", models.FileInfo{}, err
		}
		return text, models.FileInfo{
			Name:         name,
			MIMEType:     mimeType,
			Size:         info.Size(),
			LastModified: info.ModTime().UTC(),
		}, nil
	}
}

// resolveIDs maps filenames in sel to the ids of the records built from them.
func resolveIDs(docs []models.DocumentMetadata, sel []string) []string {
	if len(sel) == 0 {
		return nil
	}
	byName := make(map[string][]string, len(docs))
	for _, d := range docs {
		byName[d.Filename] = append(byName[d.Filename], d.ID)
	}
	var ids []string
	for _, s := range sel {
		if matched, ok := byName[filepath.Base(s)]; ok {
			ids = append(ids, matched...)
			continue
		}
		ids = append(ids, s)
	}
	return ids
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
