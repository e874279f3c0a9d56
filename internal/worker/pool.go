// Package worker analyzes batches of documents concurrently.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nakshatra-tomar/docmeta/internal/enrich"
	"github.com/nakshatra-tomar/docmeta/internal/models"
)

// LoadFunc produces the text and file attributes of one document.
type LoadFunc func(ctx context.Context) (string, models.FileInfo, error)

// Job is one document of a batch.
type Job struct {
	Name string
	Load LoadFunc
}

// Result is the outcome of one Job. Exactly one of Doc and Err is set.
type Result struct {
	Name     string
	Doc      *models.DocumentMetadata
	Err      error
	Duration time.Duration
}

// Observer is notified around every analysis. *metrics.Collector satisfies it.
type Observer interface {
	StartAnalysis()
	FinishAnalysis(duration time.Duration, language string, err error)
}

// Pool runs jobs with bounded concurrency. A failing job never stops the
// batch; its error is reported in its Result.
type Pool struct {
	assembler *enrich.Assembler
	workers   int
	logger    *logrus.Logger
	observer  Observer
}

// Option customizes a Pool.
type Option func(*Pool)

// WithObserver attaches metrics hooks.
func WithObserver(o Observer) Option {
	return func(p *Pool) { p.observer = o }
}

// WithLogger sets the logger for per-job failures.
func WithLogger(logger *logrus.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// NewPool returns a pool of the given size. Non-positive sizes use one worker
// per CPU.
func NewPool(assembler *enrich.Assembler, workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{assembler: assembler, workers: workers}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logrus.New()
	}
	return p
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int { return p.workers }

// Run analyzes every job and returns results in input order. Jobs not yet
// started when ctx is cancelled fail with the context error.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, job := range jobs {
		results[i].Name = job.Name

		if err := ctx.Err(); err != nil {
			results[i].Err = fmt.Errorf("%s: not started: %w", job.Name, err)
			continue
		}

		g.Go(func() error {
			results[i] = p.runJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p *Pool) runJob(ctx context.Context, job Job) Result {
	res := Result{Name: job.Name}
	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("%s: not started: %w", job.Name, err)
		return res
	}

	if p.observer != nil {
		p.observer.StartAnalysis()
	}
	start := time.Now()

	text, file, err := job.Load(ctx)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", job.Name, err)
	} else {
		doc := p.assembler.Assemble(text, file)
		res.Doc = &doc
	}
	res.Duration = time.Since(start)

	if p.observer != nil {
		var language string
		if res.Doc != nil {
			language = string(res.Doc.Language)
		}
		p.observer.FinishAnalysis(res.Duration, language, res.Err)
	}

	if res.Err != nil {
		p.logger.WithError(res.Err).WithField("job", job.Name).Warn("document analysis failed")
	}
	return res
}
