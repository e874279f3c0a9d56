package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nakshatra-tomar/docmeta/internal/enrich"
	"github.com/nakshatra-tomar/docmeta/internal/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func textJob(name, text string) Job {
	return Job{
		Name: name,
		Load: func(context.Context) (string, models.FileInfo, error) {
			return text, models.FileInfo{Name: name}, nil
		},
	}
}

type fakeObserver struct {
	mu       sync.Mutex
	started  int
	finished int
	failed   int
}

func (f *fakeObserver) StartAnalysis() {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()
}

func (f *fakeObserver) FinishAnalysis(_ time.Duration, _ string, err error) {
	f.mu.Lock()
	f.finished++
	if err != nil {
		f.failed++
	}
	f.mu.Unlock()
}

func TestPoolRunKeepsInputOrder(t *testing.T) {
	obs := &fakeObserver{}
	pool := NewPool(enrich.NewAssembler(nil, enrich.DefaultLimits()), 3,
		WithObserver(obs), WithLogger(quietLogger()))

	jobs := make([]Job, 0, 10)
	for i := 0; i < 10; i++ {
		jobs = append(jobs, textJob(fmt.Sprintf("doc-%d.txt", i), fmt.Sprintf("Document number %d", i)))
	}
	failing := Job{
		Name: "broken.pdf",
		Load: func(context.Context) (string, models.FileInfo, error) {
			return "", models.FileInfo{}, errors.New("corrupt pdf")
		},
	}
	jobs = append(jobs[:4], append([]Job{failing}, jobs[4:]...)...)

	results := pool.Run(context.Background(), jobs)
	if len(results) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(results), len(jobs))
	}
	for i, r := range results {
		if r.Name != jobs[i].Name {
			t.Errorf("result %d = %q, want %q", i, r.Name, jobs[i].Name)
		}
		if i == 4 {
			if r.Err == nil || r.Doc != nil {
				t.Errorf("failing job result = %+v", r)
			}
			continue
		}
		if r.Err != nil || r.Doc == nil || r.Doc.Filename != jobs[i].Name {
			t.Errorf("result %d = %+v", i, r)
		}
	}

	if obs.started != 11 || obs.finished != 11 || obs.failed != 1 {
		t.Errorf("observer = %+v", obs)
	}
}

func TestPoolRespectsLimit(t *testing.T) {
	var running, peak int32
	job := Job{
		Name: "slow",
		Load: func(context.Context) (string, models.FileInfo, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return "text", models.FileInfo{Name: "slow.txt"}, nil
		},
	}

	jobs := make([]Job, 8)
	for i := range jobs {
		jobs[i] = job
	}

	NewPool(enrich.NewAssembler(nil, enrich.DefaultLimits()), 2, WithLogger(quietLogger())).
		Run(context.Background(), jobs)

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestPoolCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool(enrich.NewAssembler(nil, enrich.DefaultLimits()), 2, WithLogger(quietLogger()))
	results := pool.Run(ctx, []Job{textJob("a.txt", "a"), textJob("b.txt", "b")})

	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("result %q error = %v, want context.Canceled", r.Name, r.Err)
		}
	}
}

func TestNewPoolDefaultsWorkers(t *testing.T) {
	if p := NewPool(nil, 0); p.Workers() < 1 {
		t.Errorf("Workers() = %d", p.Workers())
	}
}
