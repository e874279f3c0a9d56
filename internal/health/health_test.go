package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nakshatra-tomar/docmeta/internal/metrics"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp.StatusCode, string(b)
}

func TestRoutes(t *testing.T) {
	collector := metrics.New("enricher")
	srv := httptest.NewServer(NewHealthChecker("enricher", "1.2.3", collector, quietLogger()).Routes(""))
	defer srv.Close()

	code, body := get(t, srv, "/health")
	if code != http.StatusOK || !strings.Contains(body, `"version":"1.2.3"`) {
		t.Errorf("/health = %d %s", code, body)
	}

	if code, _ := get(t, srv, "/ready"); code != http.StatusServiceUnavailable {
		t.Errorf("/ready before work = %d, want 503", code)
	}

	collector.StartAnalysis()
	collector.FinishAnalysis(5*time.Millisecond, "English", nil)

	if code, _ := get(t, srv, "/ready"); code != http.StatusOK {
		t.Errorf("/ready after work = %d, want 200", code)
	}

	_, body = get(t, srv, "/status")
	var status map[string]interface{}
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		t.Fatalf("decode /status: %v", err)
	}
	if status["service"] != "enricher" || status["processed_count"] != float64(1) {
		t.Errorf("/status = %v", status)
	}

	_, body = get(t, srv, "/metrics")
	if !strings.Contains(body, `docmeta_analysis_documents_analyzed_total{service="enricher",status="success"} 1`) {
		t.Errorf("/metrics missing analysis counter:\n%s", body)
	}
}

func TestReadinessCheck(t *testing.T) {
	collector := metrics.New("indexer")
	collector.Stats().RecordProcessed(time.Millisecond, "")

	down := errors.New("couchbase unreachable")
	checker := NewHealthChecker("indexer", "1.0.0", collector, quietLogger()).
		WithReadinessCheck(func() error { return down })
	srv := httptest.NewServer(checker.Routes("/prom"))
	defer srv.Close()

	code, body := get(t, srv, "/ready")
	if code != http.StatusServiceUnavailable || !strings.Contains(body, "couchbase unreachable") {
		t.Errorf("/ready = %d %s", code, body)
	}

	if code, _ := get(t, srv, "/prom"); code != http.StatusOK {
		t.Errorf("custom metrics path = %d", code)
	}
}

func TestStatusFields(t *testing.T) {
	checker := NewHealthChecker("indexer", "1.0.0", metrics.New("indexer"), quietLogger()).
		WithStatusField("storage", func(context.Context) (interface{}, error) {
			return map[string]int{"total_documents": 42}, nil
		}).
		WithStatusField("lexicon", func(context.Context) (interface{}, error) {
			return nil, errors.New("lexicon not loaded")
		})
	srv := httptest.NewServer(checker.Routes(""))
	defer srv.Close()

	code, body := get(t, srv, "/status")
	if code != http.StatusOK {
		t.Fatalf("/status = %d %s", code, body)
	}
	var status map[string]interface{}
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		t.Fatalf("decode /status: %v", err)
	}
	storage, ok := status["storage"].(map[string]interface{})
	if !ok || storage["total_documents"] != float64(42) {
		t.Errorf("storage = %v", status["storage"])
	}
	if status["lexicon_error"] != "lexicon not loaded" {
		t.Errorf("lexicon_error = %v", status["lexicon_error"])
	}
	if _, ok := status["lexicon"]; ok {
		t.Error("failed field should not be set")
	}
}
