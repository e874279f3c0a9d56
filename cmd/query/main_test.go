package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nakshatra-tomar/docmeta/internal/couchbase"
	"github.com/nakshatra-tomar/docmeta/internal/models"
)

type fakeRepo struct {
	docs    map[string]models.DocumentMetadata
	search  couchbase.SearchOptions
	limit   int
	subject string
	deleted []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: map[string]models.DocumentMetadata{
		"m-1": {ID: "m-1", Filename: "report.txt", Title: "Quarterly Report", Subject: "Quarterly Report"},
		"m-2": {ID: "m-2", Filename: "notes.txt", Title: "Team Notes"},
	}}
}

func (f *fakeRepo) Search(_ context.Context, opts couchbase.SearchOptions) (*couchbase.SearchResult, error) {
	f.search = opts
	return &couchbase.SearchResult{Documents: []models.DocumentMetadata{f.docs["m-1"]}, Total: 1}, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*models.DocumentMetadata, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, couchbase.ErrNotFound
	}
	return &doc, nil
}

func (f *fakeRepo) GetRecent(_ context.Context, limit int) ([]models.DocumentMetadata, error) {
	f.limit = limit
	return []models.DocumentMetadata{f.docs["m-2"], f.docs["m-1"]}, nil
}

func (f *fakeRepo) GetBySubject(_ context.Context, subject string, limit int) ([]models.DocumentMetadata, error) {
	f.subject, f.limit = subject, limit
	return []models.DocumentMetadata{f.docs["m-1"]}, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) GetStats(context.Context) (*couchbase.Stats, error) {
	return &couchbase.Stats{TotalDocuments: len(f.docs), EnglishDocuments: 2}, nil
}

func TestRunSearchPassesFilters(t *testing.T) {
	repo := newFakeRepo()
	var out bytes.Buffer
	args := []string{"search",
		"-keywords", "revenue, growth",
		"-language", "English",
		"-sentiment", "Positive",
		"-topic", "Business Strategy",
		"-from", "2024-03-01",
		"-to", "2024-03-31T12:00:00Z",
		"-limit", "5", "-offset", "10",
	}
	if err := run(context.Background(), repo, "json", args, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	got := repo.search
	if len(got.Keywords) != 2 || got.Keywords[1] != "growth" || got.Language != models.LanguageEnglish ||
		got.Sentiment != models.SentimentPositive || got.Topic != "Business Strategy" ||
		got.Limit != 5 || got.Offset != 10 {
		t.Errorf("search options = %+v", got)
	}
	if got.DateFrom == nil || !got.DateFrom.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date from = %v", got.DateFrom)
	}
	if got.DateTo == nil || got.DateTo.Hour() != 12 {
		t.Errorf("date to = %v", got.DateTo)
	}

	var docs []models.DocumentMetadata
	if err := json.Unmarshal(out.Bytes(), &docs); err != nil || len(docs) != 1 || docs[0].ID != "m-1" {
		t.Errorf("output = %s (%v)", out.String(), err)
	}
}

func TestRunGet(t *testing.T) {
	repo := newFakeRepo()

	var out bytes.Buffer
	if err := run(context.Background(), repo, "json", []string{"get", "m-1"}, &out); err != nil {
		t.Fatalf("run(get) error = %v", err)
	}
	doc, err := models.FromJSON(out.Bytes())
	if err != nil || doc.Title != "Quarterly Report" {
		t.Errorf("get output = %s (%v)", out.String(), err)
	}

	out.Reset()
	if err := run(context.Background(), repo, "csv", []string{"get", "m-2"}, &out); err != nil {
		t.Fatalf("run(get csv) error = %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out.String()), "\n"); len(lines) != 2 || !strings.HasPrefix(lines[1], "m-2,") {
		t.Errorf("csv output = %q", out.String())
	}

	err = run(context.Background(), repo, "json", []string{"get", "missing"}, &out)
	if !errors.Is(err, couchbase.ErrNotFound) {
		t.Errorf("run(get missing) error = %v, want ErrNotFound", err)
	}
}

func TestRunRecentSubjectDeleteStats(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()

	var out bytes.Buffer
	if err := run(ctx, repo, "xml", []string{"recent", "-limit", "2"}, &out); err != nil {
		t.Fatalf("run(recent) error = %v", err)
	}
	if repo.limit != 2 || !strings.Contains(out.String(), "Team Notes") {
		t.Errorf("recent limit = %d, output = %s", repo.limit, out.String())
	}

	if err := run(ctx, repo, "json", []string{"subject", "Quarterly", "Report"}, &out); err != nil {
		t.Fatalf("run(subject) error = %v", err)
	}
	if repo.subject != "Quarterly Report" || repo.limit != 0 {
		t.Errorf("subject = %q, limit = %d", repo.subject, repo.limit)
	}

	out.Reset()
	if err := run(ctx, repo, "json", []string{"delete", "m-2"}, &out); err != nil {
		t.Fatalf("run(delete) error = %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "m-2" || out.String() != "deleted m-2\n" {
		t.Errorf("deleted = %v, output = %q", repo.deleted, out.String())
	}

	out.Reset()
	if err := run(ctx, repo, "csv", []string{"stats"}, &out); err != nil {
		t.Fatalf("run(stats) error = %v", err)
	}
	var stats couchbase.Stats
	if err := json.Unmarshal(out.Bytes(), &stats); err != nil || stats.TotalDocuments != 2 {
		t.Errorf("stats output = %s (%v)", out.String(), err)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []string
		want   string
	}{
		{"no command", "json", nil, "missing command"},
		{"bad format", "yaml", []string{"stats"}, "yaml"},
		{"unknown command", "json", []string{"purge"}, "unknown command"},
		{"bad date", "json", []string{"search", "-from", "March"}, "invalid date"},
		{"get without id", "json", []string{"get"}, "exactly one"},
		{"subject without name", "json", []string{"subject"}, "subject is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), newFakeRepo(), tt.format, tt.args, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("run() error = %v, want %q", err, tt.want)
			}
		})
	}
}
