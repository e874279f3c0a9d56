package couchbase

import (
	"strings"
	"testing"
	"time"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

const testKeyspace = "`document_metadata`.`_default`.`_default`"

func TestBuildSearchQueryBaseline(t *testing.T) {
	q, params := buildSearchQuery(testKeyspace, SearchOptions{}.normalized())

	if !strings.Contains(q, "FROM "+testKeyspace+" AS doc") {
		t.Errorf("query missing keyspace: %s", q)
	}
	if !strings.Contains(q, "WHERE doc.uploadDate IS NOT MISSING\n") {
		t.Errorf("baseline condition missing: %s", q)
	}
	if !strings.Contains(q, "ORDER BY STR_TO_MILLIS(doc.uploadDate) DESC") {
		t.Errorf("ordering missing: %s", q)
	}
	if params["limit"] != defaultSearchLimit || params["offset"] != 0 {
		t.Errorf("paging params = %v", params)
	}
	if len(params) != 2 {
		t.Errorf("params = %v, want only limit and offset", params)
	}
}

func TestBuildSearchQueryFilters(t *testing.T) {
	from := time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	q, params := buildSearchQuery(testKeyspace, SearchOptions{
		Keywords:  []string{"Revenue", "Growth"},
		Language:  models.LanguageEnglish,
		Subject:   "Quarterly Review",
		Sentiment: models.SentimentPositive,
		Topic:     "Business Strategy",
		DateFrom:  &from,
		DateTo:    &to,
		Limit:     10,
		Offset:    20,
	})

	for _, cond := range []string{
		"doc.language = $language",
		"doc.subject = $subject",
		"doc.sentiment.overall = $sentiment",
		"ANY t IN doc.topics SATISFIES t.name = $topic END",
		"(ANY k IN doc.keywords SATISFIES LOWER(k) LIKE $keyword0 END OR ANY k IN doc.keywords SATISFIES LOWER(k) LIKE $keyword1 END)",
		"STR_TO_MILLIS(doc.uploadDate) >= $date_from_ms",
		"STR_TO_MILLIS(doc.uploadDate) <= $date_to_ms",
	} {
		if !strings.Contains(q, cond) {
			t.Errorf("query missing %q:\n%s", cond, q)
		}
	}

	want := map[string]interface{}{
		"language":     "English",
		"subject":      "Quarterly Review",
		"sentiment":    "positive",
		"topic":        "Business Strategy",
		"keyword0":     "%revenue%",
		"keyword1":     "%growth%",
		"date_from_ms": from.UnixMilli(),
		"date_to_ms":   to.UnixMilli(),
		"limit":        10,
		"offset":       20,
	}
	if len(params) != len(want) {
		t.Errorf("params = %v", params)
	}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("params[%q] = %v, want %v", k, params[k], v)
		}
	}
}

func TestSearchOptionsNormalized(t *testing.T) {
	tests := []struct {
		in         SearchOptions
		limit, off int
	}{
		{SearchOptions{}, defaultSearchLimit, 0},
		{SearchOptions{Limit: 5000, Offset: -3}, maxSearchLimit, 0},
		{SearchOptions{Limit: 7, Offset: 14}, 7, 14},
	}
	for _, tt := range tests {
		got := tt.in.normalized()
		if got.Limit != tt.limit || got.Offset != tt.off {
			t.Errorf("normalized(%+v) = %d/%d, want %d/%d", tt.in, got.Limit, got.Offset, tt.limit, tt.off)
		}
	}
}

func TestKeyspaceAndKey(t *testing.T) {
	cfg := Config{BucketName: "document_metadata"}.withDefaults()
	if got := cfg.Keyspace(); got != testKeyspace {
		t.Errorf("Keyspace() = %s", got)
	}
	if cfg.ConnectTimeout != 10*time.Second || cfg.OperationTimeout != 5*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.ConnectTimeout, cfg.OperationTimeout)
	}
	if got := documentKey("abc"); got != "meta::abc" {
		t.Errorf("documentKey() = %s", got)
	}
}

func TestStatsQueryTargetsKeyspace(t *testing.T) {
	q := buildStatsQuery(testKeyspace)
	if !strings.Contains(q, "FROM "+testKeyspace) || !strings.Contains(q, "AVG(readabilityScore)") {
		t.Errorf("stats query = %s", q)
	}
	recent := buildRecentQuery(testKeyspace)
	if !strings.Contains(recent, "LIMIT $limit") || !strings.Contains(recent, "ORDER BY STR_TO_MILLIS(doc.uploadDate) DESC") {
		t.Error("recent query must be limited")
	}
}

func TestDateFilterUsesMillis(t *testing.T) {
	// 12:00:00.5 must fall inside [12:00:00.25, 12:00:01] even though its
	// stored string "...:00.5Z" sorts before "...:00.25Z".
	from := time.Date(2024, 3, 1, 12, 0, 0, 250_000_000, time.UTC)
	to := time.Date(2024, 3, 1, 12, 0, 1, 0, time.UTC)
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 500_000_000, time.UTC)

	_, params := buildSearchQuery(testKeyspace, SearchOptions{DateFrom: &from, DateTo: &to}.normalized())

	lo, _ := params["date_from_ms"].(int64)
	hi, _ := params["date_to_ms"].(int64)
	if ms := stamp.UnixMilli(); ms < lo || ms > hi {
		t.Errorf("stamp %d outside [%d, %d]", ms, lo, hi)
	}
	if lo != 1709294400250 {
		t.Errorf("date_from_ms = %d", lo)
	}
}
