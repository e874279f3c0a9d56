package couchbase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/sirupsen/logrus"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 1000
	defaultRecentLimit = 20
)

// ErrNotFound is returned by Get when no record has the requested id.
var ErrNotFound = errors.New("metadata record not found")

// DocumentRepository stores DocumentMetadata records and searches them with SQL++.
type DocumentRepository struct {
	client *Client
	logger *logrus.Logger
}

// SearchOptions controls server-side filtering/pagination for Search().
type SearchOptions struct {
	Keywords  []string              `json:"keywords,omitempty"` // any keyword contains any of these, case-insensitive
	Language  models.Language       `json:"language,omitempty"`
	Subject   string                `json:"subject,omitempty"`
	Sentiment models.SentimentLabel `json:"sentiment,omitempty"`
	Topic     string                `json:"topic,omitempty"`
	DateFrom  *time.Time            `json:"date_from,omitempty"`
	DateTo    *time.Time            `json:"date_to,omitempty"`
	Limit     int                   `json:"limit,omitempty"`
	Offset    int                   `json:"offset,omitempty"`
}

func (o SearchOptions) normalized() SearchOptions {
	if o.Limit <= 0 {
		o.Limit = defaultSearchLimit
	}
	if o.Limit > maxSearchLimit {
		o.Limit = maxSearchLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// SearchResult returns a page of records plus simple paging info.
type SearchResult struct {
	Documents []models.DocumentMetadata `json:"documents"`
	Total     int                       `json:"total"` // -1 means a full page came back and more may follow
	Limit     int                       `json:"limit"`
	Offset    int                       `json:"offset"`
}

// NewDocumentRepository wires the repository to a connected client.
func NewDocumentRepository(client *Client) *DocumentRepository {
	return &DocumentRepository{client: client, logger: client.logger}
}

// Store upserts a record keyed by its id.
func (r *DocumentRepository) Store(ctx context.Context, doc *models.DocumentMetadata) error {
	key := documentKey(doc.ID)

	r.logger.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"key":         key,
		"filename":    doc.Filename,
	}).Debug("storing metadata record")

	_, err := r.client.collection.Upsert(key, doc, &gocb.UpsertOptions{
		Timeout: r.client.config.OperationTimeout,
		Context: ctx,
	})
	if err != nil {
		r.logger.WithError(err).WithField("document_id", doc.ID).Error("failed to store metadata record")
		return fmt.Errorf("store %s: %w", doc.ID, err)
	}

	r.logger.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"mime_type":   doc.FileType,
		"word_count":  doc.WordCount,
	}).Info("metadata record stored")
	return nil
}

// Get fetches a record by id. A missing record yields ErrNotFound.
func (r *DocumentRepository) Get(ctx context.Context, documentID string) (*models.DocumentMetadata, error) {
	res, err := r.client.collection.Get(documentKey(documentID), &gocb.GetOptions{
		Timeout: r.client.config.OperationTimeout,
		Context: ctx,
	})
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, documentID)
		}
		return nil, fmt.Errorf("get %s: %w", documentID, err)
	}

	var doc models.DocumentMetadata
	if err := res.Content(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", documentID, err)
	}
	return &doc, nil
}

// Delete removes a record by id (no-op if already missing).
func (r *DocumentRepository) Delete(ctx context.Context, documentID string) error {
	_, err := r.client.collection.Remove(documentKey(documentID), &gocb.RemoveOptions{
		Timeout: r.client.config.OperationTimeout,
		Context: ctx,
	})
	if err != nil && !errors.Is(err, gocb.ErrDocumentNotFound) {
		return fmt.Errorf("delete %s: %w", documentID, err)
	}
	r.logger.WithField("document_id", documentID).Info("metadata record deleted")
	return nil
}

// Search runs a parameterized SQL++ query over the collection.
func (r *DocumentRepository) Search(ctx context.Context, options SearchOptions) (*SearchResult, error) {
	options = options.normalized()
	query, params := buildSearchQuery(r.client.config.Keyspace(), options)

	r.logger.WithFields(logrus.Fields{
		"query":  query,
		"params": params,
	}).Debug("executing search")

	result, err := r.client.cluster.Query(query, &gocb.QueryOptions{
		NamedParameters: params,
		Timeout:         r.client.config.OperationTimeout,
		Context:         ctx,
	})
	if err != nil {
		r.logger.WithError(err).Error("search query failed")
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer result.Close()

	docs := make([]models.DocumentMetadata, 0, options.Limit)
	for result.Next() {
		var row struct {
			Document models.DocumentMetadata `json:"doc"`
		}
		if err := result.Row(&row); err != nil {
			r.logger.WithError(err).Warn("decode search row")
			continue
		}
		docs = append(docs, row.Document)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate search: %w", err)
	}

	total := len(docs)
	if len(docs) == options.Limit {
		total = -1
	}

	r.logger.WithFields(logrus.Fields{
		"result_count": len(docs),
		"limit":        options.Limit,
		"offset":       options.Offset,
	}).Info("search completed")

	return &SearchResult{
		Documents: docs,
		Total:     total,
		Limit:     options.Limit,
		Offset:    options.Offset,
	}, nil
}

// GetBySubject is a convenience wrapper for Search() by subject.
func (r *DocumentRepository) GetBySubject(ctx context.Context, subject string, limit int) ([]models.DocumentMetadata, error) {
	res, err := r.Search(ctx, SearchOptions{Subject: subject, Limit: limit})
	if err != nil {
		return nil, err
	}
	return res.Documents, nil
}

// GetRecent returns the most recently uploaded records.
func (r *DocumentRepository) GetRecent(ctx context.Context, limit int) ([]models.DocumentMetadata, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	result, err := r.client.cluster.Query(buildRecentQuery(r.client.config.Keyspace()), &gocb.QueryOptions{
		NamedParameters: map[string]interface{}{"limit": limit},
		Timeout:         r.client.config.OperationTimeout,
		Context:         ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("recent query: %w", err)
	}
	defer result.Close()

	var docs []models.DocumentMetadata
	for result.Next() {
		var doc models.DocumentMetadata
		if err := result.Row(&doc); err != nil {
			r.logger.WithError(err).Warn("decode recent row")
			continue
		}
		docs = append(docs, doc)
	}
	return docs, result.Err()
}

// Stats aggregates the stored records.
type Stats struct {
	TotalDocuments      int     `json:"total_documents"`
	PositiveDocuments   int     `json:"positive_documents"`
	NegativeDocuments   int     `json:"negative_documents"`
	NeutralDocuments    int     `json:"neutral_documents"`
	EnglishDocuments    int     `json:"english_documents"`
	SpanishDocuments    int     `json:"spanish_documents"`
	FrenchDocuments     int     `json:"french_documents"`
	AvgWordCount        float64 `json:"avg_word_count"`
	AvgReadabilityScore float64 `json:"avg_readability_score"`
}

// GetStats returns aggregate counts across the collection.
func (r *DocumentRepository) GetStats(ctx context.Context) (*Stats, error) {
	result, err := r.client.cluster.Query(buildStatsQuery(r.client.config.Keyspace()), &gocb.QueryOptions{
		Timeout: r.client.config.OperationTimeout,
		Context: ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("stats query: %w", err)
	}
	defer result.Close()

	var stats Stats
	if result.Next() {
		if err := result.Row(&stats); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
	}
	return &stats, result.Err()
}

// --- helpers ---

func documentKey(documentID string) string {
	return fmt.Sprintf("meta::%s", documentID)
}

// buildSearchQuery composes a parameterized SQL++ query and its named params.
func buildSearchQuery(keyspace string, options SearchOptions) (string, map[string]interface{}) {
	conds := []string{"doc.uploadDate IS NOT MISSING"}
	params := make(map[string]interface{})

	if options.Language != "" {
		conds = append(conds, "doc.language = $language")
		params["language"] = string(options.Language)
	}
	if options.Subject != "" {
		conds = append(conds, "doc.subject = $subject")
		params["subject"] = options.Subject
	}
	if options.Sentiment != "" {
		conds = append(conds, "doc.sentiment.overall = $sentiment")
		params["sentiment"] = string(options.Sentiment)
	}
	if options.Topic != "" {
		conds = append(conds, "ANY t IN doc.topics SATISFIES t.name = $topic END")
		params["topic"] = options.Topic
	}

	if len(options.Keywords) > 0 {
		like := make([]string, len(options.Keywords))
		for i, kw := range options.Keywords {
			p := fmt.Sprintf("keyword%d", i)
			like[i] = fmt.Sprintf("ANY k IN doc.keywords SATISFIES LOWER(k) LIKE $%s END", p)
			params[p] = "%" + strings.ToLower(kw) + "%"
		}
		conds = append(conds, "("+strings.Join(like, " OR ")+")")
	}

	// Stored stamps drop trailing fractional zeros, so they are compared as
	// epoch milliseconds rather than as strings.
	if options.DateFrom != nil {
		conds = append(conds, "STR_TO_MILLIS(doc.uploadDate) >= $date_from_ms")
		params["date_from_ms"] = options.DateFrom.UnixMilli()
	}
	if options.DateTo != nil {
		conds = append(conds, "STR_TO_MILLIS(doc.uploadDate) <= $date_to_ms")
		params["date_to_ms"] = options.DateTo.UnixMilli()
	}

	q := fmt.Sprintf(`
		SELECT doc FROM %s AS doc
		WHERE %s
		ORDER BY STR_TO_MILLIS(doc.uploadDate) DESC
		LIMIT $limit OFFSET $offset
	`, keyspace, strings.Join(conds, " AND "))

	params["limit"] = options.Limit
	params["offset"] = options.Offset
	return q, params
}

func buildRecentQuery(keyspace string) string {
	return fmt.Sprintf(`
		SELECT doc.* FROM %s AS doc
		WHERE doc.uploadDate IS NOT MISSING
		ORDER BY STR_TO_MILLIS(doc.uploadDate) DESC
		LIMIT $limit
	`, keyspace)
}

func buildStatsQuery(keyspace string) string {
	return fmt.Sprintf(`
		SELECT
			COUNT(*) AS total_documents,
			COUNT(CASE WHEN sentiment.overall = 'positive' THEN 1 END) AS positive_documents,
			COUNT(CASE WHEN sentiment.overall = 'negative' THEN 1 END) AS negative_documents,
			COUNT(CASE WHEN sentiment.overall = 'neutral'  THEN 1 END) AS neutral_documents,
			COUNT(CASE WHEN language = 'English' THEN 1 END) AS english_documents,
			COUNT(CASE WHEN language = 'Spanish' THEN 1 END) AS spanish_documents,
			COUNT(CASE WHEN language = 'French'  THEN 1 END) AS french_documents,
			IFMISSINGORNULL(AVG(wordCount), 0) AS avg_word_count,
			IFMISSINGORNULL(AVG(readabilityScore), 0) AS avg_readability_score
		FROM %s
		WHERE uploadDate IS NOT MISSING
	`, keyspace)
}
