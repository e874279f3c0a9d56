package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/nakshatra-tomar/docmeta/internal/config"
	"github.com/nakshatra-tomar/docmeta/internal/couchbase"
	"github.com/nakshatra-tomar/docmeta/internal/metrics"
	"github.com/nakshatra-tomar/docmeta/internal/models"
)

type fakeStore struct {
	stored []*models.DocumentMetadata
	err    error
}

func (f *fakeStore) GetStats(context.Context) (*couchbase.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &couchbase.Stats{TotalDocuments: len(f.stored)}, nil
}

func (f *fakeStore) Store(_ context.Context, doc *models.DocumentMetadata) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, doc)
	return nil
}

func newTestIndexer(store recordStore) *IndexerService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return newIndexerService(&config.Config{}, store, metrics.New(serviceName), logger)
}

func indexedCount(t *testing.T, s *IndexerService, status string) float64 {
	t.Helper()
	mfs, err := s.collector.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "docmeta_index_documents_indexed_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status" && lp.GetValue() == status {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestHandleMessageStoresRecord(t *testing.T) {
	store := &fakeStore{}
	s := newTestIndexer(store)

	payload, _ := json.Marshal(models.DocumentMetadata{ID: "meta-1", Filename: "a.txt", Language: models.LanguageEnglish})
	if err := s.handleMessage(context.Background(), &sarama.ConsumerMessage{Value: payload}); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	if len(store.stored) != 1 || store.stored[0].ID != "meta-1" || store.stored[0].Filename != "a.txt" {
		t.Errorf("stored = %+v", store.stored)
	}
	if got := indexedCount(t, s, metrics.StatusSuccess); got != 1 {
		t.Errorf("indexed success = %v, want 1", got)
	}
	if got := s.collector.Stats().ProcessedCount(); got != 1 {
		t.Errorf("processed = %d", got)
	}
}

func TestHandleMessageStoreFailureIsRetried(t *testing.T) {
	boom := errors.New("temporary failure")
	s := newTestIndexer(&fakeStore{err: boom})

	payload, _ := json.Marshal(models.DocumentMetadata{ID: "meta-1"})
	if err := s.handleMessage(context.Background(), &sarama.ConsumerMessage{Value: payload}); !errors.Is(err, boom) {
		t.Errorf("handleMessage() error = %v, want store error", err)
	}
	if got := indexedCount(t, s, metrics.StatusError); got != 1 {
		t.Errorf("indexed error = %v, want 1", got)
	}
}

func TestHandleMessageDropsInvalidRecords(t *testing.T) {
	for _, payload := range []string{"{broken", `{"filename":"a.txt"}`} {
		store := &fakeStore{}
		s := newTestIndexer(store)

		if err := s.handleMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte(payload)}); err != nil {
			t.Errorf("handleMessage(%s) error = %v, want nil", payload, err)
		}
		if len(store.stored) != 0 {
			t.Errorf("stored %d records from %s", len(store.stored), payload)
		}
		if got := indexedCount(t, s, metrics.StatusError); got != 1 {
			t.Errorf("indexed error = %v, want 1", got)
		}
	}
}

type fakeProducer struct {
	topics []string
	values []interface{}
}

func (p *fakeProducer) SendMessage(_ context.Context, topic, _ string, value interface{}) error {
	p.topics = append(p.topics, topic)
	p.values = append(p.values, value)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func TestHandleMessageReportsDroppedRecord(t *testing.T) {
	s := newTestIndexer(&fakeStore{})
	s.config.Kafka.ErrorTopic = "documents.errors"
	producer := &fakeProducer{}
	s.errProducer = producer

	msg := &sarama.ConsumerMessage{Key: []byte("meta-7"), Value: []byte("{broken")}
	if err := s.handleMessage(context.Background(), msg); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	if len(producer.topics) != 1 || producer.topics[0] != "documents.errors" {
		t.Fatalf("topics = %v", producer.topics)
	}
	pe, ok := producer.values[0].(models.ProcessingError)
	if !ok || pe.Stage != stageIndex || pe.DocumentID != "meta-7" || pe.Retryable {
		t.Errorf("processing error = %+v", producer.values[0])
	}
}

func TestHandleGiveUpReportsRetryableFailure(t *testing.T) {
	s := newTestIndexer(&fakeStore{})
	s.config.Kafka.ErrorTopic = "documents.errors"
	producer := &fakeProducer{}
	s.errProducer = producer

	payload, _ := json.Marshal(models.DocumentMetadata{ID: "meta-3"})
	s.handleGiveUp(context.Background(), &sarama.ConsumerMessage{Value: payload}, errors.New("timeout storing record"))

	if len(producer.topics) != 1 || producer.topics[0] != "documents.errors" {
		t.Fatalf("topics = %v", producer.topics)
	}
	pe, ok := producer.values[0].(models.ProcessingError)
	if !ok || pe.Stage != stageIndex || pe.DocumentID != "meta-3" || !pe.Retryable {
		t.Errorf("processing error = %+v", producer.values[0])
	}
}

func TestStorageStatus(t *testing.T) {
	store := &fakeStore{}
	s := newTestIndexer(store)
	payload, _ := json.Marshal(models.DocumentMetadata{ID: "meta-1"})
	if err := s.handleMessage(context.Background(), &sarama.ConsumerMessage{Value: payload}); err != nil {
		t.Fatal(err)
	}

	got, err := s.storageStatus(context.Background())
	if err != nil {
		t.Fatalf("storageStatus() error = %v", err)
	}
	if stats, ok := got.(*couchbase.Stats); !ok || stats.TotalDocuments != 1 {
		t.Errorf("storageStatus() = %+v", got)
	}
}

func TestDecodeRecord(t *testing.T) {
	for _, payload := range []string{
		`{}`,
		`{"id":"x","entities":[{"text":"Mars","type":"planet"}]}`,
	} {
		if _, err := decodeRecord([]byte(payload)); !errors.Is(err, errInvalidRecord) {
			t.Errorf("decodeRecord(%s) error = %v", payload, err)
		}
	}
	doc, err := decodeRecord([]byte(`{"id":"x","keywords":["A"],"entities":[{"text":"Jane Smith","type":"person"}]}`))
	if err != nil || doc.ID != "x" || len(doc.Keywords) != 1 || len(doc.Entities) != 1 {
		t.Errorf("decodeRecord() = %+v, %v", doc, err)
	}
}
