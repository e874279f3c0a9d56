package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/nakshatra-tomar/docmeta/internal/config"
	"github.com/nakshatra-tomar/docmeta/internal/couchbase"
	"github.com/nakshatra-tomar/docmeta/internal/health"
	"github.com/nakshatra-tomar/docmeta/internal/kafka"
	"github.com/nakshatra-tomar/docmeta/internal/logging"
	"github.com/nakshatra-tomar/docmeta/internal/metrics"
	"github.com/nakshatra-tomar/docmeta/internal/models"
)

const (
	serviceName = "indexer"
	stageIndex  = "index_error"
)

// errInvalidRecord marks payloads that can never be stored; they are not retried.
var errInvalidRecord = errors.New("invalid metadata record")

// recordStore is the subset of the repository the indexer uses.
type recordStore interface {
	Store(ctx context.Context, doc *models.DocumentMetadata) error
	GetStats(ctx context.Context) (*couchbase.Stats, error)
}

// IndexerService consumes metadata records from Kafka and writes them to Couchbase.
type IndexerService struct {
	config      *config.Config
	consumer    kafka.Consumer
	store       recordStore
	errProducer kafka.Producer // optional; reports records that were not stored
	client      *couchbase.Client
	logger      *logrus.Logger
	collector   *metrics.Collector

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	var (
		configFile = flag.String("config", "", "Path to a config file (defaults to config.yaml in the search paths)")
		healthPort = flag.String("health-port", "9091", "Health check port")
	)
	flag.Parse()

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	logger.WithField("service", serviceName).Info("Starting metadata indexer service")

	service, err := NewIndexerService(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create indexer service: %v", err)
	}

	if cfg.Metrics.Enabled {
		checker := health.NewHealthChecker(serviceName, cfg.Service.Version, service.collector, logger).
			WithReadinessCheck(service.client.Ping).
			WithStatusField("storage", service.storageStatus)
		go checker.StartHealthServer(service.ctx, *healthPort, cfg.Metrics.Path)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, starting graceful shutdown...")
		service.cancel()
	}()

	if err := service.Start(); err != nil {
		logger.Fatalf("Service failed: %v", err)
	}
	logger.Info("Metadata indexer service stopped")
}

// NewIndexerService wires Couchbase, the repository and the Kafka consumer.
func NewIndexerService(cfg *config.Config, logger *logrus.Logger) (*IndexerService, error) {
	cbClient, err := couchbase.NewClient(couchbase.Config{
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
		return nil, fmt.Errorf("failed to create Couchbase client: %w", err)
	}

	if err := cbClient.CreateIndexes(); err != nil {
		logger.WithError(err).Warn("Failed to create some indexes")
	}

	svc := newIndexerService(cfg, couchbase.NewDocumentRepository(cbClient), metrics.New(serviceName), logger)
	svc.client = cbClient

	if cfg.Kafka.ErrorTopic != "" {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:       cfg.Kafka.Brokers,
			RetryAttempts: cfg.Kafka.RetryAttempts,
			FlushTimeout:  cfg.Kafka.FlushTimeout,
			BatchSize:     cfg.Kafka.BatchSize,
		}, logger)
		if err != nil {
			_ = cbClient.Close()
			return nil, fmt.Errorf("failed to create error producer: %w", err)
		}
		svc.errProducer = producer
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.IndexerGroup,
		RetryAttempts:  cfg.Kafka.RetryAttempts,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
		HandlerTimeout: cfg.Kafka.HandlerTimeout,
		OnGiveUp:       svc.handleGiveUp,
	}, svc.handleMessage, logger)
	if err != nil {
		svc.cleanup()
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	svc.consumer = consumer
	return svc, nil
}

func newIndexerService(cfg *config.Config, store recordStore, collector *metrics.Collector, logger *logrus.Logger) *IndexerService {
	ctx, cancel := context.WithCancel(context.Background())
	return &IndexerService{
		config:    cfg,
		store:     store,
		logger:    logger,
		collector: collector,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start runs the consume loop and blocks until shutdown, then cleans up.
func (s *IndexerService) Start() error {
	s.logger.WithFields(logrus.Fields{
		"consumer_group":  s.config.Kafka.IndexerGroup,
		"processed_topic": s.config.Kafka.ProcessedTopic,
		"bucket":          s.config.Couchbase.Bucket,
	}).Info("Starting indexer service")

	s.startMetricsReporting()

	err := s.consumer.Start(s.ctx, []string{s.config.Kafka.ProcessedTopic})
	s.cancel()
	s.wg.Wait()
	s.cleanup()

	if err != nil {
		s.logger.WithError(err).Error("Consumer failed")
		return err
	}
	return nil
}

// handleMessage decodes a metadata record and upserts it. Store failures are
// returned so the consumer retries them; undecodable payloads are dropped.
func (s *IndexerService) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	start := time.Now()

	s.logger.WithFields(logrus.Fields{
		"topic":     message.Topic,
		"partition": message.Partition,
		"offset":    message.Offset,
	}).Debug("Processing message for indexing")

	doc, err := decodeRecord(message.Value)
	if err != nil {
		s.logger.WithError(err).WithField("key", string(message.Key)).Error("Dropping undecodable record")
		s.collector.RecordIndexed(err)
		s.reportFailure(ctx, string(message.Key), err, false)
		return nil
	}

	if err := s.store.Store(ctx, doc); err != nil {
		s.logger.WithError(err).WithField("metadata_id", doc.ID).Error("Failed to store metadata record")
		s.collector.RecordIndexed(err)
		return err
	}

	s.collector.RecordIndexed(nil)
	s.collector.Stats().RecordProcessed(time.Since(start), string(doc.Language))

	s.logger.WithFields(logrus.Fields{
		"metadata_id": doc.ID,
		"filename":    doc.Filename,
		"language":    doc.Language,
		"index_time":  time.Since(start),
	}).Info("Metadata record indexed successfully")
	return nil
}

// handleGiveUp runs once the consumer has exhausted its retries for a record
// the store kept rejecting.
func (s *IndexerService) handleGiveUp(ctx context.Context, message *sarama.ConsumerMessage, err error) {
	key := string(message.Key)
	if key == "" {
		if doc, derr := decodeRecord(message.Value); derr == nil {
			key = doc.ID
		}
	}
	s.reportFailure(ctx, key, err, true)
}

// reportFailure publishes a ProcessingError for a record that was not stored.
func (s *IndexerService) reportFailure(ctx context.Context, key string, err error, retryable bool) {
	if s.errProducer == nil {
		return
	}
	if key == "" {
		key = "unknown"
	}
	errDoc := models.ProcessingError{
		DocumentID: key,
		Error:      err.Error(),
		Stage:      stageIndex,
		Timestamp:  time.Now().UTC(),
		Retryable:  retryable,
	}
	if sendErr := s.errProducer.SendMessage(ctx, s.config.Kafka.ErrorTopic, key, errDoc); sendErr != nil {
		s.logger.WithError(sendErr).Error("Failed to send error to error topic")
	}
}

// storageStatus feeds the aggregate record counts into /status.
func (s *IndexerService) storageStatus(ctx context.Context) (interface{}, error) {
	return s.store.GetStats(ctx)
}

func decodeRecord(payload []byte) (*models.DocumentMetadata, error) {
	doc, err := models.FromJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRecord, err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: missing id", errInvalidRecord)
	}
	for _, e := range doc.Entities {
		if !e.Type.IsValid() {
			return nil, fmt.Errorf("%w: unknown entity type %q", errInvalidRecord, e.Type)
		}
	}
	return doc, nil
}

func (s *IndexerService) startMetricsReporting() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.logger.WithFields(logrus.Fields(s.collector.Stats().Snapshot())).Info("Indexer metrics")
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *IndexerService) cleanup() {
	s.logger.Info("Cleaning up indexer resources...")
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			s.logger.WithError(err).Warn("Error stopping consumer")
		}
	}
	if s.errProducer != nil {
		if err := s.errProducer.Close(); err != nil {
			s.logger.WithError(err).Warn("Error closing producer")
		}
	}
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.WithError(err).Warn("Error closing Couchbase client")
		}
	}
	s.logger.Info("Indexer cleanup completed")
}
