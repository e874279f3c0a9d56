package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/nakshatra-tomar/docmeta/internal/config"
	"github.com/nakshatra-tomar/docmeta/internal/enrich"
	"github.com/nakshatra-tomar/docmeta/internal/health"
	"github.com/nakshatra-tomar/docmeta/internal/kafka"
	"github.com/nakshatra-tomar/docmeta/internal/logging"
	"github.com/nakshatra-tomar/docmeta/internal/metrics"
	"github.com/nakshatra-tomar/docmeta/internal/models"
)

const serviceName = "enricher"

// Pipeline stages reported on the error topic.
const (
	stageUnmarshal = "unmarshal_error"
	stageParse     = "parse_error"
	stageSend      = "send_error"
)

// EnricherService consumes raw documents, builds their metadata records and
// publishes them to the processed topic.
type EnricherService struct {
	config    *config.Config
	enricher  *enrich.Enricher
	consumer  kafka.Consumer
	producer  kafka.Producer
	logger    *logrus.Logger
	collector *metrics.Collector

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	var (
		configFile = flag.String("config", "", "Path to a config file (defaults to config.yaml in the search paths)")
		logLevel   = flag.String("log-level", "", "Log level override (debug, info, warn, error)")
		healthPort = flag.String("health-port", "", "Health check port override")
	)
	flag.Parse()

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *healthPort != "" {
		cfg.Metrics.Port = *healthPort
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	logger.WithFields(logrus.Fields{
		"service": serviceName,
		"version": cfg.Service.Version,
	}).Info("Starting metadata enricher service")

	service, err := NewEnricherService(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create enricher service: %v", err)
	}

	if cfg.Metrics.Enabled {
		checker := health.NewHealthChecker(serviceName, cfg.Service.Version, service.collector, logger).
			WithStatusField("analysis", service.analysisStatus)
		go checker.StartHealthServer(service.ctx, cfg.Metrics.Port, cfg.Metrics.Path)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.WithField("signal", sig.String()).Info("Shutdown signal received, starting graceful shutdown...")
		service.cancel()
	}()

	if err := service.Start(); err != nil {
		logger.Fatalf("Service failed: %v", err)
	}
	logger.Info("Metadata enricher service stopped gracefully")
}

// NewEnricherService constructs the enricher, producer, and consumer.
func NewEnricherService(cfg *config.Config, logger *logrus.Logger) (*EnricherService, error) {
	enricher, err := enrich.NewEnricher(cfg.Analysis.EnrichConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create enricher: %w", err)
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:       cfg.Kafka.Brokers,
		RetryAttempts: cfg.Kafka.RetryAttempts,
		FlushTimeout:  cfg.Kafka.FlushTimeout,
		BatchSize:     cfg.Kafka.BatchSize,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	svc := newEnricherService(cfg, enricher, producer, metrics.New(serviceName), logger)

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.ConsumerGroup,
		RetryAttempts:  cfg.Kafka.RetryAttempts,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
		HandlerTimeout: cfg.Kafka.HandlerTimeout,
	}, svc.handleMessage, logger)
	if err != nil {
		_ = producer.Close()
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	svc.consumer = consumer
	return svc, nil
}

func newEnricherService(cfg *config.Config, enricher *enrich.Enricher, producer kafka.Producer, collector *metrics.Collector, logger *logrus.Logger) *EnricherService {
	ctx, cancel := context.WithCancel(context.Background())
	return &EnricherService{
		config:    cfg,
		enricher:  enricher,
		producer:  producer,
		logger:    logger,
		collector: collector,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start runs the consume loop and blocks until shutdown, then cleans up.
func (s *EnricherService) Start() error {
	s.logger.WithFields(logrus.Fields{
		"consumer_group":  s.config.Kafka.ConsumerGroup,
		"raw_topic":       s.config.Kafka.RawTopic,
		"processed_topic": s.config.Kafka.ProcessedTopic,
		"error_topic":     s.config.Kafka.ErrorTopic,
		"supported_types": s.enricher.GetSupportedTypes(),
	}).Info("Starting enricher service")

	s.startMetricsReporting()

	err := s.consumer.Start(s.ctx, []string{s.config.Kafka.RawTopic})
	s.cancel()
	s.wg.Wait()
	s.cleanup()

	if err != nil {
		s.logger.WithError(err).Error("Consumer failed")
		return err
	}
	return nil
}

// handleMessage decodes a RawDocument, analyzes it and routes the record.
// Bad payloads go to the error topic and are not retried.
func (s *EnricherService) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	start := time.Now()

	s.logger.WithFields(logrus.Fields{
		"topic":     message.Topic,
		"partition": message.Partition,
		"offset":    message.Offset,
		"key":       string(message.Key),
	}).Debug("Processing message")

	var raw models.RawDocument
	if err := json.Unmarshal(message.Value, &raw); err != nil {
		s.logger.WithError(err).WithField("message_size", len(message.Value)).
			Error("Failed to unmarshal raw document")
		s.collector.Stats().RecordError()
		return s.sendToErrorTopic(ctx, models.RawDocument{ID: string(message.Key)}, err, stageUnmarshal)
	}

	s.collector.StartAnalysis()
	doc, err := s.enricher.EnrichDocument(&raw)
	if err != nil {
		s.collector.FinishAnalysis(time.Since(start), "", err)
		return s.sendToErrorTopic(ctx, raw, err, stageParse)
	}
	s.collector.FinishAnalysis(time.Since(start), string(doc.Language), nil)

	if err := s.producer.SendMessage(ctx, s.config.Kafka.ProcessedTopic, doc.ID, doc); err != nil {
		s.logger.WithError(err).WithField("metadata_id", doc.ID).
			Error("Failed to send metadata record")
		s.collector.Stats().RecordError()
		// Commit offset anyway; mirror the failure to the error topic for triage.
		_ = s.sendToErrorTopic(ctx, raw, err, stageSend)
		return nil
	}

	s.logger.WithFields(logrus.Fields{
		"document_id":     raw.ID,
		"metadata_id":     doc.ID,
		"language":        doc.Language,
		"subject":         doc.Subject,
		"keyword_count":   len(doc.Keywords),
		"topic_count":     len(doc.Topics),
		"processing_time": time.Since(start),
	}).Info("Document processed successfully")

	return nil
}

// sendToErrorTopic publishes a ProcessingError with enough context for triage.
func (s *EnricherService) sendToErrorTopic(ctx context.Context, raw models.RawDocument, err error, stage string) error {
	documentID := raw.ID
	if documentID == "" {
		documentID = "unknown"
	}

	errDoc := models.ProcessingError{
		DocumentID: documentID,
		Filename:   raw.Filename,
		Error:      err.Error(),
		Stage:      stage,
		Timestamp:  time.Now().UTC(),
		Retryable:  isRetryableError(err),
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if sendErr := s.producer.SendMessage(sendCtx, s.config.Kafka.ErrorTopic, errDoc.DocumentID, errDoc); sendErr != nil {
		s.logger.WithError(sendErr).Error("Failed to send error to error topic")
		return sendErr
	}

	s.logger.WithFields(logrus.Fields{
		"document_id": documentID,
		"stage":       stage,
		"retryable":   errDoc.Retryable,
	}).Warn("Sent error to error topic")
	return nil
}

// analysisStatus reports the parser and lexicon setup on /status.
func (s *EnricherService) analysisStatus(context.Context) (interface{}, error) {
	return s.enricher.GetStats(), nil
}

// isRetryableError does a rough, string-based classification.
func isRetryableError(err error) bool {
	needle := strings.ToLower(err.Error())
	for _, sub := range []string{"connection refused", "timeout", "network", "temporary", "unavailable"} {
		if strings.Contains(needle, sub) {
			return true
		}
	}
	return false
}

// startMetricsReporting logs a heartbeat snapshot on an interval.
func (s *EnricherService) startMetricsReporting() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.logger.WithFields(logrus.Fields(s.collector.Stats().Snapshot())).Info("Service metrics")
			case <-s.ctx.Done():
				s.logger.Info("Stopping metrics reporting")
				return
			}
		}
	}()
}

// cleanup closes client resources.
func (s *EnricherService) cleanup() {
	s.logger.Info("Cleaning up enricher resources...")

	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			s.logger.WithError(err).Error("Error stopping consumer")
		}
	}
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			s.logger.WithError(err).Error("Error closing producer")
		}
	}
	s.logger.Info("Enricher cleanup completed")
}
