package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// ContentTypeHeader names the header that carries the payload encoding.
const ContentTypeHeader = "content-type"

// Producer publishes records and returns once the broker acknowledges them.
type Producer interface {
	// SendMessage publishes value under key. []byte and string values are sent
	// as-is; anything else is JSON encoded.
	SendMessage(ctx context.Context, topic, key string, value interface{}) error
	// Close flushes and closes the underlying producer.
	Close() error
}

type producer struct {
	syncProducer sarama.SyncProducer
	logger       *logrus.Logger
	config       ProducerConfig
	now          func() time.Time
}

// ProducerConfig holds client-side settings for throughput/reliability.
type ProducerConfig struct {
	Brokers       []string
	RetryAttempts int
	FlushTimeout  time.Duration
	BatchSize     int
}

// SaramaConfig builds the idempotent producer configuration.
func (cfg ProducerConfig) SaramaConfig() *sarama.Config {
	sc := sarama.NewConfig()

	// Reliability / idempotence
	sc.Producer.RequiredAcks = sarama.WaitForAll // acks=all is required for idempotence
	sc.Producer.Retry.Max = cfg.RetryAttempts
	if sc.Producer.Retry.Max < 1 {
		sc.Producer.Retry.Max = 1 // >0 required for idempotence
	}
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1

	// Throughput / batching
	sc.Producer.Flush.Frequency = cfg.FlushTimeout
	sc.Producer.Flush.Messages = cfg.BatchSize
	sc.Producer.Compression = sarama.CompressionSnappy

	return sc
}

// NewProducer connects a synchronous sarama producer.
func NewProducer(cfg ProducerConfig, logger *logrus.Logger) (Producer, error) {
	sp, err := sarama.NewSyncProducer(cfg.Brokers, cfg.SaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}
	return newProducer(sp, cfg, logger), nil
}

func newProducer(sp sarama.SyncProducer, cfg ProducerConfig, logger *logrus.Logger) *producer {
	if logger == nil {
		logger = logrus.New()
	}
	return &producer{
		syncProducer: sp,
		logger:       logger,
		config:       cfg,
		now:          time.Now,
	}
}

// SendMessage publishes a message synchronously and logs the assigned partition/offset.
func (p *producer) SendMessage(ctx context.Context, topic, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send to %s cancelled: %w", topic, err)
	}

	msg, err := encodeMessage(topic, key, value, p.now())
	if err != nil {
		return err
	}

	partition, offset, err := p.syncProducer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"topic": topic, "key": key,
		}).Error("failed to send message")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"topic": topic, "partition": partition, "offset": offset, "key": key,
	}).Debug("message sent successfully")
	return nil
}

// encodeMessage normalizes value into bytes and builds a ProducerMessage.
func encodeMessage(topic, key string, value interface{}, ts time.Time) (*sarama.ProducerMessage, error) {
	var (
		payload     []byte
		contentType = "application/json"
		err         error
	)

	switch v := value.(type) {
	case []byte:
		payload = v
		contentType = "application/octet-stream"
	case string:
		payload = []byte(v)
		contentType = "text/plain"
	default:
		payload, err = json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message: %w", err)
		}
	}

	return &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte(ContentTypeHeader), Value: []byte(contentType)},
		},
		Timestamp: ts,
	}, nil
}

// Close flushes and closes the producer.
func (p *producer) Close() error {
	if err := p.syncProducer.Close(); err != nil {
		return fmt.Errorf("error closing producer: %w", err)
	}
	return nil
}
