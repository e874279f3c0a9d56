package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

const (
	defaultRetryBackoff   = time.Second
	defaultHandlerTimeout = 30 * time.Second
	maxRetryBackoff       = 30 * time.Second
)

// MessageHandler processes a single Kafka message. Return an error to trigger retry logic.
type MessageHandler func(ctx context.Context, message *sarama.ConsumerMessage) error

// Consumer represents a Kafka consumer group runner.
type Consumer interface {
	// Start begins consuming the provided topics until the context is cancelled or a fatal error occurs.
	Start(ctx context.Context, topics []string) error
	// Stop closes the underlying consumer group.
	Stop() error
}

type consumer struct {
	consumerGroup sarama.ConsumerGroup
	handler       MessageHandler
	logger        *logrus.Logger
	config        ConsumerConfig

	ready chan struct{} // closed once the first Setup runs
	wg    sync.WaitGroup
	once  sync.Once
}

// ConsumerConfig holds essential consumer settings.
type ConsumerConfig struct {
	Brokers        []string
	GroupID        string
	RetryAttempts  int
	RetryBackoff   time.Duration // base of the quadratic backoff
	HandlerTimeout time.Duration // per-attempt deadline

	// OnGiveUp sees each message whose handler still fails after the last
	// attempt, before its offset is marked. Optional.
	OnGiveUp func(ctx context.Context, msg *sarama.ConsumerMessage, err error)
}

func (cfg ConsumerConfig) withDefaults() ConsumerConfig {
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = defaultHandlerTimeout
	}
	return cfg
}

// NewConsumer creates a new Kafka consumer group with sensible defaults and error handling.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *logrus.Logger) (Consumer, error) {
	sc := sarama.NewConfig()

	// Group & session behavior
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Group.Session.Timeout = 10 * time.Second
	sc.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	sc.Consumer.MaxProcessingTime = 2 * time.Minute

	// Commit behavior
	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.AutoCommit.Enable = true
	sc.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second

	cg, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return newConsumer(cg, cfg, handler, logger), nil
}

func newConsumer(cg sarama.ConsumerGroup, cfg ConsumerConfig, handler MessageHandler, logger *logrus.Logger) *consumer {
	if logger == nil {
		logger = logrus.New()
	}
	return &consumer{
		consumerGroup: cg,
		handler:       handler,
		logger:        logger,
		config:        cfg.withDefaults(),
		ready:         make(chan struct{}),
	}
}

// Start begins the consume loop and blocks until the context is cancelled or an unrecoverable error occurs.
func (c *consumer) Start(ctx context.Context, topics []string) error {
	c.logger.WithFields(logrus.Fields{
		"group_id": c.config.GroupID,
		"topics":   topics,
	}).Info("starting Kafka consumer")

	// Cancelled on a fatal Consume error so the error drain below exits too.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)

	// Consume must be called repeatedly; it returns on rebalance.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			if err := c.consumerGroup.Consume(ctx, topics, c); err != nil {
				c.logger.WithError(err).Error("error from consumer group")
				errCh <- err
				return
			}
			if ctx.Err() != nil {
				c.logger.Info("consumer context cancelled")
				return
			}
		}
	}()

	// Drain async consumer-group errors.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				if err != nil {
					c.logger.WithError(err).Error("consumer group error")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	var err error
	select {
	case <-c.ready:
		c.logger.Info("consumer started and ready")
		select {
		case <-ctx.Done():
		case err = <-errCh:
		}
	case <-ctx.Done():
	case err = <-errCh:
	}

	cancel()
	c.wg.Wait()
	if err == nil {
		select {
		case err = <-errCh:
		default:
		}
	}
	if err != nil {
		return fmt.Errorf("consume %v: %w", topics, err)
	}
	return nil
}

// Stop closes the consumer group (use in addition to cancelling the Start() context).
func (c *consumer) Stop() error {
	c.logger.Info("stopping consumer")
	return c.consumerGroup.Close()
}

// Setup is called once per new session; sarama calls it again after every
// rebalance, hence the once.
func (c *consumer) Setup(sarama.ConsumerGroupSession) error {
	c.once.Do(func() { close(c.ready) })
	return nil
}

// Cleanup is called at the end of a session; nothing to clean up here.
func (c *consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim runs in its own goroutine per partition.
func (c *consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok || msg == nil {
				return nil
			}

			if err := c.processMessageWithRetryAndTimeout(session.Context(), msg); err != nil {
				if session.Context().Err() != nil {
					// Left unmarked; the next owner of the partition redelivers it.
					return nil
				}
				c.logger.WithError(err).WithFields(logrus.Fields{
					"topic":     msg.Topic,
					"partition": msg.Partition,
					"offset":    msg.Offset,
					"key":       string(msg.Key),
				}).Error("failed to process message after retries")
				if c.config.OnGiveUp != nil {
					c.config.OnGiveUp(session.Context(), msg, err)
				}
			}

			// Failures are reported to the error topic, so the offset moves on
			// either way.
			session.MarkMessage(msg, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// processMessageWithRetryAndTimeout wraps the handler with retries, per-attempt timeouts, and backoff.
func (c *consumer) processMessageWithRetryAndTimeout(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var lastErr error

	for attempt := 1; attempt <= c.config.RetryAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.config.HandlerTimeout)
		err := c.handler(attemptCtx, msg)
		cancel()

		if err == nil {
			if attempt > 1 {
				c.logger.WithFields(logrus.Fields{
					"topic":     msg.Topic,
					"partition": msg.Partition,
					"offset":    msg.Offset,
					"attempt":   attempt,
				}).Info("message processed successfully after retry")
			}
			return nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == c.config.RetryAttempts {
			break
		}

		c.logger.WithError(err).WithFields(logrus.Fields{
			"attempt":      attempt,
			"max_attempts": c.config.RetryAttempts,
			"topic":        msg.Topic,
			"partition":    msg.Partition,
			"offset":       msg.Offset,
		}).Warn("message processing failed; retrying")

		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// backoff grows quadratically with the attempt number, capped at 30s.
func (c *consumer) backoff(attempt int) time.Duration {
	d := time.Duration(attempt*attempt) * c.config.RetryBackoff
	if d > maxRetryBackoff {
		d = maxRetryBackoff
	}
	return d
}
