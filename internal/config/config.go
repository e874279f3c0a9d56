package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/nakshatra-tomar/docmeta/internal/enrich"
)

// EnvPrefix prefixes every environment override, e.g. DOCMETA_KAFKA_BROKERS.
const EnvPrefix = "DOCMETA"

// Config holds top-level application configuration groups.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Couchbase CouchbaseConfig `mapstructure:"couchbase"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
}

// ServiceConfig defines basic runtime context of the service.
type ServiceConfig struct {
	Name        string        `mapstructure:"name"`
	Version     string        `mapstructure:"version"`
	Environment string        `mapstructure:"environment"`
	Port        string        `mapstructure:"port"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// KafkaConfig groups settings necessary to connect to Kafka.
type KafkaConfig struct {
	Brokers        []string      `mapstructure:"brokers"`
	RawTopic       string        `mapstructure:"raw_topic"`
	ProcessedTopic string        `mapstructure:"processed_topic"`
	ErrorTopic     string        `mapstructure:"error_topic"`
	ConsumerGroup  string        `mapstructure:"consumer_group"`
	IndexerGroup   string        `mapstructure:"indexer_group"`
	BatchSize      int           `mapstructure:"batch_size"`
	FlushTimeout   time.Duration `mapstructure:"flush_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
}

// CouchbaseConfig groups settings necessary to connect to Couchbase.
type CouchbaseConfig struct {
	ConnectionString string        `mapstructure:"connection_string"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	Bucket           string        `mapstructure:"bucket"`
	Scope            string        `mapstructure:"scope"`
	Collection       string        `mapstructure:"collection"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// LoggingConfig controls application logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // "info", "debug", etc.
	Format string `mapstructure:"format"` // "json" or "text"
}

// MetricsConfig defines settings for metrics exposure.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// AnalysisConfig bounds the ranked lists of every record and sizes the batch
// worker pool.
type AnalysisConfig struct {
	MaxKeywords      int    `mapstructure:"max_keywords"`
	MaxEntities      int    `mapstructure:"max_entities"`
	MaxTopics        int    `mapstructure:"max_topics"`
	SummarySentences int    `mapstructure:"summary_sentences"`
	Workers          int    `mapstructure:"workers"`
	LexiconFile      string `mapstructure:"lexicon_file"`
}

// EnrichConfig converts the analysis group into the enricher's settings.
func (a AnalysisConfig) EnrichConfig() enrich.Config {
	return enrich.Config{
		Limits: enrich.Limits{
			Keywords:         a.MaxKeywords,
			Entities:         a.MaxEntities,
			Topics:           a.MaxTopics,
			SummarySentences: a.SummarySentences,
		},
		LexiconFile: a.LexiconFile,
	}
}

// Load reads configuration from the default search paths and the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from an explicit file when path is set,
// otherwise from config.yaml in the default search paths. Environment
// variables override both.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/docmeta")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		logrus.Info("No config file found, using defaults and environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults establishes default values for configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "docmeta")
	v.SetDefault("service.version", "1.0.0")
	v.SetDefault("service.environment", "development")
	v.SetDefault("service.port", "8080")
	v.SetDefault("service.timeout", "30s")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.raw_topic", "documents.raw")
	v.SetDefault("kafka.processed_topic", "documents.processed")
	v.SetDefault("kafka.error_topic", "documents.errors")
	v.SetDefault("kafka.consumer_group", "docmeta-enricher")
	v.SetDefault("kafka.indexer_group", "docmeta-indexer")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.flush_timeout", "5s")
	v.SetDefault("kafka.retry_attempts", 3)
	v.SetDefault("kafka.retry_backoff", "1s")
	v.SetDefault("kafka.handler_timeout", "30s")

	v.SetDefault("couchbase.connection_string", "couchbase://localhost")
	v.SetDefault("couchbase.username", "Administrator")
	v.SetDefault("couchbase.password", "password")
	v.SetDefault("couchbase.bucket", "document_metadata")
	v.SetDefault("couchbase.scope", "_default")
	v.SetDefault("couchbase.collection", "_default")
	v.SetDefault("couchbase.timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", "9090")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("analysis.max_keywords", enrich.MaxKeywords)
	v.SetDefault("analysis.max_entities", enrich.MaxEntities)
	v.SetDefault("analysis.max_topics", enrich.MaxTopics)
	v.SetDefault("analysis.summary_sentences", enrich.MaxSummarySentences)
	v.SetDefault("analysis.workers", runtime.NumCPU())
	v.SetDefault("analysis.lexicon_file", "")
}

// Validate ensures critical configuration values are present.
func (c *Config) Validate() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	if c.Kafka.RawTopic == "" {
		return fmt.Errorf("kafka raw topic cannot be empty")
	}
	if c.Kafka.ProcessedTopic == "" {
		return fmt.Errorf("kafka processed topic cannot be empty")
	}
	if c.Couchbase.ConnectionString == "" {
		return fmt.Errorf("couchbase connection string cannot be empty")
	}
	if err := checkLimit("analysis.max_keywords", c.Analysis.MaxKeywords, enrich.MaxKeywords); err != nil {
		return err
	}
	if err := checkLimit("analysis.max_entities", c.Analysis.MaxEntities, enrich.MaxEntities); err != nil {
		return err
	}
	if err := checkLimit("analysis.max_topics", c.Analysis.MaxTopics, enrich.MaxTopics); err != nil {
		return err
	}
	if err := checkLimit("analysis.summary_sentences", c.Analysis.SummarySentences, enrich.MaxSummarySentences); err != nil {
		return err
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be at least 1, got %d", c.Analysis.Workers)
	}
	return nil
}

func checkLimit(name string, v, max int) error {
	if v < 1 || v > max {
		return fmt.Errorf("%s must be between 1 and %d, got %d", name, max, v)
	}
	return nil
}

// IsDevelopment returns true when running in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Service.Environment, "development")
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Service.Environment, "production")
}
