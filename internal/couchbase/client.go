package couchbase

import (
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/sirupsen/logrus"
)

// Client wraps Cluster/Bucket/Collection handles plus config+logger.
type Client struct {
	cluster    *gocb.Cluster
	bucket     *gocb.Bucket
	collection *gocb.Collection
	config     Config
	logger     *logrus.Logger
}

// Config holds connection and keyspace details.
type Config struct {
	ConnectionString string        `json:"connection_string"`
	Username         string        `json:"username"`
	Password         string        `json:"password"`
	BucketName       string        `json:"bucket_name"`
	ScopeName        string        `json:"scope_name"`
	CollectionName   string        `json:"collection_name"`
	ConnectTimeout   time.Duration `json:"connect_timeout"`
	OperationTimeout time.Duration `json:"operation_timeout"`
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.OperationTimeout == 0 {
		c.OperationTimeout = 5 * time.Second
	}
	if c.ScopeName == "" {
		c.ScopeName = "_default"
	}
	if c.CollectionName == "" {
		c.CollectionName = "_default"
	}
	return c
}

// Keyspace returns `bucket`.`scope`.`collection` for Server 7+ collections.
func (c Config) Keyspace() string {
	return fmt.Sprintf("`%s`.`%s`.`%s`", c.BucketName, c.ScopeName, c.CollectionName)
}

// secondaryIndexes back the filters of DocumentRepository.Search.
var secondaryIndexes = []struct {
	name   string
	fields []string
}{
	{"idx_metadata_language", []string{"language"}},
	{"idx_metadata_subject", []string{"subject"}},
	{"idx_metadata_sentiment", []string{"sentiment.overall"}},
	{"idx_metadata_upload_date", []string{"STR_TO_MILLIS(uploadDate)"}},
	{"idx_metadata_keywords", []string{"DISTINCT ARRAY LOWER(k) FOR k IN keywords END"}},
	{"idx_metadata_topics", []string{"DISTINCT ARRAY t.name FOR t IN topics END"}},
}

// NewClient connects to Couchbase, opens the bucket/scope/collection, and waits for readiness.
func NewClient(config Config, logger *logrus.Logger) (*Client, error) {
	if logger == nil {
		logger = logrus.New()
	}
	config = config.withDefaults()

	opts := gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		},
		TimeoutsConfig: gocb.TimeoutsConfig{
			ConnectTimeout: config.ConnectTimeout,
			KVTimeout:      config.OperationTimeout,
			QueryTimeout:   config.OperationTimeout,
		},
	}

	cluster, err := gocb.Connect(config.ConnectionString, opts)
	if err != nil {
		return nil, fmt.Errorf("connect cluster: %w", err)
	}

	if err := cluster.WaitUntilReady(config.ConnectTimeout, nil); err != nil {
		_ = cluster.Close(nil)
		return nil, fmt.Errorf("cluster not ready: %w", err)
	}

	bucket := cluster.Bucket(config.BucketName)
	if err := bucket.WaitUntilReady(config.ConnectTimeout, nil); err != nil {
		_ = cluster.Close(nil)
		return nil, fmt.Errorf("bucket not ready: %w", err)
	}

	collection := bucket.Scope(config.ScopeName).Collection(config.CollectionName)

	logger.WithFields(logrus.Fields{
		"bucket":     config.BucketName,
		"scope":      config.ScopeName,
		"collection": config.CollectionName,
	}).Info("connected to Couchbase")

	return &Client{
		cluster:    cluster,
		bucket:     bucket,
		collection: collection,
		config:     config,
		logger:     logger,
	}, nil
}

// Close shuts down the cluster connection.
func (c *Client) Close() error {
	if c.cluster != nil {
		return c.cluster.Close(nil)
	}
	return nil
}

// Ping performs a health check against the KV service.
func (c *Client) Ping() error {
	_, err := c.cluster.Ping(&gocb.PingOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue},
	})
	return err
}

// CreateIndexes creates the secondary indexes used by search. Failures are
// logged and skipped so a read-only user can still run the indexer.
func (c *Client) CreateIndexes() error {
	mgr := c.cluster.QueryIndexes()

	for _, ix := range secondaryIndexes {
		err := mgr.CreateIndex(
			c.config.BucketName,
			ix.name,
			ix.fields,
			&gocb.CreateQueryIndexOptions{
				IgnoreIfExists: true,
				ScopeName:      c.config.ScopeName,
				CollectionName: c.config.CollectionName,
			},
		)
		if err != nil {
			c.logger.WithError(err).WithField("index", ix.name).
				Warn("failed to create index")
			continue
		}
		c.logger.WithField("index", ix.name).Info("index created (or already exists)")
	}
	return nil
}
