package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nakshatra-tomar/docmeta/internal/config"
	"github.com/nakshatra-tomar/docmeta/internal/enrich"
	"github.com/nakshatra-tomar/docmeta/internal/kafka"
	"github.com/nakshatra-tomar/docmeta/internal/logging"
	"github.com/nakshatra-tomar/docmeta/internal/models"
)

// main sends one or more files to the raw topic. Extra file paths may follow
// the flags.
func main() {
	var (
		configFile = flag.String("config", "", "Path to a config file")
		filePath   = flag.String("file", "", "Path to file to process")
		fileType   = flag.String("type", "", "MIME type (detected from the extension when empty)")
		source     = flag.String("source", "cli", "Source of the document")
		count      = flag.Int("count", 1, "Number of times to send each document")
	)
	flag.Parse()

	paths := flag.Args()
	if *filePath != "" {
		paths = append([]string{*filePath}, paths...)
	}
	if len(paths) == 0 {
		logrus.Fatal("at least one file path is required")
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if cfg.IsDevelopment() {
		level, format = "debug", "text"
	}
	logger := logging.New(level, format, os.Stderr)

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:       cfg.Kafka.Brokers,
		RetryAttempts: cfg.Kafka.RetryAttempts,
		FlushTimeout:  cfg.Kafka.FlushTimeout,
		BatchSize:     cfg.Kafka.BatchSize,
	}, logger)
	if err != nil {
		logger.Fatalf("failed to create Kafka producer: %v", err)
	}
	defer producer.Close()

	analyzer := enrich.NewAnalyzer(nil)
	ctx := context.Background()
	sent := 0

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.WithError(err).WithField("path", path).Error("failed to read file")
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			logger.WithError(err).WithField("path", path).Error("failed to stat file")
			continue
		}

		mimeType := analyzer.ResolveMIMEType(path, *fileType)
		for i := 0; i < *count; i++ {
			doc := newRawDocument(uuid.NewString(), path, mimeType, *source, content, info.ModTime(), time.Now().UTC())
			if err := doc.Validate(); err != nil {
				logger.Fatalf("invalid document: %v", err)
			}
			if err := producer.SendMessage(ctx, cfg.Kafka.RawTopic, doc.ID, doc); err != nil {
				logger.Fatalf("failed to send message: %v", err)
			}
			sent++

			logger.WithFields(logrus.Fields{
				"document_id": doc.ID,
				"filename":    doc.Filename,
				"file_type":   doc.FileType,
				"size":        doc.Size,
				"attempt":     i + 1,
			}).Info("document sent successfully")
		}
	}

	logger.Infof("successfully sent %d document(s)", sent)
}

// newRawDocument builds the raw-topic envelope for one file.
func newRawDocument(id, path, mimeType, source string, content []byte, modTime, now time.Time) *models.RawDocument {
	return &models.RawDocument{
		ID:           id,
		Filename:     filepath.Base(path),
		FileType:     mimeType,
		ContentB64:   base64.StdEncoding.EncodeToString(content),
		Size:         int64(len(content)),
		LastModified: modTime.UTC(),
		Source:       source,
		Timestamp:    now,
		Metadata: map[string]string{
			"file_size": strconv.Itoa(len(content)),
			"producer":  "cli",
			"path":      filepath.Clean(path),
		},
	}
}
