package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"StudyMind/pkg/logger"
)

// IngestEvent announces that one document finished ingestion.
type IngestEvent struct {
	FileID      string    `json:"file_id"`
	Filename    string    `json:"filename"`
	FileType    string    `json:"file_type"`
	OwnerUserID string    `json:"owner_user_id,omitempty"`
	ChunkCount  int       `json:"chunk_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher emits ingestion events to Kafka for downstream consumers
// (indexing audits, usage analytics). It is optional; a nil Publisher is a
// no-op.
type Publisher struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewPublisher wraps a Kafka writer.
func NewPublisher(writer *kafka.Writer, log *logger.Logger) *Publisher {
	return &Publisher{writer: writer, log: log}
}

// PublishIngested emits one event, keyed by file id so per-file ordering is
// preserved across partitions.
func (p *Publisher) PublishIngested(ctx context.Context, event IngestEvent) error {
	if p == nil || p.writer == nil {
		return nil
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode ingest event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.FileID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish ingest event: %w", err)
	}
	p.log.WithField("file_id", event.FileID).Debug("Published ingest event")
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
