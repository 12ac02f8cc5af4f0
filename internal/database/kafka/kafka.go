package kafka

import (
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"StudyMind/internal/config"
)

// NewWriter builds a Kafka writer for the configured ingestion event topic.
// The topic is created on first connect when the broker allows it.
func NewWriter(cfg *config.KafkaConfig) (*kafka.Writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no Kafka brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("no Kafka topic configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka topic %s: %w", cfg.Topic, err)
	}

	return kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}), nil
}
