package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

// Header keys set on every report event.
const (
	HeaderRunID     = "run_id"
	HeaderRating    = "rating"
	HeaderDegraded  = "degraded"
	HeaderUpdatedAt = "updated_at"
)

// Writer publishes persisted surf reports to a Kafka topic.
// It implements pipeline.ReportPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the report topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishReport serializes the report and writes it keyed by date|location.
func (w *Writer) PublishReport(ctx context.Context, report domain.SurfReport) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish surf report: %w", err)
	}
	w.logger.Debug("surf report published", "key", string(msg.Key), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SurfReport into a Kafka message.
func serializeToMessage(report domain.SurfReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize surf report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.Key().String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderRunID, Value: []byte(report.RunID)},
			{Key: HeaderRating, Value: []byte(fmt.Sprint(report.Rating))},
			{Key: HeaderDegraded, Value: []byte(fmt.Sprint(report.Degraded))},
			{Key: HeaderUpdatedAt, Value: []byte(report.UpdatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
