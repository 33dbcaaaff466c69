package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

// ErrMalformedEvent marks a committed message whose value is not a report.
// Consumers can skip it and keep reading.
var ErrMalformedEvent = errors.New("malformed report event")

// Reader consumes report events. cmd/followreports uses it to tail the topic.
type Reader struct {
	reader *kafkago.Reader
}

// NewReader creates a consumer-group reader on the report topic.
func NewReader(brokers []string, topic, groupID string) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &Reader{reader: r}
}

// ReadReport blocks until the next report event arrives and commits it.
func (r *Reader) ReadReport(ctx context.Context) (domain.SurfReport, error) {
	msg, err := r.reader.ReadMessage(ctx)
	if err != nil {
		return domain.SurfReport{}, err
	}
	return decodeMessage(msg)
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// decodeMessage unmarshals a report event value.
func decodeMessage(msg kafkago.Message) (domain.SurfReport, error) {
	var report domain.SurfReport
	if err := json.Unmarshal(msg.Value, &report); err != nil {
		return domain.SurfReport{}, fmt.Errorf("%w at offset %d: %w", ErrMalformedEvent, msg.Offset, err)
	}
	return report, nil
}
