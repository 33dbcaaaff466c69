package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

func sampleReport() domain.SurfReport {
	return domain.SurfReport{
		Date:       "2024-06-01",
		Location:   "ocean-beach",
		WaveHeight: "5.2 ft",
		Tide:       "incoming",
		Conditions: "Firing!",
		Rating:     8,
		RunID:      "run-1",
		UpdatedAt:  time.Date(2024, 6, 1, 15, 10, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	report := sampleReport()

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("2024-06-01|ocean-beach"), msg.Key)
	assert.Contains(t, string(msg.Value), `"rating":8`)
	require.Len(t, msg.Headers, 4)
	assert.Equal(t, HeaderRunID, msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, []byte("8"), msg.Headers[1].Value)
	assert.Equal(t, []byte("false"), msg.Headers[2].Value)
	assert.Equal(t, HeaderUpdatedAt, msg.Headers[3].Key)
	assert.Equal(t, []byte("2024-06-01T15:10:00Z"), msg.Headers[3].Value)
}

func TestDecodeMessage(t *testing.T) {
	report := sampleReport()
	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	got, err := decodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestDecodeMessage_Invalid(t *testing.T) {
	_, err := decodeMessage(kafkago.Message{Value: []byte("not json"), Offset: 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 42")
	assert.ErrorIs(t, err, ErrMalformedEvent)
}
