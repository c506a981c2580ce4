package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	"github.com/khoahotran/internmatch-client/internal/config"
	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishProfileEvent(t *testing.T) {
	w := &recordingWriter{}
	c := &KafkaProducerClient{ProfileEventsWriter: w, logger: logger.NewNop()}

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	err := c.PublishProfileEvent(context.Background(), service.ProfileEvent{
		Type:      service.ProfileUpdated,
		ProfileID: "42",
		Subject:   "ana@example.com",
		Assets:    []asset.Slot{asset.SlotProfilePicture},
		At:        at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "ana@example.com", string(msg.Key))
	assert.Equal(t, "updated", string(msg.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "updated", body["event_type"])
	assert.Equal(t, float64(42), body["profile_id"])
	assert.Equal(t, []any{"profilePicture"}, body["assets"])
	assert.Equal(t, "2026-03-01T09:30:00Z", body["at"])

	c.Close()
	assert.True(t, w.closed)
}

func TestNewKafkaProducerClientRequiresBrokers(t *testing.T) {
	_, err := NewKafkaProducerClient(config.Config{}, logger.NewNop())
	assert.Error(t, err)

	var cfg config.Config
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	c, err := NewKafkaProducerClient(cfg, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, TopicProfileEvents, c.ProfileEventsWriter.(*kafka.Writer).Topic)
}
