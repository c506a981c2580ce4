package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	"github.com/khoahotran/internmatch-client/internal/config"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

const TopicProfileEvents = "profile.events"

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducerClient struct {
	ProfileEventsWriter messageWriter
	logger              logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = TopicProfileEvents
	}

	profileWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka Producers successfully.", zap.Strings("brokers", brokers), zap.String("topic", topic))

	return &KafkaProducerClient{
		ProfileEventsWriter: profileWriter,
		logger:              log,
	}, nil
}

// PublishProfileEvent keys messages by subject so one user's events stay ordered.
func (c *KafkaProducerClient) PublishProfileEvent(ctx context.Context, ev service.ProfileEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal profile event: %w", err)
	}
	key := ev.Subject
	if key == "" {
		key = ev.ProfileID.String()
	}

	err = c.ProfileEventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write profile event: %w", err)
	}
	c.logger.Debug("Profile event published", zap.String("event_type", string(ev.Type)), zap.String("profile_id", ev.ProfileID.String()))
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.ProfileEventsWriter != nil {
		if err := c.ProfileEventsWriter.Close(); err != nil {
			c.logger.Warn("Closing Kafka writer failed", zap.Error(err))
		}
	}
	c.logger.Info("Closed Kafka Producers")
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishProfileEvent(context.Context, service.ProfileEvent) error {
	return nil
}

var (
	_ service.EventPublisher = (*KafkaProducerClient)(nil)
	_ service.EventPublisher = NoopPublisher{}
)
