package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
)

// KafkaSink publishes node events to a Kafka topic via franz-go. Production
// is asynchronous; a broker outage costs events, never chat delivery.
type KafkaSink struct {
	client   *kgo.Client
	topic    string
	serverID string
	logger   logging.Logger
	messages *prometheus.CounterVec
}

// NewKafkaSink connects a producer to the given brokers. The counter tracks
// produced records by topic and outcome and may be nil.
func NewKafkaSink(brokers []string, serverID, topic string, logger logging.Logger, messages *prometheus.CounterVec) (*KafkaSink, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID("chatserver-" + serverID),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProducerLinger(10 * time.Millisecond),
		kgo.ProducerBatchMaxBytes(1000000),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &KafkaSink{
		client:   client,
		topic:    topic,
		serverID: serverID,
		logger:   logger,
		messages: messages,
	}, nil
}

// Publish produces the event asynchronously.
func (s *KafkaSink) Publish(eventType, channel string, data map[string]interface{}) {
	ev := Event{
		Type:      eventType,
		Channel:   channel,
		ServerID:  s.serverID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	value, err := json.Marshal(ev)
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal kafka event")
		return
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(s.serverID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte(eventType)},
			{Key: "channel", Value: []byte(channel)},
		},
	}

	s.client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
		if err != nil {
			if s.messages != nil {
				s.messages.WithLabelValues(s.topic, "error").Inc()
			}
			s.logger.WithError(err).WithField("event_type", eventType).Warn("Kafka produce failed")
			return
		}
		if s.messages != nil {
			s.messages.WithLabelValues(s.topic, "ok").Inc()
		}
	})
}

// Client exposes the underlying client for health checks.
func (s *KafkaSink) Client() *kgo.Client {
	return s.client
}

// Close flushes and releases the producer.
func (s *KafkaSink) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Flush(ctx); err != nil {
		s.logger.WithError(err).Warn("Kafka flush on close failed")
	}
	s.client.Close()
}
