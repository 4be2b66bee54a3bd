package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"enroll/internal/platform/kafka"
	"enroll/pkg/sentinel"
)

// KafkaPublisher publishes events through the shared Kafka producer. The
// subject becomes the record topic; each record carries a unique event-id
// header so consumers can deduplicate redeliveries.
type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	header := kgo.RecordHeader{Key: "event-id", Value: []byte(uuid.NewString())}
	if err := p.producer.Produce(ctx, subject, nil, payload, header); err != nil {
		return fmt.Errorf("publish %q: %w: %w", subject, sentinel.ErrUnavailable, err)
	}
	return nil
}
