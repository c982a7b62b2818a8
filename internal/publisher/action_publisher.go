package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"playlist-service/internal/domain"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	log "github.com/sirupsen/logrus"
)

const serviceName = "playlist-service"

// ActionEvent is the message written to Kafka for every stored log record.
type ActionEvent struct {
	Service    string            `json:"service"`
	LogID      string            `json:"log_id"`
	ActorID    *string           `json:"actor_id"`
	ActionType domain.ActionKind `json:"action_type"`
	EntityType domain.EntityKind `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Details    string            `json:"details,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewActionEvent(rec domain.LogRecord) ActionEvent {
	return ActionEvent{
		Service:    serviceName,
		LogID:      rec.ID,
		ActorID:    rec.ActorID,
		ActionType: rec.ActionKind,
		EntityType: rec.EntityKind,
		EntityID:   rec.EntityID,
		Details:    rec.Detail,
		OccurredAt: rec.Timestamp.UTC(),
	}
}

// messageKey keeps one actor's events on one partition; anonymous events
// are keyed by entity.
func messageKey(rec domain.LogRecord) []byte {
	if rec.ActorID != nil {
		return []byte(*rec.ActorID)
	}
	return []byte(string(rec.EntityKind) + ":" + rec.EntityID)
}

type ActionPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewActionPublisher(bootstrapServers, topic string) (*ActionPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": bootstrapServers})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.WithField("topic", topic).Info("Action Kafka producer created successfully")

	return &ActionPublisher{producer: p, topic: topic}, nil
}

// Publish writes rec to the topic and waits for the delivery report.
func (p *ActionPublisher) Publish(ctx context.Context, rec domain.LogRecord) error {
	payload, err := json.Marshal(NewActionEvent(rec))
	if err != nil {
		return fmt.Errorf("failed to marshal action event: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)

	if err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            messageKey(rec),
		Value:          payload,
	}, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case e := <-deliveryChan:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type: %T", e)
		}
		if msg.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", msg.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *ActionPublisher) Close() {
	log.Info("Closing action Kafka producer...")
	p.producer.Flush(15 * 1000)
	p.producer.Close()
}
