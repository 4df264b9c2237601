package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/xaenox/vikas-bot/internal/models"
	"go.uber.org/zap"
)

const DefaultInteractionsTopic = "vikas.interactions"

// KafkaPublisher streams analytics interactions to a Kafka topic. Writes are
// asynchronous so a slow broker never holds up a chat reply; delivery
// failures are only logged.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topic == "" {
		topic = DefaultInteractionsTopic
	}

	p := &KafkaPublisher{logger: logger}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   p.completion,
	}
	return p, nil
}

// Publish enqueues the interaction keyed by user so one user's history stays
// on a single partition
func (p *KafkaPublisher) Publish(ctx context.Context, interaction models.Interaction) error {
	msg, err := interactionMessage(interaction)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func interactionMessage(interaction models.Interaction) (kafka.Message, error) {
	data, err := json.Marshal(interaction)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("error encoding interaction: %w", err)
	}
	return kafka.Message{
		Key:   []byte(interaction.UserID),
		Value: data,
		Time:  interaction.Timestamp.UTC(),
		Headers: []kafka.Header{
			{Key: "intent", Value: []byte(interaction.Intent)},
			{Key: "interaction_id", Value: []byte(interaction.ID)},
		},
	}, nil
}

func (p *KafkaPublisher) completion(messages []kafka.Message, err error) {
	if err == nil {
		p.logger.Debug("Published interactions", zap.Int("count", len(messages)))
		return
	}
	p.logger.Error("Failed to publish interactions",
		zap.Error(err),
		zap.Int("count", len(messages)),
		zap.String("topic", p.writer.Topic))
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
