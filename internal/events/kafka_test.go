package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/xaenox/vikas-bot/internal/models"
	"go.uber.org/zap/zaptest"
)

func TestNewKafkaPublisherRequiresBrokers(t *testing.T) {
	if _, err := NewKafkaPublisher(nil, "topic", zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected an error without brokers")
	}
}

func TestNewKafkaPublisherDefaultsTopic(t *testing.T) {
	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewKafkaPublisher: %v", err)
	}
	defer p.Close()

	if p.writer.Topic != DefaultInteractionsTopic {
		t.Errorf("topic = %q, want %q", p.writer.Topic, DefaultInteractionsTopic)
	}
	if !p.writer.Async {
		t.Error("writer should be asynchronous")
	}
}

func TestInteractionMessage(t *testing.T) {
	in := models.Interaction{
		ID:        "INT-1",
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		UserID:    "u-42",
		Query:     "red sneakers",
		Intent:    models.IntentSearch,
		AgentUsed: "rag",
		Success:   true,
	}

	msg, err := interactionMessage(in)
	if err != nil {
		t.Fatalf("interactionMessage: %v", err)
	}
	if string(msg.Key) != "u-42" {
		t.Errorf("key = %q, want user id", msg.Key)
	}
	if !msg.Time.Equal(in.Timestamp) {
		t.Errorf("time = %v, want %v", msg.Time, in.Timestamp)
	}

	var decoded models.Interaction
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded.Query != in.Query || decoded.Intent != in.Intent {
		t.Errorf("decoded = %+v", decoded)
	}

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["intent"] != "search" || headers["interaction_id"] != "INT-1" {
		t.Errorf("headers = %v", headers)
	}
}
