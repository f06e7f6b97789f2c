// Package publisher mirrors recorded activity events onto a Kafka topic so
// downstream consumers (warehousing, alerting) can tail the log without
// querying the store. The mirror is strictly best-effort: the durable write
// already happened by the time an event reaches this package.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"hirelog/internal/activity"
)

// Sink publishes one event copy. Implementations must be safe for
// concurrent use by the worker.
type Sink interface {
	Publish(ctx context.Context, event activity.Event) error
}

// payload is the JSON structure written to the topic.
type payload struct {
	Timestamp   string `json:"occurred_at"`
	Actor       string `json:"actor"`
	ActorOrigin string `json:"actor_origin,omitempty"`
	Action      string `json:"action"`
	Kind        string `json:"kind"`
	TargetID    string `json:"target_id,omitempty"`
	Details     string `json:"details,omitempty"`
}

// KafkaSink publishes event copies with franz-go.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects to the brokers and ensures the topic exists.
func NewKafkaSink(ctx context.Context, brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %q: %w", topic, resp.Err)
	}
	return nil
}

// Publish writes one event copy synchronously; the worker provides the
// decoupling from the request path.
func (s *KafkaSink) Publish(ctx context.Context, event activity.Event) error {
	value, err := json.Marshal(payload{
		Timestamp:   event.Timestamp.Format(time.RFC3339Nano),
		Actor:       event.Actor,
		ActorOrigin: event.ActorOrigin,
		Action:      event.Action,
		Kind:        string(event.Kind),
		TargetID:    event.TargetID,
		Details:     event.Details,
	})
	if err != nil {
		return fmt.Errorf("marshal activity payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Actor),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce activity event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying client.
func (s *KafkaSink) Close() {
	s.client.Close()
}
