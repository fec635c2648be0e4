package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// kafkaPayload is the JSON structure published to Kafka. Field names are part
// of the consumer contract; change them in lockstep with downstream readers.
type kafkaPayload struct {
	ID        string `json:"ID"`
	Timestamp string `json:"Timestamp"`
	Action    string `json:"Action"`
	Digest    string `json:"Digest"`
	Submitter string `json:"Submitter,omitempty"`
	Outcome   string `json:"Outcome,omitempty"`
	TxRef     string `json:"TxRef,omitempty"`
	Detail    string `json:"Detail,omitempty"`
}

// KafkaSink publishes audit events to a Kafka topic, keyed by digest so all
// events for one document land in the same partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects a producer to the given brokers.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	payload := kafkaPayload{
		ID:        event.ID,
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Action:    event.Action,
		Digest:    event.Digest.String(),
		Submitter: event.Submitter,
		Outcome:   event.Outcome,
		TxRef:     event.TxRef,
		Detail:    event.Detail,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Digest),
		Value: raw,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
