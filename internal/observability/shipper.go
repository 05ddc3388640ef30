// Package observability ships structured log events to the external
// observability sink. Delivery is fire-and-forget: a log that cannot be
// delivered is dropped, never escalated.
package observability

import (
	"context"
	"encoding/json"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Event is the wire shape the observability sink consumes.
type Event struct {
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Logtype   string         `json:"logtype"`
	Service   string         `json:"service"`
	Endpoint  string         `json:"endpoint,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Shipper produces events to a Kafka topic without awaiting delivery.
type Shipper struct {
	client  *kgo.Client
	topic   string
	service string
}

// NewShipper connects to the brokers. Returns nil when no brokers are
// configured; callers treat a nil shipper as disabled.
func NewShipper(brokers []string, topic, service string) (*Shipper, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &Shipper{client: client, topic: topic, service: service}, nil
}

// Emit produces one event. Serialization and delivery failures are both
// swallowed; the produce callback exists only to satisfy the async API.
func (s *Shipper) Emit(event Event) {
	if s == nil {
		return
	}
	event.Service = s.service
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.client.Produce(context.Background(), &kgo.Record{Topic: s.topic, Value: payload},
		func(*kgo.Record, error) {})
}

// Close flushes what it can and releases the client.
func (s *Shipper) Close() {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.client.Flush(ctx)
	s.client.Close()
}
