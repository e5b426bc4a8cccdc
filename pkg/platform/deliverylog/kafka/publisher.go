// Package kafka mirrors delivery records to a Kafka topic so downstream
// security tooling can consume transmission outcomes without touching the
// service's database.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"setforge/pkg/platform/deliverylog"
)

// DefaultTopic is where delivery records land unless overridden.
const DefaultTopic = "setforge.deliveries"

// Publisher implements deliverylog.Sink on franz-go.
type Publisher struct {
	client *kgo.Client
	topic  string
}

func New(brokers []string, topic string) (*Publisher, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// payload is the JSON structure produced to the topic. Field names are part
// of the consumer contract.
type payload struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	Issuer        string `json:"issuer"`
	Audience      string `json:"audience"`
	EventType     string `json:"event_type"`
	SubjectHash   string `json:"subject_hash"`
	Endpoint      string `json:"endpoint"`
	Outcome       string `json:"outcome"`
	StatusCode    int    `json:"status_code"`
	Retryable     bool   `json:"retryable"`
	RequestID     string `json:"request_id,omitempty"`
	ClientName    string `json:"client_name,omitempty"`
	ClientVersion string `json:"client_version,omitempty"`
}

func (p *Publisher) Publish(ctx context.Context, rec deliverylog.Record) error {
	value, err := json.Marshal(payload{
		ID:            rec.ID.String(),
		Timestamp:     rec.Timestamp.Format(time.RFC3339Nano),
		Issuer:        rec.Issuer,
		Audience:      rec.Audience,
		EventType:     rec.EventType,
		SubjectHash:   rec.SubjectHash,
		Endpoint:      rec.Endpoint,
		Outcome:       rec.Outcome,
		StatusCode:    rec.StatusCode,
		Retryable:     rec.Retryable,
		RequestID:     rec.RequestID,
		ClientName:    rec.ClientName,
		ClientVersion: rec.ClientVersion,
	})
	if err != nil {
		return fmt.Errorf("marshal delivery record: %w", err)
	}

	// Keyed by subject hash so all attempts for one device stay in order
	// within a partition.
	record := &kgo.Record{Key: []byte(rec.SubjectHash), Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce delivery record: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}
