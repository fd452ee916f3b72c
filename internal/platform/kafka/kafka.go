// Package kafka builds kafka-go writers for publishing order events.
package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrDisabled is returned when no brokers are configured.
var ErrDisabled = errors.New("kafka disabled")

// Client holds the broker list parsed from KAFKA_BROKERS.
type Client struct {
	Brokers []string
}

// NewClient parses a comma separated broker list. Blank entries are skipped.
func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Client{Brokers: brokers}
}

func (c *Client) Enabled() bool {
	return c != nil && len(c.Brokers) > 0
}

// NewWriter returns a writer that keys messages by hash so one order's events stay ordered.
func (c *Client) NewWriter(topic string) (*kafka.Writer, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, nil
}

// MessageWriter is the subset of *kafka.Writer used by publishers.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Message is one keyed record with headers.
type Message struct {
	Key     string
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

// Publish writes msgs in one batch.
func Publish(ctx context.Context, writer MessageWriter, msgs ...Message) error {
	if writer == nil {
		return ErrDisabled
	}
	out := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		headers := make([]kafka.Header, 0, len(m.Headers))
		for k, v := range m.Headers {
			headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
		}
		at := m.Time
		if at.IsZero() {
			at = time.Now().UTC()
		}
		out = append(out, kafka.Message{Key: []byte(m.Key), Value: m.Value, Headers: headers, Time: at})
	}
	return writer.WriteMessages(ctx, out...)
}
