// internal/infra/events/kafka_publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"export_stats_bot/internal/domain/export"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const eventSource = "export-stats-bot"

// Event is the JSON envelope written to Kafka.
type Event struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Source    string        `json:"source"`
	Data      RecordPayload `json:"data"`
	Timestamp time.Time     `json:"timestamp"`
}

// RecordPayload is the export record as seen by consumers.
type RecordPayload struct {
	ID         int64     `json:"id"`
	Date       time.Time `json:"date"`
	Successful bool      `json:"successful"`
	Month      int       `json:"month"`
	Week       int       `json:"week"`
	Year       int       `json:"year"`
	Weekday    string    `json:"weekday"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implements export.Publisher on a kafka-go writer.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, rec *export.Record) error {
	msg, err := p.buildMessage(eventType, rec)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

func (p *KafkaPublisher) buildMessage(eventType string, rec *export.Record) (kafka.Message, error) {
	event := Event{
		ID:     uuid.New().String(),
		Type:   eventType,
		Source: eventSource,
		Data: RecordPayload{
			ID:         rec.ID,
			Date:       rec.Date,
			Successful: rec.Successful,
			Month:      rec.Month,
			Week:       rec.Week,
			Year:       rec.Year,
			Weekday:    rec.Weekday,
		},
		Timestamp: p.now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	return kafka.Message{
		// Keyed by day so every event about one day lands on one partition.
		Key:   []byte(rec.Date.UTC().Format("2006-01-02")),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
			{Key: "source", Value: []byte(eventSource)},
		},
	}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
