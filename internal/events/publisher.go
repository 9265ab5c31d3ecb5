package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const (
	BookingCreated   = "booking.created"
	BookingAccepted  = "booking.accepted"
	BookingRejected  = "booking.rejected"
	BookingCompleted = "booking.completed"
	BookingCancelled = "booking.cancelled"
	BookingRated     = "booking.rated"
)

// BookingEvent is published for consumers outside this service, such as email delivery.
type BookingEvent struct {
	Type        string    `json:"type"`
	BookingID   string    `json:"booking_id"`
	CustomerID  string    `json:"customer_id"`
	ProviderID  string    `json:"provider_id"`
	RecipientID string    `json:"recipient_id,omitempty"`
	Status      string    `json:"status"`
	Severity    string    `json:"severity,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishBookingEvent(ctx context.Context, event BookingEvent) error
	Close() error
}

const writeTimeout = 5 * time.Second

// KafkaPublisher writes booking events keyed by booking id so one booking stays on one partition.
// Writes happen in the background; failures are logged and never reach the caller.
type KafkaPublisher struct {
	writer  *kafka.Writer
	topic   string
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, topic: topic, timeout: writeTimeout, logger: logger}
}

func (p *KafkaPublisher) PublishBookingEvent(ctx context.Context, event BookingEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal booking event")
	}
	msg := kafka.Message{
		Key:   []byte(event.BookingID),
		Value: data,
		Time:  event.OccurredAt,
	}

	// the request context ends with the response; the write must outlive it
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
			p.logger.Warn("Booking event not delivered",
				"type", event.Type,
				"booking_id", event.BookingID,
				"topic", p.topic,
				"error", err,
			)
			return
		}
		p.logger.Debug("Booking event published", "type", event.Type, "booking_id", event.BookingID)
	}()
	return nil
}

// Close waits for in-flight writes before closing the writer.
func (p *KafkaPublisher) Close() error {
	p.wg.Wait()
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) PublishBookingEvent(ctx context.Context, event BookingEvent) error {
	if p.logger != nil {
		p.logger.Debug("Event publishing disabled, skipping", "type", event.Type, "booking_id", event.BookingID)
	}
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}

// NewPublisher returns a Kafka publisher when brokers are configured and a no-op otherwise.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) Publisher {
	if len(brokers) == 0 {
		logger.Info("Kafka not configured, using no-op publisher")
		return NewNoopPublisher(logger)
	}
	logger.Info("Publishing booking events to Kafka", "brokers", brokers, "topic", topic)
	return NewKafkaPublisher(brokers, topic, logger)
}
