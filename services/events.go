package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Event types published after a successful commit.
const (
	EventBookingCreated    = "booking.created"
	EventBookingConfirmed  = "booking.confirmed"
	EventBookingCancelled  = "booking.cancelled"
	EventBookingCheckedIn  = "booking.checked_in"
	EventBookingCompleted  = "booking.completed"
	EventInvoiceCalculated = "invoice.calculated"
)

// Event is the message body sent to the broker. Data carries a snapshot of
// the entity so consumers do not have to query the database.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       datatypes.JSONMap `json:"data"`
}

func newEvent(eventType string, data map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       datatypes.JSONMap(data),
	}
}

// EventPublisher delivers domain events. Failures are reported but never
// undo the committed change that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

// AMQPPublisher sends each event to a durable queue named after its type.
type AMQPPublisher struct {
	URL string
	log *logrus.Logger
}

func NewAMQPPublisher(url string, logger *logrus.Logger) *AMQPPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AMQPPublisher{URL: url, log: logger}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	entry := p.log.WithFields(logrus.Fields{"event": ev.Type, "event_id": ev.ID})

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		entry.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		entry.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(ev.Type, true, false, false, false, nil); err != nil {
		entry.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", ev.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.OccurredAt,
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		entry.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	entry.Debug("event published")
	return nil
}

// LogPublisher only logs events. Used when no broker is configured.
type LogPublisher struct {
	log *logrus.Logger
}

func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogPublisher{log: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	p.log.WithFields(logrus.Fields{"event": ev.Type, "event_id": ev.ID}).Info("domain event")
	return nil
}

// RecordingPublisher keeps events in memory so tests can assert on what was
// published.
type RecordingPublisher struct {
	Events []Event
}

func (p *RecordingPublisher) Publish(_ context.Context, ev Event) error {
	p.Events = append(p.Events, ev)
	return nil
}

func (p *RecordingPublisher) Types() []string {
	out := make([]string, len(p.Events))
	for i, ev := range p.Events {
		out[i] = ev.Type
	}
	return out
}
