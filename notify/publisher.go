package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"cafe-pos-api/config"
)

// Event is a domain notification fanned out to external consumers.
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entityId"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher pushes events onto a topic keyed by routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, ev Event) error
	Close() error
}

// NewPublisher dials the broker when a URL is configured. A dial failure is
// logged and downgraded to the logging publisher so the API still starts.
func NewPublisher(cfg config.AMQP, log *logrus.Logger) Publisher {
	entry := log.WithField("component", "publisher")
	if cfg.URL == "" {
		return &LogPublisher{log: entry}
	}
	p, err := DialAMQP(cfg.URL, cfg.Exchange, entry)
	if err != nil {
		entry.WithError(err).Warn("broker unavailable, events will only be logged")
		return &LogPublisher{log: entry}
	}
	return p
}

type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *logrus.Entry
}

func DialAMQP(url, exchange string, log *logrus.Entry) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	log.WithField("exchange", exchange).Info("connected to broker")
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    ev.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.log.WithField("routing_key", routingKey).Debug("event published")
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// LogPublisher records events in the log only.
type LogPublisher struct {
	log *logrus.Entry
}

func (p *LogPublisher) Publish(_ context.Context, routingKey string, ev Event) error {
	p.log.WithFields(logrus.Fields{
		"routing_key": routingKey,
		"type":        ev.Type,
		"entity_id":   ev.EntityID,
	}).Info("event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Method names the delivery channel of p for audit columns.
func Method(p Publisher) string {
	if _, ok := p.(*AMQPPublisher); ok {
		return "amqp"
	}
	return "log"
}
