package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/correlation"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/metrics"
)

const producerName = "customer-service"

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher emits customer lifecycle events to the events exchange.
type Publisher struct {
	ch     Channel
	close  func() error
	seq    Sequencer
	now    func() time.Time
	logger logrus.FieldLogger
}

// NewPublisher opens a channel on conn and declares the events exchange.
func NewPublisher(conn *amqp.Connection, seq Sequencer, logger logrus.FieldLogger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	p := newPublisher(ch, seq, logger)
	p.close = ch.Close
	return p, nil
}

func newPublisher(ch Channel, seq Sequencer, logger logrus.FieldLogger) *Publisher {
	return &Publisher{
		ch:     ch,
		seq:    seq,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.WithField("component", "publisher"),
	}
}

func (p *Publisher) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

func (p *Publisher) CustomerRegistered(ctx context.Context, c *customer.Customer) error {
	meta, err := p.meta(ctx, c.ID)
	if err != nil {
		return err
	}
	body, err := json.Marshal(newCustomerRegisteredEvent(meta, c))
	if err != nil {
		return fmt.Errorf("marshal CustomerRegistered: %w", err)
	}
	return p.publishJSON(ctx, CustomerRegisteredRoutingKey, body)
}

func (p *Publisher) CustomerDeleted(ctx context.Context, customerID int64) error {
	meta, err := p.meta(ctx, customerID)
	if err != nil {
		return err
	}
	body, err := json.Marshal(newCustomerDeletedEvent(meta, customerID))
	if err != nil {
		return fmt.Errorf("marshal CustomerDeleted: %w", err)
	}
	return p.publishJSON(ctx, CustomerDeletedRoutingKey, body)
}

func (p *Publisher) meta(ctx context.Context, customerID int64) (EventMeta, error) {
	seq, err := p.seq.NextSequence(ctx, strconv.FormatInt(customerID, 10))
	if err != nil {
		return EventMeta{}, fmt.Errorf("reserve sequence: %w", err)
	}

	cid := correlation.ID(ctx)
	if cid == "" {
		cid = uuid.NewString()
	}
	return EventMeta{
		CorrelationID: cid,
		Producer:      producerName,
		Sequence:      seq,
		OccurredAt:    p.now(),
	}, nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(routingKey, "error").Inc()
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	metrics.EventsPublished.WithLabelValues(routingKey, "ok").Inc()
	p.logger.WithField("routing_key", routingKey).Debug("event published")
	return nil
}
