package events

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// HandlerFunc processes one message body. Returning an error NACKs the
// message without requeue.
type HandlerFunc func(ctx context.Context, body []byte) error

// Binding ties a routing key on the events exchange to a handler. The queue
// is named after this service and the routing key.
type Binding struct {
	RoutingKey string
	Handler    HandlerFunc
}

// StartConsumers declares and binds one durable queue per binding and
// consumes each on its own goroutine until ctx is cancelled.
func StartConsumers(ctx context.Context, conn *amqp.Connection, logger logrus.FieldLogger, bindings ...Binding) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		return fmt.Errorf("declare events exchange: %w", err)
	}

	for _, b := range bindings {
		queue := customerQueueName(b.RoutingKey)

		if _, err := ch.QueueDeclare(
			queue,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,
		); err != nil {
			return fmt.Errorf("queue declare %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, b.RoutingKey, EventsExchange, false, nil); err != nil {
			return fmt.Errorf("queue bind %s: %w", queue, err)
		}

		msgs, err := ch.Consume(
			queue,
			customerServiceName+"."+b.RoutingKey, // consumer tag
			false,                                // autoAck
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("consume %s: %w", queue, err)
		}

		go consume(ctx, msgs, b.Handler, logger.WithField("queue", queue))
	}

	go func() {
		<-ctx.Done()
		_ = ch.Close()
	}()
	return nil
}

func consume(ctx context.Context, msgs <-chan amqp.Delivery, handle HandlerFunc, logger logrus.FieldLogger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping consumer")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("messages channel closed")
				return
			}

			if err := handle(ctx, msg.Body); err != nil {
				logger.WithError(err).Warn("handle message failed")
				if nackErr := msg.Nack(false, false); nackErr != nil && !errors.Is(nackErr, amqp.ErrClosed) {
					logger.WithError(nackErr).Error("nack failed")
				}
				continue
			}
			if err := msg.Ack(false); err != nil {
				logger.WithError(err).Error("ack failed")
			}
		}
	}
}
