package events

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange               = "ecommerce.events"
	CustomerRegisteredRoutingKey = "customer.registered.v1"
	CustomerDeletedRoutingKey    = "customer.deleted.v1"
	OrderCreatedRoutingKey       = "order.created.v1"
	OrderCompletedRoutingKey     = "order.completed.v1"
	PaymentFailedRoutingKey      = "payment.failed.v1"
	customerServiceName          = "customer-service-go"
)

func serviceQueue(serviceName, routingKey string) string {
	return serviceName + "." + routingKey
}

func customerQueueName(routingKey string) string {
	return serviceQueue(customerServiceName, routingKey)
}

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

// Dial connects to RabbitMQ.
func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}
