package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/dedup"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/order"
)

const (
	orderCreatedEventName   = "OrderCreated"
	orderCompletedEventName = "OrderCompleted"
	paymentFailedEventName  = "PaymentFailed"
)

// OrderCreated is the legacy bare event and the v1 payload published by order-service.
type OrderCreated struct {
	EventType   string    `json:"eventType,omitempty"`
	OrderID     string    `json:"orderId"`
	CartID      string    `json:"cartId,omitempty"`
	UserID      string    `json:"userId"`
	TotalAmount float64   `json:"totalAmount"`
	Timestamp   time.Time `json:"timestamp"`
}

// OrderStatusChanged covers OrderCompleted and PaymentFailed, which share their identifying fields.
type OrderStatusChanged struct {
	EventType string    `json:"eventType,omitempty"`
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// position locates an enveloped event within its partition.
type position struct {
	partitionKey string
	sequence     int64
}

// decodeEvent fills dst from either an envelope named eventName or a legacy bare
// body. The returned position is nil unless the envelope carries a sequence.
func decodeEvent(body []byte, eventName string, dst any) (*position, error) {
	env, enveloped, err := parseEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", eventName, err)
	}
	if !enveloped {
		if err := json.Unmarshal(body, dst); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", eventName, err)
		}
		return nil, nil
	}

	if err := env.Validate(eventName, eventVersion); err != nil {
		return nil, fmt.Errorf("invalid %s envelope: %w", eventName, err)
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", eventName, err)
	}
	if env.Sequence == nil {
		return nil, nil
	}
	return &position{partitionKey: env.PartitionKey, sequence: *env.Sequence}, nil
}

// OrderCreatedHandler records an order reference on the customer that placed it.
// Redelivered orders are ignored. Orders for unknown customers are dropped.
func OrderCreatedHandler(repo order.Repository, logger logrus.FieldLogger) HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		var ev OrderCreated
		if _, err := decodeEvent(body, orderCreatedEventName, &ev); err != nil {
			return err
		}
		if ev.OrderID == "" {
			return fmt.Errorf("missing orderId")
		}
		customerID, err := strconv.ParseInt(ev.UserID, 10, 64)
		if err != nil {
			return fmt.Errorf("userId %q is not a customer id: %w", ev.UserID, err)
		}

		orderedAt := ev.Timestamp
		if orderedAt.IsZero() {
			orderedAt = time.Now().UTC()
		}

		log := logger.WithFields(logrus.Fields{"order_id": ev.OrderID, "customer_id": customerID})
		inserted, err := repo.Record(ctx, &order.Order{
			ID:          ev.OrderID,
			CustomerID:  customerID,
			TotalAmount: ev.TotalAmount,
			Status:      order.StatusPending,
			OrderedAt:   orderedAt,
		})
		if err != nil {
			if errors.Is(err, order.ErrUnknownCustomer) {
				log.Warn("dropping order for unknown customer")
				return nil
			}
			return fmt.Errorf("record order: %w", err)
		}

		if !inserted {
			log.Info("skip duplicate order")
			return nil
		}
		log.Info("order recorded")
		return nil
	}
}

// orderStatusConsumer names the checkpoint shared by all status events, so a
// late OrderCompleted cannot overwrite a newer PaymentFailed for the same order.
var orderStatusConsumer = customerQueueName("order-status")

// orderStatusMu serializes check, write and advance across the status consumers.
var orderStatusMu sync.Mutex

// OrderStatusHandler sets the status of a recorded order when eventName arrives.
// Sequenced events at or below the last applied one for the order are skipped.
// The checkpoint moves only after the status is stored, so a failed write is
// applied when the event is delivered again.
func OrderStatusHandler(repo order.Repository, checkpoints dedup.Repository, eventName string, status order.Status, logger logrus.FieldLogger) HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		var ev OrderStatusChanged
		pos, err := decodeEvent(body, eventName, &ev)
		if err != nil {
			return err
		}
		if ev.OrderID == "" {
			return fmt.Errorf("missing orderId")
		}

		orderStatusMu.Lock()
		defer orderStatusMu.Unlock()

		log := logger.WithFields(logrus.Fields{"order_id": ev.OrderID, "status": status})
		if pos != nil {
			last, ok, err := checkpoints.LastSequence(ctx, orderStatusConsumer, pos.partitionKey)
			if err != nil {
				return err
			}
			if ok && pos.sequence <= last {
				log.WithFields(logrus.Fields{"sequence": pos.sequence, "last_sequence": last}).Info("skip stale order status")
				return nil
			}
		}

		if err := repo.UpdateStatus(ctx, ev.OrderID, status); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if pos != nil {
			if _, err := checkpoints.Advance(ctx, orderStatusConsumer, pos.partitionKey, pos.sequence); err != nil {
				return err
			}
		}
		log.Info("order status updated")
		return nil
	}
}

// OrderBindings returns the bindings that keep customer order references current.
func OrderBindings(repo order.Repository, checkpoints dedup.Repository, logger logrus.FieldLogger) []Binding {
	return []Binding{
		{RoutingKey: OrderCreatedRoutingKey, Handler: OrderCreatedHandler(repo, logger)},
		{RoutingKey: OrderCompletedRoutingKey, Handler: OrderStatusHandler(repo, checkpoints, orderCompletedEventName, order.StatusCompleted, logger)},
		{RoutingKey: PaymentFailedRoutingKey, Handler: OrderStatusHandler(repo, checkpoints, paymentFailedEventName, order.StatusPaymentFailed, logger)},
	}
}
