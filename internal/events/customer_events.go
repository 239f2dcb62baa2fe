package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"
)

const (
	customerRegisteredEventName = "CustomerRegistered"
	customerRegisteredSchema    = "contracts/events/customer/CustomerRegistered.v1.payload.schema.json"
	customerDeletedEventName    = "CustomerDeleted"
	customerDeletedSchema       = "contracts/events/customer/CustomerDeleted.v1.payload.schema.json"
	eventVersion                = 1
)

type CustomerRegisteredPayload struct {
	CustomerID   string    `json:"customerId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	MobileNo     string    `json:"mobileNo"`
	EmailID      string    `json:"emailId"`
	CartID       string    `json:"cartId"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type CustomerDeletedPayload struct {
	CustomerID string    `json:"customerId"`
	DeletedAt  time.Time `json:"deletedAt"`
}

type (
	CustomerRegisteredEvent = EventEnvelope[CustomerRegisteredPayload]
	CustomerDeletedEvent    = EventEnvelope[CustomerDeletedPayload]
)

// EventMeta carries correlation context for emitted events.
type EventMeta struct {
	CorrelationID string
	Producer      string
	Sequence      int64
	OccurredAt    time.Time
}

func newCustomerRegisteredEvent(meta EventMeta, c *customer.Customer) CustomerRegisteredEvent {
	key := strconv.FormatInt(c.ID, 10)
	seq := meta.Sequence
	return CustomerRegisteredEvent{
		EventName:     customerRegisteredEventName,
		EventVersion:  eventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		Producer:      meta.Producer,
		PartitionKey:  key,
		Sequence:      &seq,
		OccurredAt:    meta.OccurredAt,
		Schema:        customerRegisteredSchema,
		Payload: CustomerRegisteredPayload{
			CustomerID:   key,
			FirstName:    c.FirstName,
			LastName:     c.LastName,
			MobileNo:     c.MobileNo,
			EmailID:      c.EmailID,
			CartID:       strconv.FormatInt(c.Cart.ID, 10),
			RegisteredAt: c.CreatedOn,
		},
	}
}

func newCustomerDeletedEvent(meta EventMeta, customerID int64) CustomerDeletedEvent {
	key := strconv.FormatInt(customerID, 10)
	seq := meta.Sequence
	return CustomerDeletedEvent{
		EventName:     customerDeletedEventName,
		EventVersion:  eventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		Producer:      meta.Producer,
		PartitionKey:  key,
		Sequence:      &seq,
		OccurredAt:    meta.OccurredAt,
		Schema:        customerDeletedSchema,
		Payload: CustomerDeletedPayload{
			CustomerID: key,
			DeletedAt:  meta.OccurredAt,
		},
	}
}
