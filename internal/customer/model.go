package customer

import (
	"errors"
	"time"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/order"
)

var (
	ErrNotFound  = errors.New("customer not found")
	ErrDuplicate = errors.New("mobile number or email already registered")
)

type Address struct {
	ID           *int64 `json:"addressId,omitempty"`
	Type         string `json:"addressType" validate:"required,max=32"`
	StreetNo     string `json:"streetNo"`
	BuildingName string `json:"buildingName"`
	Locality     string `json:"locality"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode" validate:"omitempty,numeric,max=10"`
}

type CreditCard struct {
	CardNumber   string `json:"cardNumber" validate:"required,numeric,min=12,max=19"`
	CardValidity string `json:"cardValidity" validate:"required"`
	CardCVV      string `json:"cardCVV" validate:"required,numeric,min=3,max=4"`
}

// Cart is created together with its customer and lives as long as it.
type Cart struct {
	ID         int64     `json:"cartId"`
	CustomerID int64     `json:"customerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Customer struct {
	ID           int64         `json:"customerId"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	MobileNo     string        `json:"mobileNo"`
	EmailID      string        `json:"emailId"`
	PasswordHash string        `json:"-"`
	Addresses    []Address     `json:"addresses"`
	CreditCard   *CreditCard   `json:"creditCard,omitempty"`
	Cart         Cart          `json:"cart"`
	Orders       []order.Order `json:"orders"`
	CreatedOn    time.Time     `json:"createdOn"`
}

// Clone returns a deep copy of c.
func (c *Customer) Clone() *Customer {
	out := *c
	if c.Addresses != nil {
		out.Addresses = make([]Address, len(c.Addresses))
		for i, a := range c.Addresses {
			if a.ID != nil {
				id := *a.ID
				a.ID = &id
			}
			out.Addresses[i] = a
		}
	}
	if c.CreditCard != nil {
		card := *c.CreditCard
		out.CreditCard = &card
	}
	if c.Orders != nil {
		out.Orders = append([]order.Order(nil), c.Orders...)
	}
	return &out
}
