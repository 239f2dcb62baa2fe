package account

import "github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"

type Registration struct {
	FirstName string `json:"firstName" validate:"required,max=64"`
	LastName  string `json:"lastName" validate:"required,max=64"`
	MobileNo  string `json:"mobileNo" validate:"required,numeric,len=10"`
	EmailID   string `json:"emailId" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type Credentials struct {
	MobileNo string `json:"mobileNo" validate:"required,numeric,len=10"`
	Password string `json:"password" validate:"required"`
}

// PasswordUpdate confirms the account's mobile number and carries the new password.
type PasswordUpdate struct {
	MobileNo string `json:"mobileNo" validate:"required,numeric,len=10"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Update carries a partial profile. Nil fields are left unchanged.
type Update struct {
	FirstName  *string              `json:"firstName" validate:"omitempty,max=64"`
	LastName   *string              `json:"lastName" validate:"omitempty,max=64"`
	MobileNo   *string              `json:"mobileNo" validate:"omitempty,numeric,len=10"`
	EmailID    *string              `json:"emailId" validate:"omitempty,email"`
	Password   *string              `json:"password" validate:"omitempty,min=8,max=72"`
	Addresses  []customer.Address   `json:"addresses" validate:"omitempty,dive"`
	CreditCard *customer.CreditCard `json:"creditCard"`
}

type ContactUpdate struct {
	MobileNo *string `json:"mobileNo" validate:"omitempty,numeric,len=10"`
	EmailID  *string `json:"emailId" validate:"omitempty,email"`
}
