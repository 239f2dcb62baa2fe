package seller

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("seller not found")
	ErrDuplicate = errors.New("mobile number or email already registered")
)

type Seller struct {
	ID           int64     `json:"sellerId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	MobileNo     string    `json:"mobileNo"`
	EmailID      string    `json:"emailId"`
	PasswordHash string    `json:"-"`
	CreatedOn    time.Time `json:"createdOn"`
}
