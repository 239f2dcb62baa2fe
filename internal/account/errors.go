package account

import "errors"

var (
	ErrDuplicateAccount   = errors.New("an account with this mobile number or email already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrVerification       = errors.New("verification failed")
	ErrNoSuchAddress      = errors.New("no address of the given type")
	ErrNoOrders           = errors.New("no orders found")
	ErrNoRecords          = errors.New("no customer records found")
	ErrInvalidCredentials = errors.New("invalid mobile number or password")
)
